package amqp

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Result statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ReportRequestMessage asks a worker to build one report.
// Backend and Order fall back to the worker's configuration when empty.
type ReportRequestMessage struct {
	ID         string    `json:"id" validate:"required,max=128"`
	InputPath  string    `json:"input_path" validate:"required"`
	OutputPath string    `json:"output_path,omitempty" validate:"required_if=Backend csv,required_if=Backend xlsx"`
	Backend    string    `json:"backend,omitempty" validate:"omitempty,oneof=csv xlsx sqlite sheets memory"`
	Order      string    `json:"order,omitempty" validate:"omitempty,caseinsensitiveoneof=asc desc ascending descending"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReportResultMessage reports the outcome of a request.
type ReportResultMessage struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Records    int       `json:"records"`
	Rows       int       `json:"rows"`
	Skipped    int       `json:"skipped"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("caseinsensitiveoneof", caseInsensitiveOneOf)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func caseInsensitiveOneOf(fl validator.FieldLevel) bool {
	val := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	for _, v := range strings.Fields(strings.ToLower(fl.Param())) {
		if val == v {
			return true
		}
	}
	return false
}

// NewReportRequestMessage creates a request stamped with the current time
func NewReportRequestMessage(id, inputPath, outputPath, backend, order string) *ReportRequestMessage {
	return &ReportRequestMessage{
		ID:         id,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Backend:    backend,
		Order:      order,
		Timestamp:  time.Now(),
	}
}

// Validate checks the request against its field rules
func (m *ReportRequestMessage) Validate() error {
	if err := validate.Struct(m); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, len(ve))
			for i, fe := range ve {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
			}
			return fmt.Errorf("invalid report request: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid report request: %w", err)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportRequestMessageFromJSON decodes and validates a request
func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToJSON converts the message to JSON bytes
func (m *ReportResultMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportResultMessageFromJSON decodes a result message
func ReportResultMessageFromJSON(data []byte) (*ReportResultMessage, error) {
	var msg ReportResultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
