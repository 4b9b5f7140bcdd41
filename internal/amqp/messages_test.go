package amqp

import (
	"strings"
	"testing"
	"time"
)

func TestNewReportRequestMessage(t *testing.T) {
	msg := NewReportRequestMessage("job-1", "in.csv", "out.csv", "csv", "asc")

	if msg.ID != "job-1" || msg.InputPath != "in.csv" || msg.Backend != "csv" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Error("NewReportRequestMessage() Timestamp should be recent")
	}
	if err := msg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestReportRequestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     ReportRequestMessage
		wantErr string
	}{
		{"minimal", ReportRequestMessage{ID: "a", InputPath: "in.csv"}, ""},
		{"sqlite without output", ReportRequestMessage{ID: "a", InputPath: "in.csv", Backend: "sqlite"}, ""},
		{"order is case insensitive", ReportRequestMessage{ID: "a", InputPath: "in.csv", Order: "Ascending"}, ""},
		{"missing id", ReportRequestMessage{InputPath: "in.csv"}, "id (required)"},
		{"xlsx needs output", ReportRequestMessage{ID: "a", InputPath: "in.csv", Backend: "xlsx"}, "output_path (required_if)"},
		{"bad backend", ReportRequestMessage{ID: "a", InputPath: "in.csv", Backend: "s3"}, "backend (oneof)"},
		{"bad order", ReportRequestMessage{ID: "a", InputPath: "in.csv", Order: "random"}, "order (caseinsensitiveoneof)"},
		{"id too long", ReportRequestMessage{ID: strings.Repeat("x", 129), InputPath: "in.csv"}, "id (max)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestReportRequestMessage_JSON(t *testing.T) {
	msg := &ReportRequestMessage{
		ID:        "job-7",
		InputPath: "Border_Crossing_Entry_Data.csv",
		Backend:   "sqlite",
		Order:     "desc",
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if strings.Contains(string(jsonBytes), "output_path") {
		t.Errorf("empty output_path should be omitted: %s", jsonBytes)
	}

	parsed, err := ReportRequestMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ReportRequestMessageFromJSON() error = %v", err)
	}
	if parsed.ID != msg.ID || parsed.Backend != msg.Backend || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
}

func TestReportRequestMessage_InvalidJSON(t *testing.T) {
	if _, err := ReportRequestMessageFromJSON([]byte(`{"id": 5}`)); err == nil {
		t.Error("ReportRequestMessageFromJSON() should fail with a numeric id")
	}
}

func TestReportResultMessage_JSON(t *testing.T) {
	msg := &ReportResultMessage{
		ID:         "job-7",
		Status:     StatusFailed,
		Records:    10,
		Skipped:    2,
		DurationMS: 15,
		Error:      "source not found",
		Timestamp:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := ReportResultMessageFromJSON(data)
	if err != nil {
		t.Fatalf("ReportResultMessageFromJSON() error = %v", err)
	}
	if parsed.ID != msg.ID || parsed.Status != msg.Status || parsed.Records != msg.Records ||
		parsed.Skipped != msg.Skipped || parsed.Error != msg.Error || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
}
