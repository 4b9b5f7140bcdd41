package backend

import (
	"context"

	ports "bordercross/internal/sink"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the report writer and optional cleanup function
type Result struct {
	Writer  ports.ReportWriter
	Cleanup CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates report writers based on configuration
type Factory interface {
	CreateWriter(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for writer creation
type Config struct {
	Type BackendType

	// DateLayout renders Excel date cells of .xlsx inputs
	DateLayout string

	// csv and xlsx
	OutputPath string

	// sqlite
	SQLiteDBPath string

	// sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of output backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	XLSXBackend   BackendType = "xlsx"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, XLSXBackend, SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
