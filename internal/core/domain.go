package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Ascending  Order = "asc"
	Descending Order = "desc"

	// DefaultLayout is the timestamp layout of the Date column, e.g. "03/31/2019 12:00:00 AM".
	// Output dates are always rendered in this zero-padded form.
	DefaultLayout = "01/02/2006 03:04:05 PM"

	// LenientLayout parses DefaultLayout input with or without zero padding
	// of month, day and hour, e.g. "3/1/2019 1:00:00 AM".
	LenientLayout = "1/2/2006 3:04:05 PM"
)

// Column names of the input and output schema.
const (
	ColumnBorder  = "Border"
	ColumnDate    = "Date"
	ColumnMeasure = "Measure"
	ColumnValue   = "Value"
	ColumnAverage = "Average"
)

// Header is the fixed output header row.
var Header = []string{ColumnBorder, ColumnDate, ColumnMeasure, ColumnValue, ColumnAverage}

type (
	Order string

	// Record is one raw input row. Row is the 1-based data row number.
	Record struct {
		Row     int
		Border  string
		Date    string
		Measure string
		Value   string
	}

	// MonthKey is a calendar month; all records of the same month collapse to it.
	MonthKey struct {
		Year  int
		Month time.Month
	}

	// Key addresses one aggregate cell.
	Key struct {
		Month   MonthKey
		Border  string
		Measure string
	}

	Cell struct {
		Total   int64
		Average int64
	}

	// Row is one enumerated aggregate cell, ready for emission.
	Row struct {
		Border  string
		Month   MonthKey
		Measure string
		Total   int64
		Average int64
		Date    string
	}

	// Diagnostic describes an input row that was skipped.
	Diagnostic struct {
		Row   int
		Field string
		Value string
		Err   error
	}
)

var (
	ErrSourceNotFound  = errors.New("source not found")
	ErrMalformedSchema = errors.New("malformed schema")
	ErrInvalidValue    = errors.New("invalid value")
	ErrInvalidDate     = errors.New("invalid date")
	ErrFinalized       = errors.New("aggregate already finalized")
	ErrInvalidOrder    = errors.New("invalid sort order")
)

// ParseOrder accepts "asc"/"ascending" and "desc"/"descending", case-insensitively.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrder, s)
}

func (o Order) IsValid() bool {
	return o == Ascending || o == Descending
}

// NewMonthKey truncates t to its calendar month.
func NewMonthKey(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Time returns midnight UTC on the first day of the month.
func (m MonthKey) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Compare orders months chronologically.
func (m MonthKey) Compare(o MonthKey) int {
	switch {
	case m.Year < o.Year:
		return -1
	case m.Year > o.Year:
		return 1
	case m.Month < o.Month:
		return -1
	case m.Month > o.Month:
		return 1
	}
	return 0
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Record returns the row in output column order.
func (r Row) Record() []string {
	return []string{
		r.Border,
		r.Date,
		r.Measure,
		strconv.FormatInt(r.Total, 10),
		strconv.FormatInt(r.Average, 10),
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("row %d: %s %q: %v", d.Row, d.Field, d.Value, d.Err)
}
