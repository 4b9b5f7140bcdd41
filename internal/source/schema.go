// Package source loads border-crossing records from tabular inputs.
//
// Columns are located by header name, so column order is free and extra
// columns are ignored. A missing required column or a row too short to
// hold one is reported as core.ErrMalformedSchema.
package source

import (
	"context"
	"fmt"
	"strings"

	"bordercross/internal/core"
)

// Source yields the complete set of input records for one run.
type Source interface {
	Records(ctx context.Context) ([]core.Record, error)
}

// Schema maps the required columns to their positions in a header row.
type Schema struct {
	border  int
	date    int
	measure int
	value   int
}

// NewSchema resolves the required columns of header.
func NewSchema(header []string) (Schema, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	lookup := func(col string) (int, error) {
		i, ok := idx[col]
		if !ok {
			return 0, fmt.Errorf("%w: header: missing field %q", core.ErrMalformedSchema, col)
		}
		return i, nil
	}

	var s Schema
	var err error
	if s.border, err = lookup(core.ColumnBorder); err != nil {
		return Schema{}, err
	}
	if s.date, err = lookup(core.ColumnDate); err != nil {
		return Schema{}, err
	}
	if s.measure, err = lookup(core.ColumnMeasure); err != nil {
		return Schema{}, err
	}
	if s.value, err = lookup(core.ColumnValue); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// Record extracts the required fields of one data row. row is 1-based.
func (s Schema) Record(row int, cells []string) (core.Record, error) {
	field := func(i int, col string) (string, error) {
		if i >= len(cells) {
			return "", fmt.Errorf("%w: row %d: missing field %q", core.ErrMalformedSchema, row, col)
		}
		return cells[i], nil
	}

	var r core.Record
	var err error
	r.Row = row
	if r.Border, err = field(s.border, core.ColumnBorder); err != nil {
		return core.Record{}, err
	}
	if r.Date, err = field(s.date, core.ColumnDate); err != nil {
		return core.Record{}, err
	}
	if r.Measure, err = field(s.measure, core.ColumnMeasure); err != nil {
		return core.Record{}, err
	}
	if r.Value, err = field(s.value, core.ColumnValue); err != nil {
		return core.Record{}, err
	}
	return r, nil
}

// Static serves a fixed set of records.
type Static []core.Record

func (s Static) Records(_ context.Context) ([]core.Record, error) {
	return append([]core.Record(nil), s...), nil
}
