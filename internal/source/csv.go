package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"bordercross/internal/core"
)

// ctxCheckEvery bounds how many rows are read between cancellation checks.
const ctxCheckEvery = 4096

// CSV reads records from a comma-separated file with a header row.
type CSV struct {
	Path string
}

func (c CSV) Records(ctx context.Context) ([]core.Record, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, c.Path)
		}
		return nil, fmt.Errorf("open source %s: %w", c.Path, err)
	}
	defer f.Close()

	recs, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.Path, err)
	}
	return recs, nil
}

// ReadCSV parses CSV data from r. An input without a header yields no records.
func ReadCSV(ctx context.Context, r io.Reader) ([]core.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	schema, err := NewSchema(header)
	if err != nil {
		return nil, err
	}

	var recs []core.Record
	for row := 1; ; row++ {
		if row%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		rec, err := schema.Record(row, cells)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
