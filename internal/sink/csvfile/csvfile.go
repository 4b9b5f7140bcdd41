// Package csvfile writes reports as comma-separated files.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"bordercross/internal/core"
	ports "bordercross/internal/sink"
)

var (
	_ ports.ReportWriter = (*Writer)(nil)
	_ ports.ReportWriter = (*File)(nil)
)

// Writer streams a report to an io.Writer.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) WriteReport(ctx context.Context, rows iter.Seq[core.Row]) error {
	cw := csv.NewWriter(w.w)
	if err := cw.Write(core.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	n := 0
	for row := range rows {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := cw.Write(row.Record()); err != nil {
			return fmt.Errorf("write row %d: %w", n+1, err)
		}
		n++
	}

	cw.Flush()
	return cw.Error()
}

// File writes a report to a file path, creating parent directories.
// The file is replaced on every write.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) WriteReport(ctx context.Context, rows iter.Seq[core.Row]) error {
	if dir := filepath.Dir(f.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	out, err := os.Create(f.Path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	if err := NewWriter(out).WriteReport(ctx, rows); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	slog.InfoContext(ctx, "Report written", "path", f.Path, "backend", "csv")
	return nil
}
