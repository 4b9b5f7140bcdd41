// Package xlsx reads border-crossing records from, and writes reports to,
// Excel workbooks.
//
// Dates are exchanged as text in the configured layout. A Date column
// holding real Excel date cells is read too: the serial is converted and
// rendered in the layout. Value and Average are written as numeric cells so
// spreadsheets can chart them directly.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"bordercross/internal/core"
	ports "bordercross/internal/sink"
	"bordercross/internal/source"
)

// DefaultSheet is used by Writer when no sheet name is given.
const DefaultSheet = "Border Crossings"

var (
	_ source.Source      = Source{}
	_ ports.ReportWriter = (*Writer)(nil)
)

// Source reads records from one sheet of a workbook. An empty Sheet means
// the first sheet; an empty Layout means core.DefaultLayout.
type Source struct {
	Path   string
	Sheet  string
	Layout string
}

func (s Source) Records(ctx context.Context) ([]core.Record, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, s.Path)
		}
		return nil, fmt.Errorf("open workbook %s: %w", s.Path, err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	// raw values keep date serials and unformatted numbers
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	schema, err := source.NewSchema(rows[0])
	if err != nil {
		return nil, err
	}

	layout := s.Layout
	if layout == "" {
		layout = core.DefaultLayout
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	width := len(rows[0])
	recs := make([]core.Record, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// GetRows drops trailing empty cells
		for len(cells) < width {
			cells = append(cells, "")
		}
		rec, err := schema.Record(i+1, cells)
		if err != nil {
			return nil, err
		}
		rec.Date = serialDate(rec.Date, layout, date1904)
		recs = append(recs, rec)
	}
	return recs, nil
}

// serialDate renders an Excel date serial in layout. Anything that is not a
// number is returned unchanged for the engine to parse.
func serialDate(v, layout string, date1904 bool) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial <= 0 {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return v
	}
	return t.Round(time.Second).Format(layout)
}

// Writer saves a report as a new workbook, replacing any existing file.
type Writer struct {
	Path  string
	Sheet string
}

func NewWriter(path, sheet string) *Writer {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Writer{Path: path, Sheet: sheet}
}

func (w *Writer) WriteReport(ctx context.Context, rows iter.Seq[core.Row]) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), w.Sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(w.Sheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]interface{}, len(core.Header))
	for i, h := range core.Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	n := 1
	for row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		n++
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		values := []interface{}{row.Border, row.Date, row.Measure, row.Total, row.Average}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", n-1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if dir := filepath.Dir(w.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := f.SaveAs(w.Path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	slog.InfoContext(ctx, "Report written", "path", w.Path, "backend", "xlsx", "rows", n-1)
	return nil
}
