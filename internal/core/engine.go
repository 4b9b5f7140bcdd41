package core

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Options configures an Engine.
type Options struct {
	// Layout is the Date layout used for parsing and for output. Empty means
	// DefaultLayout, which also accepts unpadded and lower-case am/pm input.
	Layout string
	// Parser overrides layout-based parsing, e.g. with a CachingParser.
	Parser MonthParser
	// SkipInvalidValues extends the skip policy of malformed dates to
	// malformed Value cells. By default a bad value aborts the run.
	SkipInvalidValues bool
	Logger            *slog.Logger
}

// Engine owns the aggregate of one run. It is not safe for concurrent use;
// parallel accumulation uses one Engine per shard combined with Merge.
type Engine struct {
	format      LayoutParser
	parser      MonthParser
	skipValues  bool
	logger      *slog.Logger
	cells       map[Key]*Cell
	diagnostics []Diagnostic
	finalized   bool
}

func NewEngine(opts Options) *Engine {
	format := NewLayoutParser(opts.Layout)
	parser := opts.Parser
	if parser == nil {
		parser = format
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		format:     format,
		parser:     parser,
		skipValues: opts.SkipInvalidValues,
		logger:     logger,
		cells:      make(map[Key]*Cell),
	}
}

// Accumulate adds one record to the aggregate. Records with a malformed
// Date are skipped and reported through Diagnostics; a malformed Value is
// returned as ErrInvalidValue unless SkipInvalidValues is set.
func (e *Engine) Accumulate(rec Record) error {
	if e.finalized {
		return ErrFinalized
	}

	month, err := e.parser.ParseMonth(rec.Date)
	if err != nil {
		e.skip(Diagnostic{Row: rec.Row, Field: ColumnDate, Value: rec.Date, Err: err})
		return nil
	}

	value, err := strconv.ParseInt(strings.TrimSpace(rec.Value), 10, 64)
	if err != nil {
		if e.skipValues {
			e.skip(Diagnostic{Row: rec.Row, Field: ColumnValue, Value: rec.Value, Err: err})
			return nil
		}
		return fmt.Errorf("row %d: %w %q: %v", rec.Row, ErrInvalidValue, rec.Value, err)
	}

	e.cell(Key{Month: month, Border: rec.Border, Measure: rec.Measure}).Total += value
	return nil
}

// AccumulateAll accumulates records in order and stops at the first fatal error.
func (e *Engine) AccumulateAll(recs []Record) error {
	for _, rec := range recs {
		if err := e.Accumulate(rec); err != nil {
			return err
		}
	}
	return nil
}

// Merge folds the totals and diagnostics of a partial aggregate into e.
// Both engines must still be accumulating.
func (e *Engine) Merge(other *Engine) error {
	if e.finalized || other.finalized {
		return ErrFinalized
	}
	for key, c := range other.cells {
		e.cell(key).Total += c.Total
	}
	e.diagnostics = append(e.diagnostics, other.diagnostics...)
	return nil
}

// cell returns the cell for key, inserting a zero cell on first use.
func (e *Engine) cell(key Key) *Cell {
	c, ok := e.cells[key]
	if !ok {
		c = &Cell{}
		e.cells[key] = c
	}
	return c
}

func (e *Engine) skip(d Diagnostic) {
	e.diagnostics = append(e.diagnostics, d)
	e.logger.Warn("Skipping malformed record",
		"row", d.Row,
		"field", d.Field,
		"value", d.Value,
		"error", d.Err)
}

// Diagnostics returns the skipped records ordered by row.
func (e *Engine) Diagnostics() []Diagnostic {
	out := slices.Clone(e.diagnostics)
	slices.SortStableFunc(out, func(a, b Diagnostic) int { return a.Row - b.Row })
	return out
}

// Len returns the number of (month, border, measure) cells.
func (e *Engine) Len() int {
	return len(e.cells)
}

// Cell returns a copy of the cell stored at key.
func (e *Engine) Cell(key Key) (Cell, bool) {
	c, ok := e.cells[key]
	if !ok {
		return Cell{}, false
	}
	return *c, true
}

// Months returns the distinct months in ascending order.
func (e *Engine) Months() []MonthKey {
	months := lo.Uniq(lo.MapToSlice(e.cells, func(k Key, _ *Cell) MonthKey { return k.Month }))
	slices.SortFunc(months, MonthKey.Compare)
	return months
}

// Finalized reports whether running averages have been derived.
func (e *Engine) Finalized() bool {
	return e.finalized
}

// FormatMonth renders m in the engine's Date layout.
func (e *Engine) FormatMonth(m MonthKey) string {
	return e.format.Format(m)
}

func (e *Engine) sortedKeys(order Order) []Key {
	keys := lo.Keys(e.cells)
	if order == Descending {
		slices.SortFunc(keys, func(a, b Key) int { return compareKeys(b, a) })
	} else {
		slices.SortFunc(keys, compareKeys)
	}
	return keys
}

func compareKeys(a, b Key) int {
	if c := a.Month.Compare(b.Month); c != 0 {
		return c
	}
	if c := strings.Compare(a.Border, b.Border); c != 0 {
		return c
	}
	return strings.Compare(a.Measure, b.Measure)
}
