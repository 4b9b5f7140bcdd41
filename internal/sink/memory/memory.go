package memory

import (
	"context"
	"iter"
	"sync"

	"bordercross/internal/core"
	ports "bordercross/internal/sink"
)

var _ ports.ReportWriter = (*Store)(nil)

// Store keeps the most recent report in memory.
type Store struct {
	mu      sync.Mutex
	rows    []core.Row
	reports int
}

func New() *Store {
	return &Store{}
}

// WriteReport replaces the stored report with rows.
func (s *Store) WriteReport(ctx context.Context, rows iter.Seq[core.Row]) error {
	var out []core.Row
	for row := range rows {
		out = append(out, row)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = out
	s.reports++
	return nil
}

// Rows returns a copy of the last written report.
func (s *Store) Rows() []core.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Row(nil), s.rows...)
}

// Records returns the last report as it would be emitted, header first.
func (s *Store) Records() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, 0, len(s.rows)+1)
	out = append(out, append([]string(nil), core.Header...))
	for _, r := range s.rows {
		out = append(out, r.Record())
	}
	return out
}

// Reports returns how many reports have been written.
func (s *Store) Reports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports
}
