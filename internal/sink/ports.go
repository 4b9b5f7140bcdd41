package sink

import (
	"context"
	"iter"

	"bordercross/internal/core"
)

// Ports for outbound report destinations.
type (
	// ReportWriter emits a complete report: the fixed header followed by rows.
	ReportWriter interface {
		WriteReport(ctx context.Context, rows iter.Seq[core.Row]) error
	}

	// WriterFunc adapts a function to ReportWriter.
	WriterFunc func(ctx context.Context, rows iter.Seq[core.Row]) error
)

func (f WriterFunc) WriteReport(ctx context.Context, rows iter.Seq[core.Row]) error {
	return f(ctx, rows)
}
