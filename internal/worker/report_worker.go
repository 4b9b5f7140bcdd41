package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bordercross/internal/amqp"
	"bordercross/internal/backend"
	"bordercross/internal/core"
	"bordercross/internal/services"
	"bordercross/internal/source"
	"bordercross/internal/trace"
)

// ReportRunner runs a report job.
type ReportRunner interface {
	Run(ctx context.Context, job services.Job) (*services.Result, error)
}

// ResultPublisher publishes the outcome of a request.
type ResultPublisher interface {
	PublishReportResult(ctx context.Context, msg *amqp.ReportResultMessage) error
}

// ReportWorker turns queued report requests into reports
type ReportWorker struct {
	runner    ReportRunner
	factory   backend.Factory
	publisher ResultPublisher
	defaults  backend.Config
	order     core.Order
	open      func(path, layout string) source.Source
}

// NewReportWorker creates a worker. defaults supplies the backend settings a
// request does not override; order is used when a request names none.
func NewReportWorker(runner ReportRunner, factory backend.Factory, publisher ResultPublisher, defaults backend.Config, order core.Order) *ReportWorker {
	return &ReportWorker{
		runner:    runner,
		factory:   factory,
		publisher: publisher,
		defaults:  defaults,
		order:     order,
		open:      backend.OpenSource,
	}
}

// HandleRequest processes a single report request from AMQP. Report
// failures are published as failed results and do not return an error;
// only a failure to publish the result does.
func (w *ReportWorker) HandleRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	start := time.Now()
	ctx = trace.WithJobID(ctx, msg.ID)
	logger := trace.Logger(ctx, slog.Default())

	result := &amqp.ReportResultMessage{ID: msg.ID, Status: amqp.StatusSucceeded}
	res, err := w.run(ctx, msg)
	if err != nil {
		logger.ErrorContext(ctx, "Report failed", "input", msg.InputPath, "error", err)
		result.Status = amqp.StatusFailed
		result.Error = err.Error()
	} else {
		result.Records = res.Records
		result.Rows = res.Rows
		result.Skipped = res.Skipped()
	}
	result.DurationMS = time.Since(start).Milliseconds()
	result.Timestamp = time.Now()

	if w.publisher == nil {
		logger.WarnContext(ctx, "No result publisher configured, dropping result", "status", result.Status)
		return nil
	}
	if err := w.publisher.PublishReportResult(ctx, result); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	return nil
}

func (w *ReportWorker) run(ctx context.Context, msg *amqp.ReportRequestMessage) (*services.Result, error) {
	order := w.order
	if msg.Order != "" {
		parsed, err := core.ParseOrder(msg.Order)
		if err != nil {
			return nil, err
		}
		order = parsed
	}

	cfg := w.defaults
	if msg.Backend != "" {
		cfg.Type = backend.BackendType(msg.Backend)
	}
	cfg.OutputPath = msg.OutputPath

	out, err := w.factory.CreateWriter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			trace.Logger(ctx, slog.Default()).WarnContext(ctx, "Failed to close writer", "error", cerr)
		}
	}()

	return w.runner.Run(ctx, services.Job{
		Source: w.open(msg.InputPath, w.defaults.DateLayout),
		Writer: out.Writer,
		Order:  order,
	})
}
