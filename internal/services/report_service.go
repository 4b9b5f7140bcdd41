package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"bordercross/internal/cache"
	"bordercross/internal/core"
	applog "bordercross/internal/log"
	ports "bordercross/internal/sink"
	"bordercross/internal/source"
	"bordercross/internal/trace"
)

// shardCheckEvery is how many records a shard accumulates between context checks.
const shardCheckEvery = 4096

// ReportServiceConfig holds configuration for the report service
type ReportServiceConfig struct {
	// Layout is the Date layout (default: core.DefaultLayout)
	Layout string

	// Shards is the number of partial aggregates built in parallel (default: 1)
	Shards int

	// ParseCacheSize bounds the Date parse cache; 0 disables it (default: 4096)
	ParseCacheSize int

	// SkipInvalidValues skips rows with a malformed Value instead of failing
	SkipInvalidValues bool
}

// DefaultReportServiceConfig returns sensible defaults
func DefaultReportServiceConfig() ReportServiceConfig {
	return ReportServiceConfig{
		Layout:         core.DefaultLayout,
		Shards:         1,
		ParseCacheSize: 4096,
	}
}

// Job is one report: where records come from, where rows go, and in which order.
// An empty Order means descending.
type Job struct {
	Source source.Source
	Writer ports.ReportWriter
	Order  core.Order
}

// Result summarises a finished report.
type Result struct {
	Records     int
	Rows        int
	Months      int
	Diagnostics []core.Diagnostic
	Duration    time.Duration
}

// Skipped returns the number of records dropped as malformed.
func (r *Result) Skipped() int {
	return len(r.Diagnostics)
}

// ReportService runs the load, accumulate, derive and write phases of a report.
type ReportService struct {
	config ReportServiceConfig
	logger *slog.Logger
	parser core.MonthParser
	lru    *cache.LRUCache[core.MonthKey]
}

func NewReportService(config ReportServiceConfig, logger *slog.Logger) *ReportService {
	if config.Shards < 1 {
		config.Shards = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &ReportService{config: config, logger: logger}
	layout := core.NewLayoutParser(config.Layout)
	if config.ParseCacheSize > 0 {
		// shared by all shards; the LRU is safe for concurrent use
		s.lru = cache.NewLRUCache[core.MonthKey](config.ParseCacheSize, 0)
		s.parser = core.NewCachingParser(layout, s.lru)
	} else {
		s.parser = layout
	}
	return s
}

// CacheStats reports the Date parse cache counters. Zero when caching is disabled.
func (s *ReportService) CacheStats() cache.Stats {
	if s.lru == nil {
		return cache.Stats{}
	}
	return s.lru.Stats()
}

// Run executes a job end to end.
func (s *ReportService) Run(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()

	order := job.Order
	if order == "" {
		order = core.Descending
	}
	if !order.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidOrder, order)
	}
	if job.Source == nil || job.Writer == nil {
		return nil, errors.New("report job needs a source and a writer")
	}

	logger := trace.Logger(ctx, s.logger)

	records, err := job.Source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	logger.DebugContext(ctx, "Records loaded", applog.FieldRecords, len(records))

	engine, err := s.Aggregate(ctx, records)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := job.Writer.WriteReport(ctx, engine.Rows(order)); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	res := &Result{
		Records:     len(records),
		Rows:        engine.Len(),
		Months:      len(engine.Months()),
		Diagnostics: engine.Diagnostics(),
		Duration:    time.Since(start),
	}

	fields := applog.NewFields().
		WithReport(res.Records, res.Rows, res.Skipped(), res.Duration.Milliseconds())
	fields[applog.FieldOrder] = string(order)
	fields[applog.FieldShards] = s.config.Shards
	fields[applog.FieldMonths] = res.Months
	logger.InfoContext(ctx, "Report completed", fields.ToSlice()...)

	if s.lru != nil {
		st := s.lru.Stats()
		logger.DebugContext(ctx, "Date parse cache",
			"hits", st.Hits, "misses", st.Misses, "hit_ratio", st.HitRatio())
	}

	return res, nil
}

// Aggregate accumulates records and derives running averages. The returned
// engine is finalized and ready for enumeration.
func (s *ReportService) Aggregate(ctx context.Context, records []core.Record) (*core.Engine, error) {
	engine, err := s.accumulate(ctx, records)
	if err != nil {
		return nil, err
	}
	if err := engine.DeriveRunningAverages(); err != nil {
		return nil, fmt.Errorf("derive averages: %w", err)
	}
	return engine, nil
}

func (s *ReportService) newEngine(logger *slog.Logger) *core.Engine {
	return core.NewEngine(core.Options{
		Layout:            s.config.Layout,
		Parser:            s.parser,
		SkipInvalidValues: s.config.SkipInvalidValues,
		Logger:            logger,
	})
}

func (s *ReportService) accumulate(ctx context.Context, records []core.Record) (*core.Engine, error) {
	logger := trace.Logger(ctx, s.logger)
	shards := min(s.config.Shards, max(len(records), 1))
	if shards == 1 {
		engine := s.newEngine(logger)
		if err := accumulateShard(ctx, engine, records); err != nil {
			return nil, err
		}
		return engine, nil
	}

	// Contiguous chunks keep each shard's records in input order; the first
	// failing shard therefore holds the first bad record overall.
	partials := make([]*core.Engine, shards)
	shardErrs := make([]error, shards)
	size := (len(records) + shards - 1) / shards

	g, gctx := errgroup.WithContext(ctx)
	for i := range shards {
		lo := min(i*size, len(records))
		hi := min(lo+size, len(records))
		partials[i] = s.newEngine(logger)
		g.Go(func() error {
			err := accumulateShard(gctx, partials[i], records[lo:hi])
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			shardErrs[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := firstError(shardErrs); err != nil {
		return nil, err
	}

	merged := partials[0]
	for _, p := range partials[1:] {
		if err := merged.Merge(p); err != nil {
			return nil, fmt.Errorf("merge shards: %w", err)
		}
	}
	logger.DebugContext(ctx, "Shards merged",
		applog.FieldShards, shards,
		applog.FieldRecords, len(records))
	return merged, nil
}

func accumulateShard(ctx context.Context, engine *core.Engine, records []core.Record) error {
	for i, rec := range records {
		if i%shardCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := engine.Accumulate(rec); err != nil {
			return err
		}
	}
	return nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
