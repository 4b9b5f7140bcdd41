package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"bordercross/internal/amqp"
	"bordercross/internal/backend"
	appcli "bordercross/internal/cli"
	"bordercross/internal/config"
	applog "bordercross/internal/log"
	"bordercross/internal/services"
	"bordercross/internal/trace"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	appcli.LoadEnvFile()
	appcli.SetupLogger("info", "text")

	app := &cli.App{
		Name:      "bordercross",
		Usage:     "aggregate border-crossing entries into monthly totals with running averages",
		ArgsUsage: "<input.csv|input.xlsx> [output]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "order", Aliases: []string{"o"}, Usage: "output order: asc or desc (default from SORT_ORDER)"},
			&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Usage: "output backend: csv, xlsx, sqlite, sheets or memory (default from OUTPUT_BACKEND)"},
			&cli.IntFlag{Name: "shards", Usage: "parallel accumulation shards (default from ACCUMULATE_SHARDS)"},
			&cli.BoolFlag{Name: "skip-invalid-values", Usage: "skip rows with a malformed Value instead of failing"},
			&cli.BoolFlag{Name: "enqueue", Usage: "publish a report request to AMQP_EXCHANGE instead of running locally"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Report failed", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing input path (usage: %s %s)", c.App.Name, c.App.ArgsUsage)
	}
	input, output := c.Args().Get(0), c.Args().Get(1)

	cfg := appcli.LoadAndValidateConfig(slog.Default())
	if err := applyFlags(c, cfg); err != nil {
		return err
	}
	logger := appcli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, _ := appcli.GracefulShutdown(logger.Slog(), 10*time.Second, nil)
	ctx = trace.WithJobID(ctx, trace.GenerateJobID())

	if c.Bool("enqueue") {
		return enqueue(ctx, cfg, input, output)
	}

	order, _ := cfg.Order()
	bcfg, err := backend.FromAppConfig(cfg, output)
	if err != nil {
		return err
	}

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog())
	out, err := factory.CreateWriter(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warn("Failed to close output", "error", err)
		}
	}()

	svc := services.NewReportService(services.ReportServiceConfig{
		Layout:            cfg.DateLayout,
		Shards:            cfg.AccumulateShards,
		ParseCacheSize:    cfg.ParseCacheSize,
		SkipInvalidValues: cfg.SkipInvalidValues,
	}, logger.WithComponent(applog.ComponentReport).Slog())

	res, err := svc.Run(ctx, services.Job{
		Source: backend.OpenSource(input, bcfg.DateLayout),
		Writer: out.Writer,
		Order:  order,
	})
	if err != nil {
		return err
	}

	fields := applog.NewFields().
		WithReport(res.Records, res.Rows, res.Skipped(), res.Duration.Milliseconds())
	fields[applog.FieldInput] = input
	fields[applog.FieldOutput] = output
	fields[applog.FieldBackend] = bcfg.Type.String()
	trace.Logger(ctx, logger.Slog()).Info("Done", fields.ToSlice()...)
	return nil
}

// enqueue hands the job to bordercross-worker through the request queue.
func enqueue(ctx context.Context, cfg *config.Config, input, output string) error {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPResultQueue)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer client.Close()

	msg := amqp.NewReportRequestMessage(trace.JobID(ctx), input, output, cfg.OutputBackend, cfg.SortOrder)
	if err := client.PublishReportRequest(ctx, msg); err != nil {
		return err
	}
	trace.Logger(ctx, slog.Default()).Info("Report request enqueued",
		applog.FieldInput, input,
		applog.FieldOutput, output,
		applog.FieldBackend, msg.Backend)
	return nil
}

// applyFlags lets explicit flags override the environment and revalidates.
func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("order") {
		cfg.SortOrder = c.String("order")
	}
	if c.IsSet("backend") {
		cfg.OutputBackend = c.String("backend")
	}
	if c.IsSet("shards") {
		cfg.AccumulateShards = c.Int("shards")
	}
	if c.IsSet("skip-invalid-values") {
		cfg.SkipInvalidValues = c.Bool("skip-invalid-values")
	}
	return cfg.Validate()
}
