package backend

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"bordercross/internal/sink/csvfile"
	"bordercross/internal/sink/google"
	"bordercross/internal/sink/memory"
	"bordercross/internal/source"
	"bordercross/internal/storage"
	"bordercross/internal/xlsx"
)

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	memory *memory.Store
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		memory: memory.New(),
	}
}

// Memory returns the store shared by every memory writer of this factory.
func (f *DefaultFactory) Memory() *memory.Store {
	return f.memory
}

// CreateWriter implements Factory.CreateWriter
func (f *DefaultFactory) CreateWriter(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		f.logger.Info("Initialized CSV backend", "output", config.OutputPath)
		return &Result{Writer: csvfile.NewFile(config.OutputPath)}, nil
	case XLSXBackend:
		f.logger.Info("Initialized xlsx backend", "output", config.OutputPath)
		return &Result{Writer: xlsx.NewWriter(config.OutputPath, "")}, nil
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &Result{Writer: f.memory}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Writer:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*Result, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &Result{Writer: cli}, nil
}

// OpenSource picks the record source for an input path by extension:
// .xlsx workbooks are read with excelize, anything else as CSV. layout is
// used to render Excel date cells.
func OpenSource(path, layout string) source.Source {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return xlsx.Source{Path: path, Layout: layout}
	}
	return source.CSV{Path: path}
}
