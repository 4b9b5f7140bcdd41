package backend

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bordercross/internal/config"
	"bordercross/internal/core"
	"bordercross/internal/sink/csvfile"
	"bordercross/internal/sink/memory"
	"bordercross/internal/source"
	"bordercross/internal/storage"
	"bordercross/internal/xlsx"
)

var sampleRows = []core.Row{
	{Border: "US-Mexico Border", Month: core.MonthKey{Year: 2019, Month: time.February}, Measure: "Pedestrians", Total: 7, Average: 0, Date: "02/01/2019 12:00:00 AM"},
}

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		assert.True(t, bt.IsValid(), bt)
	}
	assert.False(t, BackendType("parquet").IsValid())
	assert.Equal(t, []string{"csv", "xlsx", "sqlite", "sheets", "memory"}, GetBackendTypeStrings())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"csv with output", Config{Type: CSVBackend, OutputPath: "out.csv"}, false},
		{"csv without output", Config{Type: CSVBackend}, true},
		{"xlsx without output", Config{Type: XLSXBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"memory", Config{Type: MemoryBackend}, false},
		{"unknown", Config{Type: "nope"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil, "")
	require.Error(t, err)

	cfg := &config.Config{OutputBackend: "sqlite", SQLiteDBPath: "db.sqlite", GoogleSheetName: "Tab", DateLayout: "2006-01-02"}
	bc, err := FromAppConfig(cfg, "ignored.csv")
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, bc.Type)
	assert.Equal(t, "2006-01-02", bc.DateLayout)
	assert.Equal(t, "db.sqlite", bc.SQLiteDBPath)
	assert.Equal(t, "Tab", bc.GoogleSheetName)

	_, err = FromAppConfig(&config.Config{OutputBackend: "ftp"}, "")
	require.Error(t, err)
}

func TestFactory_CreateWriter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFactory(nil)

	t.Run("csv", func(t *testing.T) {
		res, err := f.CreateWriter(ctx, Config{Type: CSVBackend, OutputPath: filepath.Join(dir, "out.csv")})
		require.NoError(t, err)
		assert.IsType(t, &csvfile.File{}, res.Writer)
		require.NoError(t, res.Writer.WriteReport(ctx, slices.Values(sampleRows)))
		require.NoError(t, res.Close())

		data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "US-Mexico Border,02/01/2019 12:00:00 AM,Pedestrians,7,0")
	})

	t.Run("xlsx", func(t *testing.T) {
		res, err := f.CreateWriter(ctx, Config{Type: XLSXBackend, OutputPath: filepath.Join(dir, "out.xlsx")})
		require.NoError(t, err)
		assert.IsType(t, &xlsx.Writer{}, res.Writer)
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateWriter(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "reports.db")})
		require.NoError(t, err)
		repo, ok := res.Writer.(*storage.SQLiteRepository)
		require.True(t, ok)
		require.NoError(t, repo.WriteReport(ctx, slices.Values(sampleRows)))
		run, err := repo.LatestRun(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, run.RowCount)
		require.NoError(t, res.Close())
	})

	t.Run("memory is shared", func(t *testing.T) {
		res, err := f.CreateWriter(ctx, Config{Type: MemoryBackend})
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, res.Writer)
		require.NoError(t, res.Writer.WriteReport(ctx, slices.Values(sampleRows)))
		assert.Equal(t, sampleRows, f.Memory().Rows())
	})

	t.Run("sheets without credentials", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
		_, err := f.CreateWriter(ctx, Config{Type: SheetsBackend, GoogleSpreadsheetID: "id"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Google Sheets")
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := f.CreateWriter(ctx, Config{Type: CSVBackend})
		require.Error(t, err)
	})
}

func TestOpenSource(t *testing.T) {
	assert.Equal(t, xlsx.Source{Path: "in/data.XLSX", Layout: "2006-01"}, OpenSource("in/data.XLSX", "2006-01"))
	assert.Equal(t, source.CSV{Path: "data.csv"}, OpenSource("data.csv", ""))
	assert.Equal(t, source.CSV{Path: "data"}, OpenSource("data", ""))
}
