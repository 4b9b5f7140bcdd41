package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bordercross/internal/core"
	ports "bordercross/internal/sink"

	_ "modernc.org/sqlite"
)

var _ ports.ReportWriter = (*SQLiteRepository)(nil)

// ErrNoRuns is returned when the database holds no report yet.
var ErrNoRuns = errors.New("no report runs stored")

// Run describes one stored report.
type Run struct {
	ID        int64
	CreatedAt time.Time
	RowCount  int
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WriteReport implements sink.ReportWriter
func (r *SQLiteRepository) WriteReport(ctx context.Context, rows iter.Seq[core.Row]) error {
	_, err := r.SaveRun(ctx, rows)
	return err
}

// SaveRun stores all rows as a new run in a single transaction and returns the run ID.
func (r *SQLiteRepository) SaveRun(ctx context.Context, rows iter.Seq[core.Row]) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO report_runs (created_at) VALUES (?)`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO report_rows
		(run_id, position, border, month, date, measure, value, average)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for row := range rows {
		if _, err := stmt.ExecContext(ctx, runID, n, row.Border, row.Month.String(), row.Date,
			row.Measure, row.Total, row.Average); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", n+1, err)
		}
		n++
	}

	if _, err := tx.ExecContext(ctx, `UPDATE report_runs SET row_count = ? WHERE id = ?`, n, runID); err != nil {
		return 0, fmt.Errorf("update row count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}

	slog.InfoContext(ctx, "Report saved to SQLite", "run_id", runID, "rows", n)
	return runID, nil
}

// LatestRun returns the most recently stored run.
func (r *SQLiteRepository) LatestRun(ctx context.Context) (Run, error) {
	var run Run
	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at, row_count FROM report_runs ORDER BY id DESC LIMIT 1`).
		Scan(&run.ID, &run.CreatedAt, &run.RowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("get latest run: %w", err)
	}
	return run, nil
}

// ListRows returns the rows of a run in the order they were written.
func (r *SQLiteRepository) ListRows(ctx context.Context, runID int64) ([]core.Row, error) {
	rs, err := r.db.QueryContext(ctx, `SELECT border, month, date, measure, value, average
		FROM report_rows WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rs.Close()

	var out []core.Row
	for rs.Next() {
		var row core.Row
		var month string
		if err := rs.Scan(&row.Border, &month, &row.Date, &row.Measure, &row.Total, &row.Average); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return nil, fmt.Errorf("parse stored month %q: %w", month, err)
		}
		row.Month = core.NewMonthKey(t)
		out = append(out, row)
	}
	return out, rs.Err()
}
