package google

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"

	"bordercross/internal/core"
	ports "bordercross/internal/sink"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheet is the tab written when no sheet name is configured.
const DefaultSheet = "Border Crossings"

// Ensure interface conformance
var _ ports.ReportWriter = (*Client)(nil)

// Config selects the target spreadsheet and service account credentials.
// CredentialsJSON takes precedence over CredentialsFile; when both are
// empty GOOGLE_APPLICATION_CREDENTIALS is consulted.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client writes reports into one tab of a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

// New creates a Sheets client authenticated with a service account.
// Extra client options are appended after the credentials.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	credentialsJSON, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	all := append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)

	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return NewWithService(svc, spreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultSheet
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteReport replaces the contents of the target tab with the report.
// The tab is created when missing.
func (c *Client) WriteReport(ctx context.Context, rows iter.Seq[core.Row]) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	if err := c.ensureSheet(ctx); err != nil {
		return err
	}

	values := toValues(rows)

	rng := fmt.Sprintf("'%s'!A:E", c.sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %q: %w", c.sheet, err)
	}

	vr := &gsheet.ValueRange{Values: values}
	// RAW keeps dates as the literal layout text instead of locale-parsed dates
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("'%s'!A1", c.sheet), vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %q: %w", c.sheet, err)
	}

	slog.InfoContext(ctx, "Report written",
		"backend", "sheets",
		"spreadsheet_id", c.spreadsheetID,
		"sheet", c.sheet,
		"rows", len(values)-1)
	return nil
}

func (c *Client) ensureSheet(ctx context.Context) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheet {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: c.sheet},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", c.sheet, err)
	}
	slog.InfoContext(ctx, "Created sheet", "sheet", c.sheet)
	return nil
}

// toValues renders the header and rows as a Sheets value grid.
func toValues(rows iter.Seq[core.Row]) [][]interface{} {
	header := make([]interface{}, len(core.Header))
	for i, h := range core.Header {
		header[i] = h
	}
	values := [][]interface{}{header}
	for r := range rows {
		values = append(values, []interface{}{r.Border, r.Date, r.Measure, r.Total, r.Average})
	}
	return values
}
