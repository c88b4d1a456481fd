package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"chitieu/internal/core"
	ports "chitieu/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	categories    []string
	now           func() time.Time
}

// Ensure interface conformance
var (
	_ ports.TransactionWriter = (*Client)(nil)
	_ ports.TransactionReader = (*Client)(nil)
	_ ports.CategoryReader    = (*Client)(nil)
)

// Options describes the spreadsheet and how to authenticate against it.
// Credentials are taken from CredentialsJSON, then CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	// Categories offered for entry. The sheet itself stores no category list.
	Categories []string
}

// NewFromOptions creates a Sheets client authenticated with a service account.
func NewFromOptions(ctx context.Context, o Options) (*Client, error) {
	creds, err := loadCredentials(ctx, o)
	if err != nil {
		return nil, err
	}
	return New(ctx, o,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// New creates a client with explicit client options. Tests use it to point
// the client at a fake endpoint.
func New(ctx context.Context, o Options, opts ...goption.ClientOption) (*Client, error) {
	id := strings.TrimSpace(o.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(o.SheetName)
	if sheet == "" {
		sheet = "Sheet1"
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: id,
		sheetName:     sheet,
		categories:    core.NormalizeCategories(o.Categories),
		now:           time.Now,
	}, nil
}

func loadCredentials(ctx context.Context, o Options) ([]byte, error) {
	inline := strings.TrimSpace(o.CredentialsJSON)
	file := strings.TrimSpace(o.CredentialsFile)
	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Append adds one row after the last row of the data range. Cells are
// entered as if typed by a user so the sheet formats the date and amount.
func (c *Client) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(c.categories); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:D", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{{
		tx.Date.String(),
		strings.TrimSpace(tx.Category),
		tx.Amount.Units,
		strings.TrimSpace(tx.Note),
	}}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: append to sheet %s: %w", ports.ErrUnavailable, c.sheetName, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// FetchAll reads columns A:D. Numbers come back unformatted and dates as
// their displayed text, which ParseDate understands.
func (c *Client) FetchAll(ctx context.Context) (ports.Snapshot, error) {
	if c.svc == nil {
		return ports.Snapshot{}, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:D", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return ports.Snapshot{}, fmt.Errorf("%w: read %s: %w", ports.ErrUnavailable, rng, err)
	}
	txs, dropped, err := parseRows(resp.Values)
	if err != nil {
		return ports.Snapshot{}, fmt.Errorf("%w: parse %s: %w", ports.ErrUnavailable, rng, err)
	}
	if dropped > 0 {
		slog.WarnContext(ctx, "Dropped unparseable sheet rows", "sheet", c.sheetName, "dropped_rows", dropped)
	}
	return ports.Snapshot{Transactions: txs, Dropped: dropped, FetchedAt: c.now()}, nil
}

func (c *Client) Categories(_ context.Context) ([]string, error) {
	return append([]string(nil), c.categories...), nil
}
