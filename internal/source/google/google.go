package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finchat/internal/core"
	"finchat/internal/source"
)

// Config names the workbook and the five tabs the snapshot is spread across.
type Config struct {
	SpreadsheetID    string
	SummarySheet     string
	IncomeSheet      string
	AssetsSheet      string
	CashFlowsSheet   string
	ProjectionsSheet string
}

// Client loads the snapshot from a Google Sheets workbook.
type Client struct {
	svc *gsheet.Service
	cfg Config
}

var _ source.SnapshotLoader = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, cfg: cfg}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// Load fetches the five tabs concurrently and assembles the snapshot.
func (c *Client) Load(ctx context.Context) (core.Snapshot, error) {
	if c.svc == nil {
		return core.Snapshot{}, errors.New("sheets service not initialized")
	}

	var (
		summaryRows    [][]interface{}
		incomeRows     [][]interface{}
		assetRows      [][]interface{}
		cashFlowRows   [][]interface{}
		projectionRows [][]interface{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summaryRows, err = c.readRange(gctx, c.cfg.SummarySheet, "A:B")
		return err
	})
	g.Go(func() (err error) {
		incomeRows, err = c.readRange(gctx, c.cfg.IncomeSheet, "A:H")
		return err
	})
	g.Go(func() (err error) {
		assetRows, err = c.readRange(gctx, c.cfg.AssetsSheet, "A:G")
		return err
	})
	g.Go(func() (err error) {
		cashFlowRows, err = c.readRange(gctx, c.cfg.CashFlowsSheet, "A:D")
		return err
	})
	g.Go(func() (err error) {
		projectionRows, err = c.readRange(gctx, c.cfg.ProjectionsSheet, "A:Z")
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}

	totalNetIncome, totalExpenses := parseSummary(summaryRows)
	snapshot := core.Snapshot{
		TotalNetIncome: totalNetIncome,
		TotalExpenses:  totalExpenses,
		IncomeSummary:  parseIncomeSummary(incomeRows),
		Assets:         parseAssets(assetRows),
		CashFlows:      parseCashFlows(cashFlowRows),
		Projections:    parseProjections(projectionRows),
	}

	if err := snapshot.Validate(); err != nil {
		return core.Snapshot{}, fmt.Errorf("invalid snapshot in spreadsheet %s: %w", c.cfg.SpreadsheetID, err)
	}

	slog.InfoContext(ctx, "Loaded snapshot from Google Sheets",
		"spreadsheet_id", c.cfg.SpreadsheetID,
		"owners", len(snapshot.IncomeSummary),
		"assets", len(snapshot.Assets),
		"cash_flows", len(snapshot.CashFlows),
		"has_projections", snapshot.Projections != nil)

	return snapshot, nil
}

func (c *Client) readRange(ctx context.Context, sheetName, cols string) ([][]interface{}, error) {
	rng := fmt.Sprintf("%s!%s", sheetName, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}
