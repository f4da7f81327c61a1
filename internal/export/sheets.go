package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/core"
)

// SheetsExporter appends financial summary rows to a Google spreadsheet so
// finance can track period snapshots outside the API.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsExporter builds the exporter. Credentials come from inline
// service-account JSON, a credentials file, or Application Default
// Credentials, in that order of preference.
func NewSheetsExporter(ctx context.Context, spreadsheetID, sheetName, credentialsJSON, credentialsFile string) (*SheetsExporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Summaries"
	}

	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	switch {
	case credentialsJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials for Sheets export")
		opts = append(opts, goption.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsFile != "":
		slog.InfoContext(ctx, "Reading Sheets credentials from file", "path", credentialsFile)
		raw, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		opts = append(opts, goption.WithCredentialsJSON(raw))
	default:
		slog.InfoContext(ctx, "Using Application Default Credentials for Sheets export")
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendSummary appends one row per export: period bounds, the three core
// figures, the open invoice totals and the generation timestamp.
func (e *SheetsExporter) AppendSummary(ctx context.Context, summary core.FinancialSummary) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		summary.PeriodStart.Format("2006-01-02"),
		summary.PeriodEnd.Format("2006-01-02"),
		summary.TotalIncome.String(),
		summary.TotalExpenses.String(),
		summary.NetProfit.String(),
		summary.PendingInvoices.String(),
		summary.OverdueInvoices.String(),
		summary.GeneratedAt.Format("2006-01-02 15:04:05"),
	}

	rng := fmt.Sprintf("%s!A:H", e.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append summary to sheet %s: %w", e.sheetName, err)
	}

	slog.InfoContext(ctx, "Exported financial summary",
		"spreadsheet_id", e.spreadsheetID,
		"sheet", e.sheetName,
		"period_start", summary.PeriodStart,
		"period_end", summary.PeriodEnd)
	return nil
}
