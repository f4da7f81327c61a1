package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/services"
)

// SummaryExporter appends a financial summary row to an external sheet.
type SummaryExporter interface {
	AppendSummary(ctx context.Context, summary core.FinancialSummary) error
}

// SummaryWorker listens for ledger events and keeps an external spreadsheet
// up to date with the current month's financial summary. Events only mark
// the summary dirty; the actual export happens on the next tick, so a burst
// of writes produces a single row.
type SummaryWorker struct {
	reports  *services.Reports
	exporter SummaryExporter

	mu    sync.Mutex
	dirty bool
}

func NewSummaryWorker(reports *services.Reports, exporter SummaryExporter) *SummaryWorker {
	return &SummaryWorker{
		reports:  reports,
		exporter: exporter,
	}
}

// HandleEvent processes a single ledger event from the broker.
func (w *SummaryWorker) HandleEvent(ctx context.Context, event amqp.Event) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"type", event.Type,
		"entity_id", event.EntityID)

	switch event.Type {
	case amqp.EventInvoicePaid, amqp.EventExpenseApproved, amqp.EventTransactionPosted:
		w.markDirty()
	case amqp.EventInvoiceCreated, amqp.EventBudgetCreated, amqp.EventExpenseRejected:
		// Nothing in the summary changes until money actually moves.
	default:
		slog.WarnContext(ctx, "Unknown event type", "type", event.Type)
	}
	return nil
}

// ExportPending appends a fresh current-month summary if any event since the
// last export changed the figures. Returns whether an export happened.
func (w *SummaryWorker) ExportPending(ctx context.Context) (bool, error) {
	if !w.clearDirty() {
		return false, nil
	}

	summary, err := w.reports.FinancialSummary(ctx, core.CurrentMonth(time.Now()))
	if err != nil {
		w.markDirty()
		return false, fmt.Errorf("build summary: %w", err)
	}
	if err := w.exporter.AppendSummary(ctx, summary); err != nil {
		w.markDirty()
		return false, fmt.Errorf("append summary: %w", err)
	}

	slog.InfoContext(ctx, "Summary export complete",
		"period_start", summary.PeriodStart,
		"period_end", summary.PeriodEnd,
		"net_profit", summary.NetProfit)
	return true, nil
}

// Run exports pending summaries on the given interval until ctx is done.
func (w *SummaryWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ExportPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Summary export failed", "error", err)
			}
		}
	}
}

func (w *SummaryWorker) markDirty() {
	w.mu.Lock()
	w.dirty = true
	w.mu.Unlock()
}

// clearDirty resets the dirty flag, reporting whether it was set.
func (w *SummaryWorker) clearDirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	was := w.dirty
	w.dirty = false
	return was
}
