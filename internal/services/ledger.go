package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/storage"
)

// EventPublisher sends ledger events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event amqp.Event) error
}

// Ledger orchestrates the write operations: persist through the store,
// purge the report cache, then publish the matching event. Publishing is
// best-effort; the write already succeeded, so a broker failure is logged
// and swallowed rather than failing the request.
type Ledger struct {
	store       *storage.Store
	events      EventPublisher
	reportCache *cache.TTLCache[any]
}

func NewLedger(store *storage.Store, events EventPublisher, reportCache *cache.TTLCache[any]) *Ledger {
	return &Ledger{
		store:       store,
		events:      events,
		reportCache: reportCache,
	}
}

func (l *Ledger) CreateInvoice(ctx context.Context, draft core.InvoiceDraft) (core.Invoice, error) {
	inv, err := l.store.CreateInvoice(ctx, draft)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	l.afterWrite(ctx, amqp.EventInvoiceCreated, inv.ID)
	return inv, nil
}

func (l *Ledger) PayInvoice(ctx context.Context, id string) (core.Invoice, error) {
	inv, err := l.store.MarkInvoicePaid(ctx, id)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("pay invoice: %w", err)
	}
	l.afterWrite(ctx, amqp.EventInvoicePaid, inv.ID)
	return inv, nil
}

func (l *Ledger) CreateBudget(ctx context.Context, draft core.BudgetDraft) (core.Budget, error) {
	b, err := l.store.CreateBudget(ctx, draft)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	l.afterWrite(ctx, amqp.EventBudgetCreated, b.ID)
	return b, nil
}

func (l *Ledger) ApproveExpense(ctx context.Context, id, approverID string) (core.Expense, error) {
	e, err := l.store.ApproveExpense(ctx, id, approverID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("approve expense: %w", err)
	}
	l.afterWrite(ctx, amqp.EventExpenseApproved, e.ID)
	return e, nil
}

func (l *Ledger) RejectExpense(ctx context.Context, id, approverID string) (core.Expense, error) {
	e, err := l.store.RejectExpense(ctx, id, approverID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("reject expense: %w", err)
	}
	l.afterWrite(ctx, amqp.EventExpenseRejected, e.ID)
	return e, nil
}

func (l *Ledger) PostTransaction(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	t, err := l.store.PostTransaction(ctx, draft)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("post transaction: %w", err)
	}
	l.afterWrite(ctx, amqp.EventTransactionPosted, t.ID)
	return t, nil
}

// AdjustBalance applies an administrative balance correction. No event; it
// does not represent ledger activity.
func (l *Ledger) AdjustBalance(ctx context.Context, accountID string, amount decimal.Decimal, deposit bool) (core.Account, error) {
	a, err := l.store.AdjustBalance(ctx, accountID, amount, deposit)
	if err != nil {
		return core.Account{}, fmt.Errorf("adjust balance: %w", err)
	}
	l.purge()
	return a, nil
}

// InvalidateReports drops cached reports after a write that bypasses the
// composer operations (plain entity updates and deletes).
func (l *Ledger) InvalidateReports() {
	l.purge()
}

func (l *Ledger) afterWrite(ctx context.Context, eventType, entityID string) {
	l.purge()
	if l.events == nil {
		return
	}
	if err := l.events.Publish(ctx, amqp.NewEvent(eventType, entityID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", eventType, "entity_id", entityID, "error", err)
	}
}

func (l *Ledger) purge() {
	if l.reportCache != nil {
		l.reportCache.Purge()
	}
}
