package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e amqp.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) published() []amqp.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]amqp.Event(nil), p.events...)
}

func TestCreateInvoicePublishesEvent(t *testing.T) {
	s := newTestStore(t)
	pub := &recordingPublisher{}
	l := NewLedger(s, pub, nil)

	inv, err := l.CreateInvoice(context.Background(), core.InvoiceDraft{
		ClientID: "client-1",
		DueDate:  day(2024, 4, 1),
		Items:    []core.InvoiceItemDraft{{Description: "work", UnitPrice: dec("10")}},
	})
	require.NoError(t, err)

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, amqp.EventInvoiceCreated, events[0].Type)
	assert.Equal(t, inv.ID, events[0].EntityID)
}

func TestPayInvoicePublishesEvent(t *testing.T) {
	s := newTestStore(t)
	pub := &recordingPublisher{}
	l := NewLedger(s, pub, nil)
	ctx := context.Background()

	inv, err := l.CreateInvoice(ctx, core.InvoiceDraft{
		ClientID: "client-1",
		DueDate:  day(2024, 4, 1),
		Items:    []core.InvoiceItemDraft{{Description: "work", UnitPrice: dec("10")}},
	})
	require.NoError(t, err)

	paid, err := l.PayInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, paid.Status)

	events := pub.published()
	require.Len(t, events, 2)
	assert.Equal(t, amqp.EventInvoicePaid, events[1].Type)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	s := newTestStore(t)
	pub := &recordingPublisher{err: errors.New("broker down")}
	l := NewLedger(s, pub, nil)

	_, err := l.CreateBudget(context.Background(), core.BudgetDraft{
		Name:      "q1",
		Amount:    dec("100"),
		StartDate: day(2024, 1, 1),
		EndDate:   day(2024, 3, 31),
		CreatedBy: "mgr-1",
		Items:     []core.BudgetItemDraft{{Category: "general", Amount: dec("100")}},
	})
	assert.NoError(t, err, "write must survive a publish failure")
}

func TestNilPublisherSkipsEvents(t *testing.T) {
	s := newTestStore(t)
	l := NewLedger(s, nil, nil)

	_, err := l.CreateInvoice(context.Background(), core.InvoiceDraft{
		ClientID: "client-1",
		DueDate:  day(2024, 4, 1),
		Items:    []core.InvoiceItemDraft{{Description: "work", UnitPrice: dec("10")}},
	})
	assert.NoError(t, err)
}

func TestFailedWritePublishesNothing(t *testing.T) {
	s := newTestStore(t)
	pub := &recordingPublisher{}
	l := NewLedger(s, pub, nil)

	_, err := l.CreateInvoice(context.Background(), core.InvoiceDraft{ClientID: "client-1"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, pub.published())
}

func TestExpenseTransitionsPublishAndGuard(t *testing.T) {
	s := newTestStore(t)
	pub := &recordingPublisher{}
	l := NewLedger(s, pub, nil)
	ctx := context.Background()

	e, err := s.CreateExpense(ctx, core.ExpenseDraft{
		EmployeeID:  "emp-1",
		Category:    "travel",
		Amount:      dec("40"),
		ExpenseDate: day(2024, 3, 3),
	})
	require.NoError(t, err)

	approved, err := l.ApproveExpense(ctx, e.ID, "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, core.ExpenseApproved, approved.Status)

	_, err = l.RejectExpense(ctx, e.ID, "mgr-2")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, amqp.EventExpenseApproved, events[0].Type)
}

func TestWritesPurgeReportCache(t *testing.T) {
	s := newTestStore(t)
	c := cache.New[any](16, time.Minute)
	l := NewLedger(s, nil, c)
	r := NewReports(s, c)
	ctx := context.Background()

	_, err := r.FinancialSummary(ctx, march2024())
	require.NoError(t, err)
	require.NotZero(t, c.Size())

	a, err := s.CreateAccount(ctx, core.AccountDraft{Name: "ops", AccountType: core.AccountChecking})
	require.NoError(t, err)
	_, err = l.PostTransaction(ctx, core.TransactionDraft{
		TransactionType: core.TypeIncome,
		Amount:          dec("10"),
		TransactionDate: day(2024, 3, 5),
		AccountID:       a.ID,
		Category:        "sales",
	})
	require.NoError(t, err)

	assert.Zero(t, c.Size(), "ledger writes must purge cached reports")
}
