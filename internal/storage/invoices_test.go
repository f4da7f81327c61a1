package storage

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
)

func sampleInvoiceDraft() core.InvoiceDraft {
	return core.InvoiceDraft{
		ClientID: "client-1",
		DueDate:  day(2024, 4, 15),
		Items: []core.InvoiceItemDraft{
			{Description: "consulting", Quantity: dec("2"), UnitPrice: dec("50")},
		},
	}
}

func TestCreateInvoiceComputesTotals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	draft := sampleInvoiceDraft()
	draft.TaxAmount = dec("10")
	inv, err := s.CreateInvoice(ctx, draft)
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	if got, want := inv.Amount, dec("100"); !got.Equal(want) {
		t.Errorf("amount = %s, want %s", got, want)
	}
	if got, want := inv.TotalAmount, dec("110"); !got.Equal(want) {
		t.Errorf("total_amount = %s, want %s", got, want)
	}
	if inv.Status != core.StatusPending {
		t.Errorf("status = %s, want pending", inv.Status)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(inv.Items))
	}
	if got, want := inv.Items[0].Amount, dec("100"); !got.Equal(want) {
		t.Errorf("item amount = %s, want %s", got, want)
	}
}

func TestInvoiceNumbersAreSequential(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := []string{"INV-0001", "INV-0002", "INV-0003"}
	for _, num := range want {
		inv, err := s.CreateInvoice(ctx, sampleInvoiceDraft())
		if err != nil {
			t.Fatalf("create invoice: %v", err)
		}
		if inv.InvoiceNumber != num {
			t.Errorf("invoice_number = %s, want %s", inv.InvoiceNumber, num)
		}
	}
}

func TestGetInvoiceByNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateInvoice(ctx, sampleInvoiceDraft())
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	got, err := s.GetInvoiceByNumber(ctx, created.InvoiceNumber)
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("id = %s, want %s", got.ID, created.ID)
	}
	if len(got.Items) != 1 {
		t.Errorf("items = %d, want 1", len(got.Items))
	}

	if _, err := s.GetInvoiceByNumber(ctx, "INV-9999"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing number err = %v, want ErrNotFound", err)
	}
}

func TestUpdateInvoiceTaxRecomputesTotal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inv, err := s.CreateInvoice(ctx, sampleInvoiceDraft())
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	tax := dec("25")
	updated, err := s.UpdateInvoice(ctx, inv.ID, core.InvoicePatch{TaxAmount: &tax})
	if err != nil {
		t.Fatalf("update invoice: %v", err)
	}
	if got, want := updated.TotalAmount, dec("125"); !got.Equal(want) {
		t.Errorf("total_amount = %s, want %s", got, want)
	}
}

func TestMarkInvoicePaid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inv, err := s.CreateInvoice(ctx, sampleInvoiceDraft())
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	paid, err := s.MarkInvoicePaid(ctx, inv.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != core.StatusPaid {
		t.Errorf("status = %s, want paid", paid.Status)
	}
	if got, want := paid.TotalAmount, inv.TotalAmount; !got.Equal(want) {
		t.Errorf("total_amount changed on payment: %s != %s", got, want)
	}
}

func TestDeleteInvoiceRemovesItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inv, err := s.CreateInvoice(ctx, sampleInvoiceDraft())
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if err := s.DeleteInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("delete invoice: %v", err)
	}

	if _, err := s.GetInvoiceByID(ctx, inv.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get deleted err = %v, want ErrNotFound", err)
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM invoice_items WHERE invoice_id = ?`, inv.ID).Scan(&n); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if n != 0 {
		t.Errorf("orphaned items = %d, want 0", n)
	}

	if err := s.DeleteInvoice(ctx, inv.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestListInvoicesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := sampleInvoiceDraft()
	a.ProjectID = "proj-1"
	if _, err := s.CreateInvoice(ctx, a); err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	b := sampleInvoiceDraft()
	b.ClientID = "client-2"
	if _, err := s.CreateInvoice(ctx, b); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	byProject, err := s.ListInvoices(ctx, InvoiceFilter{ProjectID: "proj-1"})
	if err != nil {
		t.Fatalf("list by project: %v", err)
	}
	if len(byProject) != 1 {
		t.Errorf("by project = %d invoices, want 1", len(byProject))
	}

	byClient, err := s.ListInvoices(ctx, InvoiceFilter{ClientID: "client-2"})
	if err != nil {
		t.Fatalf("list by client: %v", err)
	}
	if len(byClient) != 1 {
		t.Errorf("by client = %d invoices, want 1", len(byClient))
	}
}
