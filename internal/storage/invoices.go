package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
)

const invoiceCols = `id, invoice_number, client_id, project_id, issue_date, due_date,
	amount, tax_amount, total_amount, status, description, notes, created_at, updated_at`

func scanInvoice(row rowScanner) (core.Invoice, error) {
	var (
		inv                        core.Invoice
		projectID, desc, notes     sql.NullString
		issue, due                 string
		amount, tax, total         string
		created, updated           string
	)
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientID, &projectID, &issue, &due,
		&amount, &tax, &total, &inv.Status, &desc, &notes, &created, &updated)
	if err != nil {
		return core.Invoice{}, err
	}
	inv.ProjectID = orEmpty(projectID)
	inv.Description = orEmpty(desc)
	inv.Notes = orEmpty(notes)
	if inv.IssueDate, err = parseStoredTime(issue); err != nil {
		return core.Invoice{}, err
	}
	if inv.DueDate, err = parseStoredTime(due); err != nil {
		return core.Invoice{}, err
	}
	if inv.Amount, err = parseStoredDecimal(amount); err != nil {
		return core.Invoice{}, err
	}
	if inv.TaxAmount, err = parseStoredDecimal(tax); err != nil {
		return core.Invoice{}, err
	}
	if inv.TotalAmount, err = parseStoredDecimal(total); err != nil {
		return core.Invoice{}, err
	}
	if inv.CreatedAt, err = parseStoredTime(created); err != nil {
		return core.Invoice{}, err
	}
	if inv.UpdatedAt, err = parseStoredTime(updated); err != nil {
		return core.Invoice{}, err
	}
	return inv, nil
}

// CreateInvoice composes an invoice: it takes the next sequential number,
// derives subtotal and total from the line items, and persists the header
// together with all items in a single transaction.
func (s *Store) CreateInvoice(ctx context.Context, draft core.InvoiceDraft) (core.Invoice, error) {
	if err := draft.Validate(); err != nil {
		return core.Invoice{}, err
	}

	now := time.Now().UTC()
	issue := draft.IssueDate
	if issue.IsZero() {
		issue = now
	}

	subtotal := draft.Subtotal()
	inv := core.Invoice{
		ID:          uuid.NewString(),
		ClientID:    draft.ClientID,
		ProjectID:   draft.ProjectID,
		IssueDate:   issue.UTC(),
		DueDate:     draft.DueDate.UTC(),
		Amount:      subtotal,
		TaxAmount:   draft.TaxAmount,
		TotalAmount: subtotal.Add(draft.TaxAmount),
		Status:      core.StatusPending,
		Description: draft.Description,
		Notes:       draft.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var seq int64
		if err := tx.QueryRowContext(ctx, `SELECT next FROM invoice_numbers WHERE id = 1`).Scan(&seq); err != nil {
			return fmt.Errorf("read invoice sequence: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE invoice_numbers SET next = ? WHERE id = 1`, seq+1); err != nil {
			return fmt.Errorf("advance invoice sequence: %w", err)
		}
		inv.InvoiceNumber = fmt.Sprintf("INV-%04d", seq)

		_, err := tx.ExecContext(ctx,
			`INSERT INTO invoices (`+invoiceCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, inv.InvoiceNumber, inv.ClientID, nullable(inv.ProjectID),
			fmtTime(inv.IssueDate), fmtTime(inv.DueDate),
			inv.Amount.String(), inv.TaxAmount.String(), inv.TotalAmount.String(),
			string(inv.Status), nullable(inv.Description), nullable(inv.Notes),
			fmtTime(now), fmtTime(now))
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		for _, it := range draft.Items {
			item := core.InvoiceItem{
				ID:          uuid.NewString(),
				InvoiceID:   inv.ID,
				Description: it.Description,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				Amount:      it.Quantity.Mul(it.UnitPrice),
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price, amount)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				item.ID, item.InvoiceID, item.Description,
				item.Quantity.String(), item.UnitPrice.String(), item.Amount.String())
			if err != nil {
				return fmt.Errorf("insert invoice item: %w", err)
			}
			inv.Items = append(inv.Items, item)
		}
		return nil
	})
	if err != nil {
		return core.Invoice{}, err
	}
	return inv, nil
}

type InvoiceFilter struct {
	ClientID  string
	ProjectID string
	Status    core.PaymentStatus
	From, To  time.Time
	Offset    int
	Limit     int
}

// ListInvoices returns invoice headers, most recently created first. Line
// items are loaded only by GetInvoiceByID/Number.
func (s *Store) ListInvoices(ctx context.Context, f InvoiceFilter) ([]core.Invoice, error) {
	query := `SELECT ` + invoiceCols + ` FROM invoices WHERE 1=1`
	var args []any
	if f.ClientID != "" {
		query += ` AND client_id = ?`
		args = append(args, f.ClientID)
	}
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		query += ` AND issue_date >= ?`
		args = append(args, fmtTime(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND issue_date <= ?`
		args = append(args, fmtTime(f.To))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, normLimit(f.Limit), f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *Store) GetInvoiceByID(ctx context.Context, id string) (core.Invoice, error) {
	return s.getInvoice(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = ?`, id)
}

func (s *Store) GetInvoiceByNumber(ctx context.Context, number string) (core.Invoice, error) {
	return s.getInvoice(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE invoice_number = ?`, number)
}

func (s *Store) getInvoice(ctx context.Context, query, arg string) (core.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invoice{}, fmt.Errorf("invoice %s: %w", arg, core.ErrNotFound)
	}
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	if inv.Items, err = s.listInvoiceItems(ctx, inv.ID); err != nil {
		return core.Invoice{}, err
	}
	return inv, nil
}

func (s *Store) listInvoiceItems(ctx context.Context, invoiceID string) ([]core.InvoiceItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, invoice_id, description, quantity, unit_price, amount
		 FROM invoice_items WHERE invoice_id = ? ORDER BY rowid`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	var items []core.InvoiceItem
	for rows.Next() {
		var (
			it                 core.InvoiceItem
			qty, price, amount string
		)
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &qty, &price, &amount); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		if it.Quantity, err = parseStoredDecimal(qty); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = parseStoredDecimal(price); err != nil {
			return nil, err
		}
		if it.Amount, err = parseStoredDecimal(amount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateInvoice applies a partial update. A supplied tax_amount recomputes
// total_amount from the stored subtotal; the subtotal itself is never
// recomputed from items on update.
func (s *Store) UpdateInvoice(ctx context.Context, id string, patch core.InvoicePatch) (core.Invoice, error) {
	var updated core.Invoice
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		inv, err := scanInvoice(tx.QueryRowContext(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("invoice %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get invoice: %w", err)
		}

		if patch.ClientID != nil {
			inv.ClientID = *patch.ClientID
		}
		if patch.ProjectID != nil {
			inv.ProjectID = *patch.ProjectID
		}
		if patch.IssueDate != nil {
			inv.IssueDate = patch.IssueDate.UTC()
		}
		if patch.DueDate != nil {
			inv.DueDate = patch.DueDate.UTC()
		}
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return fmt.Errorf("%w: unknown status %q", core.ErrInvalidInput, *patch.Status)
			}
			inv.Status = *patch.Status
		}
		if patch.Description != nil {
			inv.Description = *patch.Description
		}
		if patch.Notes != nil {
			inv.Notes = *patch.Notes
		}
		if patch.TaxAmount != nil {
			if patch.TaxAmount.IsNegative() {
				return fmt.Errorf("%w: tax_amount cannot be negative", core.ErrInvalidInput)
			}
			inv.TaxAmount = *patch.TaxAmount
			inv.TotalAmount = inv.Amount.Add(inv.TaxAmount)
		}
		inv.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx,
			`UPDATE invoices SET client_id = ?, project_id = ?, issue_date = ?, due_date = ?,
			        tax_amount = ?, total_amount = ?, status = ?, description = ?, notes = ?, updated_at = ?
			 WHERE id = ?`,
			inv.ClientID, nullable(inv.ProjectID), fmtTime(inv.IssueDate), fmtTime(inv.DueDate),
			inv.TaxAmount.String(), inv.TotalAmount.String(), string(inv.Status),
			nullable(inv.Description), nullable(inv.Notes), fmtTime(inv.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		updated = inv
		return nil
	})
	if err != nil {
		return core.Invoice{}, err
	}
	if updated.Items, err = s.listInvoiceItems(ctx, updated.ID); err != nil {
		return core.Invoice{}, err
	}
	return updated, nil
}

// DeleteInvoice removes the invoice and its items in one transaction,
// children first.
func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, id); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("invoice %s: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

// MarkInvoicePaid is the dedicated pending->paid transition; it touches
// status and updated_at only.
func (s *Store) MarkInvoicePaid(ctx context.Context, id string) (core.Invoice, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`,
		string(core.StatusPaid), fmtTime(now), id)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("mark invoice paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Invoice{}, fmt.Errorf("mark invoice paid: %w", err)
	}
	if n == 0 {
		return core.Invoice{}, fmt.Errorf("invoice %s: %w", id, core.ErrNotFound)
	}
	return s.GetInvoiceByID(ctx, id)
}
