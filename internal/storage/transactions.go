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

const transactionCols = `id, transaction_type, amount, currency, description, transaction_date,
	account_id, category, reference_number, invoice_id, expense_id, created_at, updated_at`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                              core.Transaction
		desc, ref, invoiceID           sql.NullString
		expenseID                      sql.NullString
		amount, date, created, updated string
	)
	err := row.Scan(&t.ID, &t.TransactionType, &amount, &t.Currency, &desc, &date,
		&t.AccountID, &t.Category, &ref, &invoiceID, &expenseID, &created, &updated)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Description = orEmpty(desc)
	t.ReferenceNumber = orEmpty(ref)
	t.InvoiceID = orEmpty(invoiceID)
	t.ExpenseID = orEmpty(expenseID)
	if t.Amount, err = parseStoredDecimal(amount); err != nil {
		return core.Transaction{}, err
	}
	if t.TransactionDate, err = parseStoredTime(date); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt, err = parseStoredTime(created); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseStoredTime(updated); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// PostTransaction inserts the transaction and applies its balance delta to
// the referenced account in the same transaction: both happen or neither.
func (s *Store) PostTransaction(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}

	now := time.Now().UTC()
	t := core.Transaction{
		ID:              uuid.NewString(),
		TransactionType: draft.TransactionType,
		Amount:          draft.Amount,
		Currency:        draft.Currency,
		Description:     draft.Description,
		TransactionDate: draft.TransactionDate.UTC(),
		AccountID:       draft.AccountID,
		Category:        draft.Category,
		ReferenceNumber: draft.ReferenceNumber,
		InvoiceID:       draft.InvoiceID,
		ExpenseID:       draft.ExpenseID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		a, err := scanAccount(tx.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, draft.AccountID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %s: %w", draft.AccountID, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO transactions (`+transactionCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, string(t.TransactionType), t.Amount.String(), t.Currency,
			nullable(t.Description), fmtTime(t.TransactionDate),
			t.AccountID, t.Category, nullable(t.ReferenceNumber),
			nullable(t.InvoiceID), nullable(t.ExpenseID), fmtTime(now), fmtTime(now))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		delta := t.TransactionType.BalanceDelta(t.Amount)
		if !delta.IsZero() {
			balance := a.Balance.Add(delta)
			_, err = tx.ExecContext(ctx, `UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
				balance.String(), fmtTime(now), a.ID)
			if err != nil {
				return fmt.Errorf("apply balance delta: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

type TransactionFilter struct {
	AccountID       string
	TransactionType core.TransactionType
	From, To        time.Time
	Offset          int
	Limit           int
}

// ListTransactions orders by transaction date descending, unlike the other
// listings which order by creation time.
func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionCols + ` FROM transactions WHERE 1=1`
	var args []any
	if f.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, f.AccountID)
	}
	if f.TransactionType != "" {
		query += ` AND transaction_type = ?`
		args = append(args, string(f.TransactionType))
	}
	if !f.From.IsZero() {
		query += ` AND transaction_date >= ?`
		args = append(args, fmtTime(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND transaction_date <= ?`
		args = append(args, fmtTime(f.To))
	}
	query += ` ORDER BY transaction_date DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, normLimit(f.Limit), f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}
