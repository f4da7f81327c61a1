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

const expenseCols = `id, employee_id, category, amount, currency, description, receipt_url,
	expense_date, status, approved_by, approved_at, project_id, department_id, created_at, updated_at`

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                              core.Expense
		desc, receipt, approvedBy      sql.NullString
		approvedAt, projID, deptID     sql.NullString
		amount, date, created, updated string
	)
	err := row.Scan(&e.ID, &e.EmployeeID, &e.Category, &amount, &e.Currency, &desc, &receipt,
		&date, &e.Status, &approvedBy, &approvedAt, &projID, &deptID, &created, &updated)
	if err != nil {
		return core.Expense{}, err
	}
	e.Description = orEmpty(desc)
	e.ReceiptURL = orEmpty(receipt)
	e.ApprovedBy = orEmpty(approvedBy)
	e.ProjectID = orEmpty(projID)
	e.DepartmentID = orEmpty(deptID)
	if e.Amount, err = parseStoredDecimal(amount); err != nil {
		return core.Expense{}, err
	}
	if e.ExpenseDate, err = parseStoredTime(date); err != nil {
		return core.Expense{}, err
	}
	if approvedAt.Valid {
		t, err := parseStoredTime(approvedAt.String)
		if err != nil {
			return core.Expense{}, err
		}
		e.ApprovedAt = &t
	}
	if e.CreatedAt, err = parseStoredTime(created); err != nil {
		return core.Expense{}, err
	}
	if e.UpdatedAt, err = parseStoredTime(updated); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *Store) CreateExpense(ctx context.Context, draft core.ExpenseDraft) (core.Expense, error) {
	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	now := time.Now().UTC()
	e := core.Expense{
		ID:           uuid.NewString(),
		EmployeeID:   draft.EmployeeID,
		Category:     draft.Category,
		Amount:       draft.Amount,
		Currency:     draft.Currency,
		Description:  draft.Description,
		ReceiptURL:   draft.ReceiptURL,
		ExpenseDate:  draft.ExpenseDate.UTC(),
		Status:       core.ExpensePending,
		ProjectID:    draft.ProjectID,
		DepartmentID: draft.DepartmentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.EmployeeID, e.Category, e.Amount.String(), e.Currency,
		nullable(e.Description), nullable(e.ReceiptURL),
		fmtTime(e.ExpenseDate), string(e.Status), nil, nil,
		nullable(e.ProjectID), nullable(e.DepartmentID), fmtTime(now), fmtTime(now))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

type ExpenseFilter struct {
	EmployeeID   string
	ProjectID    string
	DepartmentID string
	Status       core.ExpenseStatus
	From, To     time.Time
	Offset       int
	Limit        int
}

func (s *Store) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error) {
	query := `SELECT ` + expenseCols + ` FROM expenses WHERE 1=1`
	var args []any
	if f.EmployeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, f.EmployeeID)
	}
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.DepartmentID != "" {
		query += ` AND department_id = ?`
		args = append(args, f.DepartmentID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		query += ` AND expense_date >= ?`
		args = append(args, fmtTime(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND expense_date <= ?`
		args = append(args, fmtTime(f.To))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, normLimit(f.Limit), f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) GetExpenseByID(ctx context.Context, id string) (core.Expense, error) {
	e, err := scanExpense(s.db.QueryRowContext(ctx, `SELECT `+expenseCols+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, id string, patch core.ExpensePatch) (core.Expense, error) {
	var updated core.Expense
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := scanExpense(tx.QueryRowContext(ctx, `SELECT `+expenseCols+` FROM expenses WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}

		if patch.Category != nil {
			e.Category = *patch.Category
		}
		if patch.Amount != nil {
			if !patch.Amount.IsPositive() {
				return fmt.Errorf("%w: amount must be positive", core.ErrInvalidInput)
			}
			e.Amount = *patch.Amount
		}
		if patch.Currency != nil {
			e.Currency = *patch.Currency
		}
		if patch.Description != nil {
			e.Description = *patch.Description
		}
		if patch.ReceiptURL != nil {
			e.ReceiptURL = *patch.ReceiptURL
		}
		if patch.ExpenseDate != nil {
			e.ExpenseDate = patch.ExpenseDate.UTC()
		}
		if patch.ProjectID != nil {
			e.ProjectID = *patch.ProjectID
		}
		if patch.DepartmentID != nil {
			e.DepartmentID = *patch.DepartmentID
		}
		e.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx,
			`UPDATE expenses SET category = ?, amount = ?, currency = ?, description = ?, receipt_url = ?,
			        expense_date = ?, project_id = ?, department_id = ?, updated_at = ? WHERE id = ?`,
			e.Category, e.Amount.String(), e.Currency, nullable(e.Description), nullable(e.ReceiptURL),
			fmtTime(e.ExpenseDate), nullable(e.ProjectID), nullable(e.DepartmentID), fmtTime(e.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	return updated, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// ApproveExpense transitions a pending expense to approved, recording the
// approver and timestamp.
func (s *Store) ApproveExpense(ctx context.Context, id, approverID string) (core.Expense, error) {
	return s.transitionExpense(ctx, id, approverID, core.ExpenseApproved)
}

// RejectExpense transitions a pending expense to rejected.
func (s *Store) RejectExpense(ctx context.Context, id, approverID string) (core.Expense, error) {
	return s.transitionExpense(ctx, id, approverID, core.ExpenseRejected)
}

func (s *Store) transitionExpense(ctx context.Context, id, approverID string, to core.ExpenseStatus) (core.Expense, error) {
	if approverID == "" {
		return core.Expense{}, fmt.Errorf("%w: approver id is required", core.ErrInvalidInput)
	}

	var updated core.Expense
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := scanExpense(tx.QueryRowContext(ctx, `SELECT `+expenseCols+` FROM expenses WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}
		if e.Status.Terminal() {
			return fmt.Errorf("%w: expense is %s", core.ErrInvalidTransition, e.Status)
		}

		now := time.Now().UTC()
		e.Status = to
		e.ApprovedBy = approverID
		e.ApprovedAt = &now
		e.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			`UPDATE expenses SET status = ?, approved_by = ?, approved_at = ?, updated_at = ? WHERE id = ?`,
			string(to), approverID, fmtTime(now), fmtTime(now), id)
		if err != nil {
			return fmt.Errorf("transition expense: %w", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	return updated, nil
}
