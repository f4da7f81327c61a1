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

const budgetCols = `id, name, description, amount, start_date, end_date,
	project_id, department_id, created_by, created_at, updated_at`

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b                        core.Budget
		desc, projID, deptID     sql.NullString
		amount, start, end       string
		created, updated         string
	)
	err := row.Scan(&b.ID, &b.Name, &desc, &amount, &start, &end,
		&projID, &deptID, &b.CreatedBy, &created, &updated)
	if err != nil {
		return core.Budget{}, err
	}
	b.Description = orEmpty(desc)
	b.ProjectID = orEmpty(projID)
	b.DepartmentID = orEmpty(deptID)
	if b.Amount, err = parseStoredDecimal(amount); err != nil {
		return core.Budget{}, err
	}
	if b.StartDate, err = parseStoredTime(start); err != nil {
		return core.Budget{}, err
	}
	if b.EndDate, err = parseStoredTime(end); err != nil {
		return core.Budget{}, err
	}
	if b.CreatedAt, err = parseStoredTime(created); err != nil {
		return core.Budget{}, err
	}
	if b.UpdatedAt, err = parseStoredTime(updated); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// CreateBudget persists the budget header and all items in one transaction.
// The declared amount is a ceiling; it is not reconciled against item sums.
func (s *Store) CreateBudget(ctx context.Context, draft core.BudgetDraft) (core.Budget, error) {
	if err := draft.Validate(); err != nil {
		return core.Budget{}, err
	}

	now := time.Now().UTC()
	b := core.Budget{
		ID:           uuid.NewString(),
		Name:         draft.Name,
		Description:  draft.Description,
		Amount:       draft.Amount,
		StartDate:    draft.StartDate.UTC(),
		EndDate:      draft.EndDate.UTC(),
		ProjectID:    draft.ProjectID,
		DepartmentID: draft.DepartmentID,
		CreatedBy:    draft.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (`+budgetCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Name, nullable(b.Description), b.Amount.String(),
			fmtTime(b.StartDate), fmtTime(b.EndDate),
			nullable(b.ProjectID), nullable(b.DepartmentID), b.CreatedBy,
			fmtTime(now), fmtTime(now))
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}

		for _, it := range draft.Items {
			item := core.BudgetItem{
				ID:          uuid.NewString(),
				BudgetID:    b.ID,
				Category:    it.Category,
				Description: it.Description,
				Amount:      it.Amount,
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO budget_items (id, budget_id, category, description, amount)
				 VALUES (?, ?, ?, ?, ?)`,
				item.ID, item.BudgetID, item.Category, nullable(item.Description), item.Amount.String())
			if err != nil {
				return fmt.Errorf("insert budget item: %w", err)
			}
			b.Items = append(b.Items, item)
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

type BudgetFilter struct {
	ProjectID    string
	DepartmentID string
	Offset       int
	Limit        int
}

func (s *Store) ListBudgets(ctx context.Context, f BudgetFilter) ([]core.Budget, error) {
	query := `SELECT ` + budgetCols + ` FROM budgets WHERE 1=1`
	var args []any
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.DepartmentID != "" {
		query += ` AND department_id = ?`
		args = append(args, f.DepartmentID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, normLimit(f.Limit), f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *Store) GetBudgetByID(ctx context.Context, id string) (core.Budget, error) {
	return s.getBudget(ctx, `SELECT `+budgetCols+` FROM budgets WHERE id = ?`, id)
}

func (s *Store) GetBudgetByName(ctx context.Context, name string) (core.Budget, error) {
	return s.getBudget(ctx, `SELECT `+budgetCols+` FROM budgets WHERE name = ? ORDER BY created_at DESC LIMIT 1`, name)
}

func (s *Store) getBudget(ctx context.Context, query, arg string) (core.Budget, error) {
	b, err := scanBudget(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %s: %w", arg, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	if b.Items, err = s.listBudgetItems(ctx, b.ID); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *Store) listBudgetItems(ctx context.Context, budgetID string) ([]core.BudgetItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, budget_id, category, description, amount
		 FROM budget_items WHERE budget_id = ? ORDER BY rowid`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list budget items: %w", err)
	}
	defer rows.Close()

	var items []core.BudgetItem
	for rows.Next() {
		var (
			it     core.BudgetItem
			desc   sql.NullString
			amount string
		)
		if err := rows.Scan(&it.ID, &it.BudgetID, &it.Category, &desc, &amount); err != nil {
			return nil, fmt.Errorf("scan budget item: %w", err)
		}
		it.Description = orEmpty(desc)
		if it.Amount, err = parseStoredDecimal(amount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) UpdateBudget(ctx context.Context, id string, patch core.BudgetPatch) (core.Budget, error) {
	var updated core.Budget
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := scanBudget(tx.QueryRowContext(ctx, `SELECT `+budgetCols+` FROM budgets WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get budget: %w", err)
		}

		if patch.Name != nil {
			b.Name = *patch.Name
		}
		if patch.Description != nil {
			b.Description = *patch.Description
		}
		if patch.Amount != nil {
			b.Amount = *patch.Amount
		}
		if patch.StartDate != nil {
			b.StartDate = patch.StartDate.UTC()
		}
		if patch.EndDate != nil {
			b.EndDate = patch.EndDate.UTC()
		}
		if patch.ProjectID != nil {
			b.ProjectID = *patch.ProjectID
		}
		if patch.DepartmentID != nil {
			b.DepartmentID = *patch.DepartmentID
		}
		if b.EndDate.Before(b.StartDate) {
			return fmt.Errorf("%w: end_date must not precede start_date", core.ErrInvalidInput)
		}
		b.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx,
			`UPDATE budgets SET name = ?, description = ?, amount = ?, start_date = ?, end_date = ?,
			        project_id = ?, department_id = ?, updated_at = ? WHERE id = ?`,
			b.Name, nullable(b.Description), b.Amount.String(),
			fmtTime(b.StartDate), fmtTime(b.EndDate),
			nullable(b.ProjectID), nullable(b.DepartmentID), fmtTime(b.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		updated = b
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	if updated.Items, err = s.listBudgetItems(ctx, updated.ID); err != nil {
		return core.Budget{}, err
	}
	return updated, nil
}

// DeleteBudget removes the budget and its items in one transaction.
func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM budget_items WHERE budget_id = ?`, id); err != nil {
			return fmt.Errorf("delete budget items: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete budget: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete budget: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
		}
		return nil
	})
}
