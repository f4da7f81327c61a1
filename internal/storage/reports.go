package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Aggregate primitives for the report builders. Matching rows are folded in
// Go with decimal arithmetic rather than SQL SUM over floats, so report
// totals reproduce the stored amounts exactly. A sum over zero rows is zero;
// a grouped sum never emits a key for a zero-row group.

func (s *Store) foldSum(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("sum query: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Decimal{}, fmt.Errorf("scan amount: %w", err)
		}
		d, err := parseStoredDecimal(raw)
		if err != nil {
			return decimal.Decimal{}, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func (s *Store) foldGroup(ctx context.Context, query string, args ...any) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("group query: %w", err)
	}
	defer rows.Close()

	groups := make(map[string]decimal.Decimal)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		d, err := parseStoredDecimal(raw)
		if err != nil {
			return nil, err
		}
		groups[key] = groups[key].Add(d)
	}
	return groups, rows.Err()
}

// foldByMonth buckets (date, amount) rows by the date's calendar month.
func (s *Store) foldByMonth(ctx context.Context, query string, args ...any) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("month query: %w", err)
	}
	defer rows.Close()

	groups := make(map[string]decimal.Decimal)
	for rows.Next() {
		var date, raw string
		if err := rows.Scan(&date, &raw); err != nil {
			return nil, fmt.Errorf("scan month row: %w", err)
		}
		t, err := parseStoredTime(date)
		if err != nil {
			return nil, err
		}
		d, err := parseStoredDecimal(raw)
		if err != nil {
			return nil, err
		}
		key := core.MonthKey(t)
		groups[key] = groups[key].Add(d)
	}
	return groups, rows.Err()
}

// SumInvoiceTotals sums total_amount over invoices with the given status
// whose issue date falls inside the window.
func (s *Store) SumInvoiceTotals(ctx context.Context, status core.PaymentStatus, w core.Window) (decimal.Decimal, error) {
	return s.foldSum(ctx,
		`SELECT total_amount FROM invoices WHERE status = ? AND issue_date >= ? AND issue_date <= ?`,
		string(status), fmtTime(w.From), fmtTime(w.To))
}

// SumInvoiceTotalsThrough sums total_amount over invoices with the given
// status issued on or before the bound; the summary's pending and overdue
// figures have no lower bound.
func (s *Store) SumInvoiceTotalsThrough(ctx context.Context, status core.PaymentStatus, to time.Time) (decimal.Decimal, error) {
	return s.foldSum(ctx,
		`SELECT total_amount FROM invoices WHERE status = ? AND issue_date <= ?`,
		string(status), fmtTime(to))
}

func (s *Store) GroupPaidInvoicesByClient(ctx context.Context, w core.Window) (map[string]decimal.Decimal, error) {
	return s.foldGroup(ctx,
		`SELECT client_id, total_amount FROM invoices
		 WHERE status = ? AND issue_date >= ? AND issue_date <= ?`,
		string(core.StatusPaid), fmtTime(w.From), fmtTime(w.To))
}

func (s *Store) GroupPaidInvoicesByProject(ctx context.Context, w core.Window) (map[string]decimal.Decimal, error) {
	return s.foldGroup(ctx,
		`SELECT project_id, total_amount FROM invoices
		 WHERE project_id IS NOT NULL AND status = ? AND issue_date >= ? AND issue_date <= ?`,
		string(core.StatusPaid), fmtTime(w.From), fmtTime(w.To))
}

func (s *Store) GroupPaidInvoicesByMonth(ctx context.Context, w core.Window) (map[string]decimal.Decimal, error) {
	return s.foldByMonth(ctx,
		`SELECT issue_date, total_amount FROM invoices
		 WHERE status = ? AND issue_date >= ? AND issue_date <= ?`,
		string(core.StatusPaid), fmtTime(w.From), fmtTime(w.To))
}

func (s *Store) SumApprovedExpenses(ctx context.Context, w core.Window) (decimal.Decimal, error) {
	return s.foldSum(ctx,
		`SELECT amount FROM expenses WHERE status = ? AND expense_date >= ? AND expense_date <= ?`,
		string(core.ExpenseApproved), fmtTime(w.From), fmtTime(w.To))
}

func (s *Store) GroupApprovedExpensesByCategory(ctx context.Context, w core.Window) (map[string]decimal.Decimal, error) {
	return s.foldGroup(ctx,
		`SELECT category, amount FROM expenses
		 WHERE status = ? AND expense_date >= ? AND expense_date <= ?`,
		string(core.ExpenseApproved), fmtTime(w.From), fmtTime(w.To))
}

func (s *Store) GroupApprovedExpensesByEmployee(ctx context.Context, w core.Window) (map[string]decimal.Decimal, error) {
	return s.foldGroup(ctx,
		`SELECT employee_id, amount FROM expenses
		 WHERE status = ? AND expense_date >= ? AND expense_date <= ?`,
		string(core.ExpenseApproved), fmtTime(w.From), fmtTime(w.To))
}

func (s *Store) GroupApprovedExpensesByProject(ctx context.Context, w core.Window) (map[string]decimal.Decimal, error) {
	return s.foldGroup(ctx,
		`SELECT project_id, amount FROM expenses
		 WHERE project_id IS NOT NULL AND status = ? AND expense_date >= ? AND expense_date <= ?`,
		string(core.ExpenseApproved), fmtTime(w.From), fmtTime(w.To))
}

func (s *Store) GroupApprovedExpensesByMonth(ctx context.Context, w core.Window) (map[string]decimal.Decimal, error) {
	return s.foldByMonth(ctx,
		`SELECT expense_date, amount FROM expenses
		 WHERE status = ? AND expense_date >= ? AND expense_date <= ?`,
		string(core.ExpenseApproved), fmtTime(w.From), fmtTime(w.To))
}

// GroupIncomeByCategory sums income transactions per category inside the
// window, feeding the profit/loss report's income side.
func (s *Store) GroupIncomeByCategory(ctx context.Context, w core.Window) (map[string]decimal.Decimal, error) {
	return s.foldGroup(ctx,
		`SELECT category, amount FROM transactions
		 WHERE transaction_type = ? AND transaction_date >= ? AND transaction_date <= ?`,
		string(core.TypeIncome), fmtTime(w.From), fmtTime(w.To))
}

func (s *Store) SumProjectRevenue(ctx context.Context, projectID string, w core.Window) (decimal.Decimal, error) {
	return s.foldSum(ctx,
		`SELECT total_amount FROM invoices
		 WHERE project_id = ? AND status = ? AND issue_date >= ? AND issue_date <= ?`,
		projectID, string(core.StatusPaid), fmtTime(w.From), fmtTime(w.To))
}

func (s *Store) SumProjectExpenses(ctx context.Context, projectID string, w core.Window) (decimal.Decimal, error) {
	return s.foldSum(ctx,
		`SELECT amount FROM expenses
		 WHERE project_id = ? AND status = ? AND expense_date >= ? AND expense_date <= ?`,
		projectID, string(core.ExpenseApproved), fmtTime(w.From), fmtTime(w.To))
}

// LatestBudgetOverlapping returns the most recently created budget for the
// project whose [start_date, end_date] overlaps the window. The boolean is
// false when no budget overlaps.
func (s *Store) LatestBudgetOverlapping(ctx context.Context, projectID string, w core.Window) (core.Budget, bool, error) {
	b, err := scanBudget(s.db.QueryRowContext(ctx,
		`SELECT `+budgetCols+` FROM budgets
		 WHERE project_id = ? AND start_date <= ? AND end_date >= ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		projectID, fmtTime(w.To), fmtTime(w.From)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("latest overlapping budget: %w", err)
	}
	return b, true, nil
}
