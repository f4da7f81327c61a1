package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/storage"
)

// reportListLimit bounds the nested invoice and expense projections in the
// project report.
const reportListLimit = 1000

// Reports builds the read-only aggregation reports. Responses are cached per
// report and window for a short TTL; ledger writes purge the cache.
type Reports struct {
	store *storage.Store
	cache *cache.TTLCache[any]
	now   func() time.Time
}

func NewReports(store *storage.Store, c *cache.TTLCache[any]) *Reports {
	return &Reports{
		store: store,
		cache: c,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// FinancialSummary reports paid income against approved expenses inside the
// window. Pending and overdue totals have no lower date bound: everything
// still open as of the window end counts.
func (r *Reports) FinancialSummary(ctx context.Context, w core.Window) (core.FinancialSummary, error) {
	if cached, ok := fromCache[core.FinancialSummary](r.cache, "summary", w, ""); ok {
		return cached, nil
	}

	income, err := r.store.SumInvoiceTotals(ctx, core.StatusPaid, w)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("sum income: %w", err)
	}
	expenses, err := r.store.SumApprovedExpenses(ctx, w)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("sum expenses: %w", err)
	}
	pending, err := r.store.SumInvoiceTotalsThrough(ctx, core.StatusPending, w.To)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("sum pending invoices: %w", err)
	}
	overdue, err := r.store.SumInvoiceTotalsThrough(ctx, core.StatusOverdue, w.To)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("sum overdue invoices: %w", err)
	}

	report := core.FinancialSummary{
		TotalIncome:     income,
		TotalExpenses:   expenses,
		NetProfit:       income.Sub(expenses),
		PendingInvoices: pending,
		OverdueInvoices: overdue,
		PeriodStart:     w.From,
		PeriodEnd:       w.To,
		GeneratedAt:     r.now(),
	}
	toCache(r.cache, "summary", w, "", report)
	return report, nil
}

// ProfitLoss categorizes income transactions against approved expenses.
func (r *Reports) ProfitLoss(ctx context.Context, w core.Window) (core.ProfitLossReport, error) {
	if cached, ok := fromCache[core.ProfitLossReport](r.cache, "profit-loss", w, ""); ok {
		return cached, nil
	}

	income, err := r.store.GroupIncomeByCategory(ctx, w)
	if err != nil {
		return core.ProfitLossReport{}, fmt.Errorf("group income: %w", err)
	}
	expenses, err := r.store.GroupApprovedExpensesByCategory(ctx, w)
	if err != nil {
		return core.ProfitLossReport{}, fmt.Errorf("group expenses: %w", err)
	}

	report := core.ProfitLossReport{
		Income:      income,
		Expenses:    expenses,
		NetProfit:   sumValues(income).Sub(sumValues(expenses)),
		PeriodStart: w.From,
		PeriodEnd:   w.To,
		GeneratedAt: r.now(),
	}
	toCache(r.cache, "profit-loss", w, "", report)
	return report, nil
}

// Revenue breaks paid invoice totals down by client, project and month.
func (r *Reports) Revenue(ctx context.Context, w core.Window) (core.RevenueReport, error) {
	if cached, ok := fromCache[core.RevenueReport](r.cache, "revenue", w, ""); ok {
		return cached, nil
	}

	total, err := r.store.SumInvoiceTotals(ctx, core.StatusPaid, w)
	if err != nil {
		return core.RevenueReport{}, fmt.Errorf("sum revenue: %w", err)
	}
	byClient, err := r.store.GroupPaidInvoicesByClient(ctx, w)
	if err != nil {
		return core.RevenueReport{}, fmt.Errorf("group by client: %w", err)
	}
	byProject, err := r.store.GroupPaidInvoicesByProject(ctx, w)
	if err != nil {
		return core.RevenueReport{}, fmt.Errorf("group by project: %w", err)
	}
	byMonth, err := r.store.GroupPaidInvoicesByMonth(ctx, w)
	if err != nil {
		return core.RevenueReport{}, fmt.Errorf("group by month: %w", err)
	}

	report := core.RevenueReport{
		TotalRevenue: total,
		ByClient:     byClient,
		ByProject:    byProject,
		ByMonth:      byMonth,
		PeriodStart:  w.From,
		PeriodEnd:    w.To,
		GeneratedAt:  r.now(),
	}
	toCache(r.cache, "revenue", w, "", report)
	return report, nil
}

// Expenses breaks approved expense totals down by category, employee,
// project and month.
func (r *Reports) Expenses(ctx context.Context, w core.Window) (core.ExpenseReport, error) {
	if cached, ok := fromCache[core.ExpenseReport](r.cache, "expenses", w, ""); ok {
		return cached, nil
	}

	total, err := r.store.SumApprovedExpenses(ctx, w)
	if err != nil {
		return core.ExpenseReport{}, fmt.Errorf("sum expenses: %w", err)
	}
	byCategory, err := r.store.GroupApprovedExpensesByCategory(ctx, w)
	if err != nil {
		return core.ExpenseReport{}, fmt.Errorf("group by category: %w", err)
	}
	byEmployee, err := r.store.GroupApprovedExpensesByEmployee(ctx, w)
	if err != nil {
		return core.ExpenseReport{}, fmt.Errorf("group by employee: %w", err)
	}
	byProject, err := r.store.GroupApprovedExpensesByProject(ctx, w)
	if err != nil {
		return core.ExpenseReport{}, fmt.Errorf("group by project: %w", err)
	}
	byMonth, err := r.store.GroupApprovedExpensesByMonth(ctx, w)
	if err != nil {
		return core.ExpenseReport{}, fmt.Errorf("group by month: %w", err)
	}

	report := core.ExpenseReport{
		TotalExpenses: total,
		ByCategory:    byCategory,
		ByEmployee:    byEmployee,
		ByProject:     byProject,
		ByMonth:       byMonth,
		PeriodStart:   w.From,
		PeriodEnd:     w.To,
		GeneratedAt:   r.now(),
	}
	toCache(r.cache, "expenses", w, "", report)
	return report, nil
}

// ProjectFinance reports a single project: paid revenue vs approved expenses,
// the most recent overlapping budget, and all of the project's invoices and
// expenses in the window regardless of status. Nested projections carry no
// line items.
func (r *Reports) ProjectFinance(ctx context.Context, projectID string, w core.Window) (core.ProjectFinanceReport, error) {
	if projectID == "" {
		return core.ProjectFinanceReport{}, fmt.Errorf("%w: project id is required", core.ErrInvalidInput)
	}
	if cached, ok := fromCache[core.ProjectFinanceReport](r.cache, "project", w, projectID); ok {
		return cached, nil
	}

	revenue, err := r.store.SumProjectRevenue(ctx, projectID, w)
	if err != nil {
		return core.ProjectFinanceReport{}, fmt.Errorf("sum project revenue: %w", err)
	}
	expenses, err := r.store.SumProjectExpenses(ctx, projectID, w)
	if err != nil {
		return core.ProjectFinanceReport{}, fmt.Errorf("sum project expenses: %w", err)
	}

	budgetAmount, budgetRemaining := decimal.Zero, decimal.Zero
	budget, ok, err := r.store.LatestBudgetOverlapping(ctx, projectID, w)
	if err != nil {
		return core.ProjectFinanceReport{}, fmt.Errorf("project budget: %w", err)
	}
	if ok {
		budgetAmount = budget.Amount
		budgetRemaining = budget.Amount.Sub(expenses)
	}

	invoices, err := r.store.ListInvoices(ctx, storage.InvoiceFilter{
		ProjectID: projectID, From: w.From, To: w.To, Limit: reportListLimit,
	})
	if err != nil {
		return core.ProjectFinanceReport{}, fmt.Errorf("list project invoices: %w", err)
	}
	expenseRows, err := r.store.ListExpenses(ctx, storage.ExpenseFilter{
		ProjectID: projectID, From: w.From, To: w.To, Limit: reportListLimit,
	})
	if err != nil {
		return core.ProjectFinanceReport{}, fmt.Errorf("list project expenses: %w", err)
	}

	invoiceLines := make([]core.ProjectInvoiceLine, 0, len(invoices))
	for _, inv := range invoices {
		invoiceLines = append(invoiceLines, core.ProjectInvoiceLine{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			IssueDate:     inv.IssueDate,
			DueDate:       inv.DueDate,
			Amount:        inv.TotalAmount,
			Status:        inv.Status,
		})
	}
	expenseLines := make([]core.ProjectExpenseLine, 0, len(expenseRows))
	for _, e := range expenseRows {
		expenseLines = append(expenseLines, core.ProjectExpenseLine{
			ExpenseID:   e.ID,
			Category:    e.Category,
			ExpenseDate: e.ExpenseDate,
			Amount:      e.Amount,
			Status:      e.Status,
		})
	}

	report := core.ProjectFinanceReport{
		ProjectID:       projectID,
		ProjectName:     fmt.Sprintf("Project %s", projectID),
		TotalRevenue:    revenue,
		TotalExpenses:   expenses,
		Profit:          revenue.Sub(expenses),
		BudgetAmount:    budgetAmount,
		BudgetRemaining: budgetRemaining,
		Invoices:        invoiceLines,
		Expenses:        expenseLines,
		PeriodStart:     w.From,
		PeriodEnd:       w.To,
		GeneratedAt:     r.now(),
	}
	toCache(r.cache, "project", w, projectID, report)
	return report, nil
}

func sumValues(m map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

func cacheKey(report string, w core.Window, extra string) string {
	return fmt.Sprintf("%s|%s|%s|%s", report, extra,
		w.From.Format(time.RFC3339), w.To.Format(time.RFC3339))
}

func fromCache[T any](c *cache.TTLCache[any], report string, w core.Window, extra string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.Get(cacheKey(report, w, extra))
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func toCache(c *cache.TTLCache[any], report string, w core.Window, extra string, v any) {
	if c != nil {
		c.Set(cacheKey(report, w, extra), v)
	}
}
