package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report shapes returned by the aggregation endpoints. Field names are part
// of the external contract; by_* maps never carry zero-row keys.

type FinancialSummary struct {
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	PendingInvoices decimal.Decimal `json:"pending_invoices"`
	OverdueInvoices decimal.Decimal `json:"overdue_invoices"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

type ProfitLossReport struct {
	Income      map[string]decimal.Decimal `json:"income"`
	Expenses    map[string]decimal.Decimal `json:"expenses"`
	NetProfit   decimal.Decimal            `json:"net_profit"`
	PeriodStart time.Time                  `json:"period_start"`
	PeriodEnd   time.Time                  `json:"period_end"`
	GeneratedAt time.Time                  `json:"generated_at"`
}

type RevenueReport struct {
	TotalRevenue decimal.Decimal            `json:"total_revenue"`
	ByClient     map[string]decimal.Decimal `json:"by_client"`
	ByProject    map[string]decimal.Decimal `json:"by_project"`
	ByMonth      map[string]decimal.Decimal `json:"by_month"`
	PeriodStart  time.Time                  `json:"period_start"`
	PeriodEnd    time.Time                  `json:"period_end"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}

type ExpenseReport struct {
	TotalExpenses decimal.Decimal            `json:"total_expenses"`
	ByCategory    map[string]decimal.Decimal `json:"by_category"`
	ByEmployee    map[string]decimal.Decimal `json:"by_employee"`
	ByProject     map[string]decimal.Decimal `json:"by_project"`
	ByMonth       map[string]decimal.Decimal `json:"by_month"`
	PeriodStart   time.Time                  `json:"period_start"`
	PeriodEnd     time.Time                  `json:"period_end"`
	GeneratedAt   time.Time                  `json:"generated_at"`
}

// ProjectInvoiceLine is the nested invoice projection in the project report.
// Line items are deliberately omitted here.
type ProjectInvoiceLine struct {
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
}

type ProjectExpenseLine struct {
	ExpenseID   string          `json:"expense_id"`
	Category    string          `json:"category"`
	ExpenseDate time.Time       `json:"expense_date"`
	Amount      decimal.Decimal `json:"amount"`
	Status      ExpenseStatus   `json:"status"`
}

type ProjectFinanceReport struct {
	ProjectID       string               `json:"project_id"`
	ProjectName     string               `json:"project_name"`
	TotalRevenue    decimal.Decimal      `json:"total_revenue"`
	TotalExpenses   decimal.Decimal      `json:"total_expenses"`
	Profit          decimal.Decimal      `json:"profit"`
	BudgetAmount    decimal.Decimal      `json:"budget_amount"`
	BudgetRemaining decimal.Decimal      `json:"budget_remaining"`
	Invoices        []ProjectInvoiceLine `json:"invoices"`
	Expenses        []ProjectExpenseLine `json:"expenses"`
	PeriodStart     time.Time            `json:"period_start"`
	PeriodEnd       time.Time            `json:"period_end"`
	GeneratedAt     time.Time            `json:"generated_at"`
}
