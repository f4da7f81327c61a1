package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   PaymentStatus = "pending"
	StatusPaid      PaymentStatus = "paid"
	StatusOverdue   PaymentStatus = "overdue"
	StatusCancelled PaymentStatus = "cancelled"
	StatusRefunded  PaymentStatus = "refunded"

	ExpensePending    ExpenseStatus = "pending"
	ExpenseApproved   ExpenseStatus = "approved"
	ExpenseRejected   ExpenseStatus = "rejected"
	ExpenseReimbursed ExpenseStatus = "reimbursed"

	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"

	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCash       AccountType = "cash"
	AccountInvestment AccountType = "investment"
	AccountCredit     AccountType = "credit"
)

type (
	PaymentStatus   string
	ExpenseStatus   string
	TransactionType string
	AccountType     string

	Account struct {
		ID            string          `json:"id"`
		Name          string          `json:"name"`
		AccountType   AccountType     `json:"account_type"`
		AccountNumber string          `json:"account_number,omitempty"`
		Currency      string          `json:"currency"`
		Balance       decimal.Decimal `json:"balance"`
		IsActive      bool            `json:"is_active"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}

	Invoice struct {
		ID            string          `json:"id"`
		InvoiceNumber string          `json:"invoice_number"`
		ClientID      string          `json:"client_id"`
		ProjectID     string          `json:"project_id,omitempty"`
		IssueDate     time.Time       `json:"issue_date"`
		DueDate       time.Time       `json:"due_date"`
		Amount        decimal.Decimal `json:"amount"`
		TaxAmount     decimal.Decimal `json:"tax_amount"`
		TotalAmount   decimal.Decimal `json:"total_amount"`
		Status        PaymentStatus   `json:"status"`
		Description   string          `json:"description,omitempty"`
		Notes         string          `json:"notes,omitempty"`
		Items         []InvoiceItem   `json:"items,omitempty"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}

	InvoiceItem struct {
		ID          string          `json:"id"`
		InvoiceID   string          `json:"invoice_id"`
		Description string          `json:"description"`
		Quantity    decimal.Decimal `json:"quantity"`
		UnitPrice   decimal.Decimal `json:"unit_price"`
		Amount      decimal.Decimal `json:"amount"`
	}

	Budget struct {
		ID           string          `json:"id"`
		Name         string          `json:"name"`
		Description  string          `json:"description,omitempty"`
		Amount       decimal.Decimal `json:"amount"`
		StartDate    time.Time       `json:"start_date"`
		EndDate      time.Time       `json:"end_date"`
		ProjectID    string          `json:"project_id,omitempty"`
		DepartmentID string          `json:"department_id,omitempty"`
		CreatedBy    string          `json:"created_by"`
		Items        []BudgetItem    `json:"items,omitempty"`
		CreatedAt    time.Time       `json:"created_at"`
		UpdatedAt    time.Time       `json:"updated_at"`
	}

	BudgetItem struct {
		ID          string          `json:"id"`
		BudgetID    string          `json:"budget_id"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Amount      decimal.Decimal `json:"amount"`
	}

	Expense struct {
		ID           string          `json:"id"`
		EmployeeID   string          `json:"employee_id"`
		Category     string          `json:"category"`
		Amount       decimal.Decimal `json:"amount"`
		Currency     string          `json:"currency"`
		Description  string          `json:"description,omitempty"`
		ReceiptURL   string          `json:"receipt_url,omitempty"`
		ExpenseDate  time.Time       `json:"expense_date"`
		Status       ExpenseStatus   `json:"status"`
		ApprovedBy   string          `json:"approved_by,omitempty"`
		ApprovedAt   *time.Time      `json:"approved_at,omitempty"`
		ProjectID    string          `json:"project_id,omitempty"`
		DepartmentID string          `json:"department_id,omitempty"`
		CreatedAt    time.Time       `json:"created_at"`
		UpdatedAt    time.Time       `json:"updated_at"`
	}

	Transaction struct {
		ID              string          `json:"id"`
		TransactionType TransactionType `json:"transaction_type"`
		Amount          decimal.Decimal `json:"amount"`
		Currency        string          `json:"currency"`
		Description     string          `json:"description,omitempty"`
		TransactionDate time.Time       `json:"transaction_date"`
		AccountID       string          `json:"account_id"`
		Category        string          `json:"category"`
		ReferenceNumber string          `json:"reference_number,omitempty"`
		InvoiceID       string          `json:"invoice_id,omitempty"`
		ExpenseID       string          `json:"expense_id,omitempty"`
		CreatedAt       time.Time       `json:"created_at"`
		UpdatedAt       time.Time       `json:"updated_at"`
	}
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

func (s ExpenseStatus) Valid() bool {
	switch s {
	case ExpensePending, ExpenseApproved, ExpenseRejected, ExpenseReimbursed:
		return true
	}
	return false
}

// Terminal reports whether an expense status may no longer be approved or
// rejected. Only pending expenses accept a transition.
func (s ExpenseStatus) Terminal() bool {
	return s != ExpensePending
}

func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// BalanceDelta returns the signed amount a posted transaction applies to its
// account balance. Transfers leave the balance untouched.
func (t TransactionType) BalanceDelta(amount decimal.Decimal) decimal.Decimal {
	switch t {
	case TypeIncome:
		return amount
	case TypeExpense:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

func (a AccountType) Valid() bool {
	switch a {
	case AccountChecking, AccountSavings, AccountCash, AccountInvestment, AccountCredit:
		return true
	}
	return false
}

// Subtotal returns the sum of item amounts for an invoice's line items.
func Subtotal(items []InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
