package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Patches carry partial-field updates. A nil field is "leave unchanged"; the
// store applies only the fields that are set.

type AccountPatch struct {
	Name          *string          `json:"name,omitempty"`
	AccountType   *AccountType     `json:"account_type,omitempty"`
	AccountNumber *string          `json:"account_number,omitempty"`
	Currency      *string          `json:"currency,omitempty"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

type InvoicePatch struct {
	ClientID    *string          `json:"client_id,omitempty"`
	ProjectID   *string          `json:"project_id,omitempty"`
	IssueDate   *time.Time       `json:"issue_date,omitempty"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	TaxAmount   *decimal.Decimal `json:"tax_amount,omitempty"`
	Status      *PaymentStatus   `json:"status,omitempty"`
	Description *string          `json:"description,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

type BudgetPatch struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	StartDate    *time.Time       `json:"start_date,omitempty"`
	EndDate      *time.Time       `json:"end_date,omitempty"`
	ProjectID    *string          `json:"project_id,omitempty"`
	DepartmentID *string          `json:"department_id,omitempty"`
}

type ExpensePatch struct {
	Category     *string          `json:"category,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Currency     *string          `json:"currency,omitempty"`
	Description  *string          `json:"description,omitempty"`
	ReceiptURL   *string          `json:"receipt_url,omitempty"`
	ExpenseDate  *time.Time       `json:"expense_date,omitempty"`
	ProjectID    *string          `json:"project_id,omitempty"`
	DepartmentID *string          `json:"department_id,omitempty"`
}
