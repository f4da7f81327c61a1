package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Drafts carry caller-supplied fields for the composing create operations.
// Validate is called before anything touches the store, so composers can
// assume a well-formed draft.

type InvoiceItemDraft struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type InvoiceDraft struct {
	ClientID    string             `json:"client_id"`
	ProjectID   string             `json:"project_id,omitempty"`
	IssueDate   time.Time          `json:"issue_date"`
	DueDate     time.Time          `json:"due_date"`
	TaxAmount   decimal.Decimal    `json:"tax_amount"`
	Description string             `json:"description,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Items       []InvoiceItemDraft `json:"items"`
}

func (d *InvoiceDraft) Validate() error {
	if blank(d.ClientID) {
		return fmt.Errorf("%w: client_id is required", ErrInvalidInput)
	}
	if d.DueDate.IsZero() {
		return fmt.Errorf("%w: due_date is required", ErrInvalidInput)
	}
	if len(d.Items) == 0 {
		return fmt.Errorf("%w: invoice requires at least one item", ErrInvalidInput)
	}
	if d.TaxAmount.IsNegative() {
		return fmt.Errorf("%w: tax_amount cannot be negative", ErrInvalidInput)
	}
	for i := range d.Items {
		it := &d.Items[i]
		if blank(it.Description) {
			return fmt.Errorf("%w: item %d: description is required", ErrInvalidInput, i)
		}
		if it.Quantity.IsZero() {
			it.Quantity = decimal.NewFromInt(1)
		}
		if it.Quantity.IsNegative() {
			return fmt.Errorf("%w: item %d: quantity must be positive", ErrInvalidInput, i)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item %d: unit_price cannot be negative", ErrInvalidInput, i)
		}
	}
	return nil
}

// Subtotal is the sum of quantity x unit price over all items. Validate must
// have run first so defaulted quantities are in place.
func (d *InvoiceDraft) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range d.Items {
		total = total.Add(it.Quantity.Mul(it.UnitPrice))
	}
	return total
}

type BudgetItemDraft struct {
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

type BudgetDraft struct {
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Amount       decimal.Decimal   `json:"amount"`
	StartDate    time.Time         `json:"start_date"`
	EndDate      time.Time         `json:"end_date"`
	ProjectID    string            `json:"project_id,omitempty"`
	DepartmentID string            `json:"department_id,omitempty"`
	CreatedBy    string            `json:"created_by"`
	Items        []BudgetItemDraft `json:"items"`
}

func (d *BudgetDraft) Validate() error {
	if blank(d.Name) {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if blank(d.CreatedBy) {
		return fmt.Errorf("%w: created_by is required", ErrInvalidInput)
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrInvalidInput)
	}
	if d.EndDate.Before(d.StartDate) {
		return fmt.Errorf("%w: end_date must not precede start_date", ErrInvalidInput)
	}
	if len(d.Items) == 0 {
		return fmt.Errorf("%w: budget requires at least one item", ErrInvalidInput)
	}
	for i, it := range d.Items {
		if blank(it.Category) {
			return fmt.Errorf("%w: item %d: category is required", ErrInvalidInput, i)
		}
		if it.Amount.IsNegative() {
			return fmt.Errorf("%w: item %d: amount cannot be negative", ErrInvalidInput, i)
		}
	}
	return nil
}

type ExpenseDraft struct {
	EmployeeID   string          `json:"employee_id"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty"`
	Description  string          `json:"description,omitempty"`
	ReceiptURL   string          `json:"receipt_url,omitempty"`
	ExpenseDate  time.Time       `json:"expense_date"`
	ProjectID    string          `json:"project_id,omitempty"`
	DepartmentID string          `json:"department_id,omitempty"`
}

func (d *ExpenseDraft) Validate() error {
	if blank(d.EmployeeID) {
		return fmt.Errorf("%w: employee_id is required", ErrInvalidInput)
	}
	if blank(d.Category) {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if !d.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if d.ExpenseDate.IsZero() {
		return fmt.Errorf("%w: expense_date is required", ErrInvalidInput)
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	return nil
}

type TransactionDraft struct {
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	Description     string          `json:"description,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	AccountID       string          `json:"account_id"`
	Category        string          `json:"category"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	InvoiceID       string          `json:"invoice_id,omitempty"`
	ExpenseID       string          `json:"expense_id,omitempty"`
}

func (d *TransactionDraft) Validate() error {
	if !d.TransactionType.Valid() {
		return fmt.Errorf("%w: transaction_type must be income, expense or transfer", ErrInvalidInput)
	}
	if blank(d.AccountID) {
		return fmt.Errorf("%w: account_id is required", ErrInvalidInput)
	}
	if !d.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if d.TransactionDate.IsZero() {
		return fmt.Errorf("%w: transaction_date is required", ErrInvalidInput)
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	return nil
}

type AccountDraft struct {
	Name          string          `json:"name"`
	AccountType   AccountType     `json:"account_type"`
	AccountNumber string          `json:"account_number,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

func (d *AccountDraft) Validate() error {
	if blank(d.Name) {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !d.AccountType.Valid() {
		return fmt.Errorf("%w: unknown account_type %q", ErrInvalidInput, d.AccountType)
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	return nil
}
