package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"ledger/internal/core"
	"ledger/internal/services"
	"ledger/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ledger := services.NewLedger(store, nil, nil)
	reports := services.NewReports(store, nil)
	srv := NewServer("127.0.0.1:0", store, ledger, reports, nil)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createAccount(t *testing.T, s *Server) core.Account {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/accounts", map[string]any{
		"name":           "Operating",
		"account_type":   "checking",
		"account_number": "ACC-100",
		"balance":        "1000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: status %d: %s", rec.Code, rec.Body.String())
	}
	return decode[core.Account](t, rec)
}

func createInvoice(t *testing.T, s *Server) core.Invoice {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/invoices", map[string]any{
		"client_id":  "client-1",
		"project_id": "proj-1",
		"issue_date": "2024-03-01T00:00:00Z",
		"due_date":   "2024-03-31T00:00:00Z",
		"tax_amount": "10",
		"items": []map[string]any{
			{"description": "Consulting", "quantity": "2", "unit_price": "50"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create invoice: status %d: %s", rec.Code, rec.Body.String())
	}
	return decode[core.Invoice](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", rec.Code)
	}
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t)
	account := createAccount(t, s)

	if account.Currency != "USD" {
		t.Errorf("currency = %q, want USD", account.Currency)
	}
	if !account.IsActive {
		t.Error("new account should be active")
	}

	rec := do(t, s, http.MethodGet, "/api/accounts/"+account.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account: status %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/accounts/by-number/ACC-100", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get by number: status %d", rec.Code)
	}
	if got := decode[core.Account](t, rec); got.ID != account.ID {
		t.Errorf("by-number returned %q, want %q", got.ID, account.ID)
	}

	rec = do(t, s, http.MethodPatch, "/api/accounts/"+account.ID, map[string]any{"name": "Reserve"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch account: status %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[core.Account](t, rec); got.Name != "Reserve" {
		t.Errorf("patched name = %q, want Reserve", got.Name)
	}

	rec = do(t, s, http.MethodDelete, "/api/accounts/"+account.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete account: status %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/accounts/"+account.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted account: status %d, want 404", rec.Code)
	}
}

func TestAdjustBalance(t *testing.T) {
	s := newTestServer(t)
	account := createAccount(t, s)

	rec := do(t, s, http.MethodPost, "/api/accounts/"+account.ID+"/adjust-balance",
		map[string]any{"amount": "250", "deposit": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust balance: status %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[core.Account](t, rec); got.Balance.String() != "1250" {
		t.Errorf("balance = %s, want 1250", got.Balance)
	}

	rec = do(t, s, http.MethodPost, "/api/accounts/"+account.ID+"/adjust-balance",
		map[string]any{"amount": "-5", "deposit": true})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative amount: status %d, want 422", rec.Code)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	s := newTestServer(t)
	invoice := createInvoice(t, s)

	if invoice.InvoiceNumber != "INV-0001" {
		t.Errorf("invoice number = %q, want INV-0001", invoice.InvoiceNumber)
	}
	if invoice.TotalAmount.String() != "110" {
		t.Errorf("total = %s, want 110", invoice.TotalAmount)
	}
	if invoice.Status != core.StatusPending {
		t.Errorf("status = %q, want pending", invoice.Status)
	}

	rec := do(t, s, http.MethodGet, "/api/invoices/by-number/INV-0001", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get by number: status %d", rec.Code)
	}
	if got := decode[core.Invoice](t, rec); len(got.Items) != 1 {
		t.Errorf("items = %d, want 1", len(got.Items))
	}

	rec = do(t, s, http.MethodPost, "/api/invoices/"+invoice.ID+"/pay", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay invoice: status %d: %s", rec.Code, rec.Body.String())
	}
	if paid := decode[core.Invoice](t, rec); paid.Status != core.StatusPaid {
		t.Errorf("status after pay = %q, want paid", paid.Status)
	}

	rec = do(t, s, http.MethodDelete, "/api/invoices/"+invoice.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete invoice: status %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/invoices/"+invoice.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted invoice: status %d, want 404", rec.Code)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/invoices", map[string]any{
		"client_id": "client-1",
		"due_date":  "2024-03-31T00:00:00Z",
		"items":     []map[string]any{},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty items: status %d, want 422", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/invoices", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty body: status %d, want 400", rec.Code)
	}
}

func TestInvoiceListFilters(t *testing.T) {
	s := newTestServer(t)
	createInvoice(t, s)
	createInvoice(t, s)

	rec := do(t, s, http.MethodGet, "/api/invoices?client_id=client-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list invoices: status %d", rec.Code)
	}
	if got := decode[[]core.Invoice](t, rec); len(got) != 2 {
		t.Errorf("listed %d invoices, want 2", len(got))
	}

	rec = do(t, s, http.MethodGet, "/api/invoices?status=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status filter: status %d, want 400", rec.Code)
	}
}

func TestExpenseApprovalFlow(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"employee_id":  "emp-1",
		"category":     "travel",
		"amount":       "120",
		"expense_date": "2024-03-10T00:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense: status %d: %s", rec.Code, rec.Body.String())
	}
	expense := decode[core.Expense](t, rec)
	if expense.Status != core.ExpensePending {
		t.Errorf("status = %q, want pending", expense.Status)
	}

	rec = do(t, s, http.MethodPost, "/api/expenses/"+expense.ID+"/approve",
		map[string]any{"approver_id": "mgr-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: status %d: %s", rec.Code, rec.Body.String())
	}
	approved := decode[core.Expense](t, rec)
	if approved.Status != core.ExpenseApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}
	if approved.ApprovedBy != "mgr-1" {
		t.Errorf("approved_by = %q, want mgr-1", approved.ApprovedBy)
	}

	// A terminal expense cannot transition again.
	rec = do(t, s, http.MethodPost, "/api/expenses/"+expense.ID+"/reject",
		map[string]any{"approver_id": "mgr-2"})
	if rec.Code != http.StatusConflict {
		t.Errorf("reject after approve: status %d, want 409", rec.Code)
	}
}

func TestBudgetLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/budgets", map[string]any{
		"name":       "Q1 Marketing",
		"amount":     "5000",
		"start_date": "2024-01-01T00:00:00Z",
		"end_date":   "2024-03-31T00:00:00Z",
		"created_by": "cfo-1",
		"items": []map[string]any{
			{"category": "ads", "amount": "5000"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: status %d: %s", rec.Code, rec.Body.String())
	}
	budget := decode[core.Budget](t, rec)

	rec = do(t, s, http.MethodGet, "/api/budgets/by-name/Q1%20Marketing", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get by name: status %d", rec.Code)
	}
	if got := decode[core.Budget](t, rec); got.ID != budget.ID {
		t.Errorf("by-name returned %q, want %q", got.ID, budget.ID)
	}

	rec = do(t, s, http.MethodPatch, "/api/budgets/"+budget.ID, map[string]any{"amount": "6000"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch budget: status %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[core.Budget](t, rec); got.Amount.String() != "6000" {
		t.Errorf("amount = %s, want 6000", got.Amount)
	}

	rec = do(t, s, http.MethodDelete, "/api/budgets/"+budget.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete budget: status %d", rec.Code)
	}
}

func TestPostTransaction(t *testing.T) {
	s := newTestServer(t)
	account := createAccount(t, s)

	rec := do(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"transaction_type": "income",
		"amount":           "300",
		"account_id":       account.ID,
		"category":         "sales",
		"transaction_date": "2024-03-05T00:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post transaction: status %d: %s", rec.Code, rec.Body.String())
	}
	tx := decode[core.Transaction](t, rec)

	rec = do(t, s, http.MethodGet, "/api/accounts/"+account.ID, nil)
	if got := decode[core.Account](t, rec); got.Balance.String() != "1300" {
		t.Errorf("balance after income = %s, want 1300", got.Balance)
	}

	rec = do(t, s, http.MethodGet, "/api/transactions/"+tx.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get transaction: status %d", rec.Code)
	}

	// Transactions are immutable.
	rec = do(t, s, http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("delete transaction: status %d, want 405", rec.Code)
	}
}

func TestPostTransactionUnknownAccount(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"transaction_type": "income",
		"amount":           "300",
		"account_id":       "nope",
		"category":         "sales",
		"transaction_date": "2024-03-05T00:00:00Z",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSummaryReport(t *testing.T) {
	s := newTestServer(t)
	invoice := createInvoice(t, s)
	do(t, s, http.MethodPost, "/api/invoices/"+invoice.ID+"/pay", nil)

	rec := do(t, s, http.MethodGet, "/api/reports/summary?from_date=2024-03-01&to_date=2024-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status %d: %s", rec.Code, rec.Body.String())
	}
	summary := decode[core.FinancialSummary](t, rec)
	if summary.TotalIncome.String() != "110" {
		t.Errorf("total_income = %s, want 110", summary.TotalIncome)
	}
	if summary.NetProfit.String() != "110" {
		t.Errorf("net_profit = %s, want 110", summary.NetProfit)
	}

	rec = do(t, s, http.MethodGet, "/api/reports/summary?from_date=not-a-date", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad from_date: status %d, want 400", rec.Code)
	}
}

func TestProjectReport(t *testing.T) {
	s := newTestServer(t)
	invoice := createInvoice(t, s)
	do(t, s, http.MethodPost, "/api/invoices/"+invoice.ID+"/pay", nil)

	rec := do(t, s, http.MethodGet, "/api/reports/project/proj-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("project report: status %d: %s", rec.Code, rec.Body.String())
	}
	report := decode[core.ProjectFinanceReport](t, rec)
	if report.ProjectName != "Project proj-1" {
		t.Errorf("project_name = %q", report.ProjectName)
	}
	if report.TotalRevenue.String() != "110" {
		t.Errorf("total_revenue = %s, want 110", report.TotalRevenue)
	}
	if len(report.Invoices) != 1 {
		t.Errorf("invoices = %d, want 1", len(report.Invoices))
	}
}

func TestExportUnconfigured(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/reports/summary/export", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/api/accounts", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
		t.Errorf("Allow header = %q, want POST listed", allow)
	}
}

func TestMalformedJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/accounts", map[string]any{
		"name":         "Ops",
		"account_type": "checking",
		"surprise":     true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/accounts", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimitMutatingRequests(t *testing.T) {
	s := newTestServer(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 61; i++ {
		last = do(t, s, http.MethodPost, "/api/accounts", map[string]any{
			"name":         fmt.Sprintf("acct-%d", i),
			"account_type": "checking",
		})
	}
	if last.Code != http.StatusTooManyRequests {
		t.Errorf("61st mutating request: status %d, want 429", last.Code)
	}
	if got := last.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}

	// Reads are never rate limited.
	rec := do(t, s, http.MethodGet, "/api/accounts", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("read during limit: status %d, want 200", rec.Code)
	}
}
