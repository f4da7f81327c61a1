package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// SummaryExporter pushes a financial summary to an external sheet. A nil
// exporter disables the export endpoint.
type SummaryExporter interface {
	AppendSummary(ctx context.Context, summary core.FinancialSummary) error
}

type Server struct {
	http.Server
	store    *storage.Store
	ledger   *services.Ledger
	reports  *services.Reports
	exporter SummaryExporter

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, store *storage.Store, ledger *services.Ledger, reports *services.Reports, exporter SummaryExporter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       store,
		ledger:      ledger,
		reports:     reports,
		exporter:    exporter,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/accounts", s.withMiddleware(s.handleAccounts))
	mux.HandleFunc("/api/accounts/{id}", s.withMiddleware(s.handleAccountByID))
	mux.HandleFunc("POST /api/accounts/{id}/adjust-balance", s.withMiddleware(s.handleAdjustBalance))
	mux.HandleFunc("GET /api/accounts/by-number/{number}", s.withMiddleware(s.handleAccountByNumber))

	mux.HandleFunc("/api/budgets", s.withMiddleware(s.handleBudgets))
	mux.HandleFunc("/api/budgets/{id}", s.withMiddleware(s.handleBudgetByID))
	mux.HandleFunc("/api/budgets/by-name/{name}", s.withMiddleware(s.handleBudgetByName))

	mux.HandleFunc("/api/expenses", s.withMiddleware(s.handleExpenses))
	mux.HandleFunc("/api/expenses/{id}", s.withMiddleware(s.handleExpenseByID))
	mux.HandleFunc("/api/expenses/{id}/approve", s.withMiddleware(s.handleApproveExpense))
	mux.HandleFunc("/api/expenses/{id}/reject", s.withMiddleware(s.handleRejectExpense))

	mux.HandleFunc("/api/invoices", s.withMiddleware(s.handleInvoices))
	mux.HandleFunc("/api/invoices/{id}", s.withMiddleware(s.handleInvoiceByID))
	mux.HandleFunc("POST /api/invoices/{id}/pay", s.withMiddleware(s.handlePayInvoice))
	mux.HandleFunc("GET /api/invoices/by-number/{number}", s.withMiddleware(s.handleInvoiceByNumber))

	mux.HandleFunc("/api/transactions", s.withMiddleware(s.handleTransactions))
	mux.HandleFunc("/api/transactions/{id}", s.withMiddleware(s.handleTransactionByID))

	mux.HandleFunc("/api/reports/summary", s.withMiddleware(s.handleSummaryReport))
	mux.HandleFunc("/api/reports/summary/export", s.withMiddleware(s.handleExportSummary))
	mux.HandleFunc("/api/reports/profit-loss", s.withMiddleware(s.handleProfitLossReport))
	mux.HandleFunc("/api/reports/revenue", s.withMiddleware(s.handleRevenueReport))
	mux.HandleFunc("/api/reports/expenses", s.withMiddleware(s.handleExpenseReport))
	mux.HandleFunc("/api/reports/project/{id}", s.withMiddleware(s.handleProjectReport))

	return s
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Rate limit mutating requests only.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type contextKey string

const requestIDKey contextKey = "request_id"

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
