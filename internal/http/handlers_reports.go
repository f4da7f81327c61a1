package http

import (
	"log/slog"
	"net/http"
	"time"

	"ledger/internal/core"
)

func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	window, err := parseWindow(r, core.CurrentMonth(time.Now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.reports.FinancialSummary(r.Context(), window)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleExportSummary builds the summary for the requested window and appends
// it to the configured spreadsheet. 503 when no exporter is configured.
func (s *Server) handleExportSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}
	window, err := parseWindow(r, core.CurrentMonth(time.Now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.reports.FinancialSummary(r.Context(), window)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.exporter.AppendSummary(r.Context(), report); err != nil {
		slog.ErrorContext(r.Context(), "Failed to export summary", "error", err)
		writeError(w, http.StatusBadGateway, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleProfitLossReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	window, err := parseWindow(r, core.CurrentMonth(time.Now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.reports.ProfitLoss(r.Context(), window)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRevenueReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	window, err := parseWindow(r, core.CurrentMonth(time.Now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.reports.Revenue(r.Context(), window)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExpenseReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	window, err := parseWindow(r, core.CurrentMonth(time.Now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.reports.Expenses(r.Context(), window)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleProjectReport defaults to an all-time window rather than the current
// month so a project's full history shows up without query parameters.
func (s *Server) handleProjectReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	window, err := parseWindow(r, core.AllTimeThrough(time.Now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.reports.ProjectFinance(r.Context(), r.PathValue("id"), window)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
