package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/storage"
)

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var draft core.BudgetDraft
		if err := decodeJSON(r, &draft); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		b, err := s.ledger.CreateBudget(r.Context(), draft)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)

	case http.MethodGet:
		filter := storage.BudgetFilter{
			ProjectID:    queryParam(r, "project_id"),
			DepartmentID: queryParam(r, "department_id"),
		}
		filter.Offset, filter.Limit = parsePaging(r)
		budgets, err := s.store.ListBudgets(r.Context(), filter)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, budgets)

	default:
		methodNotAllowed(w, http.MethodPost, http.MethodGet)
	}
}

func (s *Server) handleBudgetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		b, err := s.store.GetBudgetByID(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)

	case http.MethodPatch:
		var patch core.BudgetPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		b, err := s.store.UpdateBudget(r.Context(), id, patch)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.ledger.InvalidateReports()
		writeJSON(w, http.StatusOK, b)

	case http.MethodDelete:
		if err := s.store.DeleteBudget(r.Context(), id); err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.ledger.InvalidateReports()
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (s *Server) handleBudgetByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	b, err := s.store.GetBudgetByName(r.Context(), r.PathValue("name"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
