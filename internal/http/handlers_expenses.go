package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/storage"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var draft core.ExpenseDraft
		if err := decodeJSON(r, &draft); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		e, err := s.store.CreateExpense(r.Context(), draft)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.ledger.InvalidateReports()
		writeJSON(w, http.StatusCreated, e)

	case http.MethodGet:
		filter := storage.ExpenseFilter{
			EmployeeID:   queryParam(r, "employee_id"),
			ProjectID:    queryParam(r, "project_id"),
			DepartmentID: queryParam(r, "department_id"),
		}
		filter.Offset, filter.Limit = parsePaging(r)
		if v := queryParam(r, "status"); v != "" {
			status := core.ExpenseStatus(v)
			if !status.Valid() {
				writeError(w, http.StatusBadRequest, "invalid status: "+v)
				return
			}
			filter.Status = status
		}
		var err error
		if filter.From, err = parseDateParam(r, "from_date"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if filter.To, err = parseDateParam(r, "to_date"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		expenses, err := s.store.ListExpenses(r.Context(), filter)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, expenses)

	default:
		methodNotAllowed(w, http.MethodPost, http.MethodGet)
	}
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		e, err := s.store.GetExpenseByID(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)

	case http.MethodPatch:
		var patch core.ExpensePatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		e, err := s.store.UpdateExpense(r.Context(), id, patch)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.ledger.InvalidateReports()
		writeJSON(w, http.StatusOK, e)

	case http.MethodDelete:
		if err := s.store.DeleteExpense(r.Context(), id); err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.ledger.InvalidateReports()
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

type approvalRequest struct {
	ApproverID string `json:"approver_id"`
}

func (s *Server) handleApproveExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req approvalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, err := s.ledger.ApproveExpense(r.Context(), r.PathValue("id"), req.ApproverID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleRejectExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req approvalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, err := s.ledger.RejectExpense(r.Context(), r.PathValue("id"), req.ApproverID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
