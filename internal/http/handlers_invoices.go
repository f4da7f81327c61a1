package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/storage"
)

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var draft core.InvoiceDraft
		if err := decodeJSON(r, &draft); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		inv, err := s.ledger.CreateInvoice(r.Context(), draft)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, inv)

	case http.MethodGet:
		filter := storage.InvoiceFilter{
			ClientID:  queryParam(r, "client_id"),
			ProjectID: queryParam(r, "project_id"),
		}
		filter.Offset, filter.Limit = parsePaging(r)
		if v := queryParam(r, "status"); v != "" {
			status := core.PaymentStatus(v)
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
		invoices, err := s.store.ListInvoices(r.Context(), filter)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, invoices)

	default:
		methodNotAllowed(w, http.MethodPost, http.MethodGet)
	}
}

func (s *Server) handleInvoiceByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		inv, err := s.store.GetInvoiceByID(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, inv)

	case http.MethodPatch:
		var patch core.InvoicePatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		inv, err := s.store.UpdateInvoice(r.Context(), id, patch)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.ledger.InvalidateReports()
		writeJSON(w, http.StatusOK, inv)

	case http.MethodDelete:
		if err := s.store.DeleteInvoice(r.Context(), id); err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.ledger.InvalidateReports()
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	inv, err := s.ledger.PayInvoice(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleInvoiceByNumber(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	inv, err := s.store.GetInvoiceByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
