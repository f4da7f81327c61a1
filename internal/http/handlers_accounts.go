package http

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/storage"
)

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var draft core.AccountDraft
		if err := decodeJSON(r, &draft); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a, err := s.store.CreateAccount(r.Context(), draft)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)

	case http.MethodGet:
		filter := storage.AccountFilter{}
		filter.Offset, filter.Limit = parsePaging(r)
		if v := queryParam(r, "is_active"); v != "" {
			active, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid is_active: want true or false")
				return
			}
			filter.IsActive = &active
		}
		accounts, err := s.store.ListAccounts(r.Context(), filter)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, accounts)

	default:
		methodNotAllowed(w, http.MethodPost, http.MethodGet)
	}
}

func (s *Server) handleAccountByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		a, err := s.store.GetAccountByID(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)

	case http.MethodPatch:
		var patch core.AccountPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a, err := s.store.UpdateAccount(r.Context(), id, patch)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.ledger.InvalidateReports()
		writeJSON(w, http.StatusOK, a)

	case http.MethodDelete:
		if err := s.store.DeleteAccount(r.Context(), id); err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.ledger.InvalidateReports()
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (s *Server) handleAccountByNumber(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	a, err := s.store.GetAccountByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type adjustBalanceRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Deposit bool            `json:"deposit"`
}

func (s *Server) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req adjustBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusUnprocessableEntity, "amount must be positive")
		return
	}

	a, err := s.ledger.AdjustBalance(r.Context(), r.PathValue("id"), req.Amount, req.Deposit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
