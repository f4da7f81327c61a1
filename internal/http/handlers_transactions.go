package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/storage"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var draft core.TransactionDraft
		if err := decodeJSON(r, &draft); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		t, err := s.ledger.PostTransaction(r.Context(), draft)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)

	case http.MethodGet:
		filter := storage.TransactionFilter{
			AccountID: queryParam(r, "account_id"),
		}
		filter.Offset, filter.Limit = parsePaging(r)
		if v := queryParam(r, "transaction_type"); v != "" {
			tt := core.TransactionType(v)
			if !tt.Valid() {
				writeError(w, http.StatusBadRequest, "invalid transaction_type: "+v)
				return
			}
			filter.TransactionType = tt
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
		transactions, err := s.store.ListTransactions(r.Context(), filter)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, transactions)

	default:
		methodNotAllowed(w, http.MethodPost, http.MethodGet)
	}
}

// handleTransactionByID is read-only: posted transactions are immutable.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	t, err := s.store.GetTransactionByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
