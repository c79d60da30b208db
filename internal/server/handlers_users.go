package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bobmcallan/heritage/internal/models"
)

// defaultEvolutionMonths is used when the months query parameter is absent.
const defaultEvolutionMonths = 12

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	p, err := s.app.ValuationService.GetPortfolio(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handleHeritageEvolution(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	months, ok := monthsParam(w, r)
	if !ok {
		return
	}
	evo, err := s.app.ValuationService.GetMonthlyHeritageEvolution(r.Context(), userID, months)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, evo)
}

func (s *Server) handleInvestmentEvolution(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	months, ok := monthsParam(w, r)
	if !ok {
		return
	}
	evo, err := s.app.ValuationService.GetMonthlyInvestmentEvolution(r.Context(), userID, months)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, evo)
}

// monthsParam reads ?months=N. Range checks belong to the valuation service.
func monthsParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("months")
	if raw == "" {
		return defaultEvolutionMonths, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "months must be an integer")
		return 0, false
	}
	return n, true
}

// handleTransactions lists (GET) or records (POST) a user's transactions.
// POST accepts a single transaction object or an array of them.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx := r.Context()

	if r.Method == http.MethodGet {
		txs, err := s.app.TransactionService.List(ctx, userID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if txs == nil {
			txs = []*models.Transaction{}
		}
		WriteJSON(w, http.StatusOK, txs)
		return
	}

	var raw json.RawMessage
	if !DecodeJSON(w, r, &raw) {
		return
	}

	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var txs []*models.Transaction
		if err := json.Unmarshal(trimmed, &txs); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
		created, err := s.app.TransactionService.AddRange(ctx, userID, txs)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)
		return
	}

	var tx models.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	tx.UserID = userID
	created, err := s.app.TransactionService.Add(ctx, &tx)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request, userID, id string) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	if err := s.app.TransactionService.Remove(r.Context(), userID, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
