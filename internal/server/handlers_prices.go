package server

import (
	"net/http"

	"github.com/bobmcallan/heritage/internal/models"
)

// handleMonthlyPricesImport handles POST /api/prices/monthly with a list of
// ticker-keyed monthly closes.
func (s *Server) handleMonthlyPricesImport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var inputs []models.MonthlyPriceInput
	if !DecodeJSON(w, r, &inputs) {
		return
	}
	n, err := s.app.PriceService.AddMonthlyPrices(r.Context(), inputs)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"stored": n})
}

// handleMonthlyPricesQuery handles POST /api/prices/query.
func (s *Server) handleMonthlyPricesQuery(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req models.AssetMonthlyPriceRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	prices, err := s.app.PriceService.GetAssetMonthlyPrices(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if prices == nil {
		prices = []models.AssetMonthlyPrice{}
	}
	WriteJSON(w, http.StatusOK, prices)
}
