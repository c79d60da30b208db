package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/heritage/internal/models"
)

// handleAssets handles GET (list) and POST (create or update) on /api/assets.
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx := r.Context()

	if r.Method == http.MethodGet {
		assets, err := s.app.AssetService.GetAll(ctx)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if assets == nil {
			assets = []*models.Asset{}
		}
		WriteJSON(w, http.StatusOK, assets)
		return
	}

	var asset models.Asset
	if !DecodeJSON(w, r, &asset) {
		return
	}
	if err := s.app.AssetService.Save(ctx, &asset); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, asset)
}

func (s *Server) handleAssetGet(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	asset, err := s.app.AssetService.GetByID(r.Context(), code)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, asset)
}

// handleAssetBackfill handles POST /api/assets/{code}/backfill?from=YYYY-MM.
func (s *Server) handleAssetBackfill(w http.ResponseWriter, r *http.Request, code string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	raw := r.URL.Query().Get("from")
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "from is required (YYYY-MM)")
		return
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "from must be formatted YYYY-MM")
		return
	}
	from := models.MonthOf(t)

	n, err := s.app.AssetService.BackfillMonthlyPrices(r.Context(), code, from)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"code":   code,
		"from":   from.String(),
		"stored": n,
	})
}
