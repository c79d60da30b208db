package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/heritage/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Asset directory
	mux.HandleFunc("/api/assets/", s.routeAssets)
	mux.HandleFunc("/api/assets", s.handleAssets)

	// Historical prices
	mux.HandleFunc("/api/prices/monthly", s.handleMonthlyPricesImport)
	mux.HandleFunc("/api/prices/query", s.handleMonthlyPricesQuery)

	// Per-user valuations and transactions
	mux.HandleFunc("/api/users/", s.routeUsers)
}

// routeAssets dispatches /api/assets/{code}[/backfill].
func (s *Server) routeAssets(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/api/assets/")
	switch {
	case len(segs) == 0:
		s.handleAssets(w, r)
	case len(segs) == 1:
		s.handleAssetGet(w, r, segs[0])
	case len(segs) == 2 && segs[1] == "backfill":
		s.handleAssetBackfill(w, r, segs[0])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeUsers dispatches /api/users/{userID}/...
func (s *Server) routeUsers(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r, "/api/users/")
	if len(segs) < 2 {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	userID := segs[0]

	switch {
	case len(segs) == 2 && segs[1] == "portfolio":
		s.handlePortfolio(w, r, userID)
	case len(segs) == 2 && segs[1] == "heritage":
		s.handleHeritageEvolution(w, r, userID)
	case len(segs) == 2 && segs[1] == "investments":
		s.handleInvestmentEvolution(w, r, userID)
	case len(segs) == 2 && segs[1] == "transactions":
		s.handleTransactions(w, r, userID)
	case len(segs) == 3 && segs[1] == "transactions":
		s.handleTransactionDelete(w, r, userID, segs[2])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
		"uptime":  time.Since(s.app.StartupTime).Truncate(time.Second).String(),
	})
}
