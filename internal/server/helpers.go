package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/heritage/internal/common"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string   `json:"error"`
	Code  string   `json:"code,omitempty"`
	Codes []string `json:"codes,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps a service error onto a status code.
// Validation failures are 400, missing records 404, unconfigured upstreams
// 503 and anything else 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *common.AssetsNotFoundError
	switch {
	case errors.As(err, &missing):
		WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "assets_not_found", Codes: missing.Codes})
	case errors.Is(err, common.ErrInvalidArgument):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_argument")
	case errors.Is(err, common.ErrNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, common.ErrUnavailable):
		WriteErrorWithCode(w, http.StatusServiceUnavailable, err.Error(), "unavailable")
	default:
		s.logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("correlation_id", CorrelationID(r.Context())).
			Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.Body == http.NoBody {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// pathSegments splits the path after prefix into its non-empty segments.
// For /api/users/u1/transactions/abc with prefix /api/users/ it returns
// [u1 transactions abc].
func pathSegments(r *http.Request, prefix string) []string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return nil
	}
	var out []string
	for _, p := range strings.Split(path[len(prefix):], "/") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
