package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/heritage/internal/common"
)

func TestPathSegments(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/api/users/u1/transactions/abc", []string{"u1", "transactions", "abc"}},
		{"/api/users/u1/portfolio/", []string{"u1", "portfolio"}},
		{"/api/users/", nil},
		{"/api/other", nil},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.path, nil)
		assert.Equal(t, tt.want, pathSegments(r, "/api/users/"), tt.path)
	}
}

func TestWriteServiceError(t *testing.T) {
	s := &Server{logger: common.NewSilentLogger()}

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"validation", common.NewValidationError("months", "not allowed"), http.StatusBadRequest},
		{"oversell", fmt.Errorf("wrapped: %w", &common.OversellError{AssetCode: "A"}), http.StatusBadRequest},
		{"not found", fmt.Errorf("tx: %w", common.ErrNotFound), http.StatusNotFound},
		{"missing assets", common.NewAssetsNotFoundError([]string{"B", "A"}), http.StatusNotFound},
		{"unavailable", fmt.Errorf("%w: price feed not configured", common.ErrUnavailable), http.StatusServiceUnavailable},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.writeServiceError(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil), tt.err)
			assert.Equal(t, tt.wantCode, rr.Code)
		})
	}
}

func TestWriteServiceError_ListsMissingCodes(t *testing.T) {
	s := &Server{logger: common.NewSilentLogger()}
	rr := httptest.NewRecorder()
	s.writeServiceError(rr, httptest.NewRequest(http.MethodPost, "/api/x", nil), common.NewAssetsNotFoundError([]string{"B", "A", "B"}))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []string{"A", "B"}, body.Codes)
	assert.Equal(t, "assets_not_found", body.Code)
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	s := &Server{logger: common.NewSilentLogger()}
	rr := httptest.NewRecorder()
	s.writeServiceError(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil), errors.New("password=hunter2"))
	assert.NotContains(t, rr.Body.String(), "hunter2")
}

func TestDecodeJSON(t *testing.T) {
	var v map[string]int

	rr := httptest.NewRecorder()
	ok := DecodeJSON(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)), &v)
	assert.True(t, ok)
	assert.Equal(t, 1, v["a"])

	rr = httptest.NewRecorder()
	ok = DecodeJSON(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`)), &v)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	ok = DecodeJSON(rr, httptest.NewRequest(http.MethodPost, "/", nil), &v)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequireMethod(t *testing.T) {
	rr := httptest.NewRecorder()
	ok := RequireMethod(rr, httptest.NewRequest(http.MethodPut, "/", nil), http.MethodGet, http.MethodPost)
	assert.False(t, ok)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, POST", rr.Header().Get("Allow"))
}
