package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/services"
	"github.com/newsroom-api/server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{services.ErrWeakPassword, http.StatusBadRequest, services.ErrWeakPassword.Error()},
		{fmt.Errorf("register: %w", services.ErrEmailTaken), http.StatusBadRequest, services.ErrEmailTaken.Error()},
		{auth.ErrInvalidToken, http.StatusUnauthorized, auth.ErrInvalidToken.Error()},
		{services.ErrForbidden, http.StatusForbidden, services.ErrForbidden.Error()},
		{store.ErrNotFound, http.StatusNotFound, "resource not found"},
		{store.ErrDuplicate, http.StatusConflict, store.ErrDuplicate.Error()},
		{services.ErrDeliveryFailed, http.StatusBadGateway, services.ErrDeliveryFailed.Error()},
		{services.ErrUploadsDisabled, http.StatusServiceUnavailable, services.ErrUploadsDisabled.Error()},
		{errors.New("connection reset by peer"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		status, public := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.message, public.Error())
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(rec, req, errors.New("mongo: server selection timeout on 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"internal server error"}`, rec.Body.String())
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	page, err := parsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, defaultPage, page.Page)
	assert.Equal(t, defaultLimit, page.Limit)

	req = httptest.NewRequest(http.MethodGet, "/?page=3&limit=25", nil)
	page, err = parsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 25, page.Limit)

	req = httptest.NewRequest(http.MethodGet, "/?page=two", nil)
	_, err = parsePagination(req)
	assert.ErrorIs(t, err, services.ErrInvalidPagination)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1000"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:1000"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	assert.Nil(t, limiter)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	handler := limiter.Middleware(next)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
