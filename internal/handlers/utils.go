package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/services"
	"github.com/newsroom-api/server/internal/store"
	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxBodyBytes = 1 << 20
)

type contextKey string

const contextUserKey contextKey = "user"

var (
	errInvalidID     = errors.New("invalid id")
	errInvalidBody   = errors.New("invalid request")
	errUnauthorized  = errors.New("session expired, please login again")
	errTooManyTries  = errors.New("too many requests, please try again later")
	errInternal      = errors.New("internal server error")
	errNotFoundReply = errors.New("resource not found")
)

// ErrorResponse is the error payload of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// MessageResponse acknowledges a request that returns no resource.
type MessageResponse struct {
	Message string `json:"message"`
}

func withUser(ctx context.Context, user *types.User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

// userFromContext returns the authenticated caller, or nil.
func userFromContext(ctx context.Context) *types.User {
	user, _ := ctx.Value(contextUserKey).(*types.User)
	return user
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// respondError maps err to a status code. Only messages of known errors
// reach the client; anything else is logged and answered with a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, public := classify(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"status", status,
			"err", err,
		)
	}
	writeError(w, status, public.Error())
}

func classify(err error) (int, error) {
	for _, e := range badRequestErrors {
		if errors.Is(err, e) {
			return http.StatusBadRequest, e
		}
	}
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, auth.ErrInvalidToken
	case errors.Is(err, services.ErrIncorrectPassword):
		return http.StatusUnauthorized, services.ErrIncorrectPassword
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, errUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, services.ErrForbidden
	case errors.Is(err, services.ErrAccountDisabled):
		return http.StatusForbidden, services.ErrAccountDisabled
	case errors.Is(err, services.ErrArticleNotAccepted):
		return http.StatusForbidden, services.ErrArticleNotAccepted
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, errNotFoundReply
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, store.ErrDuplicate
	case errors.Is(err, services.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, services.ErrImageTooLarge
	case errors.Is(err, errTooManyTries):
		return http.StatusTooManyRequests, errTooManyTries
	case errors.Is(err, services.ErrDeliveryFailed):
		return http.StatusBadGateway, services.ErrDeliveryFailed
	case errors.Is(err, services.ErrUploadsDisabled):
		return http.StatusServiceUnavailable, services.ErrUploadsDisabled
	}
	return http.StatusInternalServerError, errInternal
}

var badRequestErrors = []error{
	services.ErrInvalidEmail,
	services.ErrWeakPassword,
	services.ErrPasswordMismatch,
	services.ErrMissingFields,
	services.ErrInvalidPagination,
	services.ErrEmptyQuery,
	services.ErrInvalidUserType,
	services.ErrInvalidStatus,
	services.ErrNoChanges,
	services.ErrInvalidImage,
	services.ErrEmailTaken,
	services.ErrNotReporter,
	errInvalidID,
	errInvalidBody,
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

// parsePagination reads page and limit, defaulting to 1 and 10. Range
// checks are left to the services.
func parsePagination(r *http.Request) (types.PageRequest, error) {
	page, err := parseQueryInt(r, "page", defaultPage)
	if err != nil {
		return types.PageRequest{}, err
	}
	limit, err := parseQueryInt(r, "limit", defaultLimit)
	if err != nil {
		return types.PageRequest{}, err
	}
	return types.PageRequest{Page: page, Limit: limit}, nil
}

func parseQueryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, services.ErrInvalidPagination
	}
	return value, nil
}

func parseObjectID(r *http.Request, param string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, param)))
	if err != nil {
		return primitive.NilObjectID, errInvalidID
	}
	return id, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
