package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/services"
	"github.com/newsroom-api/server/types"
)

// AdminHandler serves the moderation and reporting dashboard.
type AdminHandler struct {
	users     *services.UserService
	accounts  *services.AccountService
	articles  *services.ArticleService
	analytics *services.AnalyticsService
}

func NewAdminHandler(
	users *services.UserService,
	accounts *services.AccountService,
	articles *services.ArticleService,
	analytics *services.AnalyticsService,
) *AdminHandler {
	return &AdminHandler{
		users:     users,
		accounts:  accounts,
		articles:  articles,
		analytics: analytics,
	}
}

// AdminRouter registers admin routes. Every route requires a session and
// each is gated by its own operation.
func AdminRouter(
	r chi.Router,
	users *services.UserService,
	accounts *services.AccountService,
	articles *services.ArticleService,
	analytics *services.AnalyticsService,
	authn *Authenticator,
) {
	handler := NewAdminHandler(users, accounts, articles, analytics)

	r.Use(authn.RequireAuth)
	r.With(authn.Authorize(auth.OpUserList)).Get("/all-users", handler.ListUsers)
	r.With(authn.Authorize(auth.OpUserList)).Get("/all-reporters", handler.ListReporters)
	r.With(authn.Authorize(auth.OpUserSearch)).Get("/search-users", handler.SearchUsers)
	r.With(authn.Authorize(auth.OpUserStatus)).Put("/update-status/{userID}", handler.UpdateUserStatus)
	r.With(authn.Authorize(auth.OpArticleListAll)).Get("/all-articles", handler.ListArticles)
	r.With(authn.Authorize(auth.OpArticleVerify)).Put("/verify-article/{articleID}", handler.VerifyArticle)
	r.With(authn.Authorize(auth.OpArticleStatus)).Put("/update-article-status/{articleID}", handler.UpdateArticleStatus)
	r.With(authn.Authorize(auth.OpReporterInvite)).Post("/invite-reporter", handler.InviteReporter)
	r.With(authn.Authorize(auth.OpUserStats)).Get("/total-users-per-month", handler.UsersPerMonth)
	r.With(authn.Authorize(auth.OpArticleStats)).Get("/total-articles-per-month", handler.ArticlesPerMonth)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, types.RoleUser)
}

func (h *AdminHandler) ListReporters(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, types.RoleReporter)
}

func (h *AdminHandler) listByRole(w http.ResponseWriter, r *http.Request, role string) {
	page, err := parsePagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.users.List(r.Context(), role, page)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SearchUsers matches ?query= against users of ?userType=.
func (h *AdminHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	query := r.URL.Query()
	result, err := h.users.Search(r.Context(), query.Get("query"), query.Get("userType"), page)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseObjectID(r, "userID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.users.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "User status updated successfully", User: user})
}

func (h *AdminHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.articles.ListAll(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) VerifyArticle(w http.ResponseWriter, r *http.Request) {
	id, err := parseObjectID(r, "articleID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Verified == nil {
		respondError(w, r, services.ErrMissingFields)
		return
	}

	article, err := h.articles.SetVerified(r.Context(), id, *req.Verified)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ArticleResponse{Message: "Article verification updated successfully", Article: article})
}

func (h *AdminHandler) UpdateArticleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseObjectID(r, "articleID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	article, err := h.articles.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ArticleResponse{Message: "Article status updated successfully", Article: article})
}

func (h *AdminHandler) InviteReporter(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.accounts.InviteReporter(r.Context(), req.Email); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Invitation sent successfully"})
}

func (h *AdminHandler) UsersPerMonth(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.UsersPerMonth(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RegistrationsResponse{Data: report})
}

// ArticlesPerMonth reports on all articles for admins and on the caller's
// own articles for reporters.
func (h *AdminHandler) ArticlesPerMonth(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.ArticlesPerMonth(r.Context(), userFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ArticleStatsResponse{Data: report})
}

type StatusRequest struct {
	Status string `json:"status"`
}

// VerifyRequest uses a pointer so a missing flag is told apart from false.
type VerifyRequest struct {
	Verified *bool `json:"verified"`
}

type RegistrationsResponse struct {
	Data []types.YearlyRegistrations `json:"data"`
}

type ArticleStatsResponse struct {
	Data []types.MonthlyArticleStats `json:"data"`
}
