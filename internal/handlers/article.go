package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/services"
	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ArticleHandler provides HTTP handlers for articles.
type ArticleHandler struct {
	articles *services.ArticleService
	media    *services.MediaService
}

// NewArticleHandler constructs a handler with the provided services.
func NewArticleHandler(articles *services.ArticleService, media *services.MediaService) *ArticleHandler {
	return &ArticleHandler{articles: articles, media: media}
}

// ArticleRouter registers article routes on the given router. Reads are
// public; a valid token widens what the caller can see.
func ArticleRouter(r chi.Router, articles *services.ArticleService, media *services.MediaService, authn *Authenticator) {
	handler := NewArticleHandler(articles, media)

	r.Get("/all-articles", handler.ListArticles)
	r.Get("/article-category", handler.ListByCategory)
	r.Get("/get-unique-articles-from-categories", handler.LatestPerCategory)

	r.Group(func(r chi.Router) {
		r.Use(authn.OptionalAuth)
		r.Get("/whole-article/{articleID}", handler.GetArticle)
		r.Get("/reporter-articels/{reporterID}", handler.ListByReporter)
		r.Post("/search-articles", handler.SearchArticles)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.RequireAuth)
		r.With(authn.Authorize(auth.OpArticleCreate)).Post("/create", handler.CreateArticle)
		r.With(authn.Authorize(auth.OpArticleUpdate)).Patch("/update-article/{articleID}", handler.UpdateArticle)
		r.With(authn.Authorize(auth.OpArticleDelete)).Delete("/delete-article/{articleID}", handler.DeleteArticle)
		r.With(authn.Authorize(auth.OpMediaUpload)).Post("/upload-image", handler.UploadImage)
	})
}

// ListArticles returns accepted articles, newest first.
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.articles.ListAccepted(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ArticleHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.articles.ListByCategory(r.Context(), r.URL.Query().Get("category"), page)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ArticleHandler) LatestPerCategory(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.LatestPerCategory(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ArticlesResponse{Articles: articles})
}

func (h *ArticleHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := parseObjectID(r, "articleID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	article, err := h.articles.Get(r.Context(), userFromContext(r.Context()), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ArticleResponse{Article: article})
}

func (h *ArticleHandler) ListByReporter(w http.ResponseWriter, r *http.Request) {
	reporterID, err := parseObjectID(r, "reporterID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := parsePagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.articles.ListByReporter(r.Context(), userFromContext(r.Context()), reporterID, page)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SearchArticles matches the body's query against the articles the caller
// can see.
func (h *ArticleHandler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.articles.Search(r.Context(), userFromContext(r.Context()), req.Query, page)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ArticleHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req CreateArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	article, err := h.articles.Create(r.Context(), userFromContext(r.Context()), services.ArticleDraft{
		ReporterID: req.ReporterID,
		Title:      req.Title,
		Subheading: req.Subheading,
		Content:    req.Content,
		Category:   req.Category,
		Images:     req.Images,
		VideoLink:  req.VideoLink,
		Status:     req.Status,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ArticleResponse{Message: "Article created successfully", Article: article})
}

func (h *ArticleHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := parseObjectID(r, "articleID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var patch types.ArticlePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondError(w, r, err)
		return
	}

	article, err := h.articles.Update(r.Context(), userFromContext(r.Context()), id, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ArticleResponse{Message: "Article updated successfully", Article: article})
}

func (h *ArticleHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := parseObjectID(r, "articleID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.articles.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Article deleted successfully"})
}

// UploadImage stores the multipart "image" file for use in article bodies.
func (h *ArticleHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !h.media.Enabled() {
		respondError(w, r, services.ErrUploadsDisabled)
		return
	}
	file, err := formImage(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	url, err := h.media.UploadArticleImage(r.Context(), file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ImageResponse{Message: "Image uploaded successfully", URL: url})
}

type CreateArticleRequest struct {
	// ReporterID lets admins author on behalf of a reporter.
	ReporterID primitive.ObjectID `json:"reporterId"`
	Title      string             `json:"title"`
	Subheading string             `json:"subheading"`
	Content    string             `json:"content"`
	Category   string             `json:"category"`
	Images     []string           `json:"images"`
	VideoLink  string             `json:"videoLink"`
	Status     string             `json:"status"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type ArticleResponse struct {
	Message string        `json:"message,omitempty"`
	Article types.Article `json:"article"`
}

type ArticlesResponse struct {
	Articles []types.Article `json:"articles"`
}
