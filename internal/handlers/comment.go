package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/services"
	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentHandler provides HTTP handlers for comments.
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// CommentRouter registers comment routes on the given router.
func CommentRouter(r chi.Router, comments *services.CommentService, authn *Authenticator) {
	handler := NewCommentHandler(comments)

	r.Get("/{articleID}", handler.ListComments)
	r.With(authn.RequireAuth, authn.Authorize(auth.OpCommentCreate)).Post("/create", handler.CreateComment)
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), userFromContext(r.Context()), req.ArticleID, req.UserID, req.Comment)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CommentResponse{Message: "Comment created successfully", Comment: comment})
}

// ListComments pages through an article's comments, newest first.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	articleID, err := parseObjectID(r, "articleID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := parsePagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.comments.ListByArticle(r.Context(), articleID, page)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type CreateCommentRequest struct {
	ArticleID primitive.ObjectID `json:"articleId"`
	// UserID is optional; when present it must be the caller.
	UserID  primitive.ObjectID `json:"userId"`
	Comment string             `json:"comment"`
}

type CommentResponse struct {
	Message string            `json:"message"`
	Comment types.CommentView `json:"comment"`
}
