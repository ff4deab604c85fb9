package services

import (
	"context"

	"github.com/newsroom-api/server/internal/sanitize"
	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const anonymousName = "Anonymous"

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment types.Comment) (types.Comment, error)
	ListByArticle(ctx context.Context, articleID primitive.ObjectID, page types.PageRequest) ([]types.CommentView, int64, error)
	DeleteByArticle(ctx context.Context, articleID primitive.ObjectID) error
}

// CommentService encapsulates comment use-cases.
type CommentService struct {
	repo      CommentRepository
	articles  ArticleRepository
	users     UserRepository
	sanitizer *sanitize.Sanitizer
}

func NewCommentService(repo CommentRepository, articles ArticleRepository, users UserRepository, sanitizer *sanitize.Sanitizer) *CommentService {
	return &CommentService{
		repo:      repo,
		articles:  articles,
		users:     users,
		sanitizer: sanitizer,
	}
}

// Create adds a comment by actor to an accepted article. userID may be
// zero; when set it must be the actor's own id.
func (s *CommentService) Create(ctx context.Context, actor *types.User, articleID, userID primitive.ObjectID, text string) (types.CommentView, error) {
	if actor == nil {
		return types.CommentView{}, ErrForbidden
	}
	if userID.IsZero() {
		userID = actor.ID
	}
	if userID != actor.ID {
		return types.CommentView{}, ErrForbidden
	}

	text = s.sanitizer.Text(text)
	if articleID.IsZero() || text == "" {
		return types.CommentView{}, ErrMissingFields
	}

	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return types.CommentView{}, err
	}
	if article.Status != types.ArticleStatusAccepted {
		return types.CommentView{}, ErrArticleNotAccepted
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return types.CommentView{}, err
	}

	comment, err := s.repo.Create(ctx, types.Comment{
		ArticleID: articleID,
		UserID:    userID,
		Comment:   text,
	})
	if err != nil {
		return types.CommentView{}, err
	}

	return types.CommentView{
		ID:        comment.ID,
		ArticleID: comment.ArticleID,
		UserID:    comment.UserID,
		Comment:   comment.Comment,
		UserName:  displayName(user.Name),
		AvatarURL: user.AvatarURL,
		CreatedAt: comment.CreatedAt,
	}, nil
}

// ListByArticle pages through an article's comments, newest first.
func (s *CommentService) ListByArticle(ctx context.Context, articleID primitive.ObjectID, page types.PageRequest) (types.Page[types.CommentView], error) {
	page, err := normalizePage(page)
	if err != nil {
		return types.Page[types.CommentView]{}, err
	}
	if _, err := s.articles.Get(ctx, articleID); err != nil {
		return types.Page[types.CommentView]{}, err
	}
	comments, total, err := s.repo.ListByArticle(ctx, articleID, page)
	if err != nil {
		return types.Page[types.CommentView]{}, err
	}
	for i := range comments {
		comments[i].UserName = displayName(comments[i].UserName)
	}
	return types.NewPage(comments, total, page), nil
}

func displayName(name string) string {
	if name == "" {
		return anonymousName
	}
	return name
}
