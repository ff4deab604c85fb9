package services

import (
	"context"
	"errors"
	"strings"

	"github.com/newsroom-api/server/internal/sanitize"
	"github.com/newsroom-api/server/internal/store"
	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const latestCategoriesLimit = 4

// ArticleRepository defines persistence operations for articles.
type ArticleRepository interface {
	Create(ctx context.Context, article types.Article) (types.Article, error)
	Get(ctx context.Context, id primitive.ObjectID) (types.Article, error)
	Update(ctx context.Context, id primitive.ObjectID, patch types.ArticlePatch) (types.Article, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter types.ArticleFilter, page types.PageRequest) ([]types.Article, int64, error)
	LatestPerCategory(ctx context.Context, limit int) ([]types.Article, error)
}

// ArticleDraft is the input for creating an article. A zero ReporterID
// means the caller is the author.
type ArticleDraft struct {
	ReporterID primitive.ObjectID
	Title      string
	Subheading string
	Content    string
	Category   string
	Images     []string
	VideoLink  string
	Status     string
}

// ArticleService encapsulates article use-cases. Callers are passed as
// *types.User; nil means anonymous.
type ArticleService struct {
	repo      ArticleRepository
	users     UserRepository
	comments  CommentRepository
	sanitizer *sanitize.Sanitizer
}

func NewArticleService(repo ArticleRepository, users UserRepository, comments CommentRepository, sanitizer *sanitize.Sanitizer) *ArticleService {
	return &ArticleService{
		repo:      repo,
		users:     users,
		comments:  comments,
		sanitizer: sanitizer,
	}
}

func (s *ArticleService) Create(ctx context.Context, actor *types.User, draft ArticleDraft) (types.Article, error) {
	if actor == nil {
		return types.Article{}, ErrForbidden
	}
	reporterID := draft.ReporterID
	if reporterID.IsZero() {
		reporterID = actor.ID
	}
	if actor.Role != types.RoleAdmin && reporterID != actor.ID {
		return types.Article{}, ErrForbidden
	}

	author, err := s.users.GetByID(ctx, reporterID)
	if errors.Is(err, store.ErrNotFound) {
		return types.Article{}, ErrNotReporter
	}
	if err != nil {
		return types.Article{}, err
	}
	if author.Role != types.RoleReporter && author.Role != types.RoleAdmin {
		return types.Article{}, ErrNotReporter
	}

	article := types.Article{
		ReporterID: reporterID,
		Title:      s.sanitizer.Text(draft.Title),
		Subheading: s.sanitizer.HTML(draft.Subheading),
		Content:    s.sanitizer.HTML(draft.Content),
		Category:   s.sanitizer.Text(draft.Category),
		Images:     cleanList(draft.Images),
		VideoLink:  strings.TrimSpace(draft.VideoLink),
		Status:     draft.Status,
	}
	if article.Title == "" || article.Content == "" || article.Category == "" {
		return types.Article{}, ErrMissingFields
	}
	if article.Status == "" {
		article.Status = types.ArticleStatusDraft
	}
	if !types.ValidArticleStatus(article.Status) {
		return types.Article{}, ErrInvalidStatus
	}

	created, err := s.repo.Create(ctx, article)
	if err != nil {
		return types.Article{}, err
	}
	created.ReporterName = author.Name
	return created, nil
}

// Get returns an article the viewer may see. Articles hidden from the
// viewer are reported as not found.
func (s *ArticleService) Get(ctx context.Context, viewer *types.User, id primitive.ObjectID) (types.Article, error) {
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Article{}, err
	}
	if !canView(viewer, article) {
		return types.Article{}, store.ErrNotFound
	}
	return article, nil
}

// Update applies a partial update. Reporters may only edit content fields
// of their own articles; moderation fields are admin-only.
func (s *ArticleService) Update(ctx context.Context, actor *types.User, id primitive.ObjectID, patch types.ArticlePatch) (types.Article, error) {
	if actor == nil {
		return types.Article{}, ErrForbidden
	}
	if patch.Empty() {
		return types.Article{}, ErrNoChanges
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Article{}, err
	}
	if actor.Role != types.RoleAdmin {
		if existing.ReporterID != actor.ID {
			return types.Article{}, ErrForbidden
		}
		if patch.TouchesModeration() {
			return types.Article{}, ErrForbidden
		}
	}

	if err := s.cleanPatch(&patch); err != nil {
		return types.Article{}, err
	}
	return s.apply(ctx, id, patch)
}

// Delete removes the article and its comments.
func (s *ArticleService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.comments.DeleteByArticle(ctx, id)
}

// SetVerified sets the legacy verified flag.
func (s *ArticleService) SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) (types.Article, error) {
	return s.apply(ctx, id, types.ArticlePatch{Verified: &verified})
}

// SetStatus moves an article to any of draft, accepted or rejected. No
// transition is refused.
func (s *ArticleService) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (types.Article, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return types.Article{}, ErrMissingFields
	}
	if !types.ValidArticleStatus(status) {
		return types.Article{}, ErrInvalidStatus
	}
	return s.apply(ctx, id, types.ArticlePatch{Status: &status})
}

func (s *ArticleService) apply(ctx context.Context, id primitive.ObjectID, patch types.ArticlePatch) (types.Article, error) {
	if _, err := s.repo.Update(ctx, id, patch); err != nil {
		return types.Article{}, err
	}
	return s.repo.Get(ctx, id)
}

// ListAccepted is the public feed.
func (s *ArticleService) ListAccepted(ctx context.Context, page types.PageRequest) (types.Page[types.Article], error) {
	return s.list(ctx, types.ArticleFilter{Statuses: []string{types.ArticleStatusAccepted}}, page)
}

// ListAll returns every article regardless of status.
func (s *ArticleService) ListAll(ctx context.Context, page types.PageRequest) (types.Page[types.Article], error) {
	return s.list(ctx, types.ArticleFilter{}, page)
}

func (s *ArticleService) ListByReporter(ctx context.Context, viewer *types.User, reporterID primitive.ObjectID, page types.PageRequest) (types.Page[types.Article], error) {
	filter := visibility(viewer)
	filter.ReporterID = reporterID
	return s.list(ctx, filter, page)
}

func (s *ArticleService) ListByCategory(ctx context.Context, category string, page types.PageRequest) (types.Page[types.Article], error) {
	category = s.sanitizer.Text(category)
	if category == "" {
		return types.Page[types.Article]{}, ErrMissingFields
	}
	return s.list(ctx, types.ArticleFilter{
		Statuses: []string{types.ArticleStatusAccepted},
		Category: category,
	}, page)
}

// Search matches query against title, subheading, content, category and
// status, limited to what the viewer may see.
func (s *ArticleService) Search(ctx context.Context, viewer *types.User, query string, page types.PageRequest) (types.Page[types.Article], error) {
	query = s.sanitizer.Text(query)
	if query == "" {
		return types.Page[types.Article]{}, ErrEmptyQuery
	}
	filter := visibility(viewer)
	filter.Text = query
	return s.list(ctx, filter, page)
}

// LatestPerCategory returns the newest accepted article of a few
// categories, for the front page.
func (s *ArticleService) LatestPerCategory(ctx context.Context) ([]types.Article, error) {
	articles, err := s.repo.LatestPerCategory(ctx, latestCategoriesLimit)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []types.Article{}
	}
	return articles, nil
}

func (s *ArticleService) list(ctx context.Context, filter types.ArticleFilter, page types.PageRequest) (types.Page[types.Article], error) {
	page, err := normalizePage(page)
	if err != nil {
		return types.Page[types.Article]{}, err
	}
	articles, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return types.Page[types.Article]{}, err
	}
	return types.NewPage(articles, total, page), nil
}

func (s *ArticleService) cleanPatch(p *types.ArticlePatch) error {
	if p.Title != nil {
		title := s.sanitizer.Text(*p.Title)
		if title == "" {
			return ErrMissingFields
		}
		p.Title = &title
	}
	if p.Subheading != nil {
		sub := s.sanitizer.HTML(*p.Subheading)
		p.Subheading = &sub
	}
	if p.Content != nil {
		content := s.sanitizer.HTML(*p.Content)
		if content == "" {
			return ErrMissingFields
		}
		p.Content = &content
	}
	if p.Category != nil {
		category := s.sanitizer.Text(*p.Category)
		if category == "" {
			return ErrMissingFields
		}
		p.Category = &category
	}
	if p.Images != nil {
		images := cleanList(*p.Images)
		p.Images = &images
	}
	if p.VideoLink != nil {
		link := strings.TrimSpace(*p.VideoLink)
		p.VideoLink = &link
	}
	if p.Status != nil && !types.ValidArticleStatus(*p.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// visibility is the filter every listing starts from: readers see accepted
// articles, reporters also see their own, admins see everything.
func visibility(viewer *types.User) types.ArticleFilter {
	if viewer == nil {
		return types.ArticleFilter{Statuses: []string{types.ArticleStatusAccepted}}
	}
	switch viewer.Role {
	case types.RoleAdmin:
		return types.ArticleFilter{}
	case types.RoleReporter:
		return types.ArticleFilter{
			Statuses: []string{types.ArticleStatusAccepted},
			OwnedBy:  viewer.ID,
		}
	default:
		return types.ArticleFilter{Statuses: []string{types.ArticleStatusAccepted}}
	}
}

func canView(viewer *types.User, article types.Article) bool {
	if article.Status == types.ArticleStatusAccepted {
		return true
	}
	if viewer == nil {
		return false
	}
	switch viewer.Role {
	case types.RoleAdmin:
		return true
	case types.RoleReporter:
		return article.ReporterID == viewer.ID
	}
	return false
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
