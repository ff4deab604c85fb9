// Package testutil provides in-memory stand-ins for the Mongo repositories,
// the mail sender and the broker, for unit and handler tests.
package testutil

import (
	"context"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/newsroom-api/server/internal/store"
	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind one lock so joins see a consistent
// view.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[primitive.ObjectID]types.User
	articles map[primitive.ObjectID]types.Article
	comments []types.Comment
	visits   *int64
}

func NewStore() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		users:    map[primitive.ObjectID]types.User{},
		articles: map[primitive.ObjectID]types.Article{},
	}
}

// SetClock overrides the creation timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() *UserRepo          { return &UserRepo{s} }
func (s *Store) Articles() *ArticleRepo    { return &ArticleRepo{s} }
func (s *Store) Comments() *CommentRepo    { return &CommentRepo{s} }
func (s *Store) Analytics() *AnalyticsRepo { return &AnalyticsRepo{s} }
func (s *Store) Visits() *VisitRepo        { return &VisitRepo{s} }

func paginate[T any](items []T, page types.PageRequest) []T {
	start := int(page.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := min(start+page.Limit, len(items))
	return items[start:end]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// UserRepo mirrors store.UserRepository.
type UserRepo struct{ s *Store }

func (r *UserRepo) GetByID(_ context.Context, id primitive.ObjectID) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = user
	return user, nil
}

func (r *UserRepo) Update(_ context.Context, id primitive.ObjectID, update types.UserUpdate) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}
	if update.Status != nil {
		user.Status = *update.Status
	}
	user.UpdatedAt = r.s.now()
	r.s.users[id] = user
	return user, nil
}

func (r *UserRepo) List(_ context.Context, filter types.UserFilter, page types.PageRequest) ([]types.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []types.User
	for _, u := range r.s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Text != "" && !userMatches(u, filter.Text) {
			continue
		}
		u.PasswordHash = ""
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() < matched[j].ID.Hex()
	})
	return paginate(matched, page), int64(len(matched)), nil
}

func userMatches(u types.User, text string) bool {
	for _, field := range []string{u.Name, u.Email, u.Mobile, u.Status, u.Role} {
		if containsFold(field, text) {
			return true
		}
	}
	return false
}

// ArticleRepo mirrors store.ArticleRepository.
type ArticleRepo struct{ s *Store }

func (r *ArticleRepo) Create(_ context.Context, article types.Article) (types.Article, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	article.ID = primitive.NewObjectID()
	article.ReporterName = ""
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.Images == nil {
		article.Images = []string{}
	}
	r.s.articles[article.ID] = article
	return article, nil
}

func (r *ArticleRepo) Get(_ context.Context, id primitive.ObjectID) (types.Article, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	article, ok := r.s.articles[id]
	if !ok {
		return types.Article{}, store.ErrNotFound
	}
	return r.withReporterName(article), nil
}

func (r *ArticleRepo) Update(_ context.Context, id primitive.ObjectID, p types.ArticlePatch) (types.Article, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.articles[id]
	if !ok {
		return types.Article{}, store.ErrNotFound
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Subheading != nil {
		a.Subheading = *p.Subheading
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Images != nil {
		a.Images = *p.Images
	}
	if p.VideoLink != nil {
		a.VideoLink = *p.VideoLink
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Verified != nil {
		a.Verified = *p.Verified
	}
	a.UpdatedAt = r.s.now()
	r.s.articles[id] = a
	return a, nil
}

func (r *ArticleRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.articles[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.s.articles, id)
	return nil
}

func (r *ArticleRepo) List(_ context.Context, filter types.ArticleFilter, page types.PageRequest) ([]types.Article, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []types.Article
	for _, a := range r.s.articles {
		if articleMatches(a, filter) {
			matched = append(matched, r.withReporterName(a))
		}
	}
	sortNewestFirst(matched)
	return paginate(matched, page), int64(len(matched)), nil
}

func (r *ArticleRepo) LatestPerCategory(_ context.Context, limit int) ([]types.Article, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var accepted []types.Article
	for _, a := range r.s.articles {
		if a.Status == types.ArticleStatusAccepted {
			accepted = append(accepted, a)
		}
	}
	sortNewestFirst(accepted)

	seen := map[string]bool{}
	latest := []types.Article{}
	for _, a := range accepted {
		if seen[a.Category] {
			continue
		}
		seen[a.Category] = true
		latest = append(latest, a)
		if len(latest) == limit {
			break
		}
	}
	return latest, nil
}

func (r *ArticleRepo) withReporterName(a types.Article) types.Article {
	if u, ok := r.s.users[a.ReporterID]; ok {
		a.ReporterName = u.Name
	}
	return a
}

func articleMatches(a types.Article, f types.ArticleFilter) bool {
	if len(f.Statuses) > 0 {
		ok := false
		for _, st := range f.Statuses {
			ok = ok || a.Status == st
		}
		if !ok && (f.OwnedBy.IsZero() || a.ReporterID != f.OwnedBy) {
			return false
		}
	}
	if !f.ReporterID.IsZero() && a.ReporterID != f.ReporterID {
		return false
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.Text != "" {
		for _, field := range []string{a.Title, a.Category, a.Status} {
			if containsFold(field, f.Text) {
				return true
			}
		}
		escaped := html.EscapeString(f.Text)
		return containsFold(a.Subheading, escaped) || containsFold(a.Content, escaped)
	}
	return true
}

func sortNewestFirst(articles []types.Article) {
	sort.Slice(articles, func(i, j int) bool {
		if !articles[i].CreatedAt.Equal(articles[j].CreatedAt) {
			return articles[i].CreatedAt.After(articles[j].CreatedAt)
		}
		return articles[i].ID.Hex() > articles[j].ID.Hex()
	})
}

// CommentRepo mirrors store.CommentRepository.
type CommentRepo struct{ s *Store }

func (r *CommentRepo) Create(_ context.Context, c types.Comment) (types.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = r.s.now()
	r.s.comments = append(r.s.comments, c)
	return c, nil
}

func (r *CommentRepo) ListByArticle(_ context.Context, articleID primitive.ObjectID, page types.PageRequest) ([]types.CommentView, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var views []types.CommentView
	for _, c := range r.s.comments {
		if c.ArticleID != articleID {
			continue
		}
		view := types.CommentView{
			ID:        c.ID,
			ArticleID: c.ArticleID,
			UserID:    c.UserID,
			Comment:   c.Comment,
			CreatedAt: c.CreatedAt,
		}
		if u, ok := r.s.users[c.UserID]; ok {
			view.UserName = u.Name
			view.AvatarURL = u.AvatarURL
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		if !views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].CreatedAt.After(views[j].CreatedAt)
		}
		return views[i].ID.Hex() > views[j].ID.Hex()
	})
	return paginate(views, page), int64(len(views)), nil
}

func (r *CommentRepo) DeleteByArticle(_ context.Context, articleID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.comments[:0]
	for _, c := range r.s.comments {
		if c.ArticleID != articleID {
			kept = append(kept, c)
		}
	}
	r.s.comments = kept
	return nil
}

// AnalyticsRepo mirrors store.AnalyticsRepository.
type AnalyticsRepo struct{ s *Store }

func (r *AnalyticsRepo) RegistrationsByYear(context.Context) ([]types.YearlyRegistrations, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type key struct{ year, month int }
	counts := map[key]int64{}
	for _, u := range r.s.users {
		if u.Role != types.RoleUser {
			continue
		}
		counts[key{u.CreatedAt.Year(), int(u.CreatedAt.Month())}]++
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	var report []types.YearlyRegistrations
	for _, k := range keys {
		if len(report) == 0 || report[len(report)-1].Year != k.year {
			report = append(report, types.YearlyRegistrations{Year: k.year})
		}
		last := &report[len(report)-1]
		last.Months = append(last.Months, types.MonthlyCount{Month: k.month, Count: counts[k]})
		last.Total += counts[k]
	}
	return report, nil
}

func (r *AnalyticsRepo) ArticlesByMonth(_ context.Context, reporterID primitive.ObjectID) ([]types.MonthlyArticleStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type key struct{ year, month int }
	stats := map[key]*types.MonthlyArticleStats{}
	for _, a := range r.s.articles {
		if !reporterID.IsZero() && a.ReporterID != reporterID {
			continue
		}
		k := key{a.CreatedAt.Year(), int(a.CreatedAt.Month())}
		st, ok := stats[k]
		if !ok {
			st = &types.MonthlyArticleStats{Year: k.year, Month: k.month}
			stats[k] = st
		}
		st.Total++
		switch a.Status {
		case types.ArticleStatusAccepted:
			st.Accepted++
		case types.ArticleStatusRejected:
			st.Rejected++
		case types.ArticleStatusDraft:
			st.Draft++
		}
	}

	report := make([]types.MonthlyArticleStats, 0, len(stats))
	for _, st := range stats {
		report = append(report, *st)
	}
	sort.Slice(report, func(i, j int) bool {
		if report[i].Year != report[j].Year {
			return report[i].Year < report[j].Year
		}
		return report[i].Month < report[j].Month
	})
	return report, nil
}

// VisitRepo mirrors store.VisitRepository.
type VisitRepo struct{ s *Store }

func (r *VisitRepo) Get(_ context.Context, seed int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.visits == nil {
		r.s.visits = &seed
	}
	return *r.s.visits, nil
}

func (r *VisitRepo) Increment(_ context.Context, seed int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.visits == nil {
		r.s.visits = &seed
		return seed, nil
	}
	*r.s.visits++
	return *r.s.visits, nil
}
