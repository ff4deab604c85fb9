package services

import (
	"testing"
	"time"

	"github.com/newsroom-api/server/internal/store"
	"github.com/newsroom-api/server/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptr[T any](v T) *T { return &v }

func titles(articles []types.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}

func TestCreateArticle(t *testing.T) {
	f := newFixture(t)
	reporter := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)

	article, err := f.articles.Create(ctx, &reporter, ArticleDraft{
		Title:    "  Budget <b>passes</b> ",
		Content:  `<p>Text</p><script>alert(1)</script>`,
		Category: "politics",
		Images:   []string{" https://img.test/1.png ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, reporter.ID, article.ReporterID)
	assert.Equal(t, "Rita", article.ReporterName)
	assert.Equal(t, "Budget passes", article.Title)
	assert.Equal(t, "<p>Text</p>", article.Content)
	assert.Equal(t, types.ArticleStatusDraft, article.Status)
	assert.Equal(t, []string{"https://img.test/1.png"}, article.Images)
}

func TestCreateArticle_Rules(t *testing.T) {
	f := newFixture(t)
	reporter := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)
	other := f.store.SeedUser(t, "Omar", "omar@news.test", types.RoleReporter)
	reader := f.store.SeedUser(t, "Ada", "ada@news.test", types.RoleUser)
	admin := f.store.SeedUser(t, "Root", "root@news.test", types.RoleAdmin)
	draft := ArticleDraft{Title: "T", Content: "C", Category: "news"}

	withReporter := draft
	withReporter.ReporterID = other.ID
	_, err := f.articles.Create(ctx, &reporter, withReporter)
	assert.ErrorIs(t, err, ErrForbidden)

	article, err := f.articles.Create(ctx, &admin, withReporter)
	require.NoError(t, err)
	assert.Equal(t, other.ID, article.ReporterID)

	withReader := draft
	withReader.ReporterID = reader.ID
	_, err = f.articles.Create(ctx, &admin, withReader)
	assert.ErrorIs(t, err, ErrNotReporter)

	_, err = f.articles.Create(ctx, &reporter, ArticleDraft{Title: "T", Category: "news"})
	assert.ErrorIs(t, err, ErrMissingFields)

	bad := draft
	bad.Status = "published"
	_, err = f.articles.Create(ctx, &reporter, bad)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	accepted := draft
	accepted.Status = types.ArticleStatusAccepted
	article, err = f.articles.Create(ctx, &reporter, accepted)
	require.NoError(t, err)
	assert.Equal(t, types.ArticleStatusAccepted, article.Status)
}

func TestListAccepted_Pagination(t *testing.T) {
	f := newFixture(t)
	f.store.SetClock(tickingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	reporter := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)

	for i := 1; i <= 12; i++ {
		f.store.SeedArticle(t, reporter, string(rune('A'+i-1)), "news", types.ArticleStatusAccepted)
		f.store.SeedArticle(t, reporter, "draft", "news", types.ArticleStatusDraft)
	}

	page, err := f.articles.ListAccepted(ctx, types.PageRequest{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 12, page.TotalCount)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.Limit)
	// Newest is L; the second page of five holds the 6th to 10th newest.
	assert.Equal(t, []string{"G", "F", "E", "D", "C"}, titles(page.Items))

	for _, bad := range []types.PageRequest{{Page: 0, Limit: 5}, {Page: 1, Limit: 0}, {Page: -2, Limit: -1}} {
		_, err := f.articles.ListAccepted(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidPagination)
	}
}

func TestSearch_Visibility(t *testing.T) {
	f := newFixture(t)
	rita := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)
	omar := f.store.SeedUser(t, "Omar", "omar@news.test", types.RoleReporter)
	reader := f.store.SeedUser(t, "Ada", "ada@news.test", types.RoleUser)
	admin := f.store.SeedUser(t, "Root", "root@news.test", types.RoleAdmin)

	f.store.SeedArticle(t, rita, "storm accepted rita", "weather", types.ArticleStatusAccepted)
	f.store.SeedArticle(t, rita, "storm draft rita", "weather", types.ArticleStatusDraft)
	f.store.SeedArticle(t, omar, "storm rejected omar", "weather", types.ArticleStatusRejected)
	f.store.SeedArticle(t, omar, "storm accepted omar", "weather", types.ArticleStatusAccepted)
	page := types.PageRequest{Page: 1, Limit: 10}

	tests := []struct {
		name   string
		viewer *types.User
		want   []string
	}{
		{"anonymous", nil, []string{"storm accepted rita", "storm accepted omar"}},
		{"reader", &reader, []string{"storm accepted rita", "storm accepted omar"}},
		{"reporter", &rita, []string{"storm accepted rita", "storm draft rita", "storm accepted omar"}},
		{"admin", &admin, []string{"storm accepted rita", "storm draft rita", "storm rejected omar", "storm accepted omar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.articles.Search(ctx, tt.viewer, "STORM", page)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, titles(got.Items))
			assert.EqualValues(t, len(tt.want), got.TotalCount)
		})
	}

	_, err := f.articles.Search(ctx, nil, " ", page)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestPlainFieldsKeepPunctuation(t *testing.T) {
	f := newFixture(t)
	reporter := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)

	article, err := f.articles.Create(ctx, &reporter, ArticleDraft{
		Title:    "Rock 'n' Roll & Jazz",
		Content:  "<p>Fish & Chips night</p>",
		Category: "Arts & Culture",
	})
	require.NoError(t, err)
	assert.Equal(t, "Rock 'n' Roll & Jazz", article.Title)
	assert.Equal(t, "Arts & Culture", article.Category)
	_, err = f.articles.SetStatus(ctx, article.ID, types.ArticleStatusAccepted)
	require.NoError(t, err)

	page := types.PageRequest{Page: 1, Limit: 10}
	byCategory, err := f.articles.ListByCategory(ctx, "Arts & Culture", page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, byCategory.TotalCount)

	for _, query := range []string{"Roll & Jazz", "rock 'n'", "Fish & Chips", "arts & culture"} {
		got, err := f.articles.Search(ctx, nil, query, page)
		require.NoError(t, err)
		assert.EqualValues(t, 1, got.TotalCount, query)
	}
}

func TestGet_HidesUnpublished(t *testing.T) {
	f := newFixture(t)
	rita := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)
	omar := f.store.SeedUser(t, "Omar", "omar@news.test", types.RoleReporter)
	draft := f.store.SeedArticle(t, rita, "draft", "news", types.ArticleStatusDraft)

	_, err := f.articles.Get(ctx, nil, draft.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.articles.Get(ctx, &omar, draft.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := f.articles.Get(ctx, &rita, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rita", got.ReporterName)
}

func TestListByReporterAndCategory(t *testing.T) {
	f := newFixture(t)
	rita := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)
	omar := f.store.SeedUser(t, "Omar", "omar@news.test", types.RoleReporter)
	f.store.SeedArticle(t, rita, "r1", "sports", types.ArticleStatusAccepted)
	f.store.SeedArticle(t, rita, "r2", "sports", types.ArticleStatusDraft)
	f.store.SeedArticle(t, omar, "o1", "sports", types.ArticleStatusAccepted)
	f.store.SeedArticle(t, omar, "o2", "tech", types.ArticleStatusAccepted)
	page := types.PageRequest{Page: 1, Limit: 10}

	public, err := f.articles.ListByReporter(ctx, nil, rita.ID, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, titles(public.Items))

	own, err := f.articles.ListByReporter(ctx, &rita, rita.ID, page)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2"}, titles(own.Items))

	sports, err := f.articles.ListByCategory(ctx, "sports", page)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "o1"}, titles(sports.Items))

	_, err = f.articles.ListByCategory(ctx, "", page)
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestUpdateArticle_Ownership(t *testing.T) {
	f := newFixture(t)
	rita := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)
	omar := f.store.SeedUser(t, "Omar", "omar@news.test", types.RoleReporter)
	admin := f.store.SeedUser(t, "Root", "root@news.test", types.RoleAdmin)
	article := f.store.SeedArticle(t, rita, "before", "news", types.ArticleStatusDraft)

	_, err := f.articles.Update(ctx, &omar, article.ID, types.ArticlePatch{Title: ptr("hijack")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.articles.Update(ctx, &rita, article.ID, types.ArticlePatch{Status: ptr(types.ArticleStatusAccepted)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.articles.Update(ctx, &rita, article.ID, types.ArticlePatch{})
	assert.ErrorIs(t, err, ErrNoChanges)

	updated, err := f.articles.Update(ctx, &rita, article.ID, types.ArticlePatch{Title: ptr("after"), Images: &[]string{"a.png"}})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, []string{"a.png"}, updated.Images)
	assert.Equal(t, types.ArticleStatusDraft, updated.Status)

	updated, err = f.articles.Update(ctx, &admin, article.ID, types.ArticlePatch{Status: ptr(types.ArticleStatusRejected)})
	require.NoError(t, err)
	assert.Equal(t, types.ArticleStatusRejected, updated.Status)

	_, err = f.articles.Update(ctx, &admin, primitive.NewObjectID(), types.ArticlePatch{Title: ptr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestModeration(t *testing.T) {
	f := newFixture(t)
	rita := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)
	article := f.store.SeedArticle(t, rita, "a", "news", types.ArticleStatusAccepted)

	// No transition guard: accepted can go back to draft.
	got, err := f.articles.SetStatus(ctx, article.ID, types.ArticleStatusDraft)
	require.NoError(t, err)
	assert.Equal(t, types.ArticleStatusDraft, got.Status)

	_, err = f.articles.SetStatus(ctx, article.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = f.articles.SetStatus(ctx, article.ID, "")
	assert.ErrorIs(t, err, ErrMissingFields)

	got, err = f.articles.SetVerified(ctx, article.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Verified)
}

func TestDeleteArticle_RemovesComments(t *testing.T) {
	f := newFixture(t)
	rita := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)
	reader := f.store.SeedUser(t, "Ada", "ada@news.test", types.RoleUser)
	article := f.store.SeedArticle(t, rita, "a", "news", types.ArticleStatusAccepted)

	_, err := f.comments.Create(ctx, &reader, article.ID, primitive.NilObjectID, "nice")
	require.NoError(t, err)

	require.NoError(t, f.articles.Delete(ctx, article.ID))
	_, err = f.articles.Get(ctx, nil, article.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	comments, err := f.comments.ListByArticle(ctx, article.ID, types.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, comments.Items)

	assert.ErrorIs(t, f.articles.Delete(ctx, article.ID), store.ErrNotFound)
}

func TestLatestPerCategory(t *testing.T) {
	f := newFixture(t)
	f.store.SetClock(tickingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	rita := f.store.SeedUser(t, "Rita", "rita@news.test", types.RoleReporter)
	for _, c := range []string{"a", "b", "c", "d", "e"} {
		f.store.SeedArticle(t, rita, c+"-old", c, types.ArticleStatusAccepted)
		f.store.SeedArticle(t, rita, c+"-new", c, types.ArticleStatusAccepted)
	}
	f.store.SeedArticle(t, rita, "e-draft", "e", types.ArticleStatusDraft)

	latest, err := f.articles.LatestPerCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e-new", "d-new", "c-new", "b-new"}, titles(latest))
}
