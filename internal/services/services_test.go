package services

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/newsroom-api/server/config"
	"github.com/newsroom-api/server/internal/auth"
	"github.com/newsroom-api/server/internal/sanitize"
	"github.com/newsroom-api/server/internal/testutil"
	"github.com/stretchr/testify/require"
)

var tokenInLink = regexp.MustCompile(`token=([A-Za-z0-9_\-.]+)`)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		FrontendURL: "https://news.test",
		JWT: config.JWTConfig{
			AccessKey:  "access-secret",
			RefreshKey: "refresh-secret",
			AccessTTL:  time.Hour,
			RefreshTTL: 2 * time.Hour,
		},
	}
}

type fixture struct {
	store     *testutil.Store
	mailer    *testutil.Mailer
	tokens    *auth.Tokens
	users     *UserService
	accounts  *AccountService
	articles  *ArticleService
	comments  *CommentService
	analytics *AnalyticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	tokens, err := auth.NewTokens(cfg.JWT.AccessKey, cfg.JWT.RefreshKey)
	require.NoError(t, err)

	st := testutil.NewStore()
	mailer := &testutil.Mailer{}
	sanitizer := sanitize.New()
	users := NewUserService(st.Users())

	return &fixture{
		store:     st,
		mailer:    mailer,
		tokens:    tokens,
		users:     users,
		accounts:  NewAccountService(users, st.Users(), tokens, mailer, cfg, discardLogger()),
		articles:  NewArticleService(st.Articles(), st.Users(), st.Comments(), sanitizer),
		comments:  NewCommentService(st.Comments(), st.Articles(), st.Users(), sanitizer),
		analytics: NewAnalyticsService(st.Analytics()),
	}
}

// tickingClock makes every store write one minute newer than the last.
func tickingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		next = next.Add(time.Minute)
		return next
	}
}

func linkToken(t *testing.T, html string) string {
	t.Helper()
	m := tokenInLink.FindStringSubmatch(html)
	require.Len(t, m, 2, "no token in %q", html)
	return m[1]
}

var ctx = context.Background()
