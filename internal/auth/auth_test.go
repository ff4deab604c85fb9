package auth

import (
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1", hash)

	ok, err := CheckPassword("Secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword("Secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckPassword_OverlongIsMismatch(t *testing.T) {
	hash, err := HashPassword("Secret1")
	require.NoError(t, err)

	ok, err := CheckPassword(strings.Repeat("Secret1", 12), hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("Secret1")
	require.NoError(t, err)
	b, err := HashPassword("Secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	_, err := CheckPassword("Secret1", "not-a-hash")
	require.Error(t, err)
}

func TestGeneratePassword(t *testing.T) {
	for range 50 {
		pw, err := GeneratePassword(8)
		require.NoError(t, err)
		require.Len(t, pw, 8)

		var upper, digit bool
		for _, r := range pw {
			upper = upper || unicode.IsUpper(r)
			digit = digit || unicode.IsDigit(r)
		}
		assert.True(t, upper, pw)
		assert.True(t, digit, pw)
	}
}

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens("access-secret", "refresh-secret")
	require.NoError(t, err)
	return tokens
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := newTestTokens(t)

	tok, err := tokens.Issue(Claims{UserID: "u1", Role: "reporter", Purpose: PurposeSession}, time.Hour, AccessToken)
	require.NoError(t, err)

	claims, err := tokens.Verify(tok, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "reporter", claims.Role)
	assert.Equal(t, "u1", claims.Subject)
}

func TestTokens_ClassesDoNotCrossVerify(t *testing.T) {
	tokens := newTestTokens(t)

	access, err := tokens.Issue(Claims{UserID: "u1"}, time.Hour, AccessToken)
	require.NoError(t, err)
	refresh, err := tokens.Issue(Claims{UserID: "u1"}, time.Hour, RefreshToken)
	require.NoError(t, err)

	_, err = tokens.Verify(access, RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = tokens.Verify(refresh, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Expired(t *testing.T) {
	tokens := newTestTokens(t)

	for _, class := range []TokenClass{AccessToken, RefreshToken} {
		tok, err := tokens.Issue(Claims{UserID: "u1"}, -time.Second, class)
		require.NoError(t, err)

		_, err = tokens.Verify(tok, class)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestTokens_Malformed(t *testing.T) {
	tokens := newTestTokens(t)
	_, err := tokens.Verify("not.a.jwt", AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_VerifyPurpose(t *testing.T) {
	tokens := newTestTokens(t)

	tok, err := tokens.Issue(Claims{Email: "a@b.co", Purpose: PurposeReporterInvite}, time.Minute, AccessToken)
	require.NoError(t, err)

	claims, err := tokens.VerifyPurpose(tok, AccessToken, PurposeReporterInvite)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", claims.Email)

	_, err = tokens.VerifyPurpose(tok, AccessToken, PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokens_RejectsSharedSecret(t *testing.T) {
	_, err := NewTokens("same", "same")
	require.Error(t, err)
	_, err = NewTokens("", "x")
	require.Error(t, err)
}

func TestPolicy(t *testing.T) {
	policy, err := NewPolicy()
	require.NoError(t, err)

	cases := []struct {
		role string
		op   Operation
		want bool
	}{
		{"admin", OpArticleDelete, true},
		{"reporter", OpArticleDelete, false},
		{"reporter", OpArticleCreate, true},
		{"user", OpArticleCreate, false},
		{"admin", OpArticleCreate, true},
		{"user", OpCommentCreate, true},
		{"reporter", OpArticleStats, true},
		{"user", OpArticleStats, false},
		{"user", OpUserList, false},
		{"", OpCommentCreate, false},
		{"superuser", OpUserList, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, policy.Allowed(tc.role, tc.op), "%s %s", tc.role, tc.op)
	}
}
