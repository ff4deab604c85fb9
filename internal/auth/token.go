package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClass selects the signing secret. Each class has its own secret so a
// token of one class never verifies as the other.
type TokenClass string

const (
	AccessToken  TokenClass = "access"
	RefreshToken TokenClass = "refresh"
)

// Token purposes. Access-class tokens are shared by sessions, password
// resets and reporter invites, so the purpose keeps them apart.
const (
	PurposeSession        = "session"
	PurposeRefresh        = "refresh"
	PurposePasswordReset  = "password_reset"
	PurposeReporterInvite = "reporter_invite"
)

// ErrInvalidToken is returned for any signature, expiry or format failure.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are embedded into every issued token.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"userId,omitempty"`
	Role    string `json:"role,omitempty"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}

// Tokens issues and verifies HS256 tokens for both classes.
type Tokens struct {
	secrets map[TokenClass][]byte
	now     func() time.Time
}

func NewTokens(accessSecret, refreshSecret string) (*Tokens, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	return &Tokens{
		secrets: map[TokenClass][]byte{
			AccessToken:  []byte(accessSecret),
			RefreshToken: []byte(refreshSecret),
		},
		now: time.Now,
	}, nil
}

// Issue signs claims with the secret of class; the token expires ttl after
// issuance.
func (t *Tokens) Issue(claims Claims, ttl time.Duration, class TokenClass) (string, error) {
	secret, ok := t.secrets[class]
	if !ok {
		return "", errors.New("unknown token class")
	}
	now := t.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify checks the signature against the secret of class and the expiry.
func (t *Tokens) Verify(tokenString string, class TokenClass) (Claims, error) {
	secret, ok := t.secrets[class]
	if !ok {
		return Claims{}, errors.New("unknown token class")
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// VerifyPurpose is Verify plus a check of the purpose claim.
func (t *Tokens) VerifyPurpose(tokenString string, class TokenClass, purpose string) (Claims, error) {
	claims, err := t.Verify(tokenString, class)
	if err != nil {
		return Claims{}, err
	}
	if claims.Purpose != purpose {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
