package services

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/newsroom-api/server/types"
)

const (
	minPasswordLength = 6
	// bcrypt only accepts inputs up to 72 bytes.
	maxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail accepts local@domain.tld with no whitespace.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword requires an uppercase letter, a digit and at least six
// characters, and at most 72 bytes.
func ValidatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength || len(password) > maxPasswordBytes {
		return ErrWeakPassword
	}
	var upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !digit {
		return ErrWeakPassword
	}
	return nil
}

// normalizePage rejects non-positive values. Any positive page size is
// served as requested.
func normalizePage(page types.PageRequest) (types.PageRequest, error) {
	if !page.Valid() {
		return page, ErrInvalidPagination
	}
	return page, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
