// Package sanitize strips unsafe markup from user supplied text.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer holds the two policies used across the API. Policies are safe
// for concurrent use once built.
type Sanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

func New() *Sanitizer {
	rich := bluemonday.UGCPolicy()
	rich.AllowElements("figure", "figcaption")
	rich.RequireNoReferrerOnLinks(true)
	return &Sanitizer{
		rich:  rich,
		plain: bluemonday.StrictPolicy(),
	}
}

// HTML keeps user generated content markup such as paragraphs, links and
// images, and drops scripts, styles and event handlers.
func (s *Sanitizer) HTML(input string) string {
	return strings.TrimSpace(s.rich.Sanitize(input))
}

// Text removes all markup and returns plain text. Entities left behind by
// the policy are decoded; plain fields are never rendered as HTML.
func (s *Sanitizer) Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(input)))
}
