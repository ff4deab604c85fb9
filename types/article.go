package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ArticleStatusDraft    = "draft"
	ArticleStatusAccepted = "accepted"
	ArticleStatusRejected = "rejected"
)

// Article is a news story authored by a reporter and moderated by admins.
type Article struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReporterID primitive.ObjectID `json:"reporterId" bson:"reporterId"`
	// ReporterName is filled from the users collection on reads.
	ReporterName string   `json:"reporterName,omitempty" bson:"reporterName,omitempty"`
	Title        string   `json:"title" bson:"title"`
	Subheading   string   `json:"subheading" bson:"subheading"`
	Content      string   `json:"content" bson:"content"`
	Category     string   `json:"category" bson:"category"`
	Images       []string `json:"images" bson:"images"`
	VideoLink    string   `json:"videoLink,omitempty" bson:"videoLink,omitempty"`
	Status       string   `json:"status" bson:"status"`
	// Verified is a legacy moderation flag kept alongside Status.
	Verified  bool      `json:"verified" bson:"verified"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ArticlePatch is a partial update; nil fields are left untouched.
type ArticlePatch struct {
	Title      *string   `json:"title"`
	Subheading *string   `json:"subheading"`
	Content    *string   `json:"content"`
	Category   *string   `json:"category"`
	Images     *[]string `json:"images"`
	VideoLink  *string   `json:"videoLink"`
	Status     *string   `json:"status"`
	Verified   *bool     `json:"verified"`
}

// Empty reports whether the patch changes nothing.
func (p ArticlePatch) Empty() bool {
	return p.Title == nil && p.Subheading == nil && p.Content == nil && p.Category == nil &&
		p.Images == nil && p.VideoLink == nil && p.Status == nil && p.Verified == nil
}

// TouchesModeration reports whether the patch changes status or verified.
func (p ArticlePatch) TouchesModeration() bool {
	return p.Status != nil || p.Verified != nil
}

// ArticleFilter selects articles for listings and searches.
//
// An article matches when its status is in Statuses (or Statuses is empty),
// or when OwnedBy is set and the article belongs to OwnedBy. ReporterID,
// Category and Text further narrow the result.
type ArticleFilter struct {
	Statuses   []string
	OwnedBy    primitive.ObjectID
	ReporterID primitive.ObjectID
	Category   string
	// Text is matched as a case-insensitive substring of title, subheading,
	// content, category and status.
	Text string
}

func ValidArticleStatus(status string) bool {
	switch status {
	case ArticleStatusDraft, ArticleStatusAccepted, ArticleStatusRejected:
		return true
	}
	return false
}
