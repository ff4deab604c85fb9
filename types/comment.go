package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a reader's remark on an accepted article.
type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ArticleID primitive.ObjectID `json:"articleId" bson:"articleId"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Comment   string             `json:"comment" bson:"comment"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// CommentView is a comment enriched with the commenter's public profile.
type CommentView struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	ArticleID primitive.ObjectID `json:"articleId" bson:"articleId"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Comment   string             `json:"comment" bson:"comment"`
	UserName  string             `json:"userName" bson:"userName"`
	AvatarURL string             `json:"avatarUrl" bson:"avatarUrl"`
	CreatedAt time.Time          `json:"commentedDate" bson:"createdAt"`
}
