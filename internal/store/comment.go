package store

import (
	"context"
	"time"

	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const commentsCollection = "comments"

// CommentRepository handles persistence for comments.
type CommentRepository struct {
	collection *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{collection: db.Collection(commentsCollection)}
}

func (r *CommentRepository) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, comment); err != nil {
		return types.Comment{}, translate(err)
	}
	return comment, nil
}

// ListByArticle returns one page of an article's comments, newest first,
// with each commenter's name and avatar. Commenters that no longer exist
// come back with an empty name.
func (r *CommentRepository) ListByArticle(ctx context.Context, articleID primitive.ObjectID, page types.PageRequest) ([]types.CommentView, int64, error) {
	filter := bson.D{{Key: "articleId", Value: articleID}}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: page.Skip()}},
		{{Key: "$limit", Value: int64(page.Limit)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "userId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "userName", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$user.name", 0}}}, "",
			}}}},
			{Key: "avatarUrl", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$user.avatarUrl", 0}}}, "",
			}}}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "user", Value: 0}}}},
	}

	cur, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	comments := make([]types.CommentView, 0, page.Limit)
	if err := cur.All(ctx, &comments); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// DeleteByArticle removes every comment of an article.
func (r *CommentRepository) DeleteByArticle(ctx context.Context, articleID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.D{{Key: "articleId", Value: articleID}})
	return err
}
