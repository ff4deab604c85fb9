package store

import (
	"context"
	"time"

	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const articlesCollection = "articles"

// ArticleRepository handles persistence for articles.
type ArticleRepository struct {
	collection *mongo.Collection
}

func NewArticleRepository(db *mongo.Database) *ArticleRepository {
	return &ArticleRepository{collection: db.Collection(articlesCollection)}
}

func (r *ArticleRepository) Create(ctx context.Context, article types.Article) (types.Article, error) {
	now := time.Now().UTC()
	article.ID = primitive.NewObjectID()
	article.ReporterName = ""
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.Images == nil {
		article.Images = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, article); err != nil {
		return types.Article{}, translate(err)
	}
	return article, nil
}

// Get returns the article with the author's name joined in.
func (r *ArticleRepository) Get(ctx context.Context, id primitive.ObjectID) (types.Article, error) {
	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: id}}}},
		{{Key: "$limit", Value: 1}},
	}, withReporterName()...)

	cur, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return types.Article{}, err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return types.Article{}, err
		}
		return types.Article{}, ErrNotFound
	}
	var article types.Article
	if err := cur.Decode(&article); err != nil {
		return types.Article{}, err
	}
	return article, nil
}

// Update applies the non-nil fields of patch and returns the new document.
func (r *ArticleRepository) Update(ctx context.Context, id primitive.ObjectID, patch types.ArticlePatch) (types.Article, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Subheading != nil {
		set = append(set, bson.E{Key: "subheading", Value: *patch.Subheading})
	}
	if patch.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *patch.Content})
	}
	if patch.Category != nil {
		set = append(set, bson.E{Key: "category", Value: *patch.Category})
	}
	if patch.Images != nil {
		set = append(set, bson.E{Key: "images", Value: *patch.Images})
	}
	if patch.VideoLink != nil {
		set = append(set, bson.E{Key: "videoLink", Value: *patch.VideoLink})
	}
	if patch.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *patch.Status})
	}
	if patch.Verified != nil {
		set = append(set, bson.E{Key: "verified", Value: *patch.Verified})
	}

	var article types.Article
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&article)
	if err != nil {
		return types.Article{}, translate(err)
	}
	return article, nil
}

func (r *ArticleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of matching articles, newest first, and the total
// number of matches.
func (r *ArticleRepository) List(ctx context.Context, filter types.ArticleFilter, page types.PageRequest) ([]types.Article, int64, error) {
	query := articleFilter(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	cur, err := r.collection.Aggregate(ctx, pagedArticlesPipeline(query, page))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	articles := make([]types.Article, 0, page.Limit)
	if err := cur.All(ctx, &articles); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// LatestPerCategory returns the newest accepted article of up to limit
// categories.
func (r *ArticleRepository) LatestPerCategory(ctx context.Context, limit int) ([]types.Article, error) {
	cur, err := r.collection.Aggregate(ctx, latestPerCategoryPipeline(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	articles := make([]types.Article, 0, limit)
	if err := cur.All(ctx, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}
