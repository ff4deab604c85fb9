package store

import (
	"context"

	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	visitsCollection = "visitcounts"
	visitCounterID   = "site"
)

// VisitRepository persists the singleton visit counter.
type VisitRepository struct {
	collection *mongo.Collection
}

func NewVisitRepository(db *mongo.Database) *VisitRepository {
	return &VisitRepository{collection: db.Collection(visitsCollection)}
}

// Get returns the counter, creating it at seed when absent.
func (r *VisitRepository) Get(ctx context.Context, seed int64) (int64, error) {
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "count", Value: seed}}}}
	return r.upsert(ctx, update)
}

// Increment creates the counter at seed when absent, otherwise adds one.
// Both cases are a single server-side update, so concurrent calls never
// lose increments.
func (r *VisitRepository) Increment(ctx context.Context, seed int64) (int64, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "count", Value: bson.D{{Key: "$add", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$count", seed - 1}}},
			1,
		}}}}}}},
	}
	return r.upsert(ctx, update)
}

func (r *VisitRepository) upsert(ctx context.Context, update any) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	filter := bson.D{{Key: "_id", Value: visitCounterID}}

	var counter types.VisitCount
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if mongo.IsDuplicateKeyError(err) {
		// Two first-time upserts raced on the _id; the loser now sees the
		// winner's document.
		err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	}
	if err != nil {
		return 0, translate(err)
	}
	return counter.Count, nil
}
