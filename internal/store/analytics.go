package store

import (
	"context"

	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AnalyticsRepository runs the read-only reporting pipelines.
type AnalyticsRepository struct {
	users    *mongo.Collection
	articles *mongo.Collection
}

func NewAnalyticsRepository(db *mongo.Database) *AnalyticsRepository {
	return &AnalyticsRepository{
		users:    db.Collection(usersCollection),
		articles: db.Collection(articlesCollection),
	}
}

// RegistrationsByYear counts role=user registrations per month, rolled up
// per year.
func (r *AnalyticsRepository) RegistrationsByYear(ctx context.Context) ([]types.YearlyRegistrations, error) {
	cur, err := r.users.Aggregate(ctx, registrationsPipeline())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var report []types.YearlyRegistrations
	if err := cur.All(ctx, &report); err != nil {
		return nil, err
	}
	return report, nil
}

// ArticlesByMonth splits monthly article counts by status. A non-zero
// reporterID limits the report to that reporter's articles.
func (r *AnalyticsRepository) ArticlesByMonth(ctx context.Context, reporterID primitive.ObjectID) ([]types.MonthlyArticleStats, error) {
	cur, err := r.articles.Aggregate(ctx, articleStatsPipeline(reporterID))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var report []types.MonthlyArticleStats
	if err := cur.All(ctx, &report); err != nil {
		return nil, err
	}
	return report, nil
}
