package services

import (
	"context"

	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnalyticsRepository defines the reporting queries.
type AnalyticsRepository interface {
	RegistrationsByYear(ctx context.Context) ([]types.YearlyRegistrations, error)
	ArticlesByMonth(ctx context.Context, reporterID primitive.ObjectID) ([]types.MonthlyArticleStats, error)
}

// AnalyticsService encapsulates the dashboard reports.
type AnalyticsService struct {
	repo AnalyticsRepository
}

func NewAnalyticsService(repo AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

func (s *AnalyticsService) UsersPerMonth(ctx context.Context) ([]types.YearlyRegistrations, error) {
	report, err := s.repo.RegistrationsByYear(ctx)
	if err != nil {
		return nil, err
	}
	if report == nil {
		report = []types.YearlyRegistrations{}
	}
	return report, nil
}

// ArticlesPerMonth reports on every article for admins and on their own
// articles for reporters.
func (s *AnalyticsService) ArticlesPerMonth(ctx context.Context, viewer *types.User) ([]types.MonthlyArticleStats, error) {
	if viewer == nil {
		return nil, ErrForbidden
	}
	var scope primitive.ObjectID
	switch viewer.Role {
	case types.RoleAdmin:
	case types.RoleReporter:
		scope = viewer.ID
	default:
		return nil, ErrForbidden
	}

	report, err := s.repo.ArticlesByMonth(ctx, scope)
	if err != nil {
		return nil, err
	}
	if report == nil {
		report = []types.MonthlyArticleStats{}
	}
	return report, nil
}
