package services

import "context"

// DefaultVisitSeed is the value the counter starts from.
const DefaultVisitSeed int64 = 813129

// VisitRepository defines the counter operations. Both create the counter
// at seed when it does not exist yet.
type VisitRepository interface {
	Get(ctx context.Context, seed int64) (int64, error)
	Increment(ctx context.Context, seed int64) (int64, error)
}

type VisitService struct {
	repo VisitRepository
	seed int64
}

func NewVisitService(repo VisitRepository) *VisitService {
	return &VisitService{repo: repo, seed: DefaultVisitSeed}
}

func (s *VisitService) Get(ctx context.Context) (int64, error) {
	return s.repo.Get(ctx, s.seed)
}

func (s *VisitService) Increment(ctx context.Context) (int64, error) {
	return s.repo.Increment(ctx, s.seed)
}
