package services

import (
	"context"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

const maxLeaderboardSize = 100

type LeaderboardService interface {
	Top(ctx context.Context, limit int) ([]*types.LeaderboardEntry, error)
	Mine(ctx context.Context) (*types.LeaderboardEntry, error)
}

type leaderboardService struct {
	log  *logger.Logger
	repo repos.LeaderboardRepo
}

func NewLeaderboardService(log *logger.Logger, repo repos.LeaderboardRepo) LeaderboardService {
	return &leaderboardService{log: log.With("service", "LeaderboardService"), repo: repo}
}

func (s *leaderboardService) Top(ctx context.Context, limit int) ([]*types.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	out, err := s.repo.Top(dbcOf(ctx), limit)
	if err != nil {
		return nil, apierr.From(err, "leaderboard_failed")
	}
	return out, nil
}

// Mine returns a zero entry for users who have not taken a quiz yet.
func (s *leaderboardService) Mine(ctx context.Context) (*types.LeaderboardEntry, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.repo.Get(dbcOf(ctx), userID)
	if err != nil {
		return nil, apierr.From(err, "leaderboard_failed")
	}
	if e == nil {
		e = &types.LeaderboardEntry{UserID: userID}
	}
	return e, nil
}
