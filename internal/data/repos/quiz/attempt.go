package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type QuizAttemptRepo interface {
	Create(dbc dbctx.Context, a *types.QuizAttempt) (*types.QuizAttempt, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.QuizAttempt, error)
}

type quizAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	return &quizAttemptRepo{db: db, log: baseLog.With("repo", "QuizAttemptRepo")}
}

func (r *quizAttemptRepo) Create(dbc dbctx.Context, a *types.QuizAttempt) (*types.QuizAttempt, error) {
	if err := dbc.Resolve(r.db).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *quizAttemptRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.QuizAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	results := []*types.QuizAttempt{}
	if err := dbc.Resolve(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type LeaderboardRepo interface {
	// AddPoints adds points and one taken quiz to the user's entry, creating it when absent.
	AddPoints(dbc dbctx.Context, userID uuid.UUID, displayName string, points int) error
	Top(dbc dbctx.Context, limit int) ([]*types.LeaderboardEntry, error)
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.LeaderboardEntry, error)
}

type leaderboardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeaderboardRepo(db *gorm.DB, baseLog *logger.Logger) LeaderboardRepo {
	return &leaderboardRepo{db: db, log: baseLog.With("repo", "LeaderboardRepo")}
}

func (r *leaderboardRepo) AddPoints(dbc dbctx.Context, userID uuid.UUID, displayName string, points int) error {
	now := time.Now().UTC()
	row := &types.LeaderboardEntry{UserID: userID, DisplayName: displayName, Points: points, QuizzesTaken: 1, UpdatedAt: now}
	return dbc.Resolve(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points":        gorm.Expr("leaderboard.points + ?", points),
			"quizzes_taken": gorm.Expr("leaderboard.quizzes_taken + 1"),
			"display_name":  displayName,
			"updated_at":    now,
		}),
	}).Create(row).Error
}

func (r *leaderboardRepo) Top(dbc dbctx.Context, limit int) ([]*types.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	results := []*types.LeaderboardEntry{}
	if err := dbc.Resolve(r.db).
		Order("points DESC, updated_at ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *leaderboardRepo) Get(dbc dbctx.Context, userID uuid.UUID) (*types.LeaderboardEntry, error) {
	var row types.LeaderboardEntry
	res := dbc.Resolve(r.db).Where("user_id = ?", userID).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}
