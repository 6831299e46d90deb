package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type CompletionRepo interface {
	// Ensure creates an empty map for (user, course) when absent and returns the stored row.
	Ensure(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CompletionMap, error)
	Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CompletionMap, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CompletionMap, error)
	// SaveCompleted writes completed when the row is still at m.Version. It reports
	// false on a concurrent modification.
	SaveCompleted(dbc dbctx.Context, m *types.CompletionMap, completed map[string]time.Time) (bool, error)
	// SetCertificateIfEmpty records certID only when no id is recorded yet.
	SetCertificateIfEmpty(dbc dbctx.Context, id uuid.UUID, certID string, firstCompletedAt time.Time) (bool, error)
}

type completionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompletionRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRepo {
	return &completionRepo{db: db, log: baseLog.With("repo", "CompletionRepo")}
}

func (r *completionRepo) Ensure(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CompletionMap, error) {
	t := dbc.Resolve(r.db)
	row := &types.CompletionMap{
		UserID:    userID,
		CourseID:  courseID,
		Completed: datatypes.NewJSONType(map[string]time.Time{}),
	}
	if err := t.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(row).Error; err != nil {
		return nil, err
	}
	return r.Get(dbc, userID, courseID)
}

func (r *completionRepo) Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CompletionMap, error) {
	var row types.CompletionMap
	res := dbc.Resolve(r.db).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Limit(1).
		Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *completionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CompletionMap, error) {
	var results []*types.CompletionMap
	if err := dbc.Resolve(r.db).Where("user_id = ?", userID).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *completionRepo) SaveCompleted(dbc dbctx.Context, m *types.CompletionMap, completed map[string]time.Time) (bool, error) {
	res := dbc.Resolve(r.db).
		Model(&types.CompletionMap{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(map[string]interface{}{
			"completed":  datatypes.NewJSONType(completed),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *completionRepo) SetCertificateIfEmpty(dbc dbctx.Context, id uuid.UUID, certID string, firstCompletedAt time.Time) (bool, error) {
	res := dbc.Resolve(r.db).
		Model(&types.CompletionMap{}).
		Where("id = ? AND (certificate_id IS NULL OR certificate_id = '')", id).
		Updates(map[string]interface{}{
			"certificate_id":     certID,
			"first_completed_at": firstCompletedAt,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
