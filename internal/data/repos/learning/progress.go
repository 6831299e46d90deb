package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type ProgressRepo interface {
	// Ensure creates a 0% row when absent; an existing enrollment is left untouched.
	Ensure(dbc dbctx.Context, userID, courseID uuid.UUID, enrolledAt time.Time) (*types.EnrollmentProgress, error)
	Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.EnrollmentProgress, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.EnrollmentProgress, error)
	UpsertPercent(dbc dbctx.Context, userID, courseID uuid.UUID, percent int) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) Ensure(dbc dbctx.Context, userID, courseID uuid.UUID, enrolledAt time.Time) (*types.EnrollmentProgress, error) {
	row := &types.EnrollmentProgress{UserID: userID, CourseID: courseID, Percent: 0, EnrolledAt: enrolledAt}
	if err := dbc.Resolve(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(row).Error; err != nil {
		return nil, err
	}
	return r.Get(dbc, userID, courseID)
}

func (r *progressRepo) Get(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.EnrollmentProgress, error) {
	var row types.EnrollmentProgress
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

func (r *progressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.EnrollmentProgress, error) {
	var results []*types.EnrollmentProgress
	if err := dbc.Resolve(r.db).
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) UpsertPercent(dbc dbctx.Context, userID, courseID uuid.UUID, percent int) error {
	now := time.Now().UTC()
	row := &types.EnrollmentProgress{UserID: userID, CourseID: courseID, Percent: percent, EnrolledAt: now, UpdatedAt: now}
	return dbc.Resolve(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"percent", "updated_at"}),
	}).Create(row).Error
}
