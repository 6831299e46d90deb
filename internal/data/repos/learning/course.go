package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type CourseRepo interface {
	Create(dbc dbctx.Context, course *types.Course) (*types.Course, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error)
	ListPublished(dbc dbctx.Context) ([]*types.Course, error)
	ListAll(dbc dbctx.Context) ([]*types.Course, error)
	Save(dbc dbctx.Context, course *types.Course) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(dbc dbctx.Context, course *types.Course) (*types.Course, error) {
	if err := dbc.Resolve(r.db).Create(course).Error; err != nil {
		return nil, err
	}
	return course, nil
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Course
	res := dbc.Resolve(r.db).Where("id = ?", id).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *courseRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error) {
	var results []*types.Course
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.Resolve(r.db).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) ListPublished(dbc dbctx.Context) ([]*types.Course, error) {
	var results []*types.Course
	if err := dbc.Resolve(r.db).
		Where("published = ?", true).
		Order("category ASC, title ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) ListAll(dbc dbctx.Context) ([]*types.Course, error) {
	var results []*types.Course
	if err := dbc.Resolve(r.db).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) Save(dbc dbctx.Context, course *types.Course) error {
	return dbc.Resolve(r.db).Save(course).Error
}

func (r *courseRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.Resolve(r.db).Where("id = ?", id).Delete(&types.Course{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
