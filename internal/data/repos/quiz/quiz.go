package quiz

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type QuizRepo interface {
	Create(dbc dbctx.Context, q *types.Quiz) (*types.Quiz, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Quiz, error)
	List(dbc dbctx.Context, publishedOnly bool) ([]*types.Quiz, error)
	Save(dbc dbctx.Context, q *types.Quiz) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: baseLog.With("repo", "QuizRepo")}
}

func (r *quizRepo) Create(dbc dbctx.Context, q *types.Quiz) (*types.Quiz, error) {
	if err := dbc.Resolve(r.db).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

func (r *quizRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Quiz, error) {
	var row types.Quiz
	res := dbc.Resolve(r.db).Where("id = ?", id).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *quizRepo) List(dbc dbctx.Context, publishedOnly bool) ([]*types.Quiz, error) {
	results := []*types.Quiz{}
	q := dbc.Resolve(r.db).Order("created_at DESC")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *quizRepo) Save(dbc dbctx.Context, q *types.Quiz) error {
	return dbc.Resolve(r.db).Save(q).Error
}

func (r *quizRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.Resolve(r.db).Where("id = ?", id).Delete(&types.Quiz{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
