package quiz

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

// QuestionFilter scopes a listing. Empty fields match everything.
type QuestionFilter struct {
	Difficulty types.Difficulty
	Subject    string
	Topic      string
	Limit      int
	Offset     int
}

type QuestionRepo interface {
	CreateBatch(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error)
	Create(dbc dbctx.Context, q *types.Question) (*types.Question, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Question, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Question, error)
	List(dbc dbctx.Context, f QuestionFilter) ([]*types.Question, error)
	Count(dbc dbctx.Context, f QuestionFilter) (int64, error)
	Save(dbc dbctx.Context, q *types.Question) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) CreateBatch(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error) {
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	if err := dbc.Resolve(r.db).CreateInBatches(&questions, 200).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) Create(dbc dbctx.Context, q *types.Question) (*types.Question, error) {
	if err := dbc.Resolve(r.db).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

func (r *questionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Question, error) {
	var row types.Question
	res := dbc.Resolve(r.db).Where("id = ?", id).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *questionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Question, error) {
	var results []*types.Question
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.Resolve(r.db).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) scoped(dbc dbctx.Context, f QuestionFilter) *gorm.DB {
	q := dbc.Resolve(r.db).Model(&types.Question{})
	if f.Difficulty != "" {
		q = q.Where("difficulty = ?", f.Difficulty)
	}
	if f.Subject != "" {
		q = q.Where("subject = ?", f.Subject)
	}
	if f.Topic != "" {
		q = q.Where("topic = ?", f.Topic)
	}
	return q
}

func (r *questionRepo) List(dbc dbctx.Context, f QuestionFilter) ([]*types.Question, error) {
	results := []*types.Question{}
	q := r.scoped(dbc, f).Order("created_at ASC, id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) Count(dbc dbctx.Context, f QuestionFilter) (int64, error) {
	var n int64
	if err := r.scoped(dbc, f).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *questionRepo) Save(dbc dbctx.Context, q *types.Question) error {
	return dbc.Resolve(r.db).Save(q).Error
}

func (r *questionRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.Resolve(r.db).Where("id IN ?", ids).Delete(&types.Question{})
	return res.RowsAffected, res.Error
}
