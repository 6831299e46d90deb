package quiz

import (
	"gorm.io/gorm"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type QuestionImportRepo interface {
	Create(dbc dbctx.Context, imp *types.QuestionImport) (*types.QuestionImport, error)
	ListRecent(dbc dbctx.Context, limit int) ([]*types.QuestionImport, error)
}

type questionImportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionImportRepo(db *gorm.DB, baseLog *logger.Logger) QuestionImportRepo {
	return &questionImportRepo{db: db, log: baseLog.With("repo", "QuestionImportRepo")}
}

func (r *questionImportRepo) Create(dbc dbctx.Context, imp *types.QuestionImport) (*types.QuestionImport, error) {
	if err := dbc.Resolve(r.db).Create(imp).Error; err != nil {
		return nil, err
	}
	return imp, nil
}

func (r *questionImportRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.QuestionImport, error) {
	if limit <= 0 {
		limit = 20
	}
	results := []*types.QuestionImport{}
	if err := dbc.Resolve(r.db).Order("created_at DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
