package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type BlogCommentRepo interface {
	Create(dbc dbctx.Context, c *types.BlogComment) (*types.BlogComment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.BlogComment, error)
	ListByPost(dbc dbctx.Context, postID uuid.UUID) ([]*types.BlogComment, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByPost(dbc dbctx.Context, postID uuid.UUID) error
}

type blogCommentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBlogCommentRepo(db *gorm.DB, baseLog *logger.Logger) BlogCommentRepo {
	return &blogCommentRepo{db: db, log: baseLog.With("repo", "BlogCommentRepo")}
}

func (r *blogCommentRepo) Create(dbc dbctx.Context, c *types.BlogComment) (*types.BlogComment, error) {
	if err := dbc.Resolve(r.db).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *blogCommentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.BlogComment, error) {
	var row types.BlogComment
	res := dbc.Resolve(r.db).Where("id = ?", id).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *blogCommentRepo) ListByPost(dbc dbctx.Context, postID uuid.UUID) ([]*types.BlogComment, error) {
	results := []*types.BlogComment{}
	if err := dbc.Resolve(r.db).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *blogCommentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Resolve(r.db).Where("id = ?", id).Delete(&types.BlogComment{}).Error
}

func (r *blogCommentRepo) DeleteByPost(dbc dbctx.Context, postID uuid.UUID) error {
	return dbc.Resolve(r.db).Where("post_id = ?", postID).Delete(&types.BlogComment{}).Error
}
