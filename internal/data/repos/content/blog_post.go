package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type BlogPostRepo interface {
	Create(dbc dbctx.Context, p *types.BlogPost) (*types.BlogPost, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.BlogPost, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.BlogPost, error)
	SlugExists(dbc dbctx.Context, slug string) (bool, error)
	List(dbc dbctx.Context, publishedOnly bool, tag string, limit, offset int) ([]*types.BlogPost, error)
	Save(dbc dbctx.Context, p *types.BlogPost) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type blogPostRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBlogPostRepo(db *gorm.DB, baseLog *logger.Logger) BlogPostRepo {
	return &blogPostRepo{db: db, log: baseLog.With("repo", "BlogPostRepo")}
}

func (r *blogPostRepo) Create(dbc dbctx.Context, p *types.BlogPost) (*types.BlogPost, error) {
	if err := dbc.Resolve(r.db).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *blogPostRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.BlogPost, error) {
	return r.getOne(dbc, "id = ?", id)
}

func (r *blogPostRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.BlogPost, error) {
	if slug == "" {
		return nil, nil
	}
	return r.getOne(dbc, "slug = ?", slug)
}

func (r *blogPostRepo) getOne(dbc dbctx.Context, where string, arg interface{}) (*types.BlogPost, error) {
	var row types.BlogPost
	res := dbc.Resolve(r.db).Where(where, arg).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *blogPostRepo) SlugExists(dbc dbctx.Context, slug string) (bool, error) {
	var n int64
	// Unscoped so soft-deleted posts keep their slug reserved.
	if err := dbc.Resolve(r.db).Unscoped().Model(&types.BlogPost{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *blogPostRepo) List(dbc dbctx.Context, publishedOnly bool, tag string, limit, offset int) ([]*types.BlogPost, error) {
	results := []*types.BlogPost{}
	q := dbc.Resolve(r.db)
	if publishedOnly {
		q = q.Where("published = ?", true).Order("published_at DESC")
	} else {
		q = q.Order("created_at DESC")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	if tag == "" {
		return results, nil
	}
	// Tags live in a JSON column; filtering in Go keeps the query portable across dialects.
	filtered := make([]*types.BlogPost, 0, len(results))
	for _, p := range results {
		for _, t := range p.Tags.Data() {
			if t == tag {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

func (r *blogPostRepo) Save(dbc dbctx.Context, p *types.BlogPost) error {
	return dbc.Resolve(r.db).Save(p).Error
}

func (r *blogPostRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.Resolve(r.db).Where("id = ?", id).Delete(&types.BlogPost{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
