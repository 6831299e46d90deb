package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type AnnouncementRepo interface {
	Create(dbc dbctx.Context, a *types.Announcement) (*types.Announcement, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Announcement, error)
	ListActive(dbc dbctx.Context, now time.Time) ([]*types.Announcement, error)
	ListAll(dbc dbctx.Context) ([]*types.Announcement, error)
	Save(dbc dbctx.Context, a *types.Announcement) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type announcementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnouncementRepo(db *gorm.DB, baseLog *logger.Logger) AnnouncementRepo {
	return &announcementRepo{db: db, log: baseLog.With("repo", "AnnouncementRepo")}
}

func (r *announcementRepo) Create(dbc dbctx.Context, a *types.Announcement) (*types.Announcement, error) {
	if err := dbc.Resolve(r.db).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *announcementRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Announcement, error) {
	var row types.Announcement
	res := dbc.Resolve(r.db).Where("id = ?", id).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *announcementRepo) ListActive(dbc dbctx.Context, now time.Time) ([]*types.Announcement, error) {
	results := []*types.Announcement{}
	if err := dbc.Resolve(r.db).
		Where("active = ? AND (expires_at IS NULL OR expires_at > ?)", true, now).
		Order("priority DESC, created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *announcementRepo) ListAll(dbc dbctx.Context) ([]*types.Announcement, error) {
	results := []*types.Announcement{}
	if err := dbc.Resolve(r.db).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *announcementRepo) Save(dbc dbctx.Context, a *types.Announcement) error {
	return dbc.Resolve(r.db).Save(a).Error
}

func (r *announcementRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.Resolve(r.db).Where("id = ?", id).Delete(&types.Announcement{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
