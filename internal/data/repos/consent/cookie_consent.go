package consent

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type CookieConsentRepo interface {
	Get(dbc dbctx.Context, visitorID string) (*types.CookieConsent, error)
	Upsert(dbc dbctx.Context, c *types.CookieConsent) error
}

type cookieConsentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCookieConsentRepo(db *gorm.DB, baseLog *logger.Logger) CookieConsentRepo {
	return &cookieConsentRepo{db: db, log: baseLog.With("repo", "CookieConsentRepo")}
}

func (r *cookieConsentRepo) Get(dbc dbctx.Context, visitorID string) (*types.CookieConsent, error) {
	if visitorID == "" {
		return nil, nil
	}
	var row types.CookieConsent
	res := dbc.Resolve(r.db).Where("visitor_id = ?", visitorID).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *cookieConsentRepo) Upsert(dbc dbctx.Context, c *types.CookieConsent) error {
	c.Essential = true
	c.UpdatedAt = time.Now().UTC()
	return dbc.Resolve(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "visitor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "essential", "analytics", "marketing", "preferences", "decided_at", "updated_at",
		}),
	}).Create(c).Error
}
