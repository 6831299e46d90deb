package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type CertificateRepo interface {
	// CreateIfAbsent inserts cert and reports false when any unique key already exists.
	CreateIfAbsent(dbc dbctx.Context, cert *types.Certificate) (bool, error)
	GetByID(dbc dbctx.Context, id string) (*types.Certificate, error)
	GetByUserCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Certificate, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Certificate, error)
	UpdateImage(dbc dbctx.Context, id, key, url string) error
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{db: db, log: baseLog.With("repo", "CertificateRepo")}
}

func (r *certificateRepo) CreateIfAbsent(dbc dbctx.Context, cert *types.Certificate) (bool, error) {
	res := dbc.Resolve(r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(cert)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *certificateRepo) GetByID(dbc dbctx.Context, id string) (*types.Certificate, error) {
	if id == "" {
		return nil, nil
	}
	var row types.Certificate
	res := dbc.Resolve(r.db).Where("id = ?", id).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *certificateRepo) GetByUserCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Certificate, error) {
	var row types.Certificate
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

func (r *certificateRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Certificate, error) {
	var results []*types.Certificate
	if err := dbc.Resolve(r.db).
		Where("user_id = ?", userID).
		Order("generated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *certificateRepo) UpdateImage(dbc dbctx.Context, id, key, url string) error {
	return dbc.Resolve(r.db).
		Model(&types.Certificate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"image_key": key, "image_url": url}).Error
}
