package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type PasswordResetRepo interface {
	Create(dbc dbctx.Context, pr *types.PasswordReset) (*types.PasswordReset, error)
	GetActiveByHash(dbc dbctx.Context, tokenHash string, now time.Time) (*types.PasswordReset, error)
	// MarkUsed reports false when the reset was already consumed.
	MarkUsed(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error)
}

type passwordResetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPasswordResetRepo(db *gorm.DB, baseLog *logger.Logger) PasswordResetRepo {
	return &passwordResetRepo{db: db, log: baseLog.With("repo", "PasswordResetRepo")}
}

func (r *passwordResetRepo) Create(dbc dbctx.Context, pr *types.PasswordReset) (*types.PasswordReset, error) {
	if err := dbc.Resolve(r.db).Create(pr).Error; err != nil {
		return nil, err
	}
	return pr, nil
}

func (r *passwordResetRepo) GetActiveByHash(dbc dbctx.Context, tokenHash string, now time.Time) (*types.PasswordReset, error) {
	if tokenHash == "" {
		return nil, nil
	}
	var row types.PasswordReset
	res := dbc.Resolve(r.db).
		Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
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

func (r *passwordResetRepo) MarkUsed(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := dbc.Resolve(r.db).
		Model(&types.PasswordReset{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
