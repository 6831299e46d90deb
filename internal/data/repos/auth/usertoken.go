package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, token *types.UserToken) (*types.UserToken, error)
	GetByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error)
	GetByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error
	DeleteExpired(dbc dbctx.Context, before time.Time) (int64, error)
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

func (r *userTokenRepo) Create(dbc dbctx.Context, token *types.UserToken) (*types.UserToken, error) {
	if err := dbc.Resolve(r.db).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (r *userTokenRepo) GetByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error) {
	return r.getOne(dbc, "refresh_token = ?", refreshToken)
}

func (r *userTokenRepo) GetByAccessToken(dbc dbctx.Context, accessToken string) (*types.UserToken, error) {
	return r.getOne(dbc, "access_token = ?", accessToken)
}

func (r *userTokenRepo) getOne(dbc dbctx.Context, where string, arg string) (*types.UserToken, error) {
	if arg == "" {
		return nil, nil
	}
	var row types.UserToken
	res := dbc.Resolve(r.db).Where(where, arg).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *userTokenRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.Resolve(r.db).Where("id IN ?", ids).Delete(&types.UserToken{}).Error
}

func (r *userTokenRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Resolve(r.db).Where("user_id = ?", userID).Delete(&types.UserToken{}).Error
}

func (r *userTokenRepo) DeleteExpired(dbc dbctx.Context, before time.Time) (int64, error) {
	res := dbc.Resolve(r.db).Where("expires_at < ?", before).Delete(&types.UserToken{})
	return res.RowsAffected, res.Error
}
