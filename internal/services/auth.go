package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/data/repos"
	"github.com/yungbote/iof-learning/internal/data/repos/user"
	types "github.com/yungbote/iof-learning/internal/domain"
	domainuser "github.com/yungbote/iof-learning/internal/domain/user"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	perr "github.com/yungbote/iof-learning/internal/platform/errors"
	"github.com/yungbote/iof-learning/internal/platform/logger"
	"github.com/yungbote/iof-learning/internal/platform/sendgrid"
)

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	Me(ctx context.Context) (*Session, error)
	GetAccessTTL() time.Duration
}

type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"display_name" validate:"required,max=80"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Session is the identity object returned by /api/me.
type Session struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
}

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type AuthConfig struct {
	JWTSecretKey     string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	PasswordResetTTL time.Duration
	PasswordResetURL string
	MailFromEmail    string
	MailFromName     string
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	resetRepo     repos.PasswordResetRepo
	mailer        sendgrid.Client
	google        GoogleVerifier
	validate      *validator.Validate
	cfg           AuthConfig
	now           func() time.Time
}

// NewAuthService wires auth. mailer and google may be nil, which disables password
// reset mail delivery and Google sign-in respectively.
func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	resetRepo repos.PasswordResetRepo,
	mailer sendgrid.Client,
	google GoogleVerifier,
	cfg AuthConfig,
) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.PasswordResetTTL <= 0 {
		cfg.PasswordResetTTL = time.Hour
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		resetRepo:     resetRepo,
		mailer:        mailer,
		google:        google,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.cfg.AccessTTL }

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	in.Email = user.NormalizeEmail(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := as.validate.Struct(in); err != nil {
		return nil, invalidFromValidator("invalid_registration", -1, err)
	}
	exists, err := as.userRepo.EmailExists(dbcOf(ctx), in.Email)
	if err != nil {
		return nil, apierr.From(err, "registration_failed")
	}
	if exists {
		return nil, apierr.New(http.StatusConflict, "email_taken", fmt.Errorf("email already registered: %w", perr.ErrConflict))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.From(fmt.Errorf("hash password: %w", err), "registration_failed")
	}
	u := &types.User{
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Password:    string(hash),
		Role:        domainuser.RoleStudent,
		Provider:    domainuser.ProviderPassword,
	}
	if _, err := as.userRepo.Create(dbcOf(ctx), u); err != nil {
		as.log.Error("create user failed", "error", err)
		return nil, apierr.From(err, "registration_failed")
	}
	as.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = user.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalidCredentials()
	}
	u, err := as.userRepo.GetByEmail(dbcOf(ctx), email)
	if err != nil {
		return nil, apierr.From(err, "login_failed")
	}
	if u == nil || u.Password == "" {
		return nil, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}
	return as.startSession(ctx, u)
}

func invalidCredentials() error {
	return apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("invalid email or password: %w", perr.ErrUnauthorized))
}

func (as *authService) LoginWithGoogle(ctx context.Context, idToken string) (*TokenPair, error) {
	if as.google == nil {
		return nil, apierr.New(http.StatusNotImplemented, "google_signin_disabled", errors.New("google sign-in is not configured"))
	}
	ident, err := as.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		as.log.Warn("google id token rejected", "error", err)
		return nil, apierr.New(http.StatusUnauthorized, "invalid_id_token", fmt.Errorf("%v: %w", err, perr.ErrUnauthorized))
	}
	email := user.NormalizeEmail(ident.Email)
	if email == "" || !ident.EmailVerified {
		return nil, apierr.New(http.StatusUnauthorized, "email_not_verified", fmt.Errorf("google account email not verified: %w", perr.ErrUnauthorized))
	}

	var u *types.User
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userRepo.GetByProviderSubject(dbc, domainuser.ProviderGoogle, ident.Sub)
		if err != nil {
			return err
		}
		if found != nil {
			u = found
			return nil
		}
		found, err = as.userRepo.GetByEmail(dbc, email)
		if err != nil {
			return err
		}
		if found != nil {
			// Existing password account: link the Google subject to it.
			if found.ProviderSubject == "" {
				if err := as.userRepo.UpdateFields(dbc, found.ID, map[string]interface{}{"provider_subject": ident.Sub}); err != nil {
					return err
				}
				found.ProviderSubject = ident.Sub
			}
			u = found
			return nil
		}
		created, err := as.userRepo.Create(dbc, &types.User{
			Email:           email,
			DisplayName:     ident.DisplayName(),
			Role:            domainuser.RoleStudent,
			Provider:        domainuser.ProviderGoogle,
			ProviderSubject: ident.Sub,
		})
		if err != nil {
			return err
		}
		u = created
		return nil
	})
	if err != nil {
		as.log.Error("google sign-in failed", "error", err)
		return nil, apierr.From(err, "google_signin_failed")
	}
	return as.startSession(ctx, u)
}

func (as *authService) startSession(ctx context.Context, u *types.User) (*TokenPair, error) {
	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := as.issueTokens(dbctx.Context{Ctx: ctx, Tx: tx}, u)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		as.log.Error("create session failed", "error", err, "user_id", u.ID)
		return nil, apierr.From(err, "login_failed")
	}
	return pair, nil
}

func (as *authService) issueTokens(dbc dbctx.Context, u *types.User) (*TokenPair, error) {
	access, err := as.generateAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	tok := &types.UserToken{
		UserID:       u.ID,
		AccessToken:  access,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    as.now().Add(as.cfg.RefreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, tok); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    int(as.cfg.AccessTTL.Seconds()),
	}, nil
}

func (as *authService) generateAccessToken(u *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.cfg.JWTSecretKey))
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.New(http.StatusUnauthorized, "refresh_failed", fmt.Errorf("missing refresh token: %w", perr.ErrUnauthorized))
	}
	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userTokenRepo.GetByRefreshToken(dbc, refreshToken)
		if err != nil {
			return err
		}
		if existing == nil {
			return apierr.New(http.StatusUnauthorized, "refresh_failed", fmt.Errorf("unknown refresh token: %w", perr.ErrUnauthorized))
		}
		if !existing.ExpiresAt.After(as.now()) {
			if err := as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
				return err
			}
			// Commit the cleanup, then report the expiry.
			pair = nil
			return nil
		}
		u, err := as.userRepo.GetByID(dbc, existing.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return apierr.New(http.StatusUnauthorized, "refresh_failed", fmt.Errorf("user gone: %w", perr.ErrUnauthorized))
		}
		p, err := as.issueTokens(dbc, u)
		if err != nil {
			return err
		}
		if err := as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, apierr.From(err, "refresh_failed")
	}
	if pair == nil {
		return nil, apierr.New(http.StatusUnauthorized, "refresh_expired", fmt.Errorf("refresh token expired: %w", perr.ErrUnauthorized))
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.New(http.StatusUnauthorized, "unauthorized", perr.ErrUnauthorized)
	}
	tok, err := as.userTokenRepo.GetByAccessToken(dbcOf(ctx), rd.TokenString)
	if err != nil {
		return apierr.From(err, "logout_failed")
	}
	if tok == nil {
		return nil
	}
	if err := as.userTokenRepo.DeleteByIDs(dbcOf(ctx), []uuid.UUID{tok.ID}); err != nil {
		return apierr.From(err, "logout_failed")
	}
	return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token: %w", perr.ErrUnauthorized)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, fmt.Errorf("parse token: %v: %w", err, perr.ErrUnauthorized)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token: %w", perr.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid subject: %w", perr.ErrUnauthorized)
	}
	// Logged-out tokens are gone from user_tokens even while their signature is still valid.
	tok, err := as.userTokenRepo.GetByAccessToken(dbcOf(ctx), tokenString)
	if err != nil {
		return ctx, err
	}
	if tok == nil {
		return ctx, fmt.Errorf("session revoked: %w", perr.ErrUnauthorized)
	}
	u, err := as.userRepo.GetByID(dbcOf(ctx), userID)
	if err != nil {
		return ctx, err
	}
	if u == nil {
		return ctx, fmt.Errorf("user not found: %w", perr.ErrUnauthorized)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		TokenString: tokenString,
	}), nil
}

func (as *authService) Me(ctx context.Context) (*Session, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", perr.ErrUnauthorized)
	}
	return &Session{ID: rd.UserID, Email: rd.Email, DisplayName: rd.DisplayName, Role: rd.Role}, nil
}

func (as *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = user.NormalizeEmail(email)
	if email == "" {
		return apierr.Invalid("invalid_email", apierr.FieldError{Index: -1, Field: "email", Message: "is required"})
	}
	u, err := as.userRepo.GetByEmail(dbcOf(ctx), email)
	if err != nil {
		return apierr.From(err, "password_reset_failed")
	}
	if u == nil {
		// Unknown addresses get the same response as known ones.
		as.log.Info("password reset requested for unknown email")
		return nil
	}
	raw, err := randomToken()
	if err != nil {
		return apierr.From(err, "password_reset_failed")
	}
	if _, err := as.resetRepo.Create(dbcOf(ctx), &types.PasswordReset{
		UserID:    u.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: as.now().Add(as.cfg.PasswordResetTTL),
	}); err != nil {
		return apierr.From(err, "password_reset_failed")
	}
	if as.mailer == nil {
		as.log.Warn("password reset mail not sent: mailer disabled", "user_id", u.ID)
		return nil
	}
	link := resetLink(as.cfg.PasswordResetURL, raw)
	_, err = as.mailer.Send(ctx, sendgrid.SendEmailRequest{
		From:    sendgrid.EmailAddress{Email: as.cfg.MailFromEmail, Name: as.cfg.MailFromName},
		To:      []sendgrid.EmailAddress{{Email: u.Email, Name: u.DisplayName}},
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Use this link within %s to choose a new password:\n\n%s\n", as.cfg.PasswordResetTTL, link),
		HTML:    fmt.Sprintf(`<p>Use this link within %s to choose a new password:</p><p><a href="%s">Reset password</a></p>`, as.cfg.PasswordResetTTL, link),
	})
	if err != nil {
		as.log.Error("password reset mail failed", "error", err, "user_id", u.ID)
		return apierr.From(err, "password_reset_mail_failed")
	}
	return nil
}

func (as *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apierr.Invalid("invalid_reset_token", apierr.FieldError{Index: -1, Field: "token", Message: "is required"})
	}
	if len(newPassword) < 8 || len(newPassword) > 128 {
		return apierr.Invalid("invalid_password", apierr.FieldError{Index: -1, Field: "password", Message: "must be 8 to 128 characters"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apierr.From(err, "password_reset_failed")
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		pr, err := as.resetRepo.GetActiveByHash(dbc, hashToken(token), as.now())
		if err != nil {
			return err
		}
		if pr == nil {
			return apierr.New(http.StatusBadRequest, "invalid_reset_token", fmt.Errorf("reset token invalid or expired: %w", perr.ErrInvalidArgument))
		}
		ok, err := as.resetRepo.MarkUsed(dbc, pr.ID, as.now())
		if err != nil {
			return err
		}
		if !ok {
			return apierr.New(http.StatusBadRequest, "invalid_reset_token", fmt.Errorf("reset token already used: %w", perr.ErrInvalidArgument))
		}
		if err := as.userRepo.UpdateFields(dbc, pr.UserID, map[string]interface{}{"password": string(hash)}); err != nil {
			return err
		}
		return as.userTokenRepo.DeleteByUserID(dbc, pr.UserID)
	})
	if err != nil {
		return apierr.From(err, "password_reset_failed")
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func resetLink(base, token string) string {
	if strings.TrimSpace(base) == "" {
		return token
	}
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
