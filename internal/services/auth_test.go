package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/sendgrid"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []sendgrid.SendEmailRequest
}

func (m *captureMailer) Send(_ context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	return &sendgrid.SendEmailResult{StatusCode: http.StatusAccepted, MessageID: "msg-1"}, nil
}

type fakeGoogle struct {
	ident *ExternalIdentity
	err   error
}

func (f fakeGoogle) VerifyIDToken(context.Context, string) (*ExternalIdentity, error) {
	return f.ident, f.err
}

func newAuthForTest(env *testEnv, mailer sendgrid.Client, google GoogleVerifier) AuthService {
	return NewAuthService(env.db, env.log, env.users, env.tokens, env.resets, mailer, google, AuthConfig{
		JWTSecretKey:     "test-secret",
		AccessTTL:        time.Hour,
		RefreshTTL:       24 * time.Hour,
		PasswordResetURL: "https://app.test/reset",
		MailFromEmail:    "no-reply@app.test",
	})
}

func TestRegisterLoginSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	as := newAuthForTest(env, nil, nil)

	u, err := as.Register(ctx, RegisterInput{Email: " Ada@Example.com ", Password: "correct-horse", DisplayName: "Ada"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "ada@example.com" || u.Role != "student" || u.Password == "correct-horse" {
		t.Fatalf("registered user: %+v", u)
	}

	var ae *apierr.Error
	if _, err := as.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "another-pass", DisplayName: "Ada"}); !errors.As(err, &ae) || ae.Code != "email_taken" {
		t.Fatalf("duplicate register: want email_taken, got %v", err)
	}
	if _, err := as.Register(ctx, RegisterInput{Email: "bad", Password: "short", DisplayName: ""}); !errors.As(err, &ae) || ae.Status != http.StatusBadRequest {
		t.Fatalf("invalid register: want 400, got %v", err)
	}
	if _, err := as.Login(ctx, "ada@example.com", "wrong-password"); !errors.As(err, &ae) || ae.Code != "invalid_credentials" {
		t.Fatalf("bad password: want invalid_credentials, got %v", err)
	}

	pair, err := as.Login(ctx, "ADA@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.ExpiresIn != 3600 {
		t.Fatalf("token pair: %+v", pair)
	}

	sctx, err := as.SetContextFromToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	me, err := as.Me(sctx)
	if err != nil || me.ID != u.ID || me.Email != "ada@example.com" || me.Role != "student" {
		t.Fatalf("Me: err=%v me=%+v", err, me)
	}

	if err := as.Logout(sctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := as.SetContextFromToken(ctx, pair.AccessToken); err == nil {
		t.Fatalf("token accepted after logout")
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	as := newAuthForTest(env, nil, nil)
	if _, err := as.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "correct-horse", DisplayName: "Ada"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := as.Login(ctx, "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	next, err := as.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}
	if _, err := as.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Fatalf("old refresh token still accepted")
	}

	// An expired session is rejected and removed.
	tok, _ := env.tokens.GetByRefreshToken(dbctx.Context{Ctx: ctx}, next.RefreshToken)
	if err := env.db.Model(tok).Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("expire token: %v", err)
	}
	var ae *apierr.Error
	if _, err := as.Refresh(ctx, next.RefreshToken); !errors.As(err, &ae) || ae.Code != "refresh_expired" {
		t.Fatalf("expired refresh: want refresh_expired, got %v", err)
	}
	if gone, _ := env.tokens.GetByRefreshToken(dbctx.Context{Ctx: ctx}, next.RefreshToken); gone != nil {
		t.Fatalf("expired token not deleted")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mailer := &captureMailer{}
	as := newAuthForTest(env, mailer, nil)
	if _, err := as.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "correct-horse", DisplayName: "Ada"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := as.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("mail sent for unknown email")
	}
	if err := as.RequestPasswordReset(ctx, "ada@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To[0].Email != "ada@example.com" {
		t.Fatalf("mail not sent: %+v", mailer.sent)
	}
	token := extractToken(t, mailer.sent[0].Text)

	if err := as.ResetPassword(ctx, token, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if err := as.ResetPassword(ctx, token, "another-pass"); err == nil {
		t.Fatalf("reset token reusable")
	}
	if _, err := as.Login(ctx, "ada@example.com", "correct-horse"); err == nil {
		t.Fatalf("old password still works")
	}
	if _, err := as.Login(ctx, "ada@example.com", "brand-new-pass"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}

func extractToken(t *testing.T, body string) string {
	t.Helper()
	for _, field := range strings.Fields(body) {
		if !strings.HasPrefix(field, "https://") {
			continue
		}
		u, err := url.Parse(field)
		if err != nil {
			t.Fatalf("parse link: %v", err)
		}
		if tok := u.Query().Get("token"); tok != "" {
			return tok
		}
	}
	t.Fatalf("no reset link in %q", body)
	return ""
}

func TestLoginWithGoogle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ae *apierr.Error
	if _, err := newAuthForTest(env, nil, nil).LoginWithGoogle(ctx, "tok"); !errors.As(err, &ae) || ae.Status != http.StatusNotImplemented {
		t.Fatalf("disabled google: want 501, got %v", err)
	}

	unverified := fakeGoogle{ident: &ExternalIdentity{Sub: "g-1", Email: "ada@example.com"}}
	if _, err := newAuthForTest(env, nil, unverified).LoginWithGoogle(ctx, "tok"); !errors.As(err, &ae) || ae.Code != "email_not_verified" {
		t.Fatalf("unverified email: want email_not_verified, got %v", err)
	}

	google := fakeGoogle{ident: &ExternalIdentity{Sub: "g-1", Email: "Ada@Example.com", EmailVerified: true, Name: "Ada L"}}
	as := newAuthForTest(env, nil, google)
	pair, err := as.LoginWithGoogle(ctx, "tok")
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	sctx, err := as.SetContextFromToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(sctx)
	if rd.Email != "ada@example.com" || rd.DisplayName != "Ada L" {
		t.Fatalf("google session: %+v", rd)
	}

	// Second sign-in resolves the same account.
	again, err := as.LoginWithGoogle(ctx, "tok")
	if err != nil {
		t.Fatalf("second LoginWithGoogle: %v", err)
	}
	sctx2, _ := as.SetContextFromToken(ctx, again.AccessToken)
	if ctxutil.UserID(sctx2) != rd.UserID {
		t.Fatalf("second sign-in created another user")
	}
}

func TestSetContextFromTokenRejectsForeignSignature(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	as := newAuthForTest(env, nil, nil)
	if _, err := as.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "correct-horse", DisplayName: "Ada"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, _ := as.Login(ctx, "ada@example.com", "correct-horse")

	other := NewAuthService(env.db, env.log, env.users, env.tokens, env.resets, nil, nil, AuthConfig{JWTSecretKey: "other-secret"})
	if _, err := other.SetContextFromToken(ctx, pair.AccessToken); err == nil {
		t.Fatalf("token signed with another key accepted")
	}
}
