package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/iof-learning/internal/data/repos/testutil"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, db, "usertokenrepo@example.com")

	makeToken := func(access, refresh string, exp time.Time) *types.UserToken {
		return &types.UserToken{UserID: u.ID, AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}
	}

	t1, err := repo.Create(dbc, makeToken("access-1", "refresh-1", time.Now().UTC().Add(time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if t1.ID == uuid.Nil {
		t.Fatalf("Create: id not assigned")
	}
	if _, err := repo.Create(dbc, makeToken("access-2", "refresh-2", time.Now().UTC().Add(-time.Hour))); err != nil {
		t.Fatalf("Create expired: %v", err)
	}

	if row, err := repo.GetByRefreshToken(dbc, "refresh-1"); err != nil || row == nil || row.ID != t1.ID {
		t.Fatalf("GetByRefreshToken: err=%v row=%v", err, row)
	}
	if row, err := repo.GetByAccessToken(dbc, "access-1"); err != nil || row == nil {
		t.Fatalf("GetByAccessToken: err=%v row=%v", err, row)
	}
	if row, err := repo.GetByRefreshToken(dbc, "nope"); err != nil || row != nil {
		t.Fatalf("GetByRefreshToken missing: err=%v row=%v", err, row)
	}

	n, err := repo.DeleteExpired(dbc, time.Now().UTC())
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: err=%v n=%d", err, n)
	}
	if err := repo.DeleteByUserID(dbc, u.ID); err != nil {
		t.Fatalf("DeleteByUserID: %v", err)
	}
	if row, _ := repo.GetByRefreshToken(dbc, "refresh-1"); row != nil {
		t.Fatalf("token survived DeleteByUserID")
	}
}

func TestPasswordResetRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewPasswordResetRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, db, "reset@example.com")
	now := time.Now().UTC()

	pr, err := repo.Create(dbc, &types.PasswordReset{UserID: u.ID, TokenHash: "h1", ExpiresAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got, err := repo.GetActiveByHash(dbc, "h1", now); err != nil || got == nil {
		t.Fatalf("GetActiveByHash: err=%v got=%v", err, got)
	}
	if got, _ := repo.GetActiveByHash(dbc, "h1", now.Add(2*time.Hour)); got != nil {
		t.Fatalf("expired reset still active")
	}
	if ok, err := repo.MarkUsed(dbc, pr.ID, now); err != nil || !ok {
		t.Fatalf("MarkUsed: err=%v ok=%v", err, ok)
	}
	if ok, _ := repo.MarkUsed(dbc, pr.ID, now); ok {
		t.Fatalf("MarkUsed twice: want false")
	}
	if got, _ := repo.GetActiveByHash(dbc, "h1", now); got != nil {
		t.Fatalf("used reset still active")
	}
}
