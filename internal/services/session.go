package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	perr "github.com/yungbote/iof-learning/internal/platform/errors"
)

// requireUser returns the authenticated user id or a 401.
func requireUser(ctx context.Context) (uuid.UUID, error) {
	id := ctxutil.UserID(ctx)
	if id == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, "unauthorized", perr.ErrUnauthorized)
	}
	return id, nil
}

func isAdmin(ctx context.Context) bool {
	rd := ctxutil.GetRequestData(ctx)
	return rd != nil && rd.Role == "admin"
}

func dbcOf(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}

func notFound(code, what string) error {
	return apierr.New(http.StatusNotFound, code, fmt.Errorf("%s: %w", what, perr.ErrNotFound))
}
