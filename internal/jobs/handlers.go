package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/iof-learning/internal/data/repos"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/services"
)

const (
	TypeNewsWarm     = "news_warm"
	TypeTokenCleanup = "token_cleanup"
)

// NewsWarm refreshes the cached feeds for a fixed set of queries.
type NewsWarm struct {
	News    services.NewsService
	Queries []string
}

func (j *NewsWarm) Type() string { return TypeNewsWarm }

func (j *NewsWarm) Run(ctx context.Context) error {
	if len(j.Queries) == 0 {
		return nil
	}
	return j.News.Warm(ctx, j.Queries)
}

// TokenCleanup removes refresh-token sessions that expired before now.
type TokenCleanup struct {
	Tokens repos.UserTokenRepo
	Now    func() time.Time
}

func (j *TokenCleanup) Type() string { return TypeTokenCleanup }

func (j *TokenCleanup) Run(ctx context.Context) error {
	now := time.Now().UTC()
	if j.Now != nil {
		now = j.Now()
	}
	if _, err := j.Tokens.DeleteExpired(dbctx.Context{Ctx: ctx}, now); err != nil {
		return fmt.Errorf("delete expired tokens: %w", err)
	}
	return nil
}
