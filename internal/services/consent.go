package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/domain/consent"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	perr "github.com/yungbote/iof-learning/internal/platform/errors"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type ConsentService interface {
	// Get returns the stored choices, or the essential-only default when none exist.
	Get(ctx context.Context, visitorID string) (*types.CookieConsent, error)
	Update(ctx context.Context, visitorID string, prefs consent.Preferences) (*types.CookieConsent, error)
}

type consentService struct {
	log  *logger.Logger
	repo repos.CookieConsentRepo
	now  func() time.Time
}

func NewConsentService(log *logger.Logger, repo repos.CookieConsentRepo) ConsentService {
	return &consentService{
		log:  log.With("service", "ConsentService"),
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// NewVisitorID returns a random 128-bit hex id for the visitor cookie.
func NewVisitorID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(b)
}

// ValidVisitorID accepts up to 64 characters of [A-Za-z0-9_-].
func ValidVisitorID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func invalidVisitor() error {
	return apierr.New(http.StatusBadRequest, "invalid_visitor", perr.ErrInvalidArgument)
}

func (s *consentService) Get(ctx context.Context, visitorID string) (*types.CookieConsent, error) {
	if !ValidVisitorID(visitorID) {
		return nil, invalidVisitor()
	}
	c, err := s.repo.Get(dbcOf(ctx), visitorID)
	if err != nil {
		return nil, apierr.From(err, "get_consent_failed")
	}
	if c == nil {
		d := consent.Default(visitorID)
		return &d, nil
	}
	c.Essential = true
	return c, nil
}

func (s *consentService) Update(ctx context.Context, visitorID string, prefs consent.Preferences) (*types.CookieConsent, error) {
	if !ValidVisitorID(visitorID) {
		return nil, invalidVisitor()
	}
	now := s.now()
	c := &types.CookieConsent{
		VisitorID:   visitorID,
		Essential:   true,
		Analytics:   prefs.Analytics,
		Marketing:   prefs.Marketing,
		Preferences: prefs.Preferences,
		DecidedAt:   &now,
	}
	if userID := ctxutil.UserID(ctx); userID != uuid.Nil {
		id := userID.String()
		c.UserID = &id
	}
	if err := s.repo.Upsert(dbcOf(ctx), c); err != nil {
		s.log.Error("save consent failed", "error", err, "visitor_id", visitorID)
		return nil, apierr.From(err, "save_consent_failed")
	}
	return c, nil
}
