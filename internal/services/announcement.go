package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type AnnouncementInput struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Body      string     `json:"body" validate:"max=4000"`
	Priority  int        `json:"priority" validate:"gte=0,lte=100"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type AnnouncementService interface {
	ListActive(ctx context.Context) []*types.Announcement
	ListAll(ctx context.Context) ([]*types.Announcement, error)
	Create(ctx context.Context, in AnnouncementInput) (*types.Announcement, error)
	Update(ctx context.Context, id uuid.UUID, in AnnouncementInput) (*types.Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type announcementService struct {
	log      *logger.Logger
	repo     repos.AnnouncementRepo
	validate *validator.Validate
	now      func() time.Time
}

func NewAnnouncementService(log *logger.Logger, repo repos.AnnouncementRepo) AnnouncementService {
	return &announcementService{
		log:      log.With("service", "AnnouncementService"),
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListActive feeds the public widget. A failed read is logged and shown as no announcements.
func (s *announcementService) ListActive(ctx context.Context) []*types.Announcement {
	out, err := s.repo.ListActive(dbcOf(ctx), s.now())
	if err != nil {
		s.log.Warn("list active announcements failed", "error", err)
		return []*types.Announcement{}
	}
	return out
}

func (s *announcementService) ListAll(ctx context.Context) ([]*types.Announcement, error) {
	out, err := s.repo.ListAll(dbcOf(ctx))
	if err != nil {
		return nil, apierr.From(err, "list_announcements_failed")
	}
	return out, nil
}

func (s *announcementService) apply(a *types.Announcement, in AnnouncementInput) error {
	if err := s.validate.Struct(in); err != nil {
		return invalidFromValidator("invalid_announcement", -1, err)
	}
	a.Title = strings.TrimSpace(in.Title)
	a.Body = strings.TrimSpace(in.Body)
	a.Priority = in.Priority
	a.Active = in.Active
	a.ExpiresAt = nil
	if in.ExpiresAt != nil {
		t := in.ExpiresAt.UTC()
		a.ExpiresAt = &t
	}
	return nil
}

func (s *announcementService) Create(ctx context.Context, in AnnouncementInput) (*types.Announcement, error) {
	a := &types.Announcement{}
	if err := s.apply(a, in); err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(dbcOf(ctx), a); err != nil {
		return nil, apierr.From(err, "create_announcement_failed")
	}
	return a, nil
}

func (s *announcementService) Update(ctx context.Context, id uuid.UUID, in AnnouncementInput) (*types.Announcement, error) {
	a, err := s.repo.GetByID(dbcOf(ctx), id)
	if err != nil {
		return nil, apierr.From(err, "update_announcement_failed")
	}
	if a == nil {
		return nil, notFound("announcement_not_found", "announcement")
	}
	if err := s.apply(a, in); err != nil {
		return nil, err
	}
	if err := s.repo.Save(dbcOf(ctx), a); err != nil {
		return nil, apierr.From(err, "update_announcement_failed")
	}
	return a, nil
}

func (s *announcementService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(dbcOf(ctx), id)
	if err != nil {
		return apierr.From(err, "delete_announcement_failed")
	}
	if !ok {
		return notFound("announcement_not_found", "announcement")
	}
	return nil
}
