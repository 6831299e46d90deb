package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type EnrollmentView struct {
	CourseID      uuid.UUID `json:"course_id"`
	CourseTitle   string    `json:"course_title"`
	Category      string    `json:"category"`
	CoverURL      string    `json:"cover_url,omitempty"`
	Percent       int       `json:"percent"`
	EnrolledAt    time.Time `json:"enrolled_at"`
	CertificateID string    `json:"certificate_id,omitempty"`
}

type EnrollmentService interface {
	Enroll(ctx context.Context, courseID uuid.UUID) (*EnrollmentView, error)
	ListMine(ctx context.Context) ([]*EnrollmentView, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	completionRepo repos.CompletionRepo
	progressRepo   repos.ProgressRepo
}

func NewEnrollmentService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	completionRepo repos.CompletionRepo,
	progressRepo repos.ProgressRepo,
) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            log.With("service", "EnrollmentService"),
		courseRepo:     courseRepo,
		completionRepo: completionRepo,
		progressRepo:   progressRepo,
	}
}

// Enroll creates the empty completion map and a 0% progress row. Enrolling twice is a no-op.
func (es *enrollmentService) Enroll(ctx context.Context, courseID uuid.UUID) (*EnrollmentView, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	course, err := es.courseRepo.GetByID(dbcOf(ctx), courseID)
	if err != nil {
		return nil, apierr.From(err, "enroll_failed")
	}
	if course == nil || (!course.Published && !isAdmin(ctx)) {
		return nil, notFound("course_not_found", "course")
	}

	var (
		m *types.CompletionMap
		p *types.EnrollmentProgress
	)
	err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		var err error
		if m, err = es.completionRepo.Ensure(dbc, userID, courseID); err != nil {
			return err
		}
		p, err = es.progressRepo.Ensure(dbc, userID, courseID, time.Now().UTC())
		return err
	})
	if err != nil {
		es.log.Error("enroll failed", "error", err, "user_id", userID, "course_id", courseID)
		return nil, apierr.From(err, "enroll_failed")
	}
	es.log.Info("enrolled", "user_id", userID, "course_id", courseID)
	return enrollmentView(course, m, p), nil
}

func (es *enrollmentService) ListMine(ctx context.Context) ([]*EnrollmentView, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbcOf(ctx)

	var (
		progress    []*types.EnrollmentProgress
		completions []*types.CompletionMap
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		progress, err = es.progressRepo.ListByUser(dbctx.Context{Ctx: gctx}, userID)
		return err
	})
	g.Go(func() error {
		var err error
		completions, err = es.completionRepo.ListByUser(dbctx.Context{Ctx: gctx}, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.From(err, "list_enrollments_failed")
	}

	byCourse := make(map[uuid.UUID]*types.CompletionMap, len(completions))
	ids := make([]uuid.UUID, 0, len(progress))
	for _, m := range completions {
		byCourse[m.CourseID] = m
	}
	for _, p := range progress {
		ids = append(ids, p.CourseID)
	}
	courses, err := es.courseRepo.GetByIDs(dbc, ids)
	if err != nil {
		return nil, apierr.From(err, "list_enrollments_failed")
	}
	courseByID := make(map[uuid.UUID]*types.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}

	out := make([]*EnrollmentView, 0, len(progress))
	for _, p := range progress {
		c := courseByID[p.CourseID]
		if c == nil {
			continue
		}
		out = append(out, enrollmentView(c, byCourse[p.CourseID], p))
	}
	return out, nil
}

// enrollmentView prefers the live percent derived from the completion map over the stored one.
func enrollmentView(c *types.Course, m *types.CompletionMap, p *types.EnrollmentProgress) *EnrollmentView {
	v := &EnrollmentView{
		CourseID:    c.ID,
		CourseTitle: c.Title,
		Category:    c.Category,
		CoverURL:    c.CoverURL,
	}
	if p != nil {
		v.Percent = p.Percent
		v.EnrolledAt = p.EnrolledAt
	}
	if m != nil {
		v.Percent = ComputePercent(m.Count(), c.TotalUnits())
		if m.HasCertificate() {
			v.CertificateID = *m.CertificateID
		}
	}
	return v
}
