package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/domain/learning"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	perr "github.com/yungbote/iof-learning/internal/platform/errors"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

// maxCompletionWrites bounds the compare-and-set loop on the completion map.
const maxCompletionWrites = 5

var errCompletionContended = errors.New("completion map write contended")

// ComputePercent is round(100*n/total), 0 when total is 0, never above 100.
func ComputePercent(n, total int) int {
	if total <= 0 || n <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(n) / float64(total)))
	if p > 100 {
		return 100
	}
	return p
}

type ProgressView struct {
	CourseID      uuid.UUID                `json:"course_id"`
	Percent       int                      `json:"percent"`
	CompletedKeys []string                 `json:"completed"`
	TotalUnits    int                      `json:"total_units"`
	CertificateID string                   `json:"certificate_id,omitempty"`
	State         learning.CertificateState `json:"certificate_state"`
}

type ProgressService interface {
	MarkSubCourseComplete(ctx context.Context, courseID uuid.UUID, moduleID, subCourseID string) (*ProgressView, error)
	GetProgress(ctx context.Context, courseID uuid.UUID) (*ProgressView, error)
}

type progressService struct {
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	completionRepo repos.CompletionRepo
	progressRepo   repos.ProgressRepo
	now            func() time.Time
}

func NewProgressService(
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	completionRepo repos.CompletionRepo,
	progressRepo repos.ProgressRepo,
) ProgressService {
	return &progressService{
		log:            log.With("service", "ProgressService"),
		courseRepo:     courseRepo,
		completionRepo: completionRepo,
		progressRepo:   progressRepo,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (ps *progressService) MarkSubCourseComplete(ctx context.Context, courseID uuid.UUID, moduleID, subCourseID string) (*ProgressView, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbcOf(ctx)
	course, err := ps.courseRepo.GetByID(dbc, courseID)
	if err != nil {
		return nil, apierr.From(err, "mark_complete_failed")
	}
	if course == nil {
		return nil, notFound("course_not_found", "course")
	}
	key := learning.UnitKey(moduleID, subCourseID)
	if !course.HasUnit(key) {
		return nil, apierr.Invalid("unknown_sub_course", apierr.FieldError{
			Index:   -1,
			Field:   "sub_course",
			Message: fmt.Sprintf("%q is not part of this course", key),
		})
	}

	m, err := ps.addCompletion(dbc, userID, courseID, key)
	if err != nil {
		ps.log.Error("mark sub-course complete failed", "error", err, "user_id", userID, "course_id", courseID)
		return nil, apierr.From(err, "mark_complete_failed")
	}
	view := progressView(course, m)
	if err := ps.progressRepo.UpsertPercent(dbc, userID, courseID, view.Percent); err != nil {
		return nil, apierr.From(err, "mark_complete_failed")
	}
	return view, nil
}

// addCompletion inserts key into the completion map with optimistic versioning.
// A key that is already present is left untouched.
func (ps *progressService) addCompletion(dbc dbctx.Context, userID, courseID uuid.UUID, key string) (*types.CompletionMap, error) {
	for attempt := 0; attempt < maxCompletionWrites; attempt++ {
		m, err := ps.completionRepo.Ensure(dbc, userID, courseID)
		if err != nil {
			return nil, err
		}
		if m.Has(key) {
			return m, nil
		}
		next := make(map[string]time.Time, m.Count()+1)
		for k, v := range m.Completed.Data() {
			next[k] = v
		}
		next[key] = ps.now()
		ok, err := ps.completionRepo.SaveCompleted(dbc, m, next)
		if err != nil {
			return nil, err
		}
		if ok {
			return ps.completionRepo.Get(dbc, userID, courseID)
		}
	}
	return nil, errCompletionContended
}

func (ps *progressService) GetProgress(ctx context.Context, courseID uuid.UUID) (*ProgressView, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbcOf(ctx)
	course, err := ps.courseRepo.GetByID(dbc, courseID)
	if err != nil {
		return nil, apierr.From(err, "get_progress_failed")
	}
	if course == nil {
		return nil, notFound("course_not_found", "course")
	}
	m, err := ps.completionRepo.Get(dbc, userID, courseID)
	if err != nil {
		return nil, apierr.From(err, "get_progress_failed")
	}
	stored, err := ps.progressRepo.Get(dbc, userID, courseID)
	if err != nil {
		return nil, apierr.From(err, "get_progress_failed")
	}
	if m == nil && stored == nil {
		return nil, apierr.New(http.StatusNotFound, "not_enrolled", fmt.Errorf("not enrolled in course: %w", perr.ErrNotFound))
	}
	view := progressView(course, m)
	if stored == nil || stored.Percent != view.Percent {
		// The denormalized percent drifted from the completion map; repair it.
		if err := ps.progressRepo.UpsertPercent(dbc, userID, courseID, view.Percent); err != nil {
			ps.log.Warn("repair progress failed", "error", err, "user_id", userID, "course_id", courseID)
		}
	}
	return view, nil
}

func progressView(course *types.Course, m *types.CompletionMap) *ProgressView {
	total := course.TotalUnits()
	keys := make([]string, 0, m.Count())
	if m != nil {
		for k := range m.Completed.Data() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	view := &ProgressView{
		CourseID:      course.ID,
		Percent:       ComputePercent(len(keys), total),
		CompletedKeys: keys,
		TotalUnits:    total,
		State:         certificateState(course, m),
	}
	if m.HasCertificate() {
		view.CertificateID = *m.CertificateID
	}
	return view
}

// certificateState is terminal once an id is recorded, even if the course later grows.
func certificateState(course *types.Course, m *types.CompletionMap) learning.CertificateState {
	if m.HasCertificate() {
		return learning.CertificateCompletedWithCert
	}
	if ComputePercent(m.Count(), course.TotalUnits()) < 100 {
		return learning.CertificateNotCompleted
	}
	return learning.CertificateCompletedNoCertificate
}
