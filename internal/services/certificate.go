package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/domain/learning"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	perr "github.com/yungbote/iof-learning/internal/platform/errors"
	"github.com/yungbote/iof-learning/internal/platform/gcp"
	"github.com/yungbote/iof-learning/internal/platform/logger"
	"github.com/yungbote/iof-learning/internal/platform/render"
)

const (
	verificationPrefix = "IOF-"
	maxMintAttempts    = 5
)

type CertificateFormat string

const (
	CertificateFormatPNG CertificateFormat = "png"
	CertificateFormatPDF CertificateFormat = "pdf"
)

// RenderedCertificate is a downloadable certificate artifact.
type RenderedCertificate struct {
	Filename    string
	ContentType string
	Body        []byte
	URL         string
}

type CertificateService interface {
	IssueCertificate(ctx context.Context, courseID uuid.UUID) (*types.Certificate, error)
	GetState(ctx context.Context, courseID uuid.UUID) (learning.CertificateState, error)
	VerifyCertificate(ctx context.Context, id string) (*types.Certificate, error)
	ListMine(ctx context.Context) ([]*types.Certificate, error)
	RenderCertificate(ctx context.Context, id string, format CertificateFormat) (*RenderedCertificate, error)
}

type certificateService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	courseRepo     repos.CourseRepo
	completionRepo repos.CompletionRepo
	certRepo       repos.CertificateRepo
	renderer       *render.CertificateRenderer
	bucket         gcp.BucketService
	issuer         string
	newID          func() (string, error)
	now            func() time.Time
}

// NewCertificateService wires issuance. bucket may be nil, in which case rendered
// artifacts are returned but not uploaded.
func NewCertificateService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	courseRepo repos.CourseRepo,
	completionRepo repos.CompletionRepo,
	certRepo repos.CertificateRepo,
	renderer *render.CertificateRenderer,
	bucket gcp.BucketService,
	issuer string,
) CertificateService {
	return &certificateService{
		db:             db,
		log:            log.With("service", "CertificateService"),
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		completionRepo: completionRepo,
		certRepo:       certRepo,
		renderer:       renderer,
		bucket:         bucket,
		issuer:         issuer,
		newID:          NewVerificationID,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// NewVerificationID returns IOF- followed by 8 uppercase hex characters.
func NewVerificationID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return verificationPrefix + strings.ToUpper(hex.EncodeToString(b)), nil
}

// ValidVerificationID reports whether id has the IOF-XXXXXXXX shape.
func ValidVerificationID(id string) bool {
	if len(id) != len(verificationPrefix)+8 || !strings.HasPrefix(id, verificationPrefix) {
		return false
	}
	for _, r := range id[len(verificationPrefix):] {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}

func courseNotCompleted() error {
	return apierr.New(http.StatusConflict, "course_not_completed", fmt.Errorf("course not completed: %w", perr.ErrConflict))
}

func (s *certificateService) GetState(ctx context.Context, courseID uuid.UUID) (learning.CertificateState, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	course, err := s.courseRepo.GetByID(dbcOf(ctx), courseID)
	if err != nil {
		return "", apierr.From(err, "certificate_state_failed")
	}
	if course == nil {
		return "", notFound("course_not_found", "course")
	}
	m, err := s.completionRepo.Get(dbcOf(ctx), userID, courseID)
	if err != nil {
		return "", apierr.From(err, "certificate_state_failed")
	}
	return certificateState(course, m), nil
}

// IssueCertificate returns the user's certificate for the course, minting it on first
// call. The completion map and the certificate record are written in one transaction
// and always reference the same id.
func (s *certificateService) IssueCertificate(ctx context.Context, courseID uuid.UUID) (*types.Certificate, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbcOf(ctx)

	m, err := s.completionRepo.Get(dbc, userID, courseID)
	if err != nil {
		return nil, apierr.From(err, "issue_certificate_failed")
	}
	if m == nil {
		return nil, courseNotCompleted()
	}
	course, err := s.courseRepo.GetByID(dbc, courseID)
	if err != nil {
		return nil, apierr.From(err, "issue_certificate_failed")
	}
	if course == nil {
		return nil, notFound("course_not_found", "course")
	}
	// A recorded id is reused as is; only the first mint requires 100%.
	if !m.HasCertificate() && ComputePercent(m.Count(), course.TotalUnits()) < 100 {
		return nil, courseNotCompleted()
	}
	u, err := s.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, apierr.From(err, "issue_certificate_failed")
	}
	if u == nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", perr.ErrUnauthorized)
	}

	var cert *types.Certificate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := s.ensureCertificate(txc, u, course, m.ID)
		if err != nil {
			return err
		}
		cert = c
		return nil
	})
	if err != nil {
		s.log.Error("issue certificate failed", "error", err, "user_id", userID, "course_id", courseID)
		return nil, apierr.From(err, "issue_certificate_failed")
	}
	return cert, nil
}

func (s *certificateService) ensureCertificate(txc dbctx.Context, u *types.User, course *types.Course, completionID uuid.UUID) (*types.Certificate, error) {
	m, err := s.completionRepo.Get(txc, u.ID, course.ID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.ID != completionID {
		return nil, errors.New("completion map changed during issuance")
	}

	if !m.HasCertificate() {
		id, err := s.mintUnusedID(txc)
		if err != nil {
			return nil, err
		}
		firstAt := firstCompletion(m, s.now())
		won, err := s.completionRepo.SetCertificateIfEmpty(txc, m.ID, id, firstAt)
		if err != nil {
			return nil, err
		}
		// Reload either way: a concurrent winner's id replaces ours.
		if m, err = s.completionRepo.Get(txc, u.ID, course.ID); err != nil {
			return nil, err
		}
		if !m.HasCertificate() {
			return nil, errors.New("certificate id not recorded")
		}
		if won {
			s.log.Info("certificate minted", "certificate_id", id, "user_id", u.ID, "course_id", course.ID)
		}
	}

	certID := *m.CertificateID
	existing, err := s.certRepo.GetByID(txc, certID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.UserID != u.ID || existing.CourseID != course.ID {
			return nil, fmt.Errorf("certificate %s belongs to another enrollment", certID)
		}
		return existing, nil
	}

	// Recorded id without a record: recreate it under the same id.
	completedAt := firstCompletion(m, s.now())
	if m.FirstCompletedAt != nil {
		completedAt = m.FirstCompletedAt.UTC()
	}
	cert := &types.Certificate{
		ID:          certID,
		UserID:      u.ID,
		CourseID:    course.ID,
		DisplayName: u.DisplayName,
		CourseTitle: course.Title,
		CompletedAt: completedAt,
		GeneratedAt: s.now(),
	}
	created, err := s.certRepo.CreateIfAbsent(txc, cert)
	if err != nil {
		return nil, err
	}
	if created {
		return cert, nil
	}
	// Lost an insert race on the same id, or a stale record holds (user, course).
	existing, err = s.certRepo.GetByID(txc, certID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	stale, err := s.certRepo.GetByUserCourse(txc, u.ID, course.ID)
	if err != nil {
		return nil, err
	}
	if stale == nil {
		return nil, fmt.Errorf("certificate %s was not recorded", certID)
	}
	s.log.Error("stale certificate holds enrollment", "certificate_id", certID, "stale_certificate_id", stale.ID,
		"user_id", u.ID, "course_id", course.ID)
	return nil, apierr.New(http.StatusConflict, "certificate_conflict",
		fmt.Errorf("certificate %s conflicts with record %s for this enrollment: %w", certID, stale.ID, perr.ErrConflict))
}

func (s *certificateService) mintUnusedID(txc dbctx.Context) (string, error) {
	for i := 0; i < maxMintAttempts; i++ {
		id, err := s.newID()
		if err != nil {
			return "", err
		}
		taken, err := s.certRepo.GetByID(txc, id)
		if err != nil {
			return "", err
		}
		if taken == nil {
			return id, nil
		}
		s.log.Warn("verification id collision", "certificate_id", id)
	}
	return "", errors.New("could not mint an unused verification id")
}

// firstCompletion is the earliest completion timestamp, or fallback for an empty map.
func firstCompletion(m *types.CompletionMap, fallback time.Time) time.Time {
	if m.FirstCompletedAt != nil {
		return m.FirstCompletedAt.UTC()
	}
	var first time.Time
	for _, at := range m.Completed.Data() {
		if first.IsZero() || at.Before(first) {
			first = at
		}
	}
	if first.IsZero() {
		return fallback
	}
	return first.UTC()
}

func (s *certificateService) VerifyCertificate(ctx context.Context, id string) (*types.Certificate, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if !ValidVerificationID(id) {
		return nil, apierr.Invalid("invalid_verification_id", apierr.FieldError{Index: -1, Field: "id", Message: "must look like IOF-XXXXXXXX"})
	}
	cert, err := s.certRepo.GetByID(dbcOf(ctx), id)
	if err != nil {
		return nil, apierr.From(err, "verify_certificate_failed")
	}
	if cert == nil {
		return nil, notFound("certificate_not_found", "certificate")
	}
	return cert, nil
}

func (s *certificateService) ListMine(ctx context.Context) ([]*types.Certificate, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	certs, err := s.certRepo.ListByUser(dbcOf(ctx), userID)
	if err != nil {
		return nil, apierr.From(err, "list_certificates_failed")
	}
	return certs, nil
}

// RenderCertificate draws the certificate and, when object storage is configured,
// uploads the PNG once under certificates/<id>.png.
func (s *certificateService) RenderCertificate(ctx context.Context, id string, format CertificateFormat) (*RenderedCertificate, error) {
	if format == "" {
		format = CertificateFormatPNG
	}
	if format != CertificateFormatPNG && format != CertificateFormatPDF {
		return nil, apierr.Invalid("invalid_format", apierr.FieldError{Index: -1, Field: "format", Message: "must be png or pdf"})
	}
	cert, err := s.VerifyCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.renderer == nil {
		return nil, apierr.New(http.StatusNotImplemented, "render_disabled", errors.New("certificate renderer not configured"))
	}
	png, err := s.renderer.PNG(render.CertificateData{
		VerificationID: cert.ID,
		DisplayName:    cert.DisplayName,
		CourseTitle:    cert.CourseTitle,
		CompletedAt:    cert.CompletedAt,
		Issuer:         s.issuer,
	})
	if err != nil {
		return nil, apierr.From(err, "render_certificate_failed")
	}

	url := cert.ImageURL
	if s.bucket != nil && cert.ImageKey == "" {
		key := "certificates/" + cert.ID + ".png"
		if err := s.bucket.UploadFile(dbcOf(ctx), gcp.BucketCategoryCertificate, key, bytes.NewReader(png)); err != nil {
			s.log.Error("certificate upload failed", "error", err, "certificate_id", cert.ID)
			return nil, apierr.From(err, "render_certificate_failed")
		}
		url = s.bucket.GetPublicURL(gcp.BucketCategoryCertificate, key)
		if err := s.certRepo.UpdateImage(dbcOf(ctx), cert.ID, key, url); err != nil {
			return nil, apierr.From(err, "render_certificate_failed")
		}
	}

	if format == CertificateFormatPDF {
		pdf, err := render.PNGToPDF(cert.ID, png)
		if err != nil {
			return nil, apierr.From(err, "render_certificate_failed")
		}
		return &RenderedCertificate{Filename: cert.ID + ".pdf", ContentType: "application/pdf", Body: pdf, URL: url}, nil
	}
	return &RenderedCertificate{Filename: cert.ID + ".png", ContentType: "image/png", Body: png, URL: url}, nil
}
