package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
	"github.com/yungbote/iof-learning/internal/platform/gcp"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type CatalogCourse struct {
	*types.Course
	TotalUnits int  `json:"total_units"`
	Enrolled   bool `json:"enrolled"`
	Percent    int  `json:"percent"`
}

type CategoryGroup struct {
	Category string           `json:"category"`
	Courses  []*CatalogCourse `json:"courses"`
}

type CourseInput struct {
	Title       string               `json:"title" validate:"required,max=200"`
	Description string               `json:"description"`
	Category    string               `json:"category" validate:"required,max=80"`
	Level       string               `json:"level"`
	Published   bool                 `json:"published"`
	Modules     []types.CourseModule `json:"modules" validate:"dive"`
}

type CatalogService interface {
	ListCatalog(ctx context.Context) ([]*CategoryGroup, error)
	ListAll(ctx context.Context) ([]*types.Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*CatalogCourse, error)
	CreateCourse(ctx context.Context, in CourseInput) (*types.Course, error)
	UpdateCourse(ctx context.Context, id uuid.UUID, in CourseInput) (*types.Course, error)
	DeleteCourse(ctx context.Context, id uuid.UUID) error
	UploadCover(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*types.Course, error)
}

type catalogService struct {
	log          *logger.Logger
	courseRepo   repos.CourseRepo
	progressRepo repos.ProgressRepo
	bucket       gcp.BucketService
	validate     *validator.Validate
}

// NewCatalogService wires the catalog. bucket may be nil, which disables cover uploads.
func NewCatalogService(log *logger.Logger, courseRepo repos.CourseRepo, progressRepo repos.ProgressRepo, bucket gcp.BucketService) CatalogService {
	return &catalogService{
		log:          log.With("service", "CatalogService"),
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
		bucket:       bucket,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ListCatalog groups published courses by category. Signed-in users also get their
// enrollment state, fetched alongside the course list.
func (cs *catalogService) ListCatalog(ctx context.Context) ([]*CategoryGroup, error) {
	userID := ctxutil.UserID(ctx)

	var (
		courses  []*types.Course
		progress []*types.EnrollmentProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = cs.courseRepo.ListPublished(dbctx.Context{Ctx: gctx})
		return err
	})
	if userID != uuid.Nil {
		g.Go(func() error {
			var err error
			progress, err = cs.progressRepo.ListByUser(dbctx.Context{Ctx: gctx}, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apierr.From(err, "list_catalog_failed")
	}

	percentByCourse := make(map[uuid.UUID]int, len(progress))
	for _, p := range progress {
		percentByCourse[p.CourseID] = p.Percent
	}

	groups := []*CategoryGroup{}
	index := map[string]*CategoryGroup{}
	for _, c := range courses {
		cat := strings.TrimSpace(c.Category)
		if cat == "" {
			cat = "general"
		}
		grp := index[cat]
		if grp == nil {
			grp = &CategoryGroup{Category: cat}
			index[cat] = grp
			groups = append(groups, grp)
		}
		pct, enrolled := percentByCourse[c.ID]
		grp.Courses = append(grp.Courses, &CatalogCourse{Course: c, TotalUnits: c.TotalUnits(), Enrolled: enrolled, Percent: pct})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups, nil
}

func (cs *catalogService) ListAll(ctx context.Context) ([]*types.Course, error) {
	courses, err := cs.courseRepo.ListAll(dbcOf(ctx))
	if err != nil {
		return nil, apierr.From(err, "list_courses_failed")
	}
	return courses, nil
}

func (cs *catalogService) GetCourse(ctx context.Context, id uuid.UUID) (*CatalogCourse, error) {
	c, err := cs.courseRepo.GetByID(dbcOf(ctx), id)
	if err != nil {
		return nil, apierr.From(err, "get_course_failed")
	}
	if c == nil || (!c.Published && !isAdmin(ctx)) {
		return nil, notFound("course_not_found", "course")
	}
	out := &CatalogCourse{Course: c, TotalUnits: c.TotalUnits()}
	if userID := ctxutil.UserID(ctx); userID != uuid.Nil {
		p, err := cs.progressRepo.Get(dbcOf(ctx), userID, id)
		if err != nil {
			return nil, apierr.From(err, "get_course_failed")
		}
		if p != nil {
			out.Enrolled = true
			out.Percent = p.Percent
		}
	}
	return out, nil
}

func (cs *catalogService) CreateCourse(ctx context.Context, in CourseInput) (*types.Course, error) {
	if err := cs.validateCourse(in); err != nil {
		return nil, err
	}
	c := &types.Course{}
	applyCourseInput(c, in)
	if _, err := cs.courseRepo.Create(dbcOf(ctx), c); err != nil {
		return nil, apierr.From(err, "create_course_failed")
	}
	cs.log.Info("course created", "course_id", c.ID, "units", c.TotalUnits())
	return c, nil
}

func (cs *catalogService) UpdateCourse(ctx context.Context, id uuid.UUID, in CourseInput) (*types.Course, error) {
	if err := cs.validateCourse(in); err != nil {
		return nil, err
	}
	c, err := cs.courseRepo.GetByID(dbcOf(ctx), id)
	if err != nil {
		return nil, apierr.From(err, "update_course_failed")
	}
	if c == nil {
		return nil, notFound("course_not_found", "course")
	}
	applyCourseInput(c, in)
	if err := cs.courseRepo.Save(dbcOf(ctx), c); err != nil {
		return nil, apierr.From(err, "update_course_failed")
	}
	return c, nil
}

func (cs *catalogService) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	ok, err := cs.courseRepo.Delete(dbcOf(ctx), id)
	if err != nil {
		return apierr.From(err, "delete_course_failed")
	}
	if !ok {
		return notFound("course_not_found", "course")
	}
	return nil
}

func (cs *catalogService) UploadCover(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*types.Course, error) {
	if cs.bucket == nil {
		return nil, apierr.New(http.StatusNotImplemented, "uploads_disabled", fmt.Errorf("object storage not configured"))
	}
	c, err := cs.courseRepo.GetByID(dbcOf(ctx), id)
	if err != nil {
		return nil, apierr.From(err, "upload_cover_failed")
	}
	if c == nil {
		return nil, notFound("course_not_found", "course")
	}
	ext, err := imageExt(filename)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("courses/%s/cover-%s%s", c.ID, uuid.NewString()[:8], ext)
	if err := cs.bucket.UploadFile(dbcOf(ctx), gcp.BucketCategoryImage, key, r); err != nil {
		cs.log.Error("cover upload failed", "error", err, "course_id", c.ID)
		return nil, apierr.From(err, "upload_cover_failed")
	}
	oldKey := c.CoverKey
	c.CoverKey = key
	c.CoverURL = cs.bucket.GetPublicURL(gcp.BucketCategoryImage, key)
	if err := cs.courseRepo.Save(dbcOf(ctx), c); err != nil {
		return nil, apierr.From(err, "upload_cover_failed")
	}
	if oldKey != "" && oldKey != key {
		if err := cs.bucket.DeleteFile(dbcOf(ctx), gcp.BucketCategoryImage, oldKey); err != nil {
			cs.log.Warn("delete old cover failed", "error", err, "key", oldKey)
		}
	}
	return c, nil
}

func (cs *catalogService) validateCourse(in CourseInput) error {
	if err := cs.validate.Struct(in); err != nil {
		return invalidFromValidator("invalid_course", -1, err)
	}
	seen := map[string]bool{}
	for mi, m := range in.Modules {
		if strings.TrimSpace(m.ID) == "" {
			return apierr.Invalid("invalid_course", apierr.FieldError{Index: mi, Field: "modules.id", Message: "is required"})
		}
		for _, s := range m.SubCourses {
			if strings.TrimSpace(s.ID) == "" {
				return apierr.Invalid("invalid_course", apierr.FieldError{Index: mi, Field: "modules.subCourses.id", Message: "is required"})
			}
			key := types.UnitKeyFor(m.ID, s.ID)
			if seen[key] {
				return apierr.Invalid("invalid_course", apierr.FieldError{Index: mi, Field: "modules.subCourses.id", Message: fmt.Sprintf("duplicate unit %q", key)})
			}
			seen[key] = true
		}
	}
	return nil
}

func applyCourseInput(c *types.Course, in CourseInput) {
	c.Title = strings.TrimSpace(in.Title)
	c.Description = strings.TrimSpace(in.Description)
	c.Category = strings.ToLower(strings.TrimSpace(in.Category))
	c.Level = strings.TrimSpace(in.Level)
	c.Published = in.Published
	mods := in.Modules
	if mods == nil {
		mods = []types.CourseModule{}
	}
	c.Modules = datatypes.NewJSONType(mods)
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

func imageExt(filename string) (string, error) {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filename)))
	if !imageExts[ext] {
		return "", apierr.Invalid("unsupported_image", apierr.FieldError{Index: -1, Field: "file", Message: "must be png, jpg, gif or webp"})
	}
	return ext, nil
}
