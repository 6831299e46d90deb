package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/yungbote/iof-learning/internal/data/repos/testutil"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/gcp"
)

func TestCatalogGroupsAndEnrollment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, env.db, "ada@example.com")
	admin := asAdmin(ctx, testutil.SeedUser(t, ctx, env.db, "admin@example.com"))
	catalog := NewCatalogService(env.log, env.courses, env.progress, nil)

	bonds, err := catalog.CreateCourse(admin, CourseInput{Title: "Bonds", Category: "finance", Published: true, Modules: testutil.BuildModules(2, 2)})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if _, err := catalog.CreateCourse(admin, CourseInput{Title: "Budgeting", Category: "basics", Published: true, Modules: testutil.BuildModules(1)}); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	draft, err := catalog.CreateCourse(admin, CourseInput{Title: "Draft", Category: "finance", Modules: testutil.BuildModules(1)})
	if err != nil {
		t.Fatalf("CreateCourse draft: %v", err)
	}

	if _, err := env.enrollmentService().Enroll(asUser(ctx, u), bonds.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if _, err := env.progressService().MarkSubCourseComplete(asUser(ctx, u), bonds.ID, "m1", "s1"); err != nil {
		t.Fatalf("MarkSubCourseComplete: %v", err)
	}

	groups, err := catalog.ListCatalog(asUser(ctx, u))
	if err != nil {
		t.Fatalf("ListCatalog: %v", err)
	}
	if len(groups) != 2 || groups[0].Category != "basics" || groups[1].Category != "finance" {
		t.Fatalf("groups: %+v", groups)
	}
	if len(groups[1].Courses) != 1 {
		t.Fatalf("draft listed publicly: %d", len(groups[1].Courses))
	}
	fin := groups[1].Courses[0]
	if !fin.Enrolled || fin.Percent != 25 || fin.TotalUnits != 4 {
		t.Fatalf("catalog course: enrolled=%v percent=%d total=%d", fin.Enrolled, fin.Percent, fin.TotalUnits)
	}

	var ae *apierr.Error
	if _, err := catalog.GetCourse(asUser(ctx, u), draft.ID); !errors.As(err, &ae) || ae.Status != http.StatusNotFound {
		t.Fatalf("draft GetCourse: want 404, got %v", err)
	}
	if got, err := catalog.GetCourse(admin, draft.ID); err != nil || got.ID != draft.ID {
		t.Fatalf("admin GetCourse: %v", err)
	}
	if _, err := env.enrollmentService().Enroll(asUser(ctx, u), draft.ID); !errors.As(err, &ae) || ae.Status != http.StatusNotFound {
		t.Fatalf("enroll in draft: want 404, got %v", err)
	}

	mine, err := env.enrollmentService().ListMine(asUser(ctx, u))
	if err != nil || len(mine) != 1 || mine[0].CourseID != bonds.ID || mine[0].Percent != 25 {
		t.Fatalf("ListMine: err=%v mine=%+v", err, mine)
	}
}

func TestCourseValidation(t *testing.T) {
	env := newTestEnv(t)
	catalog := NewCatalogService(env.log, env.courses, env.progress, nil)
	ctx := context.Background()

	dupUnits := []types.CourseModule{{ID: "m1", SubCourses: []types.SubCourse{{ID: "s1"}, {ID: "s1"}}}}
	cases := map[string]CourseInput{
		"missing title":  {Category: "finance"},
		"duplicate unit": {Title: "x", Category: "finance", Modules: dupUnits},
		"missing module": {Title: "x", Category: "finance", Modules: []types.CourseModule{{Title: "no id"}}},
	}
	for name, in := range cases {
		var ae *apierr.Error
		if _, err := catalog.CreateCourse(ctx, in); !errors.As(err, &ae) || ae.Status != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %v", name, err)
		}
	}
}

func TestEnrollIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, env.db, "ada@example.com")
	c := testutil.SeedCourse(t, ctx, env.db, "Bonds", 2)
	es := env.enrollmentService()

	first, err := es.Enroll(asUser(ctx, u), c.ID)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	second, err := es.Enroll(asUser(ctx, u), c.ID)
	if err != nil {
		t.Fatalf("second Enroll: %v", err)
	}
	if !first.EnrolledAt.Equal(second.EnrolledAt) || second.Percent != 0 {
		t.Fatalf("re-enroll changed state: %+v vs %+v", first, second)
	}
	if _, err := es.Enroll(ctx, c.ID); err == nil {
		t.Fatalf("anonymous enroll accepted")
	}
}

func TestCourseCoverUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bucket := newMemBucket()
	catalog := NewCatalogService(env.log, env.courses, env.progress, bucket)
	c := testutil.SeedCourse(t, ctx, env.db, "Bonds", 1)

	updated, err := catalog.UploadCover(ctx, c.ID, "cover.webp", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("UploadCover: %v", err)
	}
	if !strings.HasPrefix(updated.CoverKey, "courses/"+c.ID.String()+"/cover-") || !bucket.has(gcp.BucketCategoryImage, updated.CoverKey) {
		t.Fatalf("cover key: %q", updated.CoverKey)
	}
}
