package learning

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/iof-learning/internal/data/repos/testutil"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/platform/dbctx"
)

func TestCourseRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewCourseRepo(db, testutil.Logger(t))

	published := testutil.SeedCourse(t, ctx, db, "Budgeting 101", 2, 3)
	draft := testutil.SeedCourse(t, ctx, db, "Draft", 1)
	draft.Published = false
	if err := repo.Save(dbc, draft); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByID(dbc, published.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if got.TotalUnits() != 5 {
		t.Fatalf("TotalUnits: want=5 got=%d", got.TotalUnits())
	}
	if !got.HasUnit(types.UnitKeyFor("m2", "s3")) {
		t.Fatalf("HasUnit m2_s3: want true")
	}

	list, err := repo.ListPublished(dbc)
	if err != nil || len(list) != 1 || list[0].ID != published.ID {
		t.Fatalf("ListPublished: err=%v len=%d", err, len(list))
	}
	if ok, err := repo.Delete(dbc, draft.ID); err != nil || !ok {
		t.Fatalf("Delete: err=%v ok=%v", err, ok)
	}
	if gone, _ := repo.GetByID(dbc, draft.ID); gone != nil {
		t.Fatalf("deleted course still readable")
	}
}

func TestCompletionRepoEnsureAndCAS(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewCompletionRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, db, "completion@example.com")
	c := testutil.SeedCourse(t, ctx, db, "Course", 4)

	m, err := repo.Ensure(dbc, u.ID, c.ID)
	if err != nil || m == nil {
		t.Fatalf("Ensure: err=%v m=%v", err, m)
	}
	again, err := repo.Ensure(dbc, u.ID, c.ID)
	if err != nil || again.ID != m.ID {
		t.Fatalf("Ensure twice: err=%v id=%v want=%v", err, again.ID, m.ID)
	}
	if m.Count() != 0 {
		t.Fatalf("new map: want empty got=%d", m.Count())
	}

	now := time.Now().UTC()
	ok, err := repo.SaveCompleted(dbc, m, map[string]time.Time{"m1_s1": now})
	if err != nil || !ok {
		t.Fatalf("SaveCompleted: err=%v ok=%v", err, ok)
	}
	// m still carries the old version, a second write from it must lose.
	if ok, _ := repo.SaveCompleted(dbc, m, map[string]time.Time{"m1_s2": now}); ok {
		t.Fatalf("stale SaveCompleted: want false")
	}
	cur, _ := repo.Get(dbc, u.ID, c.ID)
	if cur.Count() != 1 || !cur.Has("m1_s1") {
		t.Fatalf("completed: got=%v", cur.Completed.Data())
	}

	if ok, err := repo.SetCertificateIfEmpty(dbc, cur.ID, "IOF-AAAAAAAA", now); err != nil || !ok {
		t.Fatalf("SetCertificateIfEmpty: err=%v ok=%v", err, ok)
	}
	if ok, _ := repo.SetCertificateIfEmpty(dbc, cur.ID, "IOF-BBBBBBBB", now); ok {
		t.Fatalf("second SetCertificateIfEmpty: want false")
	}
	cur, _ = repo.Get(dbc, u.ID, c.ID)
	if !cur.HasCertificate() || *cur.CertificateID != "IOF-AAAAAAAA" {
		t.Fatalf("certificate id: got=%v", cur.CertificateID)
	}
}

func TestProgressRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewProgressRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, db, "progress@example.com")
	c := testutil.SeedCourse(t, ctx, db, "Course", 4)

	p, err := repo.Ensure(dbc, u.ID, c.ID, time.Now().UTC())
	if err != nil || p == nil || p.Percent != 0 {
		t.Fatalf("Ensure: err=%v p=%v", err, p)
	}
	if err := repo.UpsertPercent(dbc, u.ID, c.ID, 75); err != nil {
		t.Fatalf("UpsertPercent: %v", err)
	}
	got, _ := repo.Get(dbc, u.ID, c.ID)
	if got.Percent != 75 || got.ID != p.ID {
		t.Fatalf("after upsert: got=%+v", got)
	}
	if _, err := repo.Ensure(dbc, u.ID, c.ID, time.Now().UTC()); err != nil {
		t.Fatalf("re-Ensure: %v", err)
	}
	got, _ = repo.Get(dbc, u.ID, c.ID)
	if got.Percent != 75 {
		t.Fatalf("re-Ensure reset percent: got=%d", got.Percent)
	}
	list, err := repo.ListByUser(dbc, u.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(list))
	}
}

func TestCertificateRepoCreateIfAbsent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewCertificateRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, db, "cert@example.com")
	c := testutil.SeedCourse(t, ctx, db, "Course", 1)
	now := time.Now().UTC()

	cert := &types.Certificate{ID: "IOF-0A1B2C3D", UserID: u.ID, CourseID: c.ID, DisplayName: "A", CourseTitle: c.Title, CompletedAt: now, GeneratedAt: now}
	if created, err := repo.CreateIfAbsent(dbc, cert); err != nil || !created {
		t.Fatalf("CreateIfAbsent: err=%v created=%v", err, created)
	}
	dup := *cert
	if created, err := repo.CreateIfAbsent(dbc, &dup); err != nil || created {
		t.Fatalf("duplicate CreateIfAbsent: err=%v created=%v", err, created)
	}
	if got, err := repo.GetByUserCourse(dbc, u.ID, c.ID); err != nil || got == nil || got.ID != cert.ID {
		t.Fatalf("GetByUserCourse: err=%v got=%v", err, got)
	}
	if err := repo.UpdateImage(dbc, cert.ID, "certificates/IOF-0A1B2C3D.png", "https://x/y.png"); err != nil {
		t.Fatalf("UpdateImage: %v", err)
	}
	got, _ := repo.GetByID(dbc, cert.ID)
	if got.ImageKey != "certificates/IOF-0A1B2C3D.png" {
		t.Fatalf("image key: got=%q", got.ImageKey)
	}
}
