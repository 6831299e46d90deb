package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/iof-learning/internal/data/repos"
	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/domain/consent"
	"github.com/yungbote/iof-learning/internal/http/response"
	"github.com/yungbote/iof-learning/internal/platform/apierr"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	perr "github.com/yungbote/iof-learning/internal/platform/errors"
	"github.com/yungbote/iof-learning/internal/services"
)

func serve(r http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env.Error.Code
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

type stubProgress struct {
	services.ProgressService
	gotModule, gotUnit string
}

func (s *stubProgress) MarkSubCourseComplete(_ context.Context, courseID uuid.UUID, moduleID, subCourseID string) (*services.ProgressView, error) {
	s.gotModule, s.gotUnit = moduleID, subCourseID
	if moduleID == "nope" {
		return nil, apierr.New(http.StatusBadRequest, "unknown_sub_course", perr.ErrInvalidArgument)
	}
	return &services.ProgressView{}, nil
}

type stubCatalog struct {
	services.CatalogService
}

func (stubCatalog) GetCourse(context.Context, uuid.UUID) (*services.CatalogCourse, error) {
	return nil, perr.ErrNotFound
}

func TestCourseHandlerProgress(t *testing.T) {
	progress := &stubProgress{}
	h := NewCourseHandler(stubCatalog{}, nil, progress)
	r := newEngine()
	r.POST("/courses/:id/progress", h.MarkComplete)
	r.GET("/courses/:id", h.GetCourse)

	id := uuid.New().String()
	rec := serve(r, http.MethodPost, "/courses/"+id+"/progress", strings.NewReader(`{"module_id":"m1","sub_course_id":"s2"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if progress.gotModule != "m1" || progress.gotUnit != "s2" {
		t.Fatalf("got module=%q unit=%q", progress.gotModule, progress.gotUnit)
	}

	rec = serve(r, http.MethodPost, "/courses/"+id+"/progress", strings.NewReader(`{"module_id":"nope","sub_course_id":"s2"}`), "application/json")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "unknown_sub_course" {
		t.Fatalf("unknown unit: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(r, http.MethodPost, "/courses/not-a-uuid/progress", strings.NewReader(`{}`), "application/json")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_id" {
		t.Fatalf("bad id: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(r, http.MethodPost, "/courses/"+id+"/progress", strings.NewReader(`{`), "application/json")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_request" {
		t.Fatalf("bad body: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(r, http.MethodGet, "/courses/"+id, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing course: status=%d", rec.Code)
	}
}

type stubCerts struct {
	services.CertificateService
	format services.CertificateFormat
}

func (s *stubCerts) RenderCertificate(_ context.Context, id string, format services.CertificateFormat) (*services.RenderedCertificate, error) {
	s.format = format
	if format != services.CertificateFormatPNG && format != services.CertificateFormatPDF {
		return nil, apierr.Invalid("invalid_format", apierr.FieldError{Index: -1, Field: "format", Message: "must be png or pdf"})
	}
	return &services.RenderedCertificate{Filename: id + "." + string(format), ContentType: "application/pdf", Body: []byte("%PDF")}, nil
}

func (s *stubCerts) VerifyCertificate(_ context.Context, id string) (*types.Certificate, error) {
	if id != "IOF-0A1B2C3D" {
		return nil, perr.ErrNotFound
	}
	return &types.Certificate{ID: id}, nil
}

func TestCertificateHandlerDownload(t *testing.T) {
	certs := &stubCerts{}
	h := NewCertificateHandler(certs)
	r := newEngine()
	r.GET("/certificates/:id", h.Verify)
	r.GET("/certificates/:id/download", h.Download)

	rec := serve(r, http.MethodGet, "/certificates/IOF-0A1B2C3D/download?format=PDF", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if certs.format != services.CertificateFormatPDF {
		t.Fatalf("format=%q", certs.format)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="IOF-0A1B2C3D.pdf"` {
		t.Fatalf("Content-Disposition=%q", got)
	}
	if rec.Body.String() != "%PDF" {
		t.Fatalf("body=%q", rec.Body.String())
	}

	rec = serve(r, http.MethodGet, "/certificates/IOF-0A1B2C3D/download", nil, "")
	if rec.Code != http.StatusOK || certs.format != services.CertificateFormatPNG {
		t.Fatalf("default format: status=%d format=%q", rec.Code, certs.format)
	}

	rec = serve(r, http.MethodGet, "/certificates/IOF-0A1B2C3D/download?format=gif", nil, "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_format" {
		t.Fatalf("gif: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = serve(r, http.MethodGet, "/certificates/IOF-FFFFFFFF", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("verify unknown: status=%d", rec.Code)
	}
}

type stubBank struct {
	services.QuestionBankService
	imported services.ImportInput
	filter   repos.QuestionFilter
	deleted  []uuid.UUID
}

func (s *stubBank) Import(_ context.Context, in services.ImportInput) (*types.QuestionImport, error) {
	s.imported = in
	return &types.QuestionImport{Total: 1}, nil
}

func (s *stubBank) Export(context.Context, services.ExportFilter) (*services.ExportFile, error) {
	return &services.ExportFile{Filename: "questions-all-20260309.json", Count: 2, Body: []byte("[]")}, nil
}

func (s *stubBank) List(_ context.Context, f repos.QuestionFilter) ([]*types.Question, int64, error) {
	s.filter = f
	return []*types.Question{}, 0, nil
}

func (s *stubBank) BulkDelete(_ context.Context, ids []uuid.UUID) (int64, error) {
	s.deleted = ids
	return int64(len(ids)), nil
}

func TestQuestionHandlerImport(t *testing.T) {
	bank := &stubBank{}
	h := NewQuestionHandler(bank)
	r := newEngine()
	r.POST("/import", h.Import)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "bank.yaml")
	_, _ = fw.Write([]byte("- question: q\n"))
	_ = mw.Close()
	rec := serve(r, http.MethodPost, "/import", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusCreated {
		t.Fatalf("multipart: status=%d body=%s", rec.Code, rec.Body.String())
	}
	if bank.imported.Filename != "bank.yaml" || string(bank.imported.Data) != "- question: q\n" {
		t.Fatalf("imported=%+v", bank.imported)
	}

	rec = serve(r, http.MethodPost, "/import", strings.NewReader(`[]`), "application/json")
	if rec.Code != http.StatusCreated || bank.imported.Filename != "questions.json" {
		t.Fatalf("raw json: status=%d filename=%q", rec.Code, bank.imported.Filename)
	}

	rec = serve(r, http.MethodPost, "/import", strings.NewReader("[]"), "application/x-yaml")
	if rec.Code != http.StatusCreated || bank.imported.Filename != "questions.yaml" {
		t.Fatalf("raw yaml: status=%d filename=%q", rec.Code, bank.imported.Filename)
	}

	rec = serve(r, http.MethodPost, "/import", strings.NewReader("x"), "multipart/form-data; boundary=missing")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_upload" {
		t.Fatalf("broken multipart: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestQuestionHandlerExportListDelete(t *testing.T) {
	bank := &stubBank{}
	h := NewQuestionHandler(bank)
	r := newEngine()
	r.GET("/export", h.Export)
	r.GET("/questions", h.List)
	r.POST("/bulk-delete", h.BulkDelete)

	rec := serve(r, http.MethodGet, "/export?difficulty=hard", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status=%d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="questions-all-20260309.json"` {
		t.Fatalf("Content-Disposition=%q", got)
	}
	if rec.Header().Get("X-Question-Count") != "2" {
		t.Fatalf("X-Question-Count=%q", rec.Header().Get("X-Question-Count"))
	}

	rec = serve(r, http.MethodGet, "/questions?difficulty=HARD&limit=9000&offset=5", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status=%d", rec.Code)
	}
	if bank.filter.Difficulty != "hard" || bank.filter.Limit != 500 || bank.filter.Offset != 5 {
		t.Fatalf("filter=%+v", bank.filter)
	}

	a, b := uuid.New(), uuid.New()
	body := `{"ids":["` + a.String() + `","` + b.String() + `"]}`
	rec = serve(r, http.MethodPost, "/bulk-delete", strings.NewReader(body), "application/json")
	if rec.Code != http.StatusOK || len(bank.deleted) != 2 || bank.deleted[0] != a {
		t.Fatalf("bulk delete: status=%d deleted=%v", rec.Code, bank.deleted)
	}
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Deleted != 2 {
		t.Fatalf("deleted=%d", out.Deleted)
	}
}

type stubConsentService struct {
	services.ConsentService
	prefs consent.Preferences
}

func (s *stubConsentService) Update(_ context.Context, visitorID string, prefs consent.Preferences) (*types.CookieConsent, error) {
	s.prefs = prefs
	return &types.CookieConsent{VisitorID: visitorID, Essential: true, Analytics: prefs.Analytics}, nil
}

type recordingSyncer struct {
	calls   int
	granted bool
}

func (r *recordingSyncer) SyncAnalyticsCookie(_ *gin.Context, granted bool) {
	r.calls++
	r.granted = granted
}

func TestConsentHandlerUpdate(t *testing.T) {
	svc := &stubConsentService{}
	sync := &recordingSyncer{}
	h := NewConsentHandler(svc, sync)
	r := newEngine()
	withVisitor := func(c *gin.Context) {
		if c.GetHeader("X-Test-Visitor") != "" {
			cd := &ctxutil.ConsentData{VisitorID: c.GetHeader("X-Test-Visitor"), Essential: true}
			c.Request = c.Request.WithContext(ctxutil.WithConsentData(c.Request.Context(), cd))
		}
	}
	r.PUT("/consent", withVisitor, h.Update)

	req := httptest.NewRequest(http.MethodPut, "/consent", strings.NewReader(`{"analytics":true}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Visitor", "visitor_1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !svc.prefs.Analytics || sync.calls != 1 || !sync.granted {
		t.Fatalf("prefs=%+v sync=%+v", svc.prefs, sync)
	}

	rec = serve(r, http.MethodPut, "/consent", strings.NewReader(`{}`), "application/json")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_visitor" {
		t.Fatalf("no visitor: status=%d body=%s", rec.Code, rec.Body.String())
	}
	if sync.calls != 1 {
		t.Fatalf("syncer called without a decision")
	}
}

type failingPinger struct{ err error }

func (p failingPinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	r := newEngine()
	up := NewHealthHandler(failingPinger{})
	down := NewHealthHandler(failingPinger{err: errors.New("down")})
	r.GET("/healthcheck", down.HealthCheck)
	r.GET("/ready-up", up.Ready)
	r.GET("/ready-down", down.Ready)

	if rec := serve(r, http.MethodGet, "/healthcheck", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("healthcheck=%d", rec.Code)
	}
	if rec := serve(r, http.MethodGet, "/ready-up", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("ready-up=%d", rec.Code)
	}
	if rec := serve(r, http.MethodGet, "/ready-down", nil, ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready-down=%d", rec.Code)
	}
}

type stubAnnouncements struct {
	services.AnnouncementService
}

func (stubAnnouncements) ListActive(context.Context) []*types.Announcement {
	return []*types.Announcement{}
}

func TestAnnouncementListActiveNeverFails(t *testing.T) {
	h := NewAnnouncementHandler(stubAnnouncements{})
	r := newEngine()
	r.GET("/announcements", h.ListActive)
	rec := serve(r, http.MethodGet, "/announcements", nil, "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"announcements":[]}` {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
