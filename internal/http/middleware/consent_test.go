package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/iof-learning/internal/domain"
	"github.com/yungbote/iof-learning/internal/domain/consent"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type stubConsent struct {
	records map[string]*types.CookieConsent
	err     error
}

func (s stubConsent) Get(_ context.Context, visitorID string) (*types.CookieConsent, error) {
	if s.err != nil {
		return nil, s.err
	}
	if rec := s.records[visitorID]; rec != nil {
		return rec, nil
	}
	d := consent.Default(visitorID)
	return &d, nil
}

func (s stubConsent) Update(context.Context, string, consent.Preferences) (*types.CookieConsent, error) {
	return nil, errors.New("not used")
}

func consentRouter(svc stubConsent) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cm := NewConsentMiddleware(logger.Nop(), svc, ConsentConfig{})
	r := gin.New()
	r.Use(cm.Attach())
	r.GET("/", func(c *gin.Context) {
		cd := ctxutil.GetConsentData(c.Request.Context())
		if cd == nil || !cd.Essential {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, cd.VisitorID)
	})
	return r
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestConsentIssuesVisitorCookie(t *testing.T) {
	r := consentRouter(stubConsent{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	ck := cookieNamed(rec, DefaultVisitorCookie)
	if ck == nil || ck.Value != rec.Body.String() || !ck.HttpOnly {
		t.Fatalf("visitor cookie: %+v body=%q", ck, rec.Body.String())
	}
	if cookieNamed(rec, DefaultAnalyticsCookie) != nil {
		t.Fatalf("analytics cookie set without consent")
	}
}

func TestConsentAnalyticsCookieFollowsChoice(t *testing.T) {
	svc := stubConsent{records: map[string]*types.CookieConsent{
		"granted": {VisitorID: "granted", Essential: true, Analytics: true},
		"denied":  {VisitorID: "denied", Essential: true},
	}}
	r := consentRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultVisitorCookie, Value: "granted"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if ck := cookieNamed(rec, DefaultAnalyticsCookie); ck == nil || ck.Value != "1" {
		t.Fatalf("analytics cookie not set for granted visitor: %+v", ck)
	}
	if cookieNamed(rec, DefaultVisitorCookie) != nil {
		t.Fatalf("known visitor got a new id")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultVisitorCookie, Value: "denied"})
	req.AddCookie(&http.Cookie{Name: DefaultAnalyticsCookie, Value: "1"})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if ck := cookieNamed(rec, DefaultAnalyticsCookie); ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("analytics cookie not cleared for denied visitor: %+v", ck)
	}
}

func TestConsentStoreFailureFallsBackToEssential(t *testing.T) {
	r := consentRouter(stubConsent{err: errors.New("db down")})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultVisitorCookie, Value: "v-1"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "v-1" {
		t.Fatalf("fallback: code=%d body=%q", rec.Code, rec.Body.String())
	}
	if cookieNamed(rec, DefaultAnalyticsCookie) != nil {
		t.Fatalf("analytics cookie set on store failure")
	}
}

func TestConsentReplacesInvalidVisitorCookie(t *testing.T) {
	r := consentRouter(stubConsent{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultVisitorCookie, Value: strings.Repeat("x", 80)})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if ck := cookieNamed(rec, DefaultVisitorCookie); ck == nil || len(ck.Value) != 32 {
		t.Fatalf("invalid visitor cookie not replaced: %+v", ck)
	}
}
