package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	"github.com/yungbote/iof-learning/internal/platform/logger"
	"github.com/yungbote/iof-learning/internal/services"
)

const (
	DefaultVisitorCookie   = "iof_visitor"
	DefaultAnalyticsCookie = "iof_analytics"
)

type ConsentConfig struct {
	VisitorCookie   string
	AnalyticsCookie string
	Domain          string
	Secure          bool
	MaxAge          time.Duration
}

type ConsentMiddleware struct {
	log     *logger.Logger
	consent services.ConsentService
	cfg     ConsentConfig
}

func NewConsentMiddleware(log *logger.Logger, consent services.ConsentService, cfg ConsentConfig) *ConsentMiddleware {
	if cfg.VisitorCookie == "" {
		cfg.VisitorCookie = DefaultVisitorCookie
	}
	if cfg.AnalyticsCookie == "" {
		cfg.AnalyticsCookie = DefaultAnalyticsCookie
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 365 * 24 * time.Hour
	}
	return &ConsentMiddleware{log: log.With("middleware", "ConsentMiddleware"), consent: consent, cfg: cfg}
}

// Attach identifies the visitor by cookie, issuing one on first contact, and exposes the
// stored choices on the request context. The analytics cookie is set only while analytics
// consent is granted and cleared otherwise.
func (cm *ConsentMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID, _ := c.Cookie(cm.cfg.VisitorCookie)
		visitorID = strings.TrimSpace(visitorID)
		if !services.ValidVisitorID(visitorID) {
			visitorID = services.NewVisitorID()
			cm.setCookie(c, cm.cfg.VisitorCookie, visitorID, cm.cfg.MaxAge, true)
		}

		cd := &ctxutil.ConsentData{VisitorID: visitorID, Essential: true}
		rec, err := cm.consent.Get(c.Request.Context(), visitorID)
		switch {
		case err != nil:
			cm.log.Warn("load consent failed", "error", err, "visitor_id", visitorID)
		case rec != nil:
			cd.Analytics = rec.Analytics
			cd.Marketing = rec.Marketing
			cd.Preferences = rec.Preferences
		}
		c.Request = c.Request.WithContext(ctxutil.WithConsentData(c.Request.Context(), cd))

		cm.SyncAnalyticsCookie(c, cd.Analytics)
		c.Next()
	}
}

// SyncAnalyticsCookie sets or clears the analytics cookie to match granted.
func (cm *ConsentMiddleware) SyncAnalyticsCookie(c *gin.Context, granted bool) {
	_, err := c.Cookie(cm.cfg.AnalyticsCookie)
	present := err == nil
	switch {
	case granted && !present:
		cm.setCookie(c, cm.cfg.AnalyticsCookie, "1", cm.cfg.MaxAge, false)
	case !granted && present:
		cm.setCookie(c, cm.cfg.AnalyticsCookie, "", -1, false)
	}
}

func (cm *ConsentMiddleware) setCookie(c *gin.Context, name, value string, maxAge time.Duration, httpOnly bool) {
	seconds := int(maxAge.Seconds())
	if maxAge < 0 {
		seconds = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, seconds, "/", cm.cfg.Domain, cm.cfg.Secure, httpOnly)
}
