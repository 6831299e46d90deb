package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/iof-learning/internal/domain/consent"
	"github.com/yungbote/iof-learning/internal/http/response"
	"github.com/yungbote/iof-learning/internal/platform/ctxutil"
	"github.com/yungbote/iof-learning/internal/services"
)

// AnalyticsCookieSyncer keeps the analytics cookie in line with a fresh decision.
type AnalyticsCookieSyncer interface {
	SyncAnalyticsCookie(c *gin.Context, granted bool)
}

type ConsentHandler struct {
	consent services.ConsentService
	cookies AnalyticsCookieSyncer
}

func NewConsentHandler(consentService services.ConsentService, cookies AnalyticsCookieSyncer) *ConsentHandler {
	return &ConsentHandler{consent: consentService, cookies: cookies}
}

var errNoVisitor = errors.New("visitor cookie missing")

// GET /api/consent
func (h *ConsentHandler) Get(c *gin.Context) {
	cd := ctxutil.GetConsentData(c.Request.Context())
	if cd == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_visitor", errNoVisitor)
		return
	}
	rec, err := h.consent.Get(c.Request.Context(), cd.VisitorID)
	if err != nil {
		response.RespondAPIError(c, err, "get_consent_failed")
		return
	}
	response.RespondOK(c, gin.H{"consent": rec})
}

// PUT /api/consent
// body: { "analytics": bool, "marketing": bool, "preferences": bool }
func (h *ConsentHandler) Update(c *gin.Context) {
	cd := ctxutil.GetConsentData(c.Request.Context())
	if cd == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_visitor", errNoVisitor)
		return
	}
	var req consent.Preferences
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.consent.Update(c.Request.Context(), cd.VisitorID, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_consent_failed")
		return
	}
	if h.cookies != nil {
		h.cookies.SyncAnalyticsCookie(c, rec.Analytics)
	}
	response.RespondOK(c, gin.H{"consent": rec})
}
