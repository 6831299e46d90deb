package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/iof-learning/internal/http/response"
	"github.com/yungbote/iof-learning/internal/services"
)

type CertificateHandler struct {
	certs services.CertificateService
}

func NewCertificateHandler(certs services.CertificateService) *CertificateHandler {
	return &CertificateHandler{certs: certs}
}

// POST /api/courses/:id/certificate
func (h *CertificateHandler) Issue(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	cert, err := h.certs.IssueCertificate(c.Request.Context(), courseID)
	if err != nil {
		response.RespondAPIError(c, err, "issue_certificate_failed")
		return
	}
	response.RespondOK(c, gin.H{"certificate": cert})
}

// GET /api/courses/:id/certificate
func (h *CertificateHandler) State(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	state, err := h.certs.GetState(c.Request.Context(), courseID)
	if err != nil {
		response.RespondAPIError(c, err, "certificate_state_failed")
		return
	}
	response.RespondOK(c, gin.H{"state": state})
}

// GET /api/me/certificates
func (h *CertificateHandler) ListMine(c *gin.Context) {
	certs, err := h.certs.ListMine(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_certificates_failed")
		return
	}
	response.RespondOK(c, gin.H{"certificates": certs})
}

// GET /api/certificates/:id
func (h *CertificateHandler) Verify(c *gin.Context) {
	cert, err := h.certs.VerifyCertificate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err, "verify_certificate_failed")
		return
	}
	response.RespondOK(c, gin.H{"valid": true, "certificate": cert})
}

// GET /api/certificates/:id/download?format=png|pdf
func (h *CertificateHandler) Download(c *gin.Context) {
	format := services.CertificateFormat(strings.ToLower(c.DefaultQuery("format", "png")))
	out, err := h.certs.RenderCertificate(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.RespondAPIError(c, err, "render_certificate_failed")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Body)
}
