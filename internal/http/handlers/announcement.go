package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/iof-learning/internal/http/response"
	"github.com/yungbote/iof-learning/internal/services"
)

type AnnouncementHandler struct {
	announcements services.AnnouncementService
}

func NewAnnouncementHandler(announcements services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// GET /api/announcements
func (h *AnnouncementHandler) ListActive(c *gin.Context) {
	response.RespondOK(c, gin.H{"announcements": h.announcements.ListActive(c.Request.Context())})
}

// GET /api/admin/announcements
func (h *AnnouncementHandler) AdminList(c *gin.Context) {
	list, err := h.announcements.ListAll(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_announcements_failed")
		return
	}
	response.RespondOK(c, gin.H{"announcements": list})
}

// POST /api/admin/announcements
func (h *AnnouncementHandler) AdminCreate(c *gin.Context) {
	var req services.AnnouncementInput
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.announcements.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_announcement_failed")
		return
	}
	response.RespondCreated(c, gin.H{"announcement": a})
}

// PUT /api/admin/announcements/:id
func (h *AnnouncementHandler) AdminUpdate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.AnnouncementInput
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.announcements.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_announcement_failed")
		return
	}
	response.RespondOK(c, gin.H{"announcement": a})
}

// DELETE /api/admin/announcements/:id
func (h *AnnouncementHandler) AdminDelete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.announcements.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err, "delete_announcement_failed")
		return
	}
	c.Status(http.StatusNoContent)
}
