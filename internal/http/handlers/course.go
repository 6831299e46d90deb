package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/iof-learning/internal/http/response"
	"github.com/yungbote/iof-learning/internal/services"
)

type CourseHandler struct {
	catalog    services.CatalogService
	enrollment services.EnrollmentService
	progress   services.ProgressService
}

func NewCourseHandler(catalog services.CatalogService, enrollment services.EnrollmentService, progress services.ProgressService) *CourseHandler {
	return &CourseHandler{catalog: catalog, enrollment: enrollment, progress: progress}
}

// GET /api/courses
func (h *CourseHandler) ListCatalog(c *gin.Context) {
	groups, err := h.catalog.ListCatalog(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_catalog_failed")
		return
	}
	response.RespondOK(c, gin.H{"categories": groups})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	course, err := h.catalog.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err, "get_course_failed")
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// POST /api/courses/:id/enroll
func (h *CourseHandler) Enroll(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	view, err := h.enrollment.Enroll(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err, "enroll_failed")
		return
	}
	response.RespondOK(c, gin.H{"enrollment": view})
}

// GET /api/me/enrollments
func (h *CourseHandler) ListMyEnrollments(c *gin.Context) {
	views, err := h.enrollment.ListMine(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_enrollments_failed")
		return
	}
	response.RespondOK(c, gin.H{"enrollments": views})
}

// GET /api/courses/:id/progress
func (h *CourseHandler) GetProgress(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	view, err := h.progress.GetProgress(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err, "get_progress_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": view})
}

// POST /api/courses/:id/progress
// body: { "module_id": "...", "sub_course_id": "..." }
func (h *CourseHandler) MarkComplete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		ModuleID    string `json:"module_id"`
		SubCourseID string `json:"sub_course_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.progress.MarkSubCourseComplete(c.Request.Context(), id, req.ModuleID, req.SubCourseID)
	if err != nil {
		response.RespondAPIError(c, err, "mark_complete_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": view})
}

// GET /api/admin/courses
func (h *CourseHandler) AdminList(c *gin.Context) {
	courses, err := h.catalog.ListAll(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_courses_failed")
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// POST /api/admin/courses
func (h *CourseHandler) AdminCreate(c *gin.Context) {
	var req services.CourseInput
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_course_failed")
		return
	}
	response.RespondCreated(c, gin.H{"course": course})
}

// PUT /api/admin/courses/:id
func (h *CourseHandler) AdminUpdate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.CourseInput
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.catalog.UpdateCourse(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_course_failed")
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// DELETE /api/admin/courses/:id
func (h *CourseHandler) AdminDelete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCourse(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err, "delete_course_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/courses/:id/cover (multipart field "file")
func (h *CourseHandler) AdminUploadCover(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondAPIError(c, invalidUpload(err), "invalid_upload")
		return
	}
	if fh.Size > maxUploadBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondAPIError(c, invalidUpload(err), "invalid_upload")
		return
	}
	defer f.Close()
	course, err := h.catalog.UploadCover(c.Request.Context(), id, fh.Filename, f)
	if err != nil {
		response.RespondAPIError(c, err, "upload_cover_failed")
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}
