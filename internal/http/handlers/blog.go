package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/iof-learning/internal/http/response"
	"github.com/yungbote/iof-learning/internal/services"
)

type BlogHandler struct {
	blog services.BlogService
}

func NewBlogHandler(blog services.BlogService) *BlogHandler {
	return &BlogHandler{blog: blog}
}

// GET /api/blog/posts?tag=&limit=&offset=
func (h *BlogHandler) ListPublished(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	posts, err := h.blog.ListPublished(c.Request.Context(), strings.TrimSpace(c.Query("tag")), limit, intQuery(c, "offset", 0))
	if err != nil {
		response.RespondAPIError(c, err, "list_posts_failed")
		return
	}
	response.RespondOK(c, gin.H{"posts": posts})
}

// GET /api/blog/posts/:slug
func (h *BlogHandler) GetBySlug(c *gin.Context) {
	view, err := h.blog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.RespondAPIError(c, err, "get_post_failed")
		return
	}
	response.RespondOK(c, gin.H{"post": view})
}

// POST /api/blog/posts/:id/comments
func (h *BlogHandler) AddComment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.CommentInput
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.blog.AddComment(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err, "add_comment_failed")
		return
	}
	response.RespondCreated(c, gin.H{"comment": comment})
}

// DELETE /api/blog/comments/:id
func (h *BlogHandler) DeleteComment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.blog.DeleteComment(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err, "delete_comment_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/admin/blog/posts
func (h *BlogHandler) AdminList(c *gin.Context) {
	posts, err := h.blog.ListAll(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_posts_failed")
		return
	}
	response.RespondOK(c, gin.H{"posts": posts})
}

// POST /api/admin/blog/posts
func (h *BlogHandler) AdminCreate(c *gin.Context) {
	var req services.PostInput
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.blog.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_post_failed")
		return
	}
	response.RespondCreated(c, gin.H{"post": post})
}

// PUT /api/admin/blog/posts/:id
func (h *BlogHandler) AdminUpdate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.PostInput
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.blog.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_post_failed")
		return
	}
	response.RespondOK(c, gin.H{"post": post})
}

// DELETE /api/admin/blog/posts/:id
func (h *BlogHandler) AdminDelete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.blog.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err, "delete_post_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/blog/posts/:id/cover (multipart field "file")
func (h *BlogHandler) AdminUploadCover(c *gin.Context) {
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
	post, err := h.blog.UploadCover(c.Request.Context(), id, fh.Filename, f)
	if err != nil {
		response.RespondAPIError(c, err, "upload_cover_failed")
		return
	}
	response.RespondOK(c, gin.H{"post": post})
}
