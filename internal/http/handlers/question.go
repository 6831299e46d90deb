package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/iof-learning/internal/data/repos"
	"github.com/yungbote/iof-learning/internal/domain/quiz"
	"github.com/yungbote/iof-learning/internal/http/response"
	"github.com/yungbote/iof-learning/internal/services"
)

type QuestionHandler struct {
	bank services.QuestionBankService
}

func NewQuestionHandler(bank services.QuestionBankService) *QuestionHandler {
	return &QuestionHandler{bank: bank}
}

// GET /api/admin/questions?difficulty=&subject=&topic=&limit=&offset=
func (h *QuestionHandler) List(c *gin.Context) {
	f := repos.QuestionFilter{
		Difficulty: quiz.Difficulty(strings.ToLower(strings.TrimSpace(c.Query("difficulty")))),
		Subject:    strings.TrimSpace(c.Query("subject")),
		Topic:      strings.TrimSpace(c.Query("topic")),
		Limit:      intQuery(c, "limit", 50),
		Offset:     intQuery(c, "offset", 0),
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	questions, total, err := h.bank.List(c.Request.Context(), f)
	if err != nil {
		response.RespondAPIError(c, err, "list_questions_failed")
		return
	}
	response.RespondOK(c, gin.H{"questions": questions, "total": total})
}

// POST /api/admin/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var req services.QuestionRecord
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.bank.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_question_failed")
		return
	}
	response.RespondCreated(c, gin.H{"question": q})
}

// PUT /api/admin/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.QuestionRecord
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.bank.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_question_failed")
		return
	}
	response.RespondOK(c, gin.H{"question": q})
}

// POST /api/admin/questions/import
// Accepts a multipart "file" field, or a raw JSON/YAML body named by ?filename=.
func (h *QuestionHandler) Import(c *gin.Context) {
	in, err := readImport(c)
	if err != nil {
		response.RespondAPIError(c, invalidUpload(err), "invalid_upload")
		return
	}
	summary, err := h.bank.Import(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err, "import_questions_failed")
		return
	}
	response.RespondCreated(c, gin.H{"import": summary})
}

func readImport(c *gin.Context) (services.ImportInput, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return services.ImportInput{}, err
		}
		if fh.Size > maxUploadBytes {
			return services.ImportInput{}, fmt.Errorf("file exceeds %d bytes", maxUploadBytes)
		}
		f, err := fh.Open()
		if err != nil {
			return services.ImportInput{}, err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return services.ImportInput{}, err
		}
		return services.ImportInput{Filename: fh.Filename, Data: data}, nil
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes+1))
	if err != nil {
		return services.ImportInput{}, err
	}
	if len(data) > maxUploadBytes {
		return services.ImportInput{}, fmt.Errorf("body exceeds %d bytes", maxUploadBytes)
	}
	name := c.DefaultQuery("filename", "questions.json")
	if strings.Contains(c.ContentType(), "yaml") && !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
		name = "questions.yaml"
	}
	return services.ImportInput{Filename: name, Data: data}, nil
}

// GET /api/admin/questions/export?difficulty=|subject=|topic=
func (h *QuestionHandler) Export(c *gin.Context) {
	file, err := h.bank.Export(c.Request.Context(), services.ExportFilter{
		Difficulty: c.Query("difficulty"),
		Subject:    c.Query("subject"),
		Topic:      c.Query("topic"),
	})
	if err != nil {
		response.RespondAPIError(c, err, "export_questions_failed")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Header("X-Question-Count", fmt.Sprint(file.Count))
	c.Data(http.StatusOK, "application/json", file.Body)
}

// POST /api/admin/questions/bulk-delete
// body: { "ids": ["..."] }
func (h *QuestionHandler) BulkDelete(c *gin.Context) {
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.bank.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		response.RespondAPIError(c, err, "delete_questions_failed")
		return
	}
	response.RespondOK(c, gin.H{"deleted": n})
}

// GET /api/admin/questions/imports
func (h *QuestionHandler) ListImports(c *gin.Context) {
	imports, err := h.bank.ListImports(c.Request.Context(), intQuery(c, "limit", 20))
	if err != nil {
		response.RespondAPIError(c, err, "list_imports_failed")
		return
	}
	response.RespondOK(c, gin.H{"imports": imports})
}
