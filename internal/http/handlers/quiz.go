package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/iof-learning/internal/http/response"
	"github.com/yungbote/iof-learning/internal/services"
)

type QuizHandler struct {
	quizzes     services.QuizService
	leaderboard services.LeaderboardService
}

func NewQuizHandler(quizzes services.QuizService, leaderboard services.LeaderboardService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, leaderboard: leaderboard}
}

// GET /api/quizzes
func (h *QuizHandler) List(c *gin.Context) {
	h.list(c, true)
}

// GET /api/admin/quizzes
func (h *QuizHandler) AdminList(c *gin.Context) {
	h.list(c, false)
}

func (h *QuizHandler) list(c *gin.Context, publishedOnly bool) {
	quizzes, err := h.quizzes.List(c.Request.Context(), publishedOnly)
	if err != nil {
		response.RespondAPIError(c, err, "list_quizzes_failed")
		return
	}
	response.RespondOK(c, gin.H{"quizzes": quizzes})
}

// GET /api/quizzes/:id
func (h *QuizHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	view, err := h.quizzes.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err, "get_quiz_failed")
		return
	}
	response.RespondOK(c, gin.H{"quiz": view})
}

// POST /api/quizzes/:id/attempts
// body: { "answers": { "<question id>": "<option>" } }
func (h *QuizHandler) Submit(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.quizzes.Submit(c.Request.Context(), id, req.Answers)
	if err != nil {
		response.RespondAPIError(c, err, "submit_quiz_failed")
		return
	}
	response.RespondCreated(c, result)
}

// GET /api/me/attempts
func (h *QuizHandler) ListMyAttempts(c *gin.Context) {
	attempts, err := h.quizzes.ListMyAttempts(c.Request.Context(), intQuery(c, "limit", 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_attempts_failed")
		return
	}
	response.RespondOK(c, gin.H{"attempts": attempts})
}

// GET /api/leaderboard
func (h *QuizHandler) Leaderboard(c *gin.Context) {
	limit := intQuery(c, "limit", 10)
	if limit > 100 {
		limit = 100
	}
	entries, err := h.leaderboard.Top(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, err, "leaderboard_failed")
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}

// GET /api/leaderboard/me
func (h *QuizHandler) MyRank(c *gin.Context) {
	entry, err := h.leaderboard.Mine(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "leaderboard_failed")
		return
	}
	response.RespondOK(c, gin.H{"entry": entry})
}

// POST /api/admin/quizzes
func (h *QuizHandler) AdminCreate(c *gin.Context) {
	var req services.QuizInput
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.quizzes.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_quiz_failed")
		return
	}
	response.RespondCreated(c, gin.H{"quiz": q})
}

// PUT /api/admin/quizzes/:id
func (h *QuizHandler) AdminUpdate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.QuizInput
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.quizzes.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err, "update_quiz_failed")
		return
	}
	response.RespondOK(c, gin.H{"quiz": q})
}

// DELETE /api/admin/quizzes/:id
func (h *QuizHandler) AdminDelete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.quizzes.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err, "delete_quiz_failed")
		return
	}
	c.Status(http.StatusNoContent)
}
