package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/iof-learning/internal/http/response"
	"github.com/yungbote/iof-learning/internal/services"
)

type NewsHandler struct {
	news services.NewsService
}

func NewNewsHandler(news services.NewsService) *NewsHandler {
	return &NewsHandler{news: news}
}

// GET /api/news?q=
func (h *NewsHandler) Search(c *gin.Context) {
	response.RespondOK(c, h.news.Search(c.Request.Context(), c.Query("q")))
}
