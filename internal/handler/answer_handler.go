package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yourusername/quizroom-api/internal/service"
)

// AnswerHandler обрабатывает отправку ответов игроками
type AnswerHandler struct {
	gameService *service.GameService
}

// NewAnswerHandler создает новый обработчик ответов
func NewAnswerHandler(gameService *service.GameService) *AnswerHandler {
	return &AnswerHandler{gameService: gameService}
}

// SubmitAnswerRequest представляет запрос на отправку ответа
type SubmitAnswerRequest struct {
	QuestionIndex  int `json:"question_index" binding:"required,min=1"`
	SelectedOption int `json:"selected_option" binding:"min=0"`
}

// SubmitAnswer обрабатывает ответ игрока на вопрос
// POST /api/players/:playerID/answers
func (h *AnswerHandler) SubmitAnswer(c *gin.Context) {
	playerID := c.Param("playerID")
	if _, err := uuid.Parse(playerID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player ID"})
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.gameService.SubmitAnswer(c.Request.Context(), playerID, req.QuestionIndex, req.SelectedOption)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
