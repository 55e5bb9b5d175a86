package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/quizroom-api/internal/handler/dto"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
	"github.com/yourusername/quizroom-api/internal/service"
)

// RoomHandler обрабатывает запросы, связанные с игровыми комнатами
type RoomHandler struct {
	gameService        *service.GameService
	leaderboardService *service.LeaderboardService
}

// NewRoomHandler создает новый обработчик комнат
func NewRoomHandler(
	gameService *service.GameService,
	leaderboardService *service.LeaderboardService,
) *RoomHandler {
	return &RoomHandler{
		gameService:        gameService,
		leaderboardService: leaderboardService,
	}
}

// CreateRoom обрабатывает запрос на создание комнаты
// POST /api/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	session, err := h.gameService.CreateRoom(c.Request.Context())
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSessionResponse(session))
}

// JoinRoomRequest представляет запрос на вход игрока в комнату
type JoinRoomRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}

// JoinRoom обрабатывает вход игрока в комнату
// POST /api/rooms/:code/join
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomCode := c.MustGet("roomCode").(string)

	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.gameService.JoinRoom(c.Request.Context(), roomCode, req.Name)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewPlayerResponse(player))
}

// GetState возвращает снапшот состояния комнаты
// GET /api/rooms/:code/state
func (h *RoomHandler) GetState(c *gin.Context) {
	roomCode := c.MustGet("roomCode").(string)

	state, err := h.gameService.GetState(c.Request.Context(), roomCode)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRoomStateResponse(state))
}

// GetStats возвращает сводку по ответам на текущий вопрос
// GET /api/rooms/:code/stats
func (h *RoomHandler) GetStats(c *gin.Context) {
	roomCode := c.MustGet("roomCode").(string)

	stats, err := h.gameService.Stats(c.Request.Context(), roomCode)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Start запускает игру в комнате
// POST /api/rooms/:code/start
func (h *RoomHandler) Start(c *gin.Context) {
	roomCode := c.MustGet("roomCode").(string)

	session, err := h.gameService.Start(c.Request.Context(), roomCode)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(session))
}

// Advance переводит игру к следующему вопросу (или завершает её)
// POST /api/rooms/:code/advance
func (h *RoomHandler) Advance(c *gin.Context) {
	roomCode := c.MustGet("roomCode").(string)

	session, gameOver, err := h.gameService.Advance(c.Request.Context(), roomCode)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":   dto.NewSessionResponse(session),
		"game_over": gameOver,
	})
}

// Reveal закрывает текущий раунд и раскрывает правильный ответ
// POST /api/rooms/:code/reveal
func (h *RoomHandler) Reveal(c *gin.Context) {
	roomCode := c.MustGet("roomCode").(string)

	session, err := h.gameService.ForceReveal(c.Request.Context(), roomCode)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(session))
}

// Reset сбрасывает комнату к началу
// POST /api/rooms/:code/reset
func (h *RoomHandler) Reset(c *gin.Context) {
	roomCode := c.MustGet("roomCode").(string)

	session, err := h.gameService.Reset(c.Request.Context(), roomCode)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(session))
}

// FastForwardRequest представляет запрос на перемотку таймера раунда
type FastForwardRequest struct {
	// RemainingSeconds — новый остаток раунда; -1 означает значение из конфига
	RemainingSeconds int `json:"remaining_seconds"`
}

// FastForward сокращает остаток текущего раунда
// POST /api/rooms/:code/fast-forward
func (h *RoomHandler) FastForward(c *gin.Context) {
	roomCode := c.MustGet("roomCode").(string)

	req := FastForwardRequest{RemainingSeconds: -1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	session, err := h.gameService.FastForward(c.Request.Context(), roomCode, req.RemainingSeconds)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":           dto.NewSessionResponse(session),
		"remaining_seconds": h.gameService.Timer().Remaining(session),
	})
}

// GetLeaderboard возвращает лидерборд комнаты
// GET /api/rooms/:code/leaderboard
func (h *RoomHandler) GetLeaderboard(c *gin.Context) {
	roomCode := c.MustGet("roomCode").(string)

	board, err := h.leaderboardService.Get(c.Request.Context(), roomCode)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

// ExportLeaderboard экспортирует лидерборд комнаты в CSV или Excel формате
// GET /api/rooms/:code/leaderboard/export?format=csv|xlsx
func (h *RoomHandler) ExportLeaderboard(c *gin.Context) {
	roomCode := c.MustGet("roomCode").(string)
	format := c.DefaultQuery("format", "csv")

	board, err := h.leaderboardService.Get(c.Request.Context(), roomCode)
	if err != nil {
		handleRoomError(c, err)
		return
	}

	filename := fmt.Sprintf("room_%s_leaderboard_%s", roomCode, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, board, filename)
	default:
		h.exportCSV(c, board, filename)
	}
}

// exportCSV экспортирует лидерборд в CSV с правильным экранированием спецсимволов
func (h *RoomHandler) exportCSV(c *gin.Context, board *service.Leaderboard, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	// Используем encoding/csv для правильного экранирования запятых/кавычек
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// Заголовки
	writer.Write([]string{"Rank", "Player", "Score", "Joined At"})

	// Данные
	for _, e := range board.Entries {
		writer.Write([]string{
			strconv.Itoa(e.Rank),
			sanitizeForExcel(e.Name),
			strconv.Itoa(e.Score),
			e.JoinedAt.Format(time.RFC3339),
		})
	}
}

// exportXLSX экспортирует лидерборд в Excel с использованием StreamWriter
func (h *RoomHandler) exportXLSX(c *gin.Context, board *service.Leaderboard, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Leaderboard"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[RoomHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	// Заголовки
	headers := []interface{}{"Rank", "Player", "Score", "Joined At"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[RoomHandler] Ошибка записи заголовков: %v", err)
	}

	// Данные
	for i, e := range board.Entries {
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)

		row := []interface{}{e.Rank, sanitizeForExcel(e.Name), e.Score, e.JoinedAt.Format(time.RFC3339)}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[RoomHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[RoomHandler] Ошибка при Flush: %v", err)
	}

	// Записываем в response
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[RoomHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleRoomError обрабатывает ошибки игровых сервисов и отправляет соответствующий HTTP ответ
func handleRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrStoreConflict),
		errors.Is(err, apperrors.ErrAlreadyAnswered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrTimeExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrQuestionIndexOutOfRange):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in RoomHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
