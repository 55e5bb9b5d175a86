package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/yourusername/quizroom-api/internal/service"
	"github.com/yourusername/quizroom-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения наблюдателей комнат
type WSHandler struct {
	wsManager   *websocket.Manager
	gameService *service.GameService
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(wsManager *websocket.Manager, gameService *service.GameService) *WSHandler {
	return &WSHandler{
		wsManager:   wsManager,
		gameService: gameService,
	}
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Если Origin пустой - это не браузерный клиент (мобильное приложение, curl и т.д.)
		// Разрешаем такие подключения
		if origin == "" {
			return true
		}

		// Список разрешенных origin (синхронизирован с CORS в main.go)
		// При добавлении новых доменов - добавьте их также в CORS config
		allowedOrigins := []string{
			"http://localhost:5173",
			"http://localhost:8000",
			"http://localhost:3000",
		}

		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
		return false
	},
	EnableCompression: true,
}

// HandleConnection обрабатывает входящее WebSocket соединение
// GET /ws?room=ABC123
func (h *WSHandler) HandleConnection(c *gin.Context) {
	roomCode := strings.ToUpper(strings.TrimSpace(c.Query("room")))
	if roomCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing room query parameter"})
		return
	}

	// Убеждаемся, что комната существует, до апгрейда соединения
	if _, err := h.gameService.GetState(c.Request.Context(), roomCode); err != nil {
		handleRoomError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}

	connectionID := uuid.New().String()
	log.Printf("WebSocket: Connection %s upgraded for room %s", connectionID, roomCode)

	client := websocket.NewClient(h.wsManager.Hub(), conn, roomCode, connectionID)
	client.Start()
}
