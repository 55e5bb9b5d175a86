package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// roomCodeLength — длина кода комнаты в URL
const roomCodeLength = 6

// ExtractRoomCode создает middleware для извлечения и валидации кода комнаты.
// paramName - имя параметра в URL (например, "code").
// contextKey - ключ, под которым значение будет сохранено в контексте Gin.
func ExtractRoomCode(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := strings.ToUpper(strings.TrimSpace(c.Param(paramName)))
		if len(code) != roomCodeLength || !isAlphanumeric(code) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room code"})
			c.Abort()
			return
		}
		// Сохраняем нормализованный код для единообразия
		c.Set(contextKey, code)
		c.Next()
	}
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
