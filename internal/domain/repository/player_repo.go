package repository

import (
	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// PlayerRepository определяет методы для работы с игроками
type PlayerRepository interface {
	// Create создает нового игрока
	Create(player *entity.Player) error

	// GetByID возвращает игрока по UUID
	GetByID(id string) (*entity.Player, error)

	// ListBySession возвращает игроков сессии, упорядоченных по очкам (убывание)
	// со стабильным разрешением ничьих по времени входа.
	ListBySession(sessionID uint) ([]entity.Player, error)

	// CountBySession возвращает количество игроков в сессии
	CountBySession(sessionID uint) (int64, error)

	// IncrementScore атомарно увеличивает счет игрока на delta.
	// Инкремент выполняется выражением в БД, чтобы параллельные начисления
	// разным игрокам (и ретраи) не теряли обновления.
	IncrementScore(playerID string, delta int) error

	// ResetScores обнуляет счет всех игроков сессии
	ResetScores(sessionID uint) error
}
