package repository

import (
	"time"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// SessionRepository определяет методы для работы с игровыми сессиями
type SessionRepository interface {
	// Create создает новую сессию. Возвращает ErrDuplicateRoomCode-подобную ошибку
	// уникальности, если код комнаты уже занят (вызывающий код генерирует новый).
	Create(session *entity.Session) error

	// GetByRoomCode возвращает сессию по коду комнаты
	GetByRoomCode(roomCode string) (*entity.Session, error)

	// GetByID возвращает сессию по ID
	GetByID(id uint) (*entity.Session, error)

	// UpdateStatusCAS атомарно переводит сессию из fromStatus в toStatus,
	// попутно применяя updates (current_question, timer_started_at и т.д.).
	// Возвращает ErrSessionStatusChanged, если сессия уже не в fromStatus.
	UpdateStatusCAS(sessionID uint, fromStatus, toStatus string, updates map[string]interface{}) error

	// UpdateTimerStart переписывает timer_started_at, только пока сессия в answering.
	// Используется fast-forward'ом. Возвращает ErrSessionStatusChanged, если раунд уже закрыт.
	UpdateTimerStart(sessionID uint, startedAt time.Time) error

	// ResetState возвращает сессию в исходное состояние: waiting, вопрос 1, таймер сброшен.
	// Допустимо из любого статуса, поэтому без CAS.
	ResetState(sessionID uint) error

	// IsDuplicateRoomCode сообщает, является ли err нарушением уникальности кода комнаты
	IsDuplicateRoomCode(err error) bool
}
