package repository

import (
	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// ResponseRepository определяет методы для работы с журналом ответов.
// Журнал — источник истины для "этот игрок уже ответил": вставка дубликата
// обязана атомарно падать с ErrDuplicateResponse, а не перезаписывать запись.
type ResponseRepository interface {
	// Create вставляет ответ. При нарушении уникальности (player_id, question_index)
	// возвращает ErrDuplicateResponse.
	Create(response *entity.Response) error

	// GetByPlayerAndQuestion возвращает ответ игрока на вопрос или apperrors.ErrNotFound
	GetByPlayerAndQuestion(playerID string, questionIndex int) (*entity.Response, error)

	// ListBySessionAndQuestion возвращает все ответы сессии на вопрос
	ListBySessionAndQuestion(sessionID uint, questionIndex int) ([]entity.Response, error)

	// CountBySessionAndQuestion возвращает количество ответов на вопрос
	CountBySessionAndQuestion(sessionID uint, questionIndex int) (int64, error)

	// DeleteBySession удаляет все ответы сессии (используется reset'ом)
	DeleteBySession(sessionID uint) error
}
