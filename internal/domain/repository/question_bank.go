package repository

import (
	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// QuestionBank определяет доступ к банку вопросов: упорядоченным, неизменяемым
// именованным наборам, поставляемым извне. Движок только читает банк.
type QuestionBank interface {
	// SetIDs возвращает идентификаторы наборов в стабильном порядке
	SetIDs() []string

	// Question возвращает вопрос набора по 1-based индексу.
	// Возвращает apperrors.ErrQuestionIndexOutOfRange при выходе за [1, Len].
	Question(setID string, index int) (*entity.Question, error)

	// Len возвращает количество вопросов в наборе (0 для неизвестного набора)
	Len(setID string) int

	// Set возвращает все вопросы набора в порядке следования
	Set(setID string) ([]entity.Question, error)
}
