package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// ResponseRepo реализует repository.ResponseRepository
type ResponseRepo struct {
	db *gorm.DB
}

// NewResponseRepo создает новый репозиторий ответов
func NewResponseRepo(db *gorm.DB) *ResponseRepo {
	return &ResponseRepo{db: db}
}

// Create вставляет ответ. Уникальный индекс uq_responses_player_question
// превращает повторную вставку в ErrDuplicateResponse — это и есть
// exactly-once гарантия журнала: кто первым дошел до БД, тот и записан.
func (r *ResponseRepo) Create(response *entity.Response) error {
	err := r.db.Create(response).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: player %s question %d",
				repository.ErrDuplicateResponse, response.PlayerID, response.QuestionIndex)
		}
		return err
	}
	return nil
}

// GetByPlayerAndQuestion возвращает ответ игрока на вопрос
func (r *ResponseRepo) GetByPlayerAndQuestion(playerID string, questionIndex int) (*entity.Response, error) {
	var response entity.Response
	err := r.db.Where("player_id = ? AND question_index = ?", playerID, questionIndex).
		First(&response).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &response, nil
}

// ListBySessionAndQuestion возвращает все ответы сессии на вопрос
func (r *ResponseRepo) ListBySessionAndQuestion(sessionID uint, questionIndex int) ([]entity.Response, error) {
	var responses []entity.Response
	err := r.db.Where("session_id = ? AND question_index = ?", sessionID, questionIndex).
		Order("created_at ASC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// CountBySessionAndQuestion возвращает количество ответов на вопрос
func (r *ResponseRepo) CountBySessionAndQuestion(sessionID uint, questionIndex int) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Response{}).
		Where("session_id = ? AND question_index = ?", sessionID, questionIndex).
		Count(&count).Error
	return count, err
}

// DeleteBySession удаляет все ответы сессии
func (r *ResponseRepo) DeleteBySession(sessionID uint) error {
	return r.db.Where("session_id = ?", sessionID).
		Delete(&entity.Response{}).Error
}
