package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// SessionRepo реализует repository.SessionRepository
type SessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo создает новый репозиторий сессий
func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create создает новую сессию
func (r *SessionRepo) Create(session *entity.Session) error {
	return r.db.Create(session).Error
}

// GetByRoomCode возвращает сессию по коду комнаты
func (r *SessionRepo) GetByRoomCode(roomCode string) (*entity.Session, error) {
	var session entity.Session
	err := r.db.Where("room_code = ?", roomCode).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByID возвращает сессию по ID
func (r *SessionRepo) GetByID(id uint) (*entity.Session, error) {
	var session entity.Session
	err := r.db.First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// UpdateStatusCAS атомарно переводит сессию fromStatus → toStatus.
// Условие по статусу в WHERE и проверка RowsAffected дают compare-and-set:
// двойной клик ведущего или второй хост-экран не продвинут игру дважды.
// - RowsAffected == 0 → сессия уже не в fromStatus
// - Другая DB ошибка → возвращается как есть
func (r *SessionRepo) UpdateStatusCAS(sessionID uint, fromStatus, toStatus string, updates map[string]interface{}) error {
	values := map[string]interface{}{"status": toStatus}
	for k, v := range updates {
		values[k] = v
	}

	result := r.db.Model(&entity.Session{}).
		Where("id = ? AND status = ?", sessionID, fromStatus).
		Updates(values)

	if result.Error != nil {
		return fmt.Errorf("update session #%d status %s->%s failed: %w", sessionID, fromStatus, toStatus, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: session #%d is not %s", repository.ErrSessionStatusChanged, sessionID, fromStatus)
	}

	return nil
}

// UpdateTimerStart переписывает timer_started_at, только пока раунд открыт
func (r *SessionRepo) UpdateTimerStart(sessionID uint, startedAt time.Time) error {
	result := r.db.Model(&entity.Session{}).
		Where("id = ? AND status = ?", sessionID, entity.SessionStatusAnswering).
		Update("timer_started_at", startedAt)

	if result.Error != nil {
		return fmt.Errorf("update timer for session #%d failed: %w", sessionID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: session #%d is not answering", repository.ErrSessionStatusChanged, sessionID)
	}

	return nil
}

// ResetState возвращает сессию к начальному состоянию из любого статуса
func (r *SessionRepo) ResetState(sessionID uint) error {
	result := r.db.Model(&entity.Session{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":           entity.SessionStatusWaiting,
			"current_question": 1,
			"timer_started_at": nil,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// IsDuplicateRoomCode сообщает, является ли err нарушением уникальности кода комнаты
func (r *SessionRepo) IsDuplicateRoomCode(err error) bool {
	return isUniqueViolation(err)
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
