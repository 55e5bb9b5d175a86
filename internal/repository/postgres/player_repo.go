package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// PlayerRepo реализует repository.PlayerRepository
type PlayerRepo struct {
	db *gorm.DB
}

// NewPlayerRepo создает новый репозиторий игроков
func NewPlayerRepo(db *gorm.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// Create создает нового игрока
func (r *PlayerRepo) Create(player *entity.Player) error {
	return r.db.Create(player).Error
}

// GetByID возвращает игрока по UUID
func (r *PlayerRepo) GetByID(id string) (*entity.Player, error) {
	var player entity.Player
	err := r.db.Where("id = ?", id).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &player, nil
}

// ListBySession возвращает игроков сессии для лидерборда.
// Сортировка стабильна: при равных очках выше тот, кто вошел раньше.
func (r *PlayerRepo) ListBySession(sessionID uint) ([]entity.Player, error) {
	var players []entity.Player
	err := r.db.Where("session_id = ?", sessionID).
		Order("score DESC").
		Order("joined_at ASC").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

// CountBySession возвращает количество игроков в сессии
func (r *PlayerRepo) CountBySession(sessionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Player{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

// IncrementScore атомарно увеличивает счет игрока через gorm.Expr.
// Read-modify-write на стороне БД: параллельные начисления не теряются.
func (r *PlayerRepo) IncrementScore(playerID string, delta int) error {
	result := r.db.Model(&entity.Player{}).
		Where("id = ?", playerID).
		Update("score", gorm.Expr("score + ?", delta))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ResetScores обнуляет счет всех игроков сессии
func (r *PlayerRepo) ResetScores(sessionID uint) error {
	return r.db.Model(&entity.Player{}).
		Where("session_id = ?", sessionID).
		Update("score", 0).Error
}
