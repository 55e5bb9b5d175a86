package entity

import (
	"time"
)

// Player представляет игрока, присоединившегося к комнате.
// ID — UUID, выдаваемый при входе; он же служит credential'ом игрока
// при отправке ответов, поэтому должен быть неугадываемым.
type Player struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// TableName определяет имя таблицы для GORM
func (Player) TableName() string {
	return "players"
}
