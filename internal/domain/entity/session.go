package entity

import (
	"time"
)

// Константы статусов игровой сессии
const (
	SessionStatusWaiting   = "waiting"
	SessionStatusAnswering = "answering"
	SessionStatusRevealing = "revealing"
	SessionStatusFinished  = "finished"
)

// Session представляет одну игровую комнату: последовательность раундов,
// управляемую ведущим и идентифицируемую коротким кодом комнаты.
type Session struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	RoomCode         string     `gorm:"size:6;not null;uniqueIndex" json:"room_code"`
	Status           string     `gorm:"size:20;not null;default:'waiting';index" json:"status"`
	CurrentQuestion  int        `gorm:"not null;default:1" json:"current_question"`
	QuestionSetID    string     `gorm:"size:50;not null" json:"question_set_id"`
	TimerStartedAt   *time.Time `gorm:"index" json:"timer_started_at,omitempty"`
	TimerDurationSec int        `gorm:"not null;default:45" json:"timer_duration_sec"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Session) TableName() string {
	return "sessions"
}

// IsWaiting проверяет, находится ли сессия в ожидании игроков
func (s *Session) IsWaiting() bool {
	return s.Status == SessionStatusWaiting
}

// IsAnswering проверяет, открыт ли сейчас раунд для ответов
func (s *Session) IsAnswering() bool {
	return s.Status == SessionStatusAnswering
}

// IsRevealing проверяет, идет ли показ правильного ответа
func (s *Session) IsRevealing() bool {
	return s.Status == SessionStatusRevealing
}

// IsFinished проверяет, завершена ли игра
func (s *Session) IsFinished() bool {
	return s.Status == SessionStatusFinished
}
