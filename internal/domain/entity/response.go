package entity

import (
	"time"
)

// TimeoutOption — значение selected_option для timeout-ответов.
// Признаком таймаута служит колонка timed_out; -1 хранится только для
// совместимости со старым форматом выгрузки и никогда не сравнивается.
const TimeoutOption = -1

// Response представляет ответ игрока на один вопрос.
// Уникальный индекс на (player_id, question_index) — ключевой инвариант системы:
// на пару (игрок, вопрос) существует не более одной записи, и именно БД
// разрешает гонку между поздним ответом игрока и timeout-sweep ведущего.
type Response struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      uint      `gorm:"not null;index" json:"session_id"`
	PlayerID       string    `gorm:"type:uuid;not null;uniqueIndex:uq_responses_player_question" json:"player_id"`
	QuestionIndex  int       `gorm:"not null;uniqueIndex:uq_responses_player_question" json:"question_index"`
	SelectedOption int       `gorm:"not null" json:"selected_option"`
	TimedOut       bool      `gorm:"not null;default:false" json:"timed_out"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Response) TableName() string {
	return "responses"
}

// IsTimeout проверяет, является ли запись timeout-ответом, созданным sweep'ом
func (r *Response) IsTimeout() bool {
	return r.TimedOut
}

// NewTimeoutResponse создает timeout-ответ для игрока, не ответившего за раунд
func NewTimeoutResponse(sessionID uint, playerID string, questionIndex int) *Response {
	return &Response{
		SessionID:      sessionID,
		PlayerID:       playerID,
		QuestionIndex:  questionIndex,
		SelectedOption: TimeoutOption,
		TimedOut:       true,
		IsCorrect:      false,
	}
}
