package dto

import (
	"time"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/service"
)

// SessionResponse представляет игровую сессию в формате для ответа клиенту
type SessionResponse struct {
	ID               uint      `json:"id"`
	RoomCode         string    `json:"room_code"`
	Status           string    `json:"status"`
	CurrentQuestion  int       `json:"current_question"`
	QuestionSetID    string    `json:"question_set_id"`
	TimerDurationSec int       `json:"timer_duration_sec"`
	CreatedAt        time.Time `json:"created_at"`
}

// PlayerResponse представляет игрока в формате для ответа клиенту
type PlayerResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// QuestionResponse представляет вопрос в формате для ответа клиенту.
// Правильный вариант сюда не входит: он раскрывается отдельным полем
// состояния только после закрытия раунда.
type QuestionResponse struct {
	Index      int      `json:"index"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
	PointValue int      `json:"point_value"`
	Source     string   `json:"source,omitempty"`
	SourceURL  string   `json:"source_url,omitempty"`
}

// RoomStateResponse представляет снапшот состояния комнаты
type RoomStateResponse struct {
	Session          SessionResponse   `json:"session"`
	Players          []PlayerResponse  `json:"players"`
	CurrentQuestion  *QuestionResponse `json:"current_question,omitempty"`
	RemainingSeconds int               `json:"remaining_seconds"`
	TotalPlayers     int               `json:"total_players"`
	TotalQuestions   int               `json:"total_questions"`
	CorrectOption    *int              `json:"correct_option,omitempty"`
	Explanation      string            `json:"explanation,omitempty"`
}

// NewSessionResponse создает DTO для сессии
func NewSessionResponse(session *entity.Session) SessionResponse {
	return SessionResponse{
		ID:               session.ID,
		RoomCode:         session.RoomCode,
		Status:           session.Status,
		CurrentQuestion:  session.CurrentQuestion,
		QuestionSetID:    session.QuestionSetID,
		TimerDurationSec: session.TimerDurationSec,
		CreatedAt:        session.CreatedAt,
	}
}

// NewPlayerResponse создает DTO для игрока
func NewPlayerResponse(player *entity.Player) PlayerResponse {
	return PlayerResponse{
		ID:       player.ID,
		Name:     player.Name,
		Score:    player.Score,
		JoinedAt: player.JoinedAt,
	}
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *entity.Question) *QuestionResponse {
	if q == nil {
		return nil
	}
	return &QuestionResponse{
		Index:      q.Index,
		Prompt:     q.Prompt,
		Options:    q.Options,
		PointValue: q.PointValue,
		Source:     q.Source,
		SourceURL:  q.SourceURL,
	}
}

// NewRoomStateResponse создает DTO для снапшота состояния комнаты
func NewRoomStateResponse(state *service.RoomState) *RoomStateResponse {
	players := make([]PlayerResponse, 0, len(state.Players))
	for i := range state.Players {
		players = append(players, NewPlayerResponse(&state.Players[i]))
	}

	return &RoomStateResponse{
		Session:          NewSessionResponse(state.Session),
		Players:          players,
		CurrentQuestion:  NewQuestionResponse(state.CurrentQuestion),
		RemainingSeconds: state.RemainingSeconds,
		TotalPlayers:     state.TotalPlayers,
		TotalQuestions:   state.TotalQuestions,
		CorrectOption:    state.CorrectOption,
		Explanation:      state.Explanation,
	}
}
