package websocket

// Типы событий игровой комнаты
const (
	// EventPlayerJoined сообщает о входе нового игрока
	EventPlayerJoined = "PLAYER_JOINED"

	// EventRoundStarted сообщает о начале нового раунда (start или advance)
	EventRoundStarted = "ROUND_STARTED"

	// EventRoundRevealed сообщает о закрытии раунда и показе правильного ответа
	EventRoundRevealed = "ROUND_REVEALED"

	// EventGameFinished сообщает о завершении игры
	EventGameFinished = "GAME_FINISHED"

	// EventRoomReset сообщает о сбросе комнаты к началу
	EventRoomReset = "ROOM_RESET"

	// EventAnswerSubmitted сообщает об обновлении счетчика ответов на текущий вопрос
	EventAnswerSubmitted = "ANSWER_SUBMITTED"

	// EventTimerFastForward сообщает о перемотке таймера раунда
	EventTimerFastForward = "TIMER_FAST_FORWARD"
)

// Event представляет структуру WebSocket-сообщения для наблюдателей комнаты
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
