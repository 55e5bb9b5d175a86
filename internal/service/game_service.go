package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
	"github.com/yourusername/quizroom-api/internal/service/gameroom"
	"github.com/yourusername/quizroom-api/internal/websocket"
)

const (
	// roomCodeLength — длина человекочитаемого кода комнаты
	roomCodeLength = 6

	// roomCodeCharset — без визуально похожих символов (0/O, 1/I/L)
	roomCodeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

	// roomCodeMaxAttempts — количество попыток при коллизии кода
	roomCodeMaxAttempts = 5

	// setRotationKey — счетчик ротации наборов вопросов в Redis.
	// Позиция ротации живет вне процесса: рестарт сервиса и параллельные
	// инстансы не сбивают и не дублируют выбор набора.
	setRotationKey = "quizroom:set_rotation"
)

// Notifier отправляет событие всем наблюдателям комнаты.
// Реализуется websocket.Manager; движок сам событий не хранит — любое
// изменение состояния становится видимым через этот канал или через поллинг.
type Notifier interface {
	NotifyRoom(roomCode string, eventType string, data interface{})
}

// RoomState — снапшот состояния комнаты для одного наблюдателя.
// CorrectOption и Explanation заполняются только в фазах revealing/finished.
type RoomState struct {
	Session          *entity.Session  `json:"session"`
	Players          []entity.Player  `json:"players"`
	CurrentQuestion  *entity.Question `json:"current_question,omitempty"`
	RemainingSeconds int              `json:"remaining_seconds"`
	TotalPlayers     int              `json:"total_players"`
	TotalQuestions   int              `json:"total_questions"`
	CorrectOption    *int             `json:"correct_option,omitempty"`
	Explanation      string           `json:"explanation,omitempty"`
}

// GameService — машина состояний игровой сессии. Владеет статусом и указателем
// текущего вопроса; все переходы выполняются compare-and-set обновлением,
// поэтому параллельные команды ведущего не продвигают игру дважды.
type GameService struct {
	config   *gameroom.Config
	deps     *gameroom.Dependencies
	timer    *gameroom.RoundTimer
	answers  *gameroom.AnswerProcessor
	notifier Notifier
}

// NewGameService создает новый игровой сервис и его компоненты
func NewGameService(config *gameroom.Config, deps *gameroom.Dependencies, notifier Notifier) *GameService {
	return &GameService{
		config:   config,
		deps:     deps,
		timer:    gameroom.NewRoundTimer(config, deps),
		answers:  gameroom.NewAnswerProcessor(config, deps),
		notifier: notifier,
	}
}

// Timer возвращает координатор таймера (для обработчиков и тестов)
func (s *GameService) Timer() *gameroom.RoundTimer {
	return s.timer
}

// CreateRoom создает новую комнату в статусе waiting с уникальным кодом
// и закрепленным за ней набором вопросов.
func (s *GameService) CreateRoom(ctx context.Context) (*entity.Session, error) {
	setID := s.nextQuestionSet()

	for attempt := 0; attempt < roomCodeMaxAttempts; attempt++ {
		code, err := generateRoomCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		session := &entity.Session{
			RoomCode:         code,
			Status:           entity.SessionStatusWaiting,
			CurrentQuestion:  1,
			QuestionSetID:    setID,
			TimerDurationSec: s.config.RoundDurationSec,
		}

		if err := s.deps.SessionRepo.Create(session); err != nil {
			if s.deps.SessionRepo.IsDuplicateRoomCode(err) {
				log.Printf("[GameService] Коллизия кода комнаты %s, попытка %d", code, attempt+1)
				continue
			}
			return nil, fmt.Errorf("failed to create session: %w", err)
		}

		log.Printf("[GameService] Создана комната %s (сессия #%d, набор %s)", code, session.ID, setID)
		return session, nil
	}

	return nil, fmt.Errorf("failed to allocate unique room code after %d attempts", roomCodeMaxAttempts)
}

// JoinRoom добавляет игрока в комнату. Вход после старта игры допускается:
// такой игрок просто не имеет ответов на прошедшие вопросы и не может
// ответить на них задним числом.
func (s *GameService) JoinRoom(ctx context.Context, roomCode, name string) (*entity.Player, error) {
	if name == "" || len(name) > 50 {
		return nil, fmt.Errorf("%w: player name must be 1-50 characters", apperrors.ErrValidation)
	}

	session, err := s.deps.SessionRepo.GetByRoomCode(roomCode)
	if err != nil {
		return nil, err
	}

	player := &entity.Player{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Name:      name,
		Score:     0,
	}

	if err := s.deps.PlayerRepo.Create(player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	s.invalidateState(roomCode)
	s.notify(roomCode, websocket.EventPlayerJoined, map[string]interface{}{
		"player_id": player.ID,
		"name":      player.Name,
	})

	log.Printf("[GameService] Игрок %s (%s) вошел в комнату %s", player.Name, player.ID, roomCode)
	return player, nil
}

// Start запускает игру: waiting → answering, вопрос 1, свежий таймер.
func (s *GameService) Start(ctx context.Context, roomCode string) (*entity.Session, error) {
	session, err := s.deps.SessionRepo.GetByRoomCode(roomCode)
	if err != nil {
		return nil, err
	}

	if !session.IsWaiting() {
		return nil, fmt.Errorf("%w: start requires waiting, session is %s", apperrors.ErrInvalidTransition, session.Status)
	}

	startedAt := s.timer.ArmInstant()
	err = s.deps.SessionRepo.UpdateStatusCAS(session.ID, entity.SessionStatusWaiting, entity.SessionStatusAnswering,
		map[string]interface{}{
			"current_question": 1,
			"timer_started_at": startedAt,
		})
	if err != nil {
		if errors.Is(err, repository.ErrSessionStatusChanged) {
			return nil, fmt.Errorf("%w: concurrent start", apperrors.ErrStoreConflict)
		}
		return nil, err
	}

	session.Status = entity.SessionStatusAnswering
	session.CurrentQuestion = 1
	session.TimerStartedAt = &startedAt

	s.invalidateState(roomCode)
	s.notify(roomCode, websocket.EventRoundStarted, map[string]interface{}{
		"question_index":    1,
		"remaining_seconds": s.timer.Remaining(session),
	})

	log.Printf("[GameService] Комната %s: игра началась", roomCode)
	return session, nil
}

// Advance переводит игру к следующему вопросу: revealing → answering,
// либо revealing → finished, когда банк исчерпан. Указатель вопроса
// только растет и никогда не выходит за пределы банка.
// Возвращает gameOver=true при завершении игры.
func (s *GameService) Advance(ctx context.Context, roomCode string) (*entity.Session, bool, error) {
	session, err := s.deps.SessionRepo.GetByRoomCode(roomCode)
	if err != nil {
		return nil, false, err
	}

	if !session.IsRevealing() {
		return nil, false, fmt.Errorf("%w: advance requires revealing, session is %s", apperrors.ErrInvalidTransition, session.Status)
	}

	totalQuestions := s.deps.Bank.Len(session.QuestionSetID)

	if session.CurrentQuestion+1 > totalQuestions {
		// Вопросы закончились: указатель остается на последнем вопросе
		err = s.deps.SessionRepo.UpdateStatusCAS(session.ID, entity.SessionStatusRevealing, entity.SessionStatusFinished, nil)
		if err != nil {
			if errors.Is(err, repository.ErrSessionStatusChanged) {
				return s.recoverTransition(roomCode, entity.SessionStatusFinished)
			}
			return nil, false, err
		}

		session.Status = entity.SessionStatusFinished
		s.invalidateState(roomCode)

		// Финальное событие несет итоговую таблицу: игроки уже отсортированы
		// репозиторием по очкам и времени входа
		finished := map[string]interface{}{
			"total_questions": totalQuestions,
		}
		if players, listErr := s.deps.PlayerRepo.ListBySession(session.ID); listErr == nil {
			finished["leaderboard"] = players
		} else {
			log.Printf("[GameService] Не удалось собрать итоговую таблицу комнаты %s: %v", roomCode, listErr)
		}
		s.notify(roomCode, websocket.EventGameFinished, finished)

		log.Printf("[GameService] Комната %s: игра завершена", roomCode)
		return session, true, nil
	}

	nextQuestion := session.CurrentQuestion + 1
	startedAt := s.timer.ArmInstant()
	err = s.deps.SessionRepo.UpdateStatusCAS(session.ID, entity.SessionStatusRevealing, entity.SessionStatusAnswering,
		map[string]interface{}{
			"current_question": nextQuestion,
			"timer_started_at": startedAt,
		})
	if err != nil {
		if errors.Is(err, repository.ErrSessionStatusChanged) {
			return s.recoverTransition(roomCode, entity.SessionStatusAnswering)
		}
		return nil, false, err
	}

	session.Status = entity.SessionStatusAnswering
	session.CurrentQuestion = nextQuestion
	session.TimerStartedAt = &startedAt

	s.invalidateState(roomCode)
	s.notify(roomCode, websocket.EventRoundStarted, map[string]interface{}{
		"question_index":    nextQuestion,
		"remaining_seconds": s.timer.Remaining(session),
	})

	log.Printf("[GameService] Комната %s: вопрос %d из %d", roomCode, nextQuestion, totalQuestions)
	return session, false, nil
}

// ForceReveal закрывает раунд по таймауту: записывает timeout-ответы всем
// не ответившим и переводит answering → revealing. Безопасен при параллельном
// вызове с поздними ответами игроков (гонку разрешает журнал) и при повторном
// вызове (sweep идемпотентен, повторный переход трактуется как выполненный).
func (s *GameService) ForceReveal(ctx context.Context, roomCode string) (*entity.Session, error) {
	session, err := s.deps.SessionRepo.GetByRoomCode(roomCode)
	if err != nil {
		return nil, err
	}

	if session.IsRevealing() {
		// Другой наблюдатель уже закрыл раунд
		return session, nil
	}
	if !session.IsAnswering() {
		return nil, fmt.Errorf("%w: forceReveal requires answering, session is %s", apperrors.ErrInvalidTransition, session.Status)
	}

	// Короткий замок отсекает дублирующий sweep при одновременных вызовах.
	// Это только экономия работы: корректность дает уникальный индекс журнала.
	lockKey := fmt.Sprintf("room:%s:sweep:%d", roomCode, session.CurrentQuestion)
	acquired, lockErr := s.deps.CacheRepo.SetNX(lockKey, "1", s.config.SweepLockTTL)
	if lockErr != nil {
		log.Printf("[GameService] Redis недоступен для sweep-замка комнаты %s: %v (продолжаем без замка)", roomCode, lockErr)
		acquired = true
	}

	if acquired {
		if _, sweepErr := s.answers.SweepTimeouts(ctx, session); sweepErr != nil {
			// Частичный сбой sweep не должен оставить сессию навсегда в answering:
			// переход к revealing выполняется в любом случае
			log.Printf("[GameService] Sweep комнаты %s завершился с ошибкой: %v (переход продолжается)", roomCode, sweepErr)
		}
	} else {
		log.Printf("[GameService] Sweep комнаты %s уже выполняется другим наблюдателем", roomCode)
	}

	err = s.deps.SessionRepo.UpdateStatusCAS(session.ID, entity.SessionStatusAnswering, entity.SessionStatusRevealing, nil)
	if err != nil {
		if errors.Is(err, repository.ErrSessionStatusChanged) {
			recovered, _, recErr := s.recoverTransition(roomCode, entity.SessionStatusRevealing)
			return recovered, recErr
		}
		return nil, err
	}

	session.Status = entity.SessionStatusRevealing
	s.invalidateState(roomCode)
	s.notifyReveal(roomCode, session)

	log.Printf("[GameService] Комната %s: вопрос %d закрыт, фаза revealing", roomCode, session.CurrentQuestion)
	return session, nil
}

// Reset полностью реинициализирует комнату: удаляет ответы, обнуляет очки,
// возвращает сессию в waiting с первым вопросом. Допустим из любого статуса.
func (s *GameService) Reset(ctx context.Context, roomCode string) (*entity.Session, error) {
	session, err := s.deps.SessionRepo.GetByRoomCode(roomCode)
	if err != nil {
		return nil, err
	}

	if err := s.deps.ResponseRepo.DeleteBySession(session.ID); err != nil {
		return nil, fmt.Errorf("reset: failed to delete responses: %w", err)
	}
	if err := s.deps.PlayerRepo.ResetScores(session.ID); err != nil {
		return nil, fmt.Errorf("reset: failed to reset scores: %w", err)
	}
	if err := s.deps.SessionRepo.ResetState(session.ID); err != nil {
		return nil, fmt.Errorf("reset: failed to reset session: %w", err)
	}

	session.Status = entity.SessionStatusWaiting
	session.CurrentQuestion = 1
	session.TimerStartedAt = nil

	s.invalidateState(roomCode)
	s.notify(roomCode, websocket.EventRoomReset, nil)

	log.Printf("[GameService] Комната %s: сброшена к началу", roomCode)
	return session, nil
}

// FastForward сокращает остаток текущего раунда до remainingSec для всех
// наблюдателей. Обычная операция, вызываемая тем, кто обнаружил "все ответили"
// (ведущим или самим сервисом после последнего ответа).
func (s *GameService) FastForward(ctx context.Context, roomCode string, remainingSec int) (*entity.Session, error) {
	session, err := s.deps.SessionRepo.GetByRoomCode(roomCode)
	if err != nil {
		return nil, err
	}

	if !session.IsAnswering() {
		return nil, fmt.Errorf("%w: fast-forward requires answering, session is %s", apperrors.ErrInvalidTransition, session.Status)
	}

	if remainingSec < 0 {
		remainingSec = s.config.FastForwardRemainingSec
	}

	if err := s.timer.FastForward(session, remainingSec); err != nil {
		if errors.Is(err, repository.ErrSessionStatusChanged) {
			// Раунд закрылся, пока мы решали перемотать — уже не актуально
			return session, nil
		}
		return nil, err
	}

	s.invalidateState(roomCode)
	s.notify(roomCode, websocket.EventTimerFastForward, map[string]interface{}{
		"remaining_seconds": s.timer.Remaining(session),
	})

	return session, nil
}

// SubmitAnswer — валидационные ворота журнала ответов. Поздний сабмит после
// закрытия раунда отклоняется здесь или уникальным индексом журнала; сам
// таймер не проверяется — исход гонки с sweep'ом определяет журнал.
func (s *GameService) SubmitAnswer(ctx context.Context, playerID string, questionIndex, selectedOption int) (*gameroom.AnswerResult, error) {
	player, err := s.deps.PlayerRepo.GetByID(playerID)
	if err != nil {
		return nil, err
	}

	session, err := s.deps.SessionRepo.GetByID(player.SessionID)
	if err != nil {
		return nil, err
	}

	totalQuestions := s.deps.Bank.Len(session.QuestionSetID)
	if questionIndex < 1 || questionIndex > totalQuestions {
		return nil, fmt.Errorf("%w: question %d of %d", apperrors.ErrQuestionIndexOutOfRange, questionIndex, totalQuestions)
	}

	// Раунд должен быть открыт именно для этого вопроса. Ответ на прошедший
	// вопрос (в т.ч. от игрока, вошедшего позже) и ответ после reveal
	// отклоняются как опоздавшие.
	if !session.IsAnswering() || questionIndex != session.CurrentQuestion {
		return nil, fmt.Errorf("%w: question %d is not open for answers", apperrors.ErrTimeExpired, questionIndex)
	}

	result, err := s.answers.ProcessAnswer(ctx, session, player, questionIndex, selectedOption)
	if err != nil {
		return nil, err
	}

	s.invalidateState(session.RoomCode)

	stats, statsErr := s.answers.AnswerStats(ctx, session)
	if statsErr != nil {
		log.Printf("[GameService] Не удалось получить статистику ответов комнаты %s: %v", session.RoomCode, statsErr)
		return result, nil
	}

	s.notify(session.RoomCode, websocket.EventAnswerSubmitted, stats)

	// Все ответили — ждать остаток раунда незачем, перематываем таймер.
	// Явный вызов обычной операции, а не глобальный хук.
	if stats.AllAnswered {
		if _, ffErr := s.FastForward(ctx, session.RoomCode, s.config.FastForwardRemainingSec); ffErr != nil {
			log.Printf("[GameService] Авто fast-forward комнаты %s не выполнен: %v", session.RoomCode, ffErr)
		}
	}

	return result, nil
}

// GetState возвращает снапшот состояния комнаты. Снапшот кешируется с коротким
// TTL: при активном поллинге десятков клиентов БД читается раз в TTL, а не
// на каждый запрос. Любая мутация инвалидирует кеш.
func (s *GameService) GetState(ctx context.Context, roomCode string) (*RoomState, error) {
	cacheKey := stateCacheKey(roomCode)

	var cached RoomState
	if err := s.deps.CacheRepo.GetJSON(cacheKey, &cached); err == nil {
		// Остаток таймера пересчитываем на момент чтения
		if cached.Session != nil {
			cached.RemainingSeconds = s.timer.Remaining(cached.Session)
		}
		return &cached, nil
	}

	session, err := s.deps.SessionRepo.GetByRoomCode(roomCode)
	if err != nil {
		return nil, err
	}

	players, err := s.deps.PlayerRepo.ListBySession(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	state := &RoomState{
		Session:          session,
		Players:          players,
		RemainingSeconds: s.timer.Remaining(session),
		TotalPlayers:     len(players),
		TotalQuestions:   s.deps.Bank.Len(session.QuestionSetID),
	}

	if !session.IsWaiting() {
		question, qErr := s.deps.Bank.Question(session.QuestionSetID, session.CurrentQuestion)
		if qErr != nil {
			return nil, qErr
		}
		state.CurrentQuestion = question

		// Правильный ответ раскрывается только после закрытия раунда
		if session.IsRevealing() || session.IsFinished() {
			correct := question.CorrectOption
			state.CorrectOption = &correct
			state.Explanation = question.Explanation
		}
	}

	if err := s.deps.CacheRepo.SetJSON(cacheKey, state, s.config.StateCacheTTL); err != nil {
		log.Printf("[GameService] Не удалось закешировать состояние комнаты %s: %v", roomCode, err)
	}

	return state, nil
}

// Stats возвращает сводку по ответам на текущий вопрос
func (s *GameService) Stats(ctx context.Context, roomCode string) (*gameroom.AnswerStats, error) {
	session, err := s.deps.SessionRepo.GetByRoomCode(roomCode)
	if err != nil {
		return nil, err
	}
	return s.answers.AnswerStats(ctx, session)
}

// recoverTransition обрабатывает проигранный CAS: если сессия уже в ожидаемом
// статусе, переход выполнил другой наблюдатель — трактуем как no-op.
func (s *GameService) recoverTransition(roomCode, expectedStatus string) (*entity.Session, bool, error) {
	session, err := s.deps.SessionRepo.GetByRoomCode(roomCode)
	if err != nil {
		return nil, false, err
	}
	if session.Status == expectedStatus {
		log.Printf("[GameService] Комната %s: переход в %s уже выполнен другим наблюдателем", roomCode, expectedStatus)
		return session, expectedStatus == entity.SessionStatusFinished, nil
	}
	return nil, false, fmt.Errorf("%w: session is %s", apperrors.ErrStoreConflict, session.Status)
}

// notifyReveal отправляет событие reveal с правильным ответом и пояснением
func (s *GameService) notifyReveal(roomCode string, session *entity.Session) {
	data := map[string]interface{}{
		"question_index": session.CurrentQuestion,
	}
	if question, err := s.deps.Bank.Question(session.QuestionSetID, session.CurrentQuestion); err == nil {
		data["correct_option"] = question.CorrectOption
		data["explanation"] = question.Explanation
	}
	s.notify(roomCode, websocket.EventRoundRevealed, data)
}

// nextQuestionSet выбирает набор вопросов для новой комнаты по round-robin
// счетчику в Redis. При недоступном Redis — первый набор (fail-open).
func (s *GameService) nextQuestionSet() string {
	setIDs := s.deps.Bank.SetIDs()
	if len(setIDs) == 1 {
		return setIDs[0]
	}

	n, err := s.deps.CacheRepo.Increment(setRotationKey)
	if err != nil {
		log.Printf("[GameService] Redis недоступен для ротации наборов: %v (используется %s)", err, setIDs[0])
		return setIDs[0]
	}
	return setIDs[int((n-1)%int64(len(setIDs)))]
}

func (s *GameService) invalidateState(roomCode string) {
	if err := s.deps.CacheRepo.Delete(stateCacheKey(roomCode)); err != nil {
		log.Printf("[GameService] Не удалось инвалидировать кеш комнаты %s: %v", roomCode, err)
	}
}

func (s *GameService) notify(roomCode, eventType string, data interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyRoom(roomCode, eventType, data)
}

func stateCacheKey(roomCode string) string {
	return fmt.Sprintf("room:%s:state", roomCode)
}

// generateRoomCode генерирует случайный код комнаты из безопасного алфавита
func generateRoomCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, roomCodeLength)
	for i, b := range buf {
		code[i] = roomCodeCharset[int(b)%len(roomCodeCharset)]
	}
	return string(code), nil
}
