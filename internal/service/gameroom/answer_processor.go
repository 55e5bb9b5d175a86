package gameroom

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
)

// AnswerProcessor — журнал ответов: записывает ровно один Response на пару
// (игрок, вопрос), начисляет очки и закрывает раунд timeout-ответами.
// Гонку "игрок ответил на 44.9с / sweep сработал на 45.0с" разрешает
// уникальный индекс БД: чья запись первой дошла до журнала, та и остается.
type AnswerProcessor struct {
	config *Config
	deps   *Dependencies
}

// NewAnswerProcessor создает новый процессор ответов
func NewAnswerProcessor(config *Config, deps *Dependencies) *AnswerProcessor {
	return &AnswerProcessor{config: config, deps: deps}
}

// ProcessAnswer обрабатывает ответ игрока на вопрос questionIndex.
// Порядок проверок фиксирован:
//  1. существующий настоящий ответ → ErrAlreadyAnswered
//  2. существующий timeout-ответ → ErrTimeExpired
//  3. вставка (дубликат при гонке → перечитать и вернуть 1/2)
//  4. атомарное начисление очков при верном ответе
func (ap *AnswerProcessor) ProcessAnswer(
	ctx context.Context,
	session *entity.Session,
	player *entity.Player,
	questionIndex int,
	selectedOption int,
) (*AnswerResult, error) {
	question, err := ap.deps.Bank.Question(session.QuestionSetID, questionIndex)
	if err != nil {
		return nil, err
	}

	if !question.IsValidOption(selectedOption) {
		return nil, fmt.Errorf("%w: option %d is not in [0, %d)",
			apperrors.ErrValidation, selectedOption, question.OptionsCount())
	}

	// Предварительная проверка существующего ответа: дает точный код ошибки
	// без обращения к уникальному индексу. Гонку всё равно закрывает индекс.
	existing, err := ap.deps.ResponseRepo.GetByPlayerAndQuestion(player.ID, questionIndex)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing response: %w", err)
	}
	if existing != nil {
		return nil, ap.rejectExisting(existing, player.ID, questionIndex)
	}

	isCorrect := question.IsCorrect(selectedOption)
	points := question.Points(isCorrect)

	response := &entity.Response{
		SessionID:      session.ID,
		PlayerID:       player.ID,
		QuestionIndex:  questionIndex,
		SelectedOption: selectedOption,
		IsCorrect:      isCorrect,
	}

	if err := ap.deps.ResponseRepo.Create(response); err != nil {
		if errors.Is(err, repository.ErrDuplicateResponse) {
			// Проиграли гонку второму сабмиту или sweep'у: перечитываем,
			// чтобы отличить AlreadyAnswered от TimeExpired
			winner, readErr := ap.deps.ResponseRepo.GetByPlayerAndQuestion(player.ID, questionIndex)
			if readErr != nil {
				log.Printf("[AnswerProcessor] Не удалось перечитать ответ игрока %s на вопрос %d после дубликата: %v",
					player.ID, questionIndex, readErr)
				return nil, apperrors.ErrAlreadyAnswered
			}
			return nil, ap.rejectExisting(winner, player.ID, questionIndex)
		}
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	if isCorrect {
		if err := ap.deps.PlayerRepo.IncrementScore(player.ID, points); err != nil {
			// Ответ уже в журнале; потерянное начисление — инцидент, а не повод
			// дать игроку ответить второй раз
			log.Printf("[AnswerProcessor] CRITICAL: ответ игрока %s записан, но очки не начислены: %v", player.ID, err)
			return nil, fmt.Errorf("failed to increment score: %w", err)
		}
	}

	log.Printf("[AnswerProcessor] Игрок %s ответил на вопрос %d (сессия #%d): correct=%t, +%d очков",
		player.ID, questionIndex, session.ID, isCorrect, points)

	return &AnswerResult{
		IsCorrect:     isCorrect,
		PointsEarned:  points,
		CorrectOption: question.CorrectOption,
	}, nil
}

// rejectExisting транслирует существующую запись журнала в ошибку для игрока
func (ap *AnswerProcessor) rejectExisting(existing *entity.Response, playerID string, questionIndex int) error {
	if existing.IsTimeout() {
		log.Printf("[AnswerProcessor] Игрок %s отвечает на вопрос %d после таймаута", playerID, questionIndex)
		return apperrors.ErrTimeExpired
	}
	log.Printf("[AnswerProcessor] Игрок %s уже отвечал на вопрос %d", playerID, questionIndex)
	return apperrors.ErrAlreadyAnswered
}

// SweepTimeouts вставляет timeout-ответы всем игрокам сессии, не ответившим
// на текущий вопрос. Идемпотентен: дубликат (игрок успел ответить между
// чтением и вставкой) молча пропускается — игрок выиграл гонку.
// Возвращает количество вставленных timeout-ответов; частичные сбои
// отдельных вставок логируются, но не прерывают обход, чтобы вызывающий
// код в любом случае попытался перевести сессию в revealing.
func (ap *AnswerProcessor) SweepTimeouts(ctx context.Context, session *entity.Session) (int, error) {
	players, err := ap.deps.PlayerRepo.ListBySession(session.ID)
	if err != nil {
		return 0, fmt.Errorf("sweep: failed to list players: %w", err)
	}
	if len(players) == 0 {
		return 0, nil
	}

	responses, err := ap.deps.ResponseRepo.ListBySessionAndQuestion(session.ID, session.CurrentQuestion)
	if err != nil {
		return 0, fmt.Errorf("sweep: failed to list responses: %w", err)
	}

	answered := make(map[string]bool, len(responses))
	for _, resp := range responses {
		answered[resp.PlayerID] = true
	}

	inserted := 0
	var firstErr error
	for _, player := range players {
		if answered[player.ID] {
			continue
		}

		timeout := entity.NewTimeoutResponse(session.ID, player.ID, session.CurrentQuestion)
		if err := ap.deps.ResponseRepo.Create(timeout); err != nil {
			if errors.Is(err, repository.ErrDuplicateResponse) {
				// Игрок ответил в зазоре между чтением и вставкой — пропускаем
				log.Printf("[AnswerProcessor] Sweep: игрок %s успел ответить на вопрос %d, пропуск",
					player.ID, session.CurrentQuestion)
				continue
			}
			log.Printf("[AnswerProcessor] Sweep: не удалось записать timeout для игрока %s: %v", player.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		inserted++
	}

	log.Printf("[AnswerProcessor] Sweep сессии #%d, вопрос %d: %d игроков не ответили вовремя",
		session.ID, session.CurrentQuestion, inserted)
	return inserted, firstErr
}

// AnswerStats возвращает сводку "сколько ответили" по текущему вопросу
func (ap *AnswerProcessor) AnswerStats(ctx context.Context, session *entity.Session) (*AnswerStats, error) {
	total, err := ap.deps.PlayerRepo.CountBySession(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}

	answered, err := ap.deps.ResponseRepo.CountBySessionAndQuestion(session.ID, session.CurrentQuestion)
	if err != nil {
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}

	return &AnswerStats{
		TotalPlayers:    total,
		PlayersAnswered: answered,
		AllAnswered:     total > 0 && answered >= total,
	}, nil
}
