package gameroom

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// RoundTimer — координатор таймера раунда. Единственное состояние таймера —
// timer_started_at на строке сессии: любой наблюдатель в любой момент
// вычисляет остаток по одной и той же формуле, поэтому переподключение
// или обновление страницы не теряет позицию таймера. Никакого фонового
// тикающего процесса нет — истечение обнаруживает тот, кто следующим
// вызовет Remaining.
type RoundTimer struct {
	config *Config
	deps   *Dependencies
}

// NewRoundTimer создает новый координатор таймера
func NewRoundTimer(config *Config, deps *Dependencies) *RoundTimer {
	return &RoundTimer{config: config, deps: deps}
}

// Duration возвращает длительность раунда для сессии
func (t *RoundTimer) Duration(session *entity.Session) time.Duration {
	durationSec := session.TimerDurationSec
	if durationSec <= 0 {
		durationSec = t.config.RoundDurationSec
	}
	return time.Duration(durationSec) * time.Second
}

// ArmInstant возвращает момент запуска нового раунда (UTC).
// Сам момент записывает вызывающий код одним CAS-обновлением вместе
// со сменой статуса, чтобы таймер и статус менялись атомарно.
func (t *RoundTimer) ArmInstant() time.Time {
	return t.deps.Clock.Now().UTC()
}

// Remaining вычисляет остаток раунда в секундах: max(0, duration - (now - startedAt)).
// Для сессии без запущенного таймера возвращает 0.
func (t *RoundTimer) Remaining(session *entity.Session) int {
	if session.TimerStartedAt == nil {
		return 0
	}
	elapsed := t.deps.Clock.Now().UTC().Sub(session.TimerStartedAt.UTC())
	remaining := t.Duration(session) - elapsed
	if remaining < 0 {
		return 0
	}
	// Округляем вверх: клиент, прочитавший "1", еще успевает ответить
	return int((remaining + time.Second - 1) / time.Second)
}

// IsExpired сообщает, истек ли таймер раунда
func (t *RoundTimer) IsExpired(session *entity.Session) bool {
	if session.TimerStartedAt == nil {
		return false
	}
	return t.Remaining(session) <= 0
}

// FastForward переписывает timer_started_at назад так, чтобы на следующем
// чтении у всех наблюдателей осталось remainingSec секунд. Длительность
// раунда не меняется. Используется, когда ждать остаток раунда незачем —
// все игроки уже ответили.
func (t *RoundTimer) FastForward(session *entity.Session, remainingSec int) error {
	duration := t.Duration(session)
	if remainingSec < 0 {
		remainingSec = 0
	}
	if time.Duration(remainingSec)*time.Second > duration {
		return fmt.Errorf("fast-forward target %ds exceeds round duration %s", remainingSec, duration)
	}

	// Если осталось меньше, чем цель fast-forward, не отматываем таймер вперед
	if t.Remaining(session) <= remainingSec {
		log.Printf("[RoundTimer] Сессия #%d: остаток уже <= %dс, fast-forward не требуется", session.ID, remainingSec)
		return nil
	}

	newStart := t.deps.Clock.Now().UTC().Add(-(duration - time.Duration(remainingSec)*time.Second))
	if err := t.deps.SessionRepo.UpdateTimerStart(session.ID, newStart); err != nil {
		return err
	}

	session.TimerStartedAt = &newStart
	log.Printf("[RoundTimer] Сессия #%d: таймер перемотан, осталось %dс", session.ID, remainingSec)
	return nil
}
