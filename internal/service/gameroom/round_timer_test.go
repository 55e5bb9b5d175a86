package gameroom

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// newTimerFixture собирает RoundTimer с фейковыми часами и моком сессий
func newTimerFixture(t *testing.T) (*RoundTimer, *clockwork.FakeClock, *MockSessionRepo) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	sessionRepo := new(MockSessionRepo)
	deps := &Dependencies{
		SessionRepo: sessionRepo,
		Clock:       clock,
	}
	return NewRoundTimer(DefaultConfig(), deps), clock, sessionRepo
}

func answeringSession(startedAt time.Time, durationSec int) *entity.Session {
	return &entity.Session{
		ID:               1,
		RoomCode:         "ABC234",
		Status:           entity.SessionStatusAnswering,
		CurrentQuestion:  1,
		TimerStartedAt:   &startedAt,
		TimerDurationSec: durationSec,
	}
}

func TestRoundTimer_Remaining_NoTimer(t *testing.T) {
	timer, _, _ := newTimerFixture(t)

	session := &entity.Session{Status: entity.SessionStatusWaiting}

	assert.Equal(t, 0, timer.Remaining(session), "Без запущенного таймера остаток равен 0")
	assert.False(t, timer.IsExpired(session), "Незапущенный таймер не считается истекшим")
}

func TestRoundTimer_Remaining_FullAtStart(t *testing.T) {
	timer, clock, _ := newTimerFixture(t)

	session := answeringSession(clock.Now().UTC(), 45)

	assert.Equal(t, 45, timer.Remaining(session))
}

func TestRoundTimer_Remaining_Decreases(t *testing.T) {
	timer, clock, _ := newTimerFixture(t)

	session := answeringSession(clock.Now().UTC(), 45)
	clock.Advance(10 * time.Second)

	assert.Equal(t, 35, timer.Remaining(session))
}

func TestRoundTimer_Remaining_CeilsPartialSecond(t *testing.T) {
	timer, clock, _ := newTimerFixture(t)

	session := answeringSession(clock.Now().UTC(), 45)
	clock.Advance(44*time.Second + 500*time.Millisecond)

	// 0.5с остатка округляются вверх: клиент еще успевает ответить
	assert.Equal(t, 1, timer.Remaining(session))
	assert.False(t, timer.IsExpired(session))
}

func TestRoundTimer_Remaining_FloorsAtZero(t *testing.T) {
	timer, clock, _ := newTimerFixture(t)

	session := answeringSession(clock.Now().UTC(), 45)
	clock.Advance(2 * time.Minute)

	// Остаток никогда не уходит в минус, сколько бы времени ни прошло
	assert.Equal(t, 0, timer.Remaining(session))
	assert.True(t, timer.IsExpired(session))
}

func TestRoundTimer_Duration_FallsBackToConfig(t *testing.T) {
	timer, _, _ := newTimerFixture(t)

	session := &entity.Session{TimerDurationSec: 0}

	assert.Equal(t, 45*time.Second, timer.Duration(session))
}

func TestRoundTimer_FastForward_RewritesStartInstant(t *testing.T) {
	timer, clock, sessionRepo := newTimerFixture(t)

	session := answeringSession(clock.Now().UTC(), 45)
	clock.Advance(20 * time.Second) // осталось 25с

	// Новый момент старта: now - (45 - 5) = now - 40с
	expectedStart := clock.Now().UTC().Add(-40 * time.Second)
	sessionRepo.On("UpdateTimerStart", uint(1), expectedStart).Return(nil)

	err := timer.FastForward(session, 5)
	require.NoError(t, err)

	// Для всех наблюдателей остаток теперь 5с
	assert.Equal(t, 5, timer.Remaining(session))
	sessionRepo.AssertExpectations(t)
}

func TestRoundTimer_FastForward_NoOpWhenAlreadyBelowTarget(t *testing.T) {
	timer, clock, sessionRepo := newTimerFixture(t)

	session := answeringSession(clock.Now().UTC(), 45)
	clock.Advance(42 * time.Second) // осталось 3с

	// Перемотка к 5с не должна отматывать таймер назад (вперед по времени)
	err := timer.FastForward(session, 5)
	require.NoError(t, err)

	assert.Equal(t, 3, timer.Remaining(session))
	sessionRepo.AssertNotCalled(t, "UpdateTimerStart")
}

func TestRoundTimer_FastForward_TargetExceedsDuration(t *testing.T) {
	timer, clock, _ := newTimerFixture(t)

	session := answeringSession(clock.Now().UTC(), 45)

	err := timer.FastForward(session, 60)
	assert.Error(t, err)
}

func TestRoundTimer_FastForward_PropagatesRepoError(t *testing.T) {
	timer, clock, sessionRepo := newTimerFixture(t)

	session := answeringSession(clock.Now().UTC(), 45)
	clock.Advance(10 * time.Second)

	sessionRepo.On("UpdateTimerStart", uint(1), mock.AnythingOfType("time.Time")).
		Return(assert.AnError)

	err := timer.FastForward(session, 5)
	assert.Error(t, err)
}
