package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quizroom-api/internal/domain/entity"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizroom-api/internal/pkg/errors"
	"github.com/yourusername/quizroom-api/internal/service/gameroom"
	"github.com/yourusername/quizroom-api/internal/websocket"
)

// ============================================================================
// Моки для GameService
// ============================================================================

// MockSessionRepo реализует repository.SessionRepository
type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Create(session *entity.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockSessionRepo) GetByRoomCode(roomCode string) (*entity.Session, error) {
	args := m.Called(roomCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockSessionRepo) GetByID(id uint) (*entity.Session, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockSessionRepo) UpdateStatusCAS(sessionID uint, fromStatus, toStatus string, updates map[string]interface{}) error {
	args := m.Called(sessionID, fromStatus, toStatus, updates)
	return args.Error(0)
}

func (m *MockSessionRepo) UpdateTimerStart(sessionID uint, startedAt time.Time) error {
	args := m.Called(sessionID, startedAt)
	return args.Error(0)
}

func (m *MockSessionRepo) ResetState(sessionID uint) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *MockSessionRepo) IsDuplicateRoomCode(err error) bool {
	args := m.Called(err)
	return args.Bool(0)
}

// MockPlayerRepo реализует repository.PlayerRepository
type MockPlayerRepo struct {
	mock.Mock
}

func (m *MockPlayerRepo) Create(player *entity.Player) error {
	args := m.Called(player)
	return args.Error(0)
}

func (m *MockPlayerRepo) GetByID(id string) (*entity.Player, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Player), args.Error(1)
}

func (m *MockPlayerRepo) ListBySession(sessionID uint) ([]entity.Player, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Player), args.Error(1)
}

func (m *MockPlayerRepo) CountBySession(sessionID uint) (int64, error) {
	args := m.Called(sessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlayerRepo) IncrementScore(playerID string, delta int) error {
	args := m.Called(playerID, delta)
	return args.Error(0)
}

func (m *MockPlayerRepo) ResetScores(sessionID uint) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

// MockResponseRepo реализует repository.ResponseRepository
type MockResponseRepo struct {
	mock.Mock
}

func (m *MockResponseRepo) Create(response *entity.Response) error {
	args := m.Called(response)
	return args.Error(0)
}

func (m *MockResponseRepo) GetByPlayerAndQuestion(playerID string, questionIndex int) (*entity.Response, error) {
	args := m.Called(playerID, questionIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Response), args.Error(1)
}

func (m *MockResponseRepo) ListBySessionAndQuestion(sessionID uint, questionIndex int) ([]entity.Response, error) {
	args := m.Called(sessionID, questionIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Response), args.Error(1)
}

func (m *MockResponseRepo) CountBySessionAndQuestion(sessionID uint, questionIndex int) (int64, error) {
	args := m.Called(sessionID, questionIndex)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResponseRepo) DeleteBySession(sessionID uint) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

// MockQuestionBank реализует repository.QuestionBank
type MockQuestionBank struct {
	mock.Mock
}

func (m *MockQuestionBank) SetIDs() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockQuestionBank) Question(setID string, index int) (*entity.Question, error) {
	args := m.Called(setID, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionBank) Len(setID string) int {
	args := m.Called(setID)
	return args.Int(0)
}

func (m *MockQuestionBank) Set(setID string) ([]entity.Question, error) {
	args := m.Called(setID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

// MockCacheRepo реализует repository.CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepo) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepo) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepo) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

// MockNotifier реализует Notifier и записывает отправленные события
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRoom(roomCode string, eventType string, data interface{}) {
	m.Called(roomCode, eventType, data)
}

// ============================================================================
// Фикстура
// ============================================================================

type gameFixture struct {
	service      *GameService
	sessionRepo  *MockSessionRepo
	playerRepo   *MockPlayerRepo
	responseRepo *MockResponseRepo
	bank         *MockQuestionBank
	cacheRepo    *MockCacheRepo
	notifier     *MockNotifier
	clock        *clockwork.FakeClock
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()
	f := &gameFixture{
		sessionRepo:  new(MockSessionRepo),
		playerRepo:   new(MockPlayerRepo),
		responseRepo: new(MockResponseRepo),
		bank:         new(MockQuestionBank),
		cacheRepo:    new(MockCacheRepo),
		notifier:     new(MockNotifier),
		clock:        clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	}
	deps := &gameroom.Dependencies{
		SessionRepo:  f.sessionRepo,
		PlayerRepo:   f.playerRepo,
		ResponseRepo: f.responseRepo,
		Bank:         f.bank,
		CacheRepo:    f.cacheRepo,
		Clock:        f.clock,
	}
	f.service = NewGameService(gameroom.DefaultConfig(), deps, f.notifier)
	return f
}

func (f *gameFixture) waitingSession() *entity.Session {
	return &entity.Session{
		ID:               1,
		RoomCode:         "ABC234",
		Status:           entity.SessionStatusWaiting,
		CurrentQuestion:  1,
		QuestionSetID:    "set-a",
		TimerDurationSec: 45,
	}
}

func (f *gameFixture) answeringSession(question int) *entity.Session {
	startedAt := f.clock.Now().UTC()
	return &entity.Session{
		ID:               1,
		RoomCode:         "ABC234",
		Status:           entity.SessionStatusAnswering,
		CurrentQuestion:  question,
		QuestionSetID:    "set-a",
		TimerStartedAt:   &startedAt,
		TimerDurationSec: 45,
	}
}

func (f *gameFixture) revealingSession(question int) *entity.Session {
	s := f.answeringSession(question)
	s.Status = entity.SessionStatusRevealing
	return s
}

// allowCacheNoise разрешает фоновые операции с кешем, не проверяемые тестом
func (f *gameFixture) allowCacheNoise() {
	f.cacheRepo.On("Delete", mock.AnythingOfType("string")).Return(nil).Maybe()
}

// allowNotifications разрешает любые события без проверки
func (f *gameFixture) allowNotifications() {
	f.notifier.On("NotifyRoom", mock.Anything, mock.Anything, mock.Anything).Maybe()
}

// ============================================================================
// Start
// ============================================================================

func TestGameService_Start_FromWaiting(t *testing.T) {
	f := newGameFixture(t)
	f.allowCacheNoise()

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.waitingSession(), nil)
	f.sessionRepo.On("UpdateStatusCAS", uint(1), entity.SessionStatusWaiting, entity.SessionStatusAnswering, mock.Anything).
		Return(nil)
	f.notifier.On("NotifyRoom", "ABC234", websocket.EventRoundStarted, mock.Anything)

	session, err := f.service.Start(context.Background(), "ABC234")

	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusAnswering, session.Status)
	assert.Equal(t, 1, session.CurrentQuestion)
	require.NotNil(t, session.TimerStartedAt)
	f.notifier.AssertExpectations(t)
}

func TestGameService_Start_RejectsNonWaiting(t *testing.T) {
	f := newGameFixture(t)

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.answeringSession(1), nil)

	_, err := f.service.Start(context.Background(), "ABC234")

	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	f.sessionRepo.AssertNotCalled(t, "UpdateStatusCAS")
}

func TestGameService_Start_ConcurrentStartLosesCAS(t *testing.T) {
	f := newGameFixture(t)

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.waitingSession(), nil)
	f.sessionRepo.On("UpdateStatusCAS", uint(1), entity.SessionStatusWaiting, entity.SessionStatusAnswering, mock.Anything).
		Return(repository.ErrSessionStatusChanged)

	_, err := f.service.Start(context.Background(), "ABC234")

	assert.ErrorIs(t, err, apperrors.ErrStoreConflict)
}

// ============================================================================
// Advance
// ============================================================================

func TestGameService_Advance_ToNextQuestion(t *testing.T) {
	f := newGameFixture(t)
	f.allowCacheNoise()
	f.allowNotifications()

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.revealingSession(2), nil)
	f.bank.On("Len", "set-a").Return(5)
	f.sessionRepo.On("UpdateStatusCAS", uint(1), entity.SessionStatusRevealing, entity.SessionStatusAnswering,
		mock.MatchedBy(func(updates map[string]interface{}) bool {
			return updates["current_question"] == 3
		})).Return(nil)

	session, gameOver, err := f.service.Advance(context.Background(), "ABC234")

	require.NoError(t, err)
	assert.False(t, gameOver)
	assert.Equal(t, 3, session.CurrentQuestion)
	assert.Equal(t, entity.SessionStatusAnswering, session.Status)
}

func TestGameService_Advance_FinishesAfterLastQuestion(t *testing.T) {
	f := newGameFixture(t)
	f.allowCacheNoise()

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.revealingSession(5), nil)
	f.bank.On("Len", "set-a").Return(5)
	f.sessionRepo.On("UpdateStatusCAS", uint(1), entity.SessionStatusRevealing, entity.SessionStatusFinished, mock.Anything).
		Return(nil)
	f.playerRepo.On("ListBySession", uint(1)).Return([]entity.Player{
		{ID: "p1", Name: "Alice", Score: 20},
		{ID: "p2", Name: "Bob", Score: 10},
	}, nil)
	f.notifier.On("NotifyRoom", "ABC234", websocket.EventGameFinished, mock.Anything)

	session, gameOver, err := f.service.Advance(context.Background(), "ABC234")

	require.NoError(t, err)
	assert.True(t, gameOver)
	assert.Equal(t, entity.SessionStatusFinished, session.Status)
	// Указатель остается на последнем вопросе, не выходя за пределы банка
	assert.Equal(t, 5, session.CurrentQuestion)
}

func TestGameService_Advance_RejectsNonRevealing(t *testing.T) {
	f := newGameFixture(t)

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.answeringSession(1), nil)

	_, _, err := f.service.Advance(context.Background(), "ABC234")

	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestGameService_Advance_RecoversLostCAS(t *testing.T) {
	// Две параллельные команды advance: проигравшая перечитывает сессию
	// и, увидев ожидаемый статус, трактует переход как уже выполненный
	f := newGameFixture(t)
	f.allowCacheNoise()
	f.allowNotifications()

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.revealingSession(2), nil).Once()
	f.bank.On("Len", "set-a").Return(5)
	f.sessionRepo.On("UpdateStatusCAS", uint(1), entity.SessionStatusRevealing, entity.SessionStatusAnswering, mock.Anything).
		Return(repository.ErrSessionStatusChanged)
	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.answeringSession(3), nil).Once()

	session, gameOver, err := f.service.Advance(context.Background(), "ABC234")

	require.NoError(t, err)
	assert.False(t, gameOver)
	assert.Equal(t, entity.SessionStatusAnswering, session.Status)
	assert.Equal(t, 3, session.CurrentQuestion)
}

// ============================================================================
// ForceReveal
// ============================================================================

func TestGameService_ForceReveal_SweepsAndTransitions(t *testing.T) {
	f := newGameFixture(t)
	f.allowCacheNoise()
	f.allowNotifications()

	session := f.answeringSession(2)
	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(session, nil)
	f.cacheRepo.On("SetNX", "room:ABC234:sweep:2", mock.Anything, mock.Anything).Return(true, nil)

	// Sweep: один игрок не ответил
	f.playerRepo.On("ListBySession", uint(1)).Return([]entity.Player{{ID: "p1", SessionID: 1}}, nil)
	f.responseRepo.On("ListBySessionAndQuestion", uint(1), 2).Return([]entity.Response{}, nil)
	f.responseRepo.On("Create", mock.MatchedBy(func(r *entity.Response) bool { return r.TimedOut })).Return(nil)

	f.sessionRepo.On("UpdateStatusCAS", uint(1), entity.SessionStatusAnswering, entity.SessionStatusRevealing, mock.Anything).
		Return(nil)
	f.bank.On("Question", "set-a", 2).Return(&entity.Question{Index: 2, CorrectOption: 1}, nil)

	result, err := f.service.ForceReveal(context.Background(), "ABC234")

	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusRevealing, result.Status)
	f.responseRepo.AssertExpectations(t)
}

func TestGameService_ForceReveal_IdempotentWhenAlreadyRevealing(t *testing.T) {
	f := newGameFixture(t)

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.revealingSession(2), nil)

	result, err := f.service.ForceReveal(context.Background(), "ABC234")

	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusRevealing, result.Status)
	f.sessionRepo.AssertNotCalled(t, "UpdateStatusCAS")
}

func TestGameService_ForceReveal_SkipsSweepWhenLockTaken(t *testing.T) {
	// Замок занят другим наблюдателем: sweep пропускается,
	// но переход к revealing все равно выполняется
	f := newGameFixture(t)
	f.allowCacheNoise()
	f.allowNotifications()

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.answeringSession(2), nil)
	f.cacheRepo.On("SetNX", "room:ABC234:sweep:2", mock.Anything, mock.Anything).Return(false, nil)
	f.sessionRepo.On("UpdateStatusCAS", uint(1), entity.SessionStatusAnswering, entity.SessionStatusRevealing, mock.Anything).
		Return(nil)
	f.bank.On("Question", "set-a", 2).Return(&entity.Question{Index: 2, CorrectOption: 0}, nil)

	_, err := f.service.ForceReveal(context.Background(), "ABC234")

	require.NoError(t, err)
	f.playerRepo.AssertNotCalled(t, "ListBySession")
}

func TestGameService_ForceReveal_SweepFailureStillTransitions(t *testing.T) {
	// Частичный сбой sweep не должен оставить комнату навсегда в answering
	f := newGameFixture(t)
	f.allowCacheNoise()
	f.allowNotifications()

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.answeringSession(2), nil)
	f.cacheRepo.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.playerRepo.On("ListBySession", uint(1)).Return(nil, assert.AnError)
	f.sessionRepo.On("UpdateStatusCAS", uint(1), entity.SessionStatusAnswering, entity.SessionStatusRevealing, mock.Anything).
		Return(nil)
	f.bank.On("Question", "set-a", 2).Return(&entity.Question{Index: 2}, nil)

	result, err := f.service.ForceReveal(context.Background(), "ABC234")

	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusRevealing, result.Status)
}

func TestGameService_ForceReveal_RejectsWaiting(t *testing.T) {
	f := newGameFixture(t)

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.waitingSession(), nil)

	_, err := f.service.ForceReveal(context.Background(), "ABC234")

	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

// ============================================================================
// SubmitAnswer
// ============================================================================

func TestGameService_SubmitAnswer_HappyPath(t *testing.T) {
	f := newGameFixture(t)
	f.allowCacheNoise()
	f.allowNotifications()

	player := &entity.Player{ID: "p1", SessionID: 1, Name: "Alice"}
	session := f.answeringSession(2)

	f.playerRepo.On("GetByID", "p1").Return(player, nil)
	f.sessionRepo.On("GetByID", uint(1)).Return(session, nil)
	f.bank.On("Len", "set-a").Return(5)
	f.bank.On("Question", "set-a", 2).Return(&entity.Question{
		Index: 2, Options: []string{"A", "B"}, CorrectOption: 1, PointValue: 10,
	}, nil)
	f.responseRepo.On("GetByPlayerAndQuestion", "p1", 2).Return(nil, apperrors.ErrNotFound)
	f.responseRepo.On("Create", mock.AnythingOfType("*entity.Response")).Return(nil)
	f.playerRepo.On("IncrementScore", "p1", 10).Return(nil)

	// Не все ответили — авто fast-forward не запускается
	f.playerRepo.On("CountBySession", uint(1)).Return(int64(3), nil)
	f.responseRepo.On("CountBySessionAndQuestion", uint(1), 2).Return(int64(1), nil)

	result, err := f.service.SubmitAnswer(context.Background(), "p1", 2, 1)

	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 10, result.PointsEarned)
	f.sessionRepo.AssertNotCalled(t, "UpdateTimerStart")
}

func TestGameService_SubmitAnswer_AutoFastForwardWhenAllAnswered(t *testing.T) {
	f := newGameFixture(t)
	f.allowCacheNoise()
	f.allowNotifications()

	player := &entity.Player{ID: "p1", SessionID: 1}
	session := f.answeringSession(2)

	f.playerRepo.On("GetByID", "p1").Return(player, nil)
	f.sessionRepo.On("GetByID", uint(1)).Return(session, nil)
	f.bank.On("Len", "set-a").Return(5)
	f.bank.On("Question", "set-a", 2).Return(&entity.Question{
		Index: 2, Options: []string{"A", "B"}, CorrectOption: 0, PointValue: 5,
	}, nil)
	f.responseRepo.On("GetByPlayerAndQuestion", "p1", 2).Return(nil, apperrors.ErrNotFound)
	f.responseRepo.On("Create", mock.AnythingOfType("*entity.Response")).Return(nil)
	f.playerRepo.On("IncrementScore", "p1", 5).Return(nil)

	// Последний игрок ответил
	f.playerRepo.On("CountBySession", uint(1)).Return(int64(2), nil)
	f.responseRepo.On("CountBySessionAndQuestion", uint(1), 2).Return(int64(2), nil)

	// Авто fast-forward перечитывает сессию и переписывает таймер
	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(session, nil)
	f.sessionRepo.On("UpdateTimerStart", uint(1), mock.AnythingOfType("time.Time")).Return(nil)

	result, err := f.service.SubmitAnswer(context.Background(), "p1", 2, 0)

	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	f.sessionRepo.AssertCalled(t, "UpdateTimerStart", uint(1), mock.AnythingOfType("time.Time"))
}

func TestGameService_SubmitAnswer_OutOfRangeIndex(t *testing.T) {
	f := newGameFixture(t)

	f.playerRepo.On("GetByID", "p1").Return(&entity.Player{ID: "p1", SessionID: 1}, nil)
	f.sessionRepo.On("GetByID", uint(1)).Return(f.answeringSession(2), nil)
	f.bank.On("Len", "set-a").Return(5)

	_, err := f.service.SubmitAnswer(context.Background(), "p1", 6, 0)

	assert.ErrorIs(t, err, apperrors.ErrQuestionIndexOutOfRange)
}

func TestGameService_SubmitAnswer_WrongQuestionRejected(t *testing.T) {
	// Ответ на прошедший вопрос (например, от игрока, вошедшего позже)
	// отклоняется как опоздавший
	f := newGameFixture(t)

	f.playerRepo.On("GetByID", "p1").Return(&entity.Player{ID: "p1", SessionID: 1}, nil)
	f.sessionRepo.On("GetByID", uint(1)).Return(f.answeringSession(3), nil)
	f.bank.On("Len", "set-a").Return(5)

	_, err := f.service.SubmitAnswer(context.Background(), "p1", 2, 0)

	assert.ErrorIs(t, err, apperrors.ErrTimeExpired)
}

func TestGameService_SubmitAnswer_RoundClosedRejected(t *testing.T) {
	f := newGameFixture(t)

	f.playerRepo.On("GetByID", "p1").Return(&entity.Player{ID: "p1", SessionID: 1}, nil)
	f.sessionRepo.On("GetByID", uint(1)).Return(f.revealingSession(2), nil)
	f.bank.On("Len", "set-a").Return(5)

	_, err := f.service.SubmitAnswer(context.Background(), "p1", 2, 0)

	assert.ErrorIs(t, err, apperrors.ErrTimeExpired)
}

// ============================================================================
// JoinRoom / CreateRoom / Reset
// ============================================================================

func TestGameService_JoinRoom_ValidatesName(t *testing.T) {
	f := newGameFixture(t)

	_, err := f.service.JoinRoom(context.Background(), "ABC234", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	longName := make([]byte, 51)
	for i := range longName {
		longName[i] = 'x'
	}
	_, err = f.service.JoinRoom(context.Background(), "ABC234", string(longName))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGameService_JoinRoom_CreatesPlayer(t *testing.T) {
	f := newGameFixture(t)
	f.allowCacheNoise()
	f.allowNotifications()

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.waitingSession(), nil)
	f.playerRepo.On("Create", mock.MatchedBy(func(p *entity.Player) bool {
		return p.SessionID == 1 && p.Name == "Alice" && p.ID != ""
	})).Return(nil)

	player, err := f.service.JoinRoom(context.Background(), "ABC234", "Alice")

	require.NoError(t, err)
	assert.Equal(t, "Alice", player.Name)
	assert.Equal(t, 0, player.Score)
}

func TestGameService_CreateRoom_RetriesOnCodeCollision(t *testing.T) {
	f := newGameFixture(t)

	f.bank.On("SetIDs").Return([]string{"set-a"})
	duplicateErr := assert.AnError
	f.sessionRepo.On("Create", mock.AnythingOfType("*entity.Session")).Return(duplicateErr).Once()
	f.sessionRepo.On("IsDuplicateRoomCode", duplicateErr).Return(true)
	f.sessionRepo.On("Create", mock.AnythingOfType("*entity.Session")).Return(nil).Once()

	session, err := f.service.CreateRoom(context.Background())

	require.NoError(t, err)
	assert.Len(t, session.RoomCode, 6)
	assert.Equal(t, entity.SessionStatusWaiting, session.Status)
	assert.Equal(t, 1, session.CurrentQuestion)
	f.sessionRepo.AssertExpectations(t)
}

func TestGameService_CreateRoom_RotatesQuestionSets(t *testing.T) {
	f := newGameFixture(t)

	f.bank.On("SetIDs").Return([]string{"set-a", "set-b", "set-c"})
	// Счетчик ротации в Redis вернул 2 → второй набор
	f.cacheRepo.On("Increment", "quizroom:set_rotation").Return(int64(2), nil)
	f.sessionRepo.On("Create", mock.MatchedBy(func(s *entity.Session) bool {
		return s.QuestionSetID == "set-b"
	})).Return(nil)

	session, err := f.service.CreateRoom(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "set-b", session.QuestionSetID)
}

func TestGameService_Reset_ClearsEverything(t *testing.T) {
	f := newGameFixture(t)
	f.allowCacheNoise()

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.revealingSession(4), nil)
	f.responseRepo.On("DeleteBySession", uint(1)).Return(nil)
	f.playerRepo.On("ResetScores", uint(1)).Return(nil)
	f.sessionRepo.On("ResetState", uint(1)).Return(nil)
	f.notifier.On("NotifyRoom", "ABC234", websocket.EventRoomReset, mock.Anything)

	session, err := f.service.Reset(context.Background(), "ABC234")

	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusWaiting, session.Status)
	assert.Equal(t, 1, session.CurrentQuestion)
	assert.Nil(t, session.TimerStartedAt)
	f.notifier.AssertExpectations(t)
}

// ============================================================================
// GetState
// ============================================================================

func TestGameService_GetState_HidesCorrectOptionDuringAnswering(t *testing.T) {
	f := newGameFixture(t)

	session := f.answeringSession(2)
	f.cacheRepo.On("GetJSON", "room:ABC234:state", mock.Anything).Return(apperrors.ErrNotFound)
	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(session, nil)
	f.playerRepo.On("ListBySession", uint(1)).Return([]entity.Player{{ID: "p1", Name: "Alice"}}, nil)
	f.bank.On("Len", "set-a").Return(5)
	f.bank.On("Question", "set-a", 2).Return(&entity.Question{
		Index: 2, Options: []string{"A", "B"}, CorrectOption: 1, Explanation: "because",
	}, nil)
	f.cacheRepo.On("SetJSON", "room:ABC234:state", mock.Anything, mock.Anything).Return(nil)

	state, err := f.service.GetState(context.Background(), "ABC234")

	require.NoError(t, err)
	assert.Nil(t, state.CorrectOption, "Правильный ответ скрыт до закрытия раунда")
	assert.Empty(t, state.Explanation)
	assert.Equal(t, 45, state.RemainingSeconds)
	assert.Equal(t, 5, state.TotalQuestions)
}

func TestGameService_GetState_RevealsAnswerInRevealing(t *testing.T) {
	f := newGameFixture(t)

	session := f.revealingSession(2)
	f.cacheRepo.On("GetJSON", "room:ABC234:state", mock.Anything).Return(apperrors.ErrNotFound)
	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(session, nil)
	f.playerRepo.On("ListBySession", uint(1)).Return([]entity.Player{}, nil)
	f.bank.On("Len", "set-a").Return(5)
	f.bank.On("Question", "set-a", 2).Return(&entity.Question{
		Index: 2, Options: []string{"A", "B"}, CorrectOption: 1, Explanation: "because",
	}, nil)
	f.cacheRepo.On("SetJSON", "room:ABC234:state", mock.Anything, mock.Anything).Return(nil)

	state, err := f.service.GetState(context.Background(), "ABC234")

	require.NoError(t, err)
	require.NotNil(t, state.CorrectOption)
	assert.Equal(t, 1, *state.CorrectOption)
	assert.Equal(t, "because", state.Explanation)
}

func TestGameService_GetState_WaitingHasNoQuestion(t *testing.T) {
	f := newGameFixture(t)

	f.cacheRepo.On("GetJSON", "room:ABC234:state", mock.Anything).Return(apperrors.ErrNotFound)
	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.waitingSession(), nil)
	f.playerRepo.On("ListBySession", uint(1)).Return([]entity.Player{}, nil)
	f.bank.On("Len", "set-a").Return(5)
	f.cacheRepo.On("SetJSON", "room:ABC234:state", mock.Anything, mock.Anything).Return(nil)

	state, err := f.service.GetState(context.Background(), "ABC234")

	require.NoError(t, err)
	assert.Nil(t, state.CurrentQuestion)
	assert.Equal(t, 0, state.RemainingSeconds)
}

// ============================================================================
// FastForward
// ============================================================================

func TestGameService_FastForward_RejectsNonAnswering(t *testing.T) {
	f := newGameFixture(t)

	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(f.revealingSession(2), nil)

	_, err := f.service.FastForward(context.Background(), "ABC234", 5)

	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestGameService_FastForward_ToleratesClosedRound(t *testing.T) {
	// Раунд закрылся между чтением сессии и записью таймера — не ошибка
	f := newGameFixture(t)
	f.allowCacheNoise()
	f.allowNotifications()

	session := f.answeringSession(2)
	f.sessionRepo.On("GetByRoomCode", "ABC234").Return(session, nil)
	f.sessionRepo.On("UpdateTimerStart", uint(1), mock.AnythingOfType("time.Time")).
		Return(repository.ErrSessionStatusChanged)

	_, err := f.service.FastForward(context.Background(), "ABC234", 5)

	assert.NoError(t, err)
}
