package gameroom

import (
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yourusername/quizroom-api/internal/domain/entity"
)

// ============================================================================
// Моки репозиториев для компонентов игровой комнаты
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
