package gameroom

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/yourusername/quizroom-api/internal/domain/repository"
)

// Config содержит настройки игрового раунда
type Config struct {
	// RoundDurationSec — длительность одного раунда в секундах
	RoundDurationSec int

	// FastForwardRemainingSec — сколько секунд остается на таймере после
	// fast-forward, когда все игроки уже ответили
	FastForwardRemainingSec int

	// SweepLockTTL — TTL короткого замка в Redis, которым ForceReveal
	// отсекает параллельный sweep. Замок — оптимизация; корректность
	// обеспечивает уникальный индекс журнала ответов.
	SweepLockTTL time.Duration

	// StateCacheTTL — TTL кешированного снапшота состояния комнаты
	StateCacheTTL time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		RoundDurationSec:        45,
		FastForwardRemainingSec: 5,
		SweepLockTTL:            10 * time.Second,
		StateCacheTTL:           1 * time.Second,
	}
}

// Dependencies содержит зависимости компонентов игровой комнаты
type Dependencies struct {
	SessionRepo  repository.SessionRepository
	PlayerRepo   repository.PlayerRepository
	ResponseRepo repository.ResponseRepository
	Bank         repository.QuestionBank
	CacheRepo    repository.CacheRepository

	// Clock абстрагирует время, чтобы тесты могли управлять таймером
	Clock clockwork.Clock
}

// AnswerResult — результат обработки ответа, возвращаемый игроку сразу,
// не дожидаясь широковещательного обновления состояния
type AnswerResult struct {
	IsCorrect     bool `json:"is_correct"`
	PointsEarned  int  `json:"points_earned"`
	CorrectOption int  `json:"correct_option"`
}

// AnswerStats — сводка по текущему вопросу для хост-экрана
type AnswerStats struct {
	TotalPlayers    int64 `json:"total_players"`
	PlayersAnswered int64 `json:"players_answered"`
	AllAnswered     bool  `json:"all_answered"`
}
