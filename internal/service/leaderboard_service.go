package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/quizroom-api/internal/domain/repository"
)

// LeaderboardEntry — одна строка лидерборда
type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	PlayerID string    `json:"player_id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// Leaderboard — ранжированное представление игроков комнаты
type Leaderboard struct {
	RoomCode     string             `json:"room_code"`
	Entries      []LeaderboardEntry `json:"entries"`
	TotalPlayers int                `json:"total_players"`
}

// LeaderboardService — чистая read-side проекция: порядок игроков выводится
// из очков на каждый запрос, ничего не мутирует и не кешируется.
type LeaderboardService struct {
	sessionRepo repository.SessionRepository
	playerRepo  repository.PlayerRepository
}

// NewLeaderboardService создает новый сервис лидерборда
func NewLeaderboardService(sessionRepo repository.SessionRepository, playerRepo repository.PlayerRepository) *LeaderboardService {
	return &LeaderboardService{
		sessionRepo: sessionRepo,
		playerRepo:  playerRepo,
	}
}

// Get возвращает лидерборд комнаты: очки по убыванию, ничьи — по времени входа
func (s *LeaderboardService) Get(ctx context.Context, roomCode string) (*Leaderboard, error) {
	session, err := s.sessionRepo.GetByRoomCode(roomCode)
	if err != nil {
		return nil, err
	}

	players, err := s.playerRepo.ListBySession(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(players))
	for i, player := range players {
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: player.ID,
			Name:     player.Name,
			Score:    player.Score,
			JoinedAt: player.JoinedAt,
		})
	}

	return &Leaderboard{
		RoomCode:     roomCode,
		Entries:      entries,
		TotalPlayers: len(entries),
	}, nil
}
