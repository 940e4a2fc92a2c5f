package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PLAYER STATS QUERY
// Личная статистика для /stats: игры, медали за всё время, распределение
// попыток и место в текущем кубке.
// ══════════════════════════════════════════════════════════════════════════════

// PlayerStats - статистика игрока.
type PlayerStats struct {
	Player cup.Player `json:"player"`

	// Games - количество засчитанных игр, Solved - из них решённых.
	Games  int `json:"games"`
	Solved int `json:"solved"`

	// Distribution[g] - сколько раз игрок решил за g попыток; [0] - провалы.
	Distribution [cup.MaxGuesses + 1]int `json:"distribution"`

	// Average - среднее число попыток по решённым играм.
	Average float64 `json:"average"`

	Medals cup.MedalCount `json:"medals"`

	// TotalPoints - очки за всё время.
	TotalPoints int `json:"total_points"`

	// Cup - текущий кубок, CupPoints и CupRank - очки и место в нём.
	// CupRank == 0, если игрок ещё не набрал очков в кубке.
	Cup       cup.CupKey       `json:"cup"`
	CupPoints int              `json:"cup_points"`
	CupRank   leaderboard.Rank `json:"cup_rank"`
}

// GetPlayerStatsHandler собирает статистику игрока.
type GetPlayerStatsHandler struct {
	store       cup.ScoreReader
	leaderboard *GetLeaderboardHandler
}

// NewGetPlayerStatsHandler создаёт обработчик.
func NewGetPlayerStatsHandler(store cup.ScoreReader, lb *GetLeaderboardHandler) *GetPlayerStatsHandler {
	return &GetPlayerStatsHandler{store: store, leaderboard: lb}
}

// Handle возвращает статистику. Неизвестный игрок - cup.ErrPlayerNotFound.
func (h *GetPlayerStatsHandler) Handle(ctx context.Context, id cup.PlayerID) (*PlayerStats, error) {
	player, err := h.store.Player(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_player_stats: %w", err)
	}

	records, err := h.store.PlayerScoresSince(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("get_player_stats: failed to load scores: %w", err)
	}

	weights := h.leaderboard.Weights()
	stats := &PlayerStats{Player: player, Games: len(records)}
	sum := 0
	for _, rec := range records {
		if rec.Guess.IsValid() {
			stats.Distribution[rec.Guess]++
		}
		if rec.Guess.Solved() {
			stats.Solved++
			sum += int(rec.Guess)
		}
		stats.TotalPoints += weights.Points(rec.Guess)
	}
	if stats.Solved > 0 {
		stats.Average = float64(sum) / float64(stats.Solved)
	}

	tally, err := h.store.MedalTally(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_player_stats: failed to load medals: %w", err)
	}
	stats.Medals = tally[id]

	stats.Cup = h.leaderboard.CurrentCup()
	inCup, err := h.store.PlayerScoresInCup(ctx, id, stats.Cup)
	if err != nil {
		return nil, fmt.Errorf("get_player_stats: failed to load cup scores: %w", err)
	}
	for _, rec := range inCup {
		stats.CupPoints += weights.Points(rec.Guess)
	}
	if stats.CupPoints > 0 {
		ranking, err := h.leaderboard.Ranking(ctx, leaderboard.ForCup(stats.Cup))
		if err != nil {
			return nil, fmt.Errorf("get_player_stats: %w", err)
		}
		if e, ok := ranking.GetByID(id); ok {
			stats.CupRank = e.Rank
		}
	}
	return stats, nil
}
