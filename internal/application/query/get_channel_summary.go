package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CHANNEL SUMMARY QUERY
// Строка для описания канала: золотые медалисты последнего дня
// и лидер текущего кубка.
// ══════════════════════════════════════════════════════════════════════════════

// ChannelSummary - данные для описания канала.
type ChannelSummary struct {
	Period       cup.PeriodID
	DailyLeaders []string
	CupLeader    string
}

// Text собирает описание канала. fallback подставляется вместо
// отсутствующих имён.
func (s ChannelSummary) Text(fallback string) string {
	daily := strings.Join(s.DailyLeaders, ", ")
	if daily == "" {
		daily = fallback
	}
	leader := s.CupLeader
	if leader == "" {
		leader = fallback
	}
	return fmt.Sprintf("Dagens ledare: %s\tCupledare: %s", daily, leader)
}

// GetChannelSummaryHandler собирает описание канала.
type GetChannelSummaryHandler struct {
	medalists   *GetMedalistsHandler
	leaderboard *GetLeaderboardHandler
}

// NewGetChannelSummaryHandler создаёт обработчик.
func NewGetChannelSummaryHandler(medalists *GetMedalistsHandler, lb *GetLeaderboardHandler) *GetChannelSummaryHandler {
	return &GetChannelSummaryHandler{medalists: medalists, leaderboard: lb}
}

// Handle возвращает сводку для описания канала.
func (h *GetChannelSummaryHandler) Handle(ctx context.Context) (*ChannelSummary, error) {
	summary := &ChannelSummary{}

	gold, err := h.medalists.Handle(ctx, GetMedalistsQuery{Placement: cup.PlacementGold})
	switch {
	case err == nil && gold != nil:
		summary.Period = gold.Period
		for _, m := range gold.Medalists {
			summary.DailyLeaders = append(summary.DailyLeaders, nameOr(m.DisplayName, m.PlayerID))
		}
	case err != nil && !errors.Is(err, cup.ErrPeriodNotFound):
		return nil, fmt.Errorf("get_channel_summary: %w", err)
	}

	ranking, err := h.leaderboard.Ranking(ctx, leaderboard.CurrentCup())
	if err != nil {
		return nil, fmt.Errorf("get_channel_summary: %w", err)
	}
	if leader, ok := ranking.Leader(); ok {
		summary.CupLeader = leader.Name()
	}
	return summary, nil
}
