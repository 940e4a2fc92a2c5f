package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DAILY RESULTS QUERY
// Сводка дня для команды /dagens: медали, имена, попытки и очки.
// ══════════════════════════════════════════════════════════════════════════════

// DailyRow - одна медаль дня.
type DailyRow struct {
	Placement cup.Placement  `json:"placement"`
	Guess     cup.GuessCount `json:"guess"`
	Points    int            `json:"points"`
	Names     []string       `json:"names"`
}

// DailyResults - сводка дня.
type DailyResults struct {
	Period       cup.PeriodID `json:"period"`
	Rows         []DailyRow   `json:"rows"`
	Participants int          `json:"participants"`
	Failed       int          `json:"failed"`
}

// GetDailyResultsHandler собирает сводку дня.
type GetDailyResultsHandler struct {
	store     cup.ScoreReader
	medalists *GetMedalistsHandler
	weights   leaderboard.WeightTable
}

// NewGetDailyResultsHandler создаёт обработчик.
func NewGetDailyResultsHandler(store cup.ScoreReader, medalists *GetMedalistsHandler, weights leaderboard.WeightTable) *GetDailyResultsHandler {
	return &GetDailyResultsHandler{store: store, medalists: medalists, weights: weights}
}

// Handle возвращает сводку дня. period == nil - последний день.
func (h *GetDailyResultsHandler) Handle(ctx context.Context, period *cup.PeriodID) (*DailyResults, error) {
	p, err := h.medalists.resolvePeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("get_daily_results: %w", err)
	}

	placements, err := h.medalists.AllPlacements(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("get_daily_results: %w", err)
	}

	records, err := h.store.ScoresForPeriod(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("get_daily_results: failed to load scores: %w", err)
	}

	res := &DailyResults{Period: p, Participants: len(records), Rows: make([]DailyRow, 0, len(placements))}
	for _, rec := range records {
		if !rec.Guess.Solved() {
			res.Failed++
		}
	}
	for _, pl := range placements {
		row := DailyRow{Placement: pl.Placement, Guess: pl.Guess, Points: h.weights.Points(pl.Guess)}
		for _, m := range pl.Medalists {
			row.Names = append(row.Names, nameOr(m.DisplayName, m.PlayerID))
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func nameOr(name string, id cup.PlayerID) string {
	if name != "" {
		return name
	}
	return id.String()
}
