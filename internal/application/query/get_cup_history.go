package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CUP HISTORY QUERY
// Итоги завершённых кубков для /cuper и API.
// ══════════════════════════════════════════════════════════════════════════════

// CupHistoryEntry - итог одного кубка.
type CupHistoryEntry struct {
	Cup          cup.CupKey    `json:"cup"`
	Label        string        `json:"label"`
	WinnerID     *cup.PlayerID `json:"winner_id,omitempty"`
	WinnerName   string        `json:"winner_name,omitempty"`
	Points       int           `json:"points"`
	Participants int           `json:"participants"`
	ClosedAt     time.Time     `json:"closed_at"`
}

// GetCupHistoryHandler читает историю кубков.
type GetCupHistoryHandler struct {
	state cup.CupStateStore
	store cup.ScoreReader
}

// NewGetCupHistoryHandler создаёт обработчик.
func NewGetCupHistoryHandler(state cup.CupStateStore, store cup.ScoreReader) *GetCupHistoryHandler {
	return &GetCupHistoryHandler{state: state, store: store}
}

// Handle возвращает до limit последних кубков, новые первыми (0 = все).
func (h *GetCupHistoryHandler) Handle(ctx context.Context, limit int) ([]CupHistoryEntry, error) {
	if limit < 0 {
		return nil, errors.New("get_cup_history: limit cannot be negative")
	}

	results, err := h.state.CupResults(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("get_cup_history: %w", err)
	}

	names, err := playerNames(ctx, h.store)
	if err != nil {
		return nil, fmt.Errorf("get_cup_history: %w", err)
	}

	out := make([]CupHistoryEntry, 0, len(results))
	for _, r := range results {
		e := CupHistoryEntry{
			Cup:          r.Cup,
			Label:        r.Cup.Label(),
			WinnerID:     r.Winner,
			Points:       r.Points,
			Participants: r.Participants,
			ClosedAt:     r.ClosedAt,
		}
		if r.Winner != nil {
			e.WinnerName = nameOr(names[*r.Winner], *r.Winner)
		}
		out = append(out, e)
	}
	return out, nil
}
