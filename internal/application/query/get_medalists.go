package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MEDALISTS QUERY
// Кто держит медаль дня: игроки, чей результат совпадает со слотом рекорда.
// ══════════════════════════════════════════════════════════════════════════════

// GetMedalistsQuery - параметры запроса.
type GetMedalistsQuery struct {
	// Period - день. nil = последний записанный день.
	Period *cup.PeriodID

	// Placement - какая медаль.
	Placement cup.Placement
}

// Medalist - держатель медали.
type Medalist struct {
	PlayerID    cup.PlayerID   `json:"player_id"`
	DisplayName string         `json:"display_name"`
	Source      cup.MessageRef `json:"source"`
	Guess       cup.GuessCount `json:"guess"`
}

// MedalResolution - медаль дня и её держатели.
type MedalResolution struct {
	Period    cup.PeriodID   `json:"period"`
	Placement cup.Placement  `json:"-"`
	Guess     cup.GuessCount `json:"guess"`
	Medalists []Medalist     `json:"medalists"`
}

// GetMedalistsHandler определяет держателей медалей.
type GetMedalistsHandler struct {
	store cup.ScoreReader
}

// NewGetMedalistsHandler создаёт обработчик.
func NewGetMedalistsHandler(store cup.ScoreReader) *GetMedalistsHandler {
	return &GetMedalistsHandler{store: store}
}

// Handle возвращает держателей медали.
// Возвращает nil без ошибки, если слот медали ещё пуст.
func (h *GetMedalistsHandler) Handle(ctx context.Context, q GetMedalistsQuery) (*MedalResolution, error) {
	if !q.Placement.IsValid() {
		return nil, fmt.Errorf("get_medalists: invalid placement %d", q.Placement)
	}

	period, err := h.resolvePeriod(ctx, q.Period)
	if err != nil {
		return nil, err
	}

	all, err := h.AllPlacements(ctx, period)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Placement == q.Placement {
			return &all[i], nil
		}
	}
	return nil, nil
}

// AllPlacements возвращает медали дня, для которых слот уже определён,
// в порядке золото, серебро, бронза. Для неинициализированного дня
// возвращает пустой список.
func (h *GetMedalistsHandler) AllPlacements(ctx context.Context, period cup.PeriodID) ([]MedalResolution, error) {
	hs, records, err := h.store.PeriodResults(ctx, period)
	if errors.Is(err, cup.ErrPeriodNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get_medalists: failed to load day %d: %w", period, err)
	}

	names, err := playerNames(ctx, h.store)
	if err != nil {
		return nil, fmt.Errorf("get_medalists: %w", err)
	}

	out := make([]MedalResolution, 0, len(cup.Placements))
	for _, p := range cup.Placements {
		holders, ok := cup.HoldersOf(hs, records, p)
		if !ok {
			continue
		}
		value, _ := hs.Slot(p)
		res := MedalResolution{Period: period, Placement: p, Guess: value, Medalists: make([]Medalist, 0, len(holders))}
		for _, rec := range holders {
			res.Medalists = append(res.Medalists, Medalist{
				PlayerID:    rec.Player,
				DisplayName: names[rec.Player],
				Source:      rec.Source,
				Guess:       rec.Guess,
			})
		}
		out = append(out, res)
	}
	return out, nil
}

func (h *GetMedalistsHandler) resolvePeriod(ctx context.Context, p *cup.PeriodID) (cup.PeriodID, error) {
	if p != nil {
		return *p, nil
	}
	latest, err := h.store.LatestPeriod(ctx)
	if err != nil {
		return 0, fmt.Errorf("get_medalists: %w", err)
	}
	return latest, nil
}
