package handler

import (
	"context"
	"errors"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/interface/telegram/presenter"
)

// DailySource builds a day's placements.
type DailySource interface {
	Handle(ctx context.Context, period *cup.PeriodID) (*query.DailyResults, error)
}

// DailyHandler handles /dagens.
type DailyHandler struct {
	source  DailySource
	markers map[cup.Placement]string
}

// NewDailyHandler creates the handler.
func NewDailyHandler(source DailySource, markers map[cup.Placement]string) *DailyHandler {
	return &DailyHandler{source: source, markers: markers}
}

// Handle shows the latest period's medals.
func (h *DailyHandler) Handle(ctx context.Context, _ Request) (*Response, error) {
	res, err := h.source.Handle(ctx, nil)
	if errors.Is(err, cup.ErrPeriodNotFound) {
		return Text(presenter.Daily(nil, h.markers)), nil
	}
	if err != nil {
		return nil, err
	}
	return Text(presenter.Daily(res, h.markers)), nil
}
