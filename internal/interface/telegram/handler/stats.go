package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/interface/telegram/presenter"
)

// StatsSource reads a player's statistics.
type StatsSource interface {
	Handle(ctx context.Context, id cup.PlayerID) (*query.PlayerStats, error)
}

// StatsHandler handles /stats.
type StatsHandler struct {
	source StatsSource
	chart  func(cup.PlayerID) bool
	logger *slog.Logger
}

// NewStatsHandler creates the handler.
func NewStatsHandler(source StatsSource, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{source: source, logger: logger}
}

// WithChartGate attaches the chart only for players gate accepts.
func (h *StatsHandler) WithChartGate(gate func(cup.PlayerID) bool) *StatsHandler {
	h.chart = gate
	return h
}

// Handle shows the sender's statistics with a distribution chart.
func (h *StatsHandler) Handle(ctx context.Context, req Request) (*Response, error) {
	stats, err := h.source.Handle(ctx, req.From)
	if errors.Is(err, cup.ErrPlayerNotFound) {
		return Text("Du har inga resultat ännu."), nil
	}
	if err != nil {
		return nil, err
	}

	resp := Text(presenter.Stats(stats))
	if stats.Games == 0 || (h.chart != nil && !h.chart(req.From)) {
		return resp, nil
	}
	png, err := presenter.DistributionChart(stats)
	if err != nil {
		// The text alone is still a useful answer.
		h.logger.Warn("failed to render stats chart", "player_id", int64(req.From), "error", err)
		return resp, nil
	}
	resp.Photo = png
	resp.PhotoName = "stats.png"
	return resp, nil
}
