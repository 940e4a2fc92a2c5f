package handler

import (
	"context"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/interface/telegram/presenter"
)

// HistorySource lists finished cups.
type HistorySource interface {
	Handle(ctx context.Context, limit int) ([]query.CupHistoryEntry, error)
}

// CupsHandler handles /cuper.
type CupsHandler struct {
	source HistorySource
	limit  int
}

// NewCupsHandler creates the handler.
func NewCupsHandler(source HistorySource, limit int) *CupsHandler {
	return &CupsHandler{source: source, limit: limit}
}

// Handle lists past cup winners, newest first.
func (h *CupsHandler) Handle(ctx context.Context, _ Request) (*Response, error) {
	entries, err := h.source.Handle(ctx, h.limit)
	if err != nil {
		return nil, err
	}
	return Text(presenter.CupHistory(entries)), nil
}
