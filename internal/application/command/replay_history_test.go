package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/persistence/memory"
)

func TestReplayHistory_FirstSubmissionWinsInSendOrder(t *testing.T) {
	store := memory.NewStore()
	recorder, pub := newRecorder(store)
	h := NewReplayHistoryHandler(recorder, store, nil)

	base := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	messages := []HistoricalMessage{
		// Out of order on purpose: the later message comes first in the slice.
		{Text: "Wordle 930 2/6", Player: 1, Source: cup.MessageRef{MessageID: 2}, SentAt: base.Add(time.Hour)},
		{Text: "Wordle 930 5/6", Player: 1, Source: cup.MessageRef{MessageID: 1}, SentAt: base},
		{Text: "Wordle 930 3/6", Player: 2, Source: cup.MessageRef{MessageID: 3}, SentAt: base.Add(2 * time.Hour)},
		{Text: "God morgon!", Player: 2, Source: cup.MessageRef{MessageID: 4}, SentAt: base},
		{Text: "Wordle 930 9/6", Player: 3, Source: cup.MessageRef{MessageID: 5}, SentAt: base},
	}

	res, err := h.Handle(context.Background(), ReplayHistoryCommand{Messages: messages})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, pub.events)

	records, err := store.PlayerScoresSince(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, cup.GuessCount(5), records[0].Guess)
	assert.Equal(t, cup.CupKey("2024-1"), records[0].Cup)
}

func TestReplayHistory_Reset(t *testing.T) {
	store := memory.NewStore()
	recorder, _ := newRecorder(store)
	h := NewReplayHistoryHandler(recorder, store, nil)
	ctx := context.Background()

	_, err := h.Handle(ctx, ReplayHistoryCommand{Messages: []HistoricalMessage{{Text: "Wordle 1 4/6", Player: 1}}})
	require.NoError(t, err)

	res, err := h.Handle(ctx, ReplayHistoryCommand{
		Reset:    true,
		Messages: []HistoricalMessage{{Text: "Wordle 1 2/6", Player: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	records, err := store.ScoresForPeriod(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, cup.GuessCount(2), records[0].Guess)
}

func TestReplayHistory_ResetUnsupported(t *testing.T) {
	recorder, _ := newRecorder(memory.NewStore())
	h := NewReplayHistoryHandler(recorder, nil, nil)
	_, err := h.Handle(context.Background(), ReplayHistoryCommand{Reset: true})
	assert.Error(t, err)
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateAll(context.Context) error {
	c.calls++
	return nil
}

func TestReplayHistory_InvalidatesStandings(t *testing.T) {
	tests := []struct {
		name      string
		cmd       ReplayHistoryCommand
		wantCalls int
	}{
		{
			name:      "new results",
			cmd:       ReplayHistoryCommand{Messages: []HistoricalMessage{{Text: "Wordle 1 4/6", Player: 1}}},
			wantCalls: 1,
		},
		{
			name:      "reset without results",
			cmd:       ReplayHistoryCommand{Reset: true, Messages: []HistoricalMessage{{Text: "hej", Player: 1}}},
			wantCalls: 1,
		},
		{
			name:      "nothing changed",
			cmd:       ReplayHistoryCommand{Messages: []HistoricalMessage{{Text: "Wordle 1 9/6", Player: 1}}},
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			recorder, _ := newRecorder(store)
			cache := &countingInvalidator{}
			h := NewReplayHistoryHandler(recorder, store, nil).WithCache(cache)

			_, err := h.Handle(context.Background(), tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, cache.calls)
		})
	}
}
