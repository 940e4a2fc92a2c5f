package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
)

type fakeLeaderboard struct {
	got []query.GetLeaderboardQuery
	now time.Time
}

func (f *fakeLeaderboard) Handle(_ context.Context, q query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error) {
	f.got = append(f.got, q)
	w := q.Window.Resolve(f.now, time.UTC)
	return &query.GetLeaderboardResult{
		Window:     w,
		WindowName: w.String(),
		Entries:    []leaderboard.Entry{{Rank: 1, PlayerID: 1, DisplayName: "Anna", Points: 13, Games: 1}},
		TotalCount: 1,
	}, nil
}

var sentAt = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestStandingsHandler_Cup(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		window   leaderboard.Window
		contains string
	}{
		{name: "current cup", args: "", window: leaderboard.CurrentCup(), contains: "Cupen mars 2024"},
		{name: "cup key", args: "2024-1", window: leaderboard.ForCup("2024-1"), contains: "Cupen januari 2024"},
		{name: "swedish phrase", args: "förra månaden", window: leaderboard.ForCup("2024-2"), contains: "Cupen februari 2024"},
		{name: "relative english", args: "2 months ago", window: leaderboard.ForCup("2024-1"), contains: "Cupen januari 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lb := &fakeLeaderboard{now: sentAt}
			h := NewStandingsHandler(lb, time.UTC, 10)

			resp, err := h.Cup(context.Background(), Request{Args: tt.args, SentAt: sentAt})
			require.NoError(t, err)
			require.Len(t, lb.got, 1)
			assert.Equal(t, tt.window, lb.got[0].Window)
			assert.Equal(t, 10, lb.got[0].Limit)
			assert.Contains(t, resp.Text, tt.contains)
			assert.Contains(t, resp.Text, "Anna - 13p")
		})
	}
}

func TestStandingsHandler_UnknownArgs(t *testing.T) {
	lb := &fakeLeaderboard{now: sentAt}
	resp, err := NewStandingsHandler(lb, nil, 10).Cup(context.Background(), Request{Args: "banan", SentAt: sentAt})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, `Förstod inte "banan"`)
	assert.Empty(t, lb.got)
}

func TestStandingsHandler_WithoutDates(t *testing.T) {
	lb := &fakeLeaderboard{now: sentAt}
	h := NewStandingsHandler(lb, time.UTC, 10).WithoutDates()

	resp, err := h.Cup(context.Background(), Request{Args: "förra månaden", SentAt: sentAt})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Förstod inte")
	assert.Empty(t, lb.got)

	_, err = h.Cup(context.Background(), Request{Args: "2024-1", SentAt: sentAt})
	require.NoError(t, err)
	assert.Len(t, lb.got, 1)
}

func TestStandingsHandler_Total(t *testing.T) {
	lb := &fakeLeaderboard{now: sentAt}
	resp, err := NewStandingsHandler(lb, time.UTC, 0).Total(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, leaderboard.AllTime(), lb.got[0].Window)
	assert.Contains(t, resp.Text, "🏆 Totalt")
}

type dailyFunc func(ctx context.Context, period *cup.PeriodID) (*query.DailyResults, error)

func (f dailyFunc) Handle(ctx context.Context, period *cup.PeriodID) (*query.DailyResults, error) {
	return f(ctx, period)
}

func TestDailyHandler(t *testing.T) {
	markers := map[cup.Placement]string{cup.PlacementGold: "🥇"}

	h := NewDailyHandler(dailyFunc(func(context.Context, *cup.PeriodID) (*query.DailyResults, error) {
		return &query.DailyResults{
			Period:       930,
			Rows:         []query.DailyRow{{Placement: cup.PlacementGold, Guess: 3, Points: 8, Names: []string{"Anna"}}},
			Participants: 1,
		}, nil
	}), markers)
	resp, err := h.Handle(context.Background(), Request{})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "🥇 - Anna - 3 försök (8p)")

	empty := NewDailyHandler(dailyFunc(func(context.Context, *cup.PeriodID) (*query.DailyResults, error) {
		return nil, fmt.Errorf("get_daily_results: %w", cup.ErrPeriodNotFound)
	}), markers)
	resp, err = empty.Handle(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "Inga resultat idag ännu.", resp.Text)

	failing := NewDailyHandler(dailyFunc(func(context.Context, *cup.PeriodID) (*query.DailyResults, error) {
		return nil, errors.New("db down")
	}), markers)
	_, err = failing.Handle(context.Background(), Request{})
	assert.Error(t, err)
}

type statsFunc func(ctx context.Context, id cup.PlayerID) (*query.PlayerStats, error)

func (f statsFunc) Handle(ctx context.Context, id cup.PlayerID) (*query.PlayerStats, error) {
	return f(ctx, id)
}

func TestStatsHandler(t *testing.T) {
	h := NewStatsHandler(statsFunc(func(_ context.Context, id cup.PlayerID) (*query.PlayerStats, error) {
		if id != 7 {
			return nil, fmt.Errorf("get_player_stats: %w", cup.ErrPlayerNotFound)
		}
		s := &query.PlayerStats{Player: cup.Player{ID: 7, DisplayName: "Anna"}, Games: 1, Solved: 1, Average: 4}
		s.Distribution[4] = 1
		return s, nil
	}), nil)

	resp, err := h.Handle(context.Background(), Request{From: 7})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "📊 Anna")
	assert.NotEmpty(t, resp.Photo)
	assert.Equal(t, "stats.png", resp.PhotoName)

	resp, err = h.Handle(context.Background(), Request{From: 8})
	require.NoError(t, err)
	assert.Equal(t, "Du har inga resultat ännu.", resp.Text)
	assert.Nil(t, resp.Photo)

	h.WithChartGate(func(id cup.PlayerID) bool { return id != 7 })
	resp, err = h.Handle(context.Background(), Request{From: 7})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "📊 Anna")
	assert.Nil(t, resp.Photo)
}

type historyFunc func(ctx context.Context, limit int) ([]query.CupHistoryEntry, error)

func (f historyFunc) Handle(ctx context.Context, limit int) ([]query.CupHistoryEntry, error) {
	return f(ctx, limit)
}

func TestCupsHandler(t *testing.T) {
	var gotLimit int
	h := NewCupsHandler(historyFunc(func(_ context.Context, limit int) ([]query.CupHistoryEntry, error) {
		gotLimit = limit
		return []query.CupHistoryEntry{{Cup: "2024-1", Label: "januari 2024"}}, nil
	}), 12)

	resp, err := h.Handle(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 12, gotLimit)
	assert.Contains(t, resp.Text, "januari 2024: ingen vinnare")
}

func TestHelp(t *testing.T) {
	resp, err := HandlerFunc(Help).Handle(context.Background(), Request{})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "/stallning")
}
