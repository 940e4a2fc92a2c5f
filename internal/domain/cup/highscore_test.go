package cup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighScore_Upsert(t *testing.T) {
	tests := []struct {
		name  string
		start []GuessCount
		score GuessCount
		want  []GuessCount
	}{
		{name: "empty gets gold", start: nil, score: 4, want: []GuessCount{4}},
		{name: "better becomes gold", start: []GuessCount{4}, score: 2, want: []GuessCount{2, 4}},
		{name: "worse becomes silver", start: []GuessCount{2}, score: 5, want: []GuessCount{2, 5}},
		{name: "middle insert", start: []GuessCount{2, 5}, score: 3, want: []GuessCount{2, 3, 5}},
		{name: "evicts bronze", start: []GuessCount{2, 4, 6}, score: 3, want: []GuessCount{2, 3, 4}},
		{name: "new gold evicts bronze", start: []GuessCount{2, 4, 6}, score: 1, want: []GuessCount{1, 2, 4}},
		{name: "duplicate unchanged", start: []GuessCount{2, 4}, score: 4, want: []GuessCount{2, 4}},
		{name: "failure never enters", start: []GuessCount{3}, score: 0, want: []GuessCount{3}},
		{name: "failure on empty", start: nil, score: 0, want: []GuessCount{}},
		{name: "worse than full bronze", start: []GuessCount{2, 3, 4}, score: 6, want: []GuessCount{2, 3, 4}},
		{name: "out of range discarded when full", start: []GuessCount{2, 4, 6}, score: 7, want: []GuessCount{2, 4, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HighScore{Period: 10}
			for _, v := range tt.start {
				h = h.Upsert(v)
			}
			before := h

			got := h.Upsert(tt.score)

			assert.Equal(t, tt.want, got.Values())
			assert.Equal(t, PeriodID(10), got.Period)
			assert.True(t, before.Equal(h), "Upsert must not modify the receiver")
		})
	}
}

func TestHighScore_InvariantHoldsForAnySequence(t *testing.T) {
	seqs := [][]GuessCount{
		{6, 5, 4, 3, 2, 1},
		{1, 1, 1, 0, 0},
		{3, 0, 3, 2, 6, 2, 5},
		{0, 0, 0},
	}

	for _, seq := range seqs {
		h := HighScore{}
		for _, v := range seq {
			h = h.Upsert(v)
			vals := h.Values()
			assert.LessOrEqual(t, len(vals), 3)
			for i := 1; i < len(vals); i++ {
				assert.Less(t, vals[i-1], vals[i])
			}
			for _, x := range vals {
				assert.NotZero(t, x)
			}
		}
	}
}

func TestHighScore_Slots(t *testing.T) {
	h := NewHighScore(3, 5, 2, 0)

	gold, ok := h.Gold()
	assert.True(t, ok)
	assert.Equal(t, GuessCount(2), gold)

	silver, ok := h.Silver()
	assert.True(t, ok)
	assert.Equal(t, GuessCount(5), silver)

	_, ok = h.Bronze()
	assert.False(t, ok)

	assert.Equal(t, PlacementGold, h.PlacementOf(2))
	assert.Equal(t, PlacementSilver, h.PlacementOf(5))
	assert.Equal(t, PlacementNone, h.PlacementOf(3))
	assert.Equal(t, PlacementNone, h.PlacementOf(0))

	assert.True(t, HighScore{}.IsEmpty())
	assert.False(t, h.IsEmpty())
}

func TestPlacement_String(t *testing.T) {
	for _, p := range Placements {
		assert.Equal(t, p, ParsePlacement(p.String()))
	}
	assert.Equal(t, PlacementNone, ParsePlacement("platinum"))
}
