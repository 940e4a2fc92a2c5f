package cup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func rec(player PlayerID, guess GuessCount, msg int64) ScoreRecord {
	return ScoreRecord{Period: 100, Player: player, Guess: guess, Source: MessageRef{ChatID: 1, MessageID: msg}}
}

func TestHoldersOf(t *testing.T) {
	records := []ScoreRecord{rec(1, 2, 10), rec(2, 3, 11), rec(3, 2, 12), rec(4, 0, 13)}
	hs := NewHighScore(100, 2, 3, 0)

	gold, ok := HoldersOf(hs, records, PlacementGold)
	assert.True(t, ok)
	assert.Equal(t, []ScoreRecord{records[0], records[2]}, gold)

	silver, ok := HoldersOf(hs, records, PlacementSilver)
	assert.True(t, ok)
	assert.Equal(t, []ScoreRecord{records[1]}, silver)

	bronze, ok := HoldersOf(hs, records, PlacementBronze)
	assert.False(t, ok)
	assert.Nil(t, bronze)
}

func TestHoldersOf_IgnoresOtherPeriods(t *testing.T) {
	other := rec(9, 2, 99)
	other.Period = 101
	holders, ok := HoldersOf(NewHighScore(100, 2, 0, 0), []ScoreRecord{other}, PlacementGold)
	assert.True(t, ok)
	assert.Empty(t, holders)
}

func TestDiffMarkers(t *testing.T) {
	a, b, c := rec(1, 3, 10), rec(2, 4, 11), rec(3, 2, 12)

	before := Markers(NewHighScore(100, 3, 4, 0), []ScoreRecord{a, b})
	after := Markers(NewHighScore(100, 2, 3, 4), []ScoreRecord{a, b, c})

	removed, added := DiffMarkers(before, after)

	wantRemoved := []MarkerChange{
		{Source: a.Source, Player: 1, Placement: PlacementGold},
		{Source: b.Source, Player: 2, Placement: PlacementSilver},
	}
	wantAdded := []MarkerChange{
		{Source: c.Source, Player: 3, Placement: PlacementGold},
		{Source: a.Source, Player: 1, Placement: PlacementSilver},
		{Source: b.Source, Player: 2, Placement: PlacementBronze},
	}
	if diff := cmp.Diff(wantRemoved, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantAdded, added); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffMarkers_TieOnlyAdds(t *testing.T) {
	a, b := rec(1, 2, 10), rec(2, 2, 11)
	hs := NewHighScore(100, 2, 0, 0)

	removed, added := DiffMarkers(Markers(hs, []ScoreRecord{a}), Markers(hs, []ScoreRecord{a, b}))
	assert.Empty(t, removed)
	assert.Equal(t, []MarkerChange{{Source: b.Source, Player: 2, Placement: PlacementGold}}, added)
}
