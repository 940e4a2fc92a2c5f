package presenter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
)

func TestStandings(t *testing.T) {
	res := &query.GetLeaderboardResult{
		Entries: []leaderboard.Entry{
			{Rank: 1, PlayerID: 1, DisplayName: "Anna", Points: 21, Games: 2},
			{Rank: 1, PlayerID: 2, DisplayName: "Bo", Points: 21, Games: 3},
			{Rank: 3, PlayerID: 3, Points: 1, Games: 1},
			{Rank: 4, PlayerID: 4, DisplayName: "Cia", Points: 0, Games: 1},
		},
		TotalCount: 6,
	}

	want := "🏆 Cupen mars 2024\n\n" +
		"🥇 Anna - 21p (2 spel)\n" +
		"🥇 Bo - 21p (3 spel)\n" +
		"🥉 3 - 1p (1 spel)\n" +
		"4. Cia - 0p (1 spel)\n" +
		"… och 2 till"
	assert.Equal(t, want, Standings("Cupen mars 2024", res))
	assert.Equal(t, "🏆 Totalt\n\nInga poäng ännu.", Standings("Totalt", &query.GetLeaderboardResult{}))
}

func TestDaily(t *testing.T) {
	markers := map[cup.Placement]string{cup.PlacementGold: "🥇", cup.PlacementSilver: "🥈"}
	res := &query.DailyResults{
		Period: 547,
		Rows: []query.DailyRow{
			{Placement: cup.PlacementGold, Guess: 2, Points: 13, Names: []string{"Anna", "Bo"}},
			{Placement: cup.PlacementSilver, Guess: 3, Points: 8, Names: []string{"Cia"}},
			{Placement: cup.PlacementBronze, Guess: 5, Points: 3, Names: []string{"Dan"}},
		},
		Participants: 5,
		Failed:       1,
	}

	want := "Wordle 547\n\n" +
		"🥇 - Anna, Bo - 2 försök (13p)\n" +
		"🥈 - Cia - 3 försök (8p)\n" +
		"bronze - Dan - 5 försök (3p)\n" +
		"\n5 deltagare, 1 utan lösning"
	assert.Equal(t, want, Daily(res, markers))
	assert.Equal(t, "Inga resultat idag ännu.", Daily(nil, markers))
}

func TestHistogram(t *testing.T) {
	var dist [cup.MaxGuesses + 1]int
	dist[0] = 1
	dist[3] = 10
	dist[4] = 5

	want := "1  0\n" +
		"2  0\n" +
		"3 ████████████████████ 10\n" +
		"4 ██████████ 5\n" +
		"5  0\n" +
		"6  0\n" +
		"X ██ 1"
	assert.Equal(t, want, Histogram(dist))
}

func TestStats(t *testing.T) {
	s := &query.PlayerStats{
		Player:      cup.Player{ID: 7, DisplayName: "Anna"},
		Games:       3,
		Solved:      2,
		Average:     3.5,
		Medals:      cup.MedalCount{Gold: 1, Bronze: 2},
		TotalPoints: 11,
		Cup:         "2024-3",
		CupPoints:   8,
		CupRank:     2,
	}
	s.Distribution[3] = 1
	s.Distribution[4] = 1
	s.Distribution[0] = 1

	text := Stats(s)
	assert.Contains(t, text, "📊 Anna")
	assert.Contains(t, text, "Spel: 3, lösta: 2, snitt 3.50 försök")
	assert.Contains(t, text, "Medaljer: 🥇 1  🥈 0  🥉 2")
	assert.Contains(t, text, "Cupen mars 2024: 8p, plats 2")
	assert.Contains(t, text, "X ")

	empty := Stats(&query.PlayerStats{Player: cup.Player{ID: 9}})
	assert.NotContains(t, empty, "█")
	assert.NotContains(t, empty, "Cupen")
}

func TestDistributionChart(t *testing.T) {
	s := &query.PlayerStats{Player: cup.Player{ID: 7, DisplayName: "Anna"}, Games: 2}
	s.Distribution[2] = 1
	s.Distribution[5] = 1

	png, err := DistributionChart(s)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestCupHistory(t *testing.T) {
	winner := cup.PlayerID(1)
	entries := []query.CupHistoryEntry{
		{Cup: "2024-2", Label: "februari 2024", WinnerID: &winner, WinnerName: "Anna", Points: 40, Participants: 4},
		{Cup: "2024-1", Label: "januari 2024"},
	}
	want := "🏆 Tidigare cuper\n\n" +
		"februari 2024: Anna, 40p (4 deltagare)\n" +
		"januari 2024: ingen vinnare"
	assert.Equal(t, want, CupHistory(entries))
	assert.Equal(t, "Inga avslutade cuper ännu.", CupHistory(nil))
}
