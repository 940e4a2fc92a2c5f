package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
	tgclient "github.com/alem-hub/wordle-cup/internal/infrastructure/external/telegram"
)

func testRanking() *leaderboard.Ranking {
	return leaderboard.NewRanking([]leaderboard.Entry{
		{PlayerID: 2, DisplayName: "Bosse", Points: 21, Games: 3},
		{PlayerID: 1, DisplayName: "Alva", Points: 21, Games: 2},
		{PlayerID: 3, Points: 5, Games: 1},
	})
}

func TestWriteStandingsXLSX_Cup(t *testing.T) {
	stockholm, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeStandingsXLSX(&buf, leaderboard.ForCup("2024-3"), testRanking(), stockholm))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"2024-3"}, f.GetSheetList())
	rows, err := f.GetRows("2024-3")
	require.NoError(t, err)

	assert.Equal(t, "Wordle Cup mars 2024", rows[0][0])
	assert.Equal(t, "1 mars 2024 - 31 mars 2024", rows[1][0])
	assert.Equal(t, columns, rows[headerRow-1])
	assert.Equal(t, []string{"1", "Alva", "21", "2"}, rows[headerRow])
	assert.Equal(t, []string{"1", "Bosse", "21", "3"}, rows[headerRow+1])
	assert.Equal(t, []string{"3", "3", "5", "1"}, rows[headerRow+2])
}

func TestWriteStandingsXLSX_AllTime(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStandingsXLSX(&buf, leaderboard.AllTime(), leaderboard.NewRanking(nil), time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("all")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), headerRow)
	assert.Equal(t, "Wordle Cup totalt", rows[0][0])
	assert.Equal(t, columns, rows[headerRow-1])
}

func TestPrintStandings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStandings(&buf, testRanking()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "Alva")
	assert.Contains(t, lines[3], "5")
}

func TestHistorical(t *testing.T) {
	sent := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	got := historical([]tgclient.ExportedMessage{{
		Source: cup.MessageRef{ChatID: -100, MessageID: 7},
		FromID: 42,
		From:   "Alva",
		Text:   "Wordle 987 3/6",
		SentAt: sent,
	}})

	require.Len(t, got, 1)
	assert.Equal(t, cup.PlayerID(42), got[0].Player)
	assert.Equal(t, "Alva", got[0].DisplayName)
	assert.Equal(t, cup.MessageRef{ChatID: -100, MessageID: 7}, got[0].Source)
	assert.Equal(t, sent, got[0].SentAt)
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()
	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"migrate", "replay", "standings", "rollover"}, names)
}
