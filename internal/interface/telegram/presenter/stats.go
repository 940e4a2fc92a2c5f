package presenter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS PRESENTER
// Личная статистика: текст с гистограммой из █ и PNG-диаграмма.
// ══════════════════════════════════════════════════════════════════════════════

const histogramWidth = 20

// Stats форматирует статистику игрока.
func Stats(s *query.PlayerStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 %s\n\n", s.Player.Name())
	fmt.Fprintf(&sb, "Spel: %d, lösta: %d", s.Games, s.Solved)
	if s.Solved > 0 {
		fmt.Fprintf(&sb, ", snitt %.2f försök", s.Average)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Medaljer: 🥇 %d  🥈 %d  🥉 %d\n", s.Medals.Gold, s.Medals.Silver, s.Medals.Bronze)
	fmt.Fprintf(&sb, "Poäng totalt: %d\n", s.TotalPoints)
	if s.CupRank > 0 {
		fmt.Fprintf(&sb, "Cupen %s: %dp, plats %d\n", s.Cup.Label(), s.CupPoints, s.CupRank)
	}

	if s.Games == 0 {
		return strings.TrimRight(sb.String(), "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(Histogram(s.Distribution))
	return sb.String()
}

// Histogram рисует распределение попыток полосами из █. Самая длинная
// полоса занимает histogramWidth символов.
func Histogram(dist [cup.MaxGuesses + 1]int) string {
	peak := 0
	for _, n := range dist {
		peak = max(peak, n)
	}

	var sb strings.Builder
	for g := 1; g <= int(cup.MaxGuesses); g++ {
		writeBar(&sb, fmt.Sprintf("%d", g), dist[g], peak)
	}
	writeBar(&sb, "X", dist[0], peak)
	return strings.TrimRight(sb.String(), "\n")
}

func writeBar(sb *strings.Builder, label string, n, peak int) {
	width := 0
	if peak > 0 {
		width = n * histogramWidth / peak
	}
	if n > 0 && width == 0 {
		width = 1
	}
	fmt.Fprintf(sb, "%s %s %d\n", label, strings.Repeat("█", width), n)
}

// DistributionChart рендерит распределение попыток в PNG.
func DistributionChart(s *query.PlayerStats) ([]byte, error) {
	bars := make([]chart.Value, 0, cup.MaxGuesses+1)
	for g := 1; g <= int(cup.MaxGuesses); g++ {
		bars = append(bars, chart.Value{Label: fmt.Sprintf("%d", g), Value: float64(s.Distribution[g])})
	}
	bars = append(bars, chart.Value{Label: "X", Value: float64(s.Distribution[0])})

	graph := chart.BarChart{
		Title:  s.Player.Name(),
		Width:  640,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth: 50,
		Bars:     styleBars(bars),
	}

	buffer := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render distribution chart: %w", err)
	}
	return buffer.Bytes(), nil
}

var (
	barColor  = drawing.ColorFromHex("6aaa64")
	failColor = drawing.ColorFromHex("787c7e")
)

func styleBars(bars []chart.Value) []chart.Value {
	for i := range bars {
		color := barColor
		if i == len(bars)-1 {
			color = failColor
		}
		bars[i].Style = chart.Style{FillColor: color, StrokeColor: color}
	}
	return bars
}
