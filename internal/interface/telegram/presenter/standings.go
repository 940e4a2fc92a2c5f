// Package presenter formats query results as Telegram messages.
// Все тексты для чата собраны здесь, чтобы обработчики команд не
// занимались форматированием.
package presenter

import (
	"fmt"
	"strings"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// STANDINGS PRESENTER
// Таблица кубка или общая таблица за всё время.
// ══════════════════════════════════════════════════════════════════════════════

// Standings форматирует таблицу. title - заголовок ("Cupen mars 2024").
func Standings(title string, result *query.GetLeaderboardResult) string {
	var sb strings.Builder
	sb.WriteString("🏆 ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	if len(result.Entries) == 0 {
		sb.WriteString("Inga poäng ännu.")
		return sb.String()
	}

	for _, e := range result.Entries {
		sb.WriteString(formatEntry(e))
		sb.WriteString("\n")
	}
	if hidden := result.TotalCount - len(result.Entries); hidden > 0 {
		fmt.Fprintf(&sb, "… och %d till\n", hidden)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatEntry(e leaderboard.Entry) string {
	return fmt.Sprintf("%s %s - %dp (%s)", rankBadge(e.Rank), e.Name(), e.Points, games(e.Games))
}

// rankBadge - медаль для первых трёх мест, номер для остальных.
func rankBadge(r leaderboard.Rank) string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", r)
	}
}

func games(n int) string {
	if n == 1 {
		return "1 spel"
	}
	return fmt.Sprintf("%d spel", n)
}
