package presenter

import (
	"fmt"
	"strings"

	"github.com/alem-hub/wordle-cup/internal/application/query"
)

// CupHistory форматирует список прошлых кубков.
func CupHistory(entries []query.CupHistoryEntry) string {
	if len(entries) == 0 {
		return "Inga avslutade cuper ännu."
	}

	var sb strings.Builder
	sb.WriteString("🏆 Tidigare cuper\n\n")
	for _, e := range entries {
		if e.WinnerID == nil {
			fmt.Fprintf(&sb, "%s: ingen vinnare\n", e.Label)
			continue
		}
		fmt.Fprintf(&sb, "%s: %s, %dp (%d deltagare)\n", e.Label, e.WinnerName, e.Points, e.Participants)
	}
	return strings.TrimRight(sb.String(), "\n")
}
