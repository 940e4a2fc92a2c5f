package presenter

import (
	"fmt"
	"strings"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// Daily форматирует медали дня строками
// "<медаль> - <имена> - <n> försök (<p>p)".
func Daily(res *query.DailyResults, markers map[cup.Placement]string) string {
	if res == nil || len(res.Rows) == 0 {
		return "Inga resultat idag ännu."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Wordle %d\n\n", res.Period)
	for _, row := range res.Rows {
		marker := markers[row.Placement]
		if marker == "" {
			marker = row.Placement.String()
		}
		fmt.Fprintf(&sb, "%s - %s - %s försök (%dp)\n",
			marker, strings.Join(row.Names, ", "), row.Guess, row.Points)
	}
	fmt.Fprintf(&sb, "\n%d deltagare", res.Participants)
	if res.Failed > 0 {
		fmt.Fprintf(&sb, ", %d utan lösning", res.Failed)
	}
	return sb.String()
}
