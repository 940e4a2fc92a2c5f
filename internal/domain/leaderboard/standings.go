package leaderboard

import (
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION
// ══════════════════════════════════════════════════════════════════════════════

// Aggregate суммирует очки по игрокам и возвращает упорядоченную таблицу.
// Игроки с нулевой суммой в таблицу не попадают.
// Записи должны быть заранее отфильтрованы по окну.
func Aggregate(records []cup.ScoreRecord, weights WeightTable) *Ranking {
	points := make(map[cup.PlayerID]int)
	games := make(map[cup.PlayerID]int)
	for _, rec := range records {
		points[rec.Player] += weights.Points(rec.Guess)
		games[rec.Player]++
	}

	entries := make([]Entry, 0, len(points))
	for id, p := range points {
		if p <= 0 {
			continue
		}
		entries = append(entries, Entry{PlayerID: id, Points: p, Games: games[id]})
	}

	return NewRanking(entries)
}

// Winner возвращает итог кубка по его таблице.
// Победитель отсутствует, если никто не набрал очков.
func Winner(key cup.CupKey, r *Ranking) cup.CupResult {
	result := cup.CupResult{Cup: key, Participants: r.Count()}
	if leader, ok := r.Leader(); ok {
		id := leader.PlayerID
		result.Winner = &id
		result.Points = leader.Points
	}
	return result
}
