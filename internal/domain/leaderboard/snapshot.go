package leaderboard

import (
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - таблица окна в момент подсчёта. Используется кешем
// и для сравнения лидеров до и после нового результата.
type Snapshot struct {
	// Window - окно в разрешённом виде ("all" или ключ кубка).
	Window string `json:"window"`

	// ComputedAt - время подсчёта.
	ComputedAt time.Time `json:"computed_at"`

	// Entries - записи по порядку мест.
	Entries []Entry `json:"entries"`
}

// NewSnapshot создаёт снапшот из таблицы.
func NewSnapshot(window Window, r *Ranking, now time.Time) *Snapshot {
	return &Snapshot{
		Window:     window.String(),
		ComputedAt: now.UTC(),
		Entries:    r.All(),
	}
}

// Ranking восстанавливает таблицу из снапшота.
func (s *Snapshot) Ranking() *Ranking {
	if s == nil {
		return NewRanking(nil)
	}
	return NewRanking(s.Entries)
}

// Leader возвращает ID лидера снапшота.
func (s *Snapshot) Leader() (cup.PlayerID, bool) {
	if s == nil || len(s.Entries) == 0 {
		return 0, false
	}
	return s.Entries[0].PlayerID, true
}

// LeaderChanged сообщает, сменился ли лидер между двумя снапшотами.
func LeaderChanged(before, after *Snapshot) bool {
	a, okA := before.Leader()
	b, okB := after.Leader()
	return okA != okB || a != b
}
