// Package leaderboard содержит доменную модель таблицы очков кубка.
// Очки начисляются за каждую засчитанную игру по таблице весов:
// чем меньше попыток, тем больше очков. Провал не даёт ничего.
package leaderboard

import (
	"fmt"
	"sort"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию игрока в таблице.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsPodium возвращает true для первых трёх мест.
func (r Rank) IsPodium() bool {
	return r >= 1 && r <= 3
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна строка таблицы.
type Entry struct {
	// Rank - место. Игроки с равными очками делят место.
	Rank Rank

	// PlayerID - идентификатор игрока.
	PlayerID cup.PlayerID

	// DisplayName - имя для отображения (заполняется снаружи).
	DisplayName string

	// Points - сумма очков за игры в окне.
	Points int

	// Games - количество засчитанных игр в окне, включая провалы.
	Games int
}

// Name возвращает имя игрока или его ID.
func (e Entry) Name() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.PlayerID.String()
}

// String возвращает строковое представление для логирования.
func (e Entry) String() string {
	return fmt.Sprintf("Entry{Rank: %d, Player: %d, Points: %d, Games: %d}", e.Rank, e.PlayerID, e.Points, e.Games)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (Ranked List)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking - отсортированная таблица с индексом по игроку.
type Ranking struct {
	entries []Entry
	byID    map[cup.PlayerID]int
}

// NewRanking упорядочивает записи и присваивает места.
//
// Сортировка: по очкам по убыванию, при равенстве - по ID игрока
// по возрастанию, так что порядок детерминирован. Равные очки дают
// одно место, следующее место пропускается ("1, 1, 3").
func NewRanking(entries []Entry) *Ranking {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].PlayerID < sorted[j].PlayerID
	})

	byID := make(map[cup.PlayerID]int, len(sorted))
	for i := range sorted {
		if i > 0 && sorted[i].Points == sorted[i-1].Points {
			sorted[i].Rank = sorted[i-1].Rank
		} else {
			sorted[i].Rank = Rank(i + 1)
		}
		byID[sorted[i].PlayerID] = i
	}

	return &Ranking{entries: sorted, byID: byID}
}

// All возвращает копию всех записей по порядку.
func (r *Ranking) All() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Top возвращает первые n записей.
func (r *Ranking) Top(n int) []Entry {
	if n <= 0 || n >= len(r.entries) {
		return r.All()
	}
	out := make([]Entry, n)
	copy(out, r.entries[:n])
	return out
}

// Leader возвращает первую запись таблицы.
func (r *Ranking) Leader() (Entry, bool) {
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[0], true
}

// GetByID возвращает запись игрока.
func (r *Ranking) GetByID(id cup.PlayerID) (Entry, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Count возвращает количество игроков в таблице.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// WithNames подставляет отображаемые имена.
func (r *Ranking) WithNames(names map[cup.PlayerID]string) *Ranking {
	for i := range r.entries {
		if name, ok := names[r.entries[i].PlayerID]; ok {
			r.entries[i].DisplayName = name
		}
	}
	return r
}
