package cup

import (
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLACEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Placement - достоинство медали за день.
type Placement int

const (
	// PlacementNone - результат не входит в тройку лучших.
	PlacementNone Placement = iota
	PlacementGold
	PlacementSilver
	PlacementBronze
)

// Placements - все медали в порядке убывания достоинства.
var Placements = []Placement{PlacementGold, PlacementSilver, PlacementBronze}

// String возвращает имя медали.
func (p Placement) String() string {
	switch p {
	case PlacementGold:
		return "gold"
	case PlacementSilver:
		return "silver"
	case PlacementBronze:
		return "bronze"
	default:
		return "none"
	}
}

// IsValid возвращает true для золота, серебра и бронзы.
func (p Placement) IsValid() bool {
	return p >= PlacementGold && p <= PlacementBronze
}

// ParsePlacement преобразует имя медали обратно в Placement.
func ParsePlacement(s string) Placement {
	for _, p := range Placements {
		if p.String() == s {
			return p
		}
	}
	return PlacementNone
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY HIGH SCORE
// ══════════════════════════════════════════════════════════════════════════════

// HighScore - три лучших различных результата за день.
//
// Пустой слот хранится как 0: провал никогда не попадает в тройку,
// поэтому 0 однозначно означает "медаль ещё не разыграна".
// Заполненные слоты строго возрастают: золото < серебро < бронза.
type HighScore struct {
	Period PeriodID
	slots  [3]GuessCount
}

// NewHighScore создаёт рекорд по трём значениям (0 - пустой слот).
// Значения нормализуются, так что инвариант соблюдается всегда.
func NewHighScore(period PeriodID, gold, silver, bronze GuessCount) HighScore {
	h := HighScore{Period: period}
	for _, v := range []GuessCount{gold, silver, bronze} {
		h = h.Upsert(v)
	}
	return h
}

// Gold возвращает золотой результат, если он есть.
func (h HighScore) Gold() (GuessCount, bool) { return h.Slot(PlacementGold) }

// Silver возвращает серебряный результат, если он есть.
func (h HighScore) Silver() (GuessCount, bool) { return h.Slot(PlacementSilver) }

// Bronze возвращает бронзовый результат, если он есть.
func (h HighScore) Bronze() (GuessCount, bool) { return h.Slot(PlacementBronze) }

// Slot возвращает значение слота указанной медали.
func (h HighScore) Slot(p Placement) (GuessCount, bool) {
	if !p.IsValid() {
		return 0, false
	}
	v := h.slots[p-PlacementGold]
	return v, v != 0
}

// Values возвращает заполненные слоты по порядку.
func (h HighScore) Values() []GuessCount {
	out := make([]GuessCount, 0, len(h.slots))
	for _, v := range h.slots {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// IsEmpty возвращает true, если ни одна медаль не разыграна.
func (h HighScore) IsEmpty() bool {
	return len(h.Values()) == 0
}

// PlacementOf возвращает медаль, которую сейчас даёт данный результат.
func (h HighScore) PlacementOf(g GuessCount) Placement {
	if g <= 0 {
		return PlacementNone
	}
	for i, v := range h.slots {
		if v == g {
			return PlacementGold + Placement(i)
		}
	}
	return PlacementNone
}

// Upsert возвращает новый рекорд с учётом ещё одного результата.
//
// Провал (0 и меньше) и уже присутствующее значение ничего не меняют.
// Новое значение вставляется по порядку, худшее при переполнении
// вытесняется. Результат хуже полной бронзы отбрасывается.
// Исходное значение не изменяется.
func (h HighScore) Upsert(score GuessCount) HighScore {
	if score <= 0 {
		return h
	}

	vals := h.Values()
	for _, v := range vals {
		if v == score {
			return h
		}
	}

	vals = append(vals, score)
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	if len(vals) > len(h.slots) {
		vals = vals[:len(h.slots)]
	}

	next := HighScore{Period: h.Period}
	copy(next.slots[:], vals)
	return next
}

// Equal сравнивает значения слотов.
func (h HighScore) Equal(other HighScore) bool {
	return h.Period == other.Period && h.slots == other.slots
}
