package leaderboard

import (
	"fmt"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
)

// WeightTable - очки за результат; индекс - количество попыток (0..6).
type WeightTable [7]int

// DefaultWeights - стандартная таблица: 1 попытка = 13 очков, провал = 0.
var DefaultWeights = WeightTable{0, 13, 8, 5, 3, 2, 1}

// ErrInvalidWeights - таблица весов задана неверно.
var ErrInvalidWeights = shared.NewDomainError("leaderboard", "ParseWeights", shared.ErrInvalidInput, "invalid weight table")

// Points возвращает очки за результат. Значения вне 0..6 дают 0.
func (w WeightTable) Points(g cup.GuessCount) int {
	if g < 0 || int(g) >= len(w) {
		return 0
	}
	return w[g]
}

// NewWeightTable собирает таблицу из семи неотрицательных значений.
func NewWeightTable(values []int) (WeightTable, error) {
	var w WeightTable
	if len(values) != len(w) {
		return w, ErrInvalidWeights.WithDetail(fmt.Errorf("want %d values, got %d", len(w), len(values)))
	}
	for i, v := range values {
		if v < 0 {
			return w, ErrInvalidWeights.WithDetail(fmt.Errorf("weight for %d guesses is negative", i))
		}
		w[i] = v
	}
	return w, nil
}
