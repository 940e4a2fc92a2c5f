package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/metrics"
	"github.com/alem-hub/wordle-cup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK CUP ROLLOVER COMMAND
// Сравнивает сохранённый ключ кубка с ключом текущего момента.
// При смене месяца подводит итог прошедшего кубка и публикует ровно одно
// событие на каждую границу. "Уже объявлено" определяется сохранённым
// ключом, поэтому перезапуск не приводит к повторному объявлению.
// ══════════════════════════════════════════════════════════════════════════════

// RolloverOutcome - чем закончилась проверка.
type RolloverOutcome string

const (
	// RolloverAdopted - ключа ещё не было, текущий кубок принят без объявления.
	RolloverAdopted RolloverOutcome = "adopted"

	// RolloverUnchanged - кубок не сменился.
	RolloverUnchanged RolloverOutcome = "unchanged"

	// RolloverAdvanced - кубок завершён и объявлен.
	RolloverAdvanced RolloverOutcome = "advanced"

	// RolloverLost - переход уже сделал другой экземпляр.
	RolloverLost RolloverOutcome = "lost"
)

// RolloverResult - итог проверки.
type RolloverResult struct {
	Outcome RolloverOutcome

	// Held - ключ до проверки, Current - ключ текущего момента.
	Held    cup.CupKey
	Current cup.CupKey

	// Ended - итоги завершённых кубков по порядку. Обычно один; несколько,
	// если проверка не выполнялась больше месяца.
	Ended []cup.CupResult
}

// StandingsSource считает таблицу окна.
type StandingsSource interface {
	Ranking(ctx context.Context, window leaderboard.Window) (*leaderboard.Ranking, error)
}

// CheckCupRolloverHandler выполняет проверку смены кубка.
type CheckCupRolloverHandler struct {
	state     cup.CupStateStore
	standings StandingsSource
	publisher shared.EventPublisher
	loc       *time.Location
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// CheckCupRolloverConfig - зависимости обработчика.
type CheckCupRolloverConfig struct {
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// NewCheckCupRolloverHandler создаёт обработчик.
func NewCheckCupRolloverHandler(
	state cup.CupStateStore,
	standings StandingsSource,
	publisher shared.EventPublisher,
	config CheckCupRolloverConfig,
) *CheckCupRolloverHandler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &CheckCupRolloverHandler{
		state:     state,
		standings: standings,
		publisher: publisher,
		loc:       config.Location,
		logger:    config.Logger,
		metrics:   config.Metrics,
	}
}

// Handle проверяет смену кубка в момент now.
func (h *CheckCupRolloverHandler) Handle(ctx context.Context, now time.Time) (*RolloverResult, error) {
	current := cup.KeyAt(now, h.loc)

	held, ok, err := h.state.HeldCupKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("check_cup_rollover: failed to read held cup: %w", err)
	}
	res := &RolloverResult{Held: held, Current: current}

	if !ok {
		if err := h.state.AdoptCupKey(ctx, current); err != nil {
			return nil, fmt.Errorf("check_cup_rollover: failed to adopt cup: %w", err)
		}
		h.logger.Info("cup adopted", logger.Cup(current.String()))
		res.Outcome = RolloverAdopted
		h.metrics.CupRollover(string(res.Outcome))
		return res, nil
	}

	if !held.Before(current) {
		if held != current {
			h.logger.Warn("held cup is ahead of the clock", "held", held.String(), "current", current.String())
		}
		res.Outcome = RolloverUnchanged
		h.metrics.CupRollover(string(res.Outcome))
		return res, nil
	}

	// Каждая пройденная граница объявляется отдельно и по порядку.
	from := held
	for from.Before(current) {
		next, err := from.Next()
		if err != nil {
			return nil, fmt.Errorf("check_cup_rollover: %w", err)
		}

		result, advanced, err := h.advance(ctx, from, next, now)
		if err != nil {
			return nil, err
		}
		if !advanced {
			h.logger.Info("cup rollover taken by another instance", "cup", from.String())
			if len(res.Ended) == 0 {
				res.Outcome = RolloverLost
				h.metrics.CupRollover(string(res.Outcome))
				return res, nil
			}
			break
		}
		res.Ended = append(res.Ended, result)
		from = next
	}

	res.Outcome = RolloverAdvanced
	h.metrics.CupRollover(string(res.Outcome))
	return res, nil
}

// advance подводит итог кубка from и переключает ключ на to.
// Событие публикуется только после успешного сравнения-и-замены.
func (h *CheckCupRolloverHandler) advance(ctx context.Context, from, to cup.CupKey, now time.Time) (cup.CupResult, bool, error) {
	ranking, err := h.standings.Ranking(ctx, leaderboard.ForCup(from))
	if err != nil {
		return cup.CupResult{}, false, fmt.Errorf("check_cup_rollover: failed to rank %s: %w", from, err)
	}

	result := leaderboard.Winner(from, ranking)
	result.ClosedAt = now.UTC()

	advanced, err := h.state.AdvanceCup(ctx, from, to, result)
	if err != nil {
		return cup.CupResult{}, false, fmt.Errorf("check_cup_rollover: failed to advance %s: %w", from, err)
	}
	if !advanced {
		return result, false, nil
	}

	winnerName := ""
	if leader, ok := ranking.Leader(); ok {
		winnerName = leader.Name()
	}
	h.logger.Info("cup ended",
		logger.Cup(from.String()),
		"next", to.String(),
		"winner", winnerName,
		"points", result.Points,
		"participants", result.Participants,
	)

	if h.publisher != nil {
		if err := h.publisher.Publish(cup.NewCupEndedEvent(result, winnerName)); err != nil {
			h.logger.Error("failed to publish cup ended", logger.Cup(from.String()), logger.Err(err))
		}
	}
	return result, true, nil
}
