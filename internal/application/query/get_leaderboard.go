// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Таблица кубка или всего времени. Текущий кубок вычисляется по часам
// обработчика, так что окно всегда соответствует моменту запроса.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса таблицы.
type GetLeaderboardQuery struct {
	// Window - окно подсчёта очков.
	Window leaderboard.Window

	// Limit - количество записей (0 = все).
	Limit int

	// SkipCache - считать заново, не заглядывая в кеш.
	SkipCache bool
}

// Validate проверяет корректность параметров запроса.
func (q GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Window.Kind == leaderboard.WindowCup {
		if _, err := cup.ParseCupKey(q.Window.Cup.String()); err != nil {
			return err
		}
	}
	return nil
}

// GetLeaderboardResult содержит таблицу.
type GetLeaderboardResult struct {
	// Window - окно в разрешённом виде.
	Window leaderboard.Window `json:"-"`

	// WindowName - "all" или ключ кубка.
	WindowName string `json:"window"`

	// Entries - записи по порядку мест.
	Entries []leaderboard.Entry `json:"entries"`

	// TotalCount - количество игроков в таблице до применения Limit.
	TotalCount int `json:"total_count"`

	// ComputedAt - время подсчёта.
	ComputedAt time.Time `json:"computed_at"`

	// FromCache - таблица взята из кеша.
	FromCache bool `json:"from_cache"`
}

// GetLeaderboardHandler считает таблицы.
type GetLeaderboardHandler struct {
	store    cup.ScoreReader
	cache    leaderboard.Cache
	weights  leaderboard.WeightTable
	loc      *time.Location
	clock    func() time.Time
	cacheTTL time.Duration
	logger   *slog.Logger
}

// GetLeaderboardConfig - настройки обработчика таблицы.
type GetLeaderboardConfig struct {
	Weights  leaderboard.WeightTable
	Location *time.Location
	Clock    func() time.Time

	// Cache может быть nil: тогда таблица всегда считается заново.
	Cache    leaderboard.Cache
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// NewGetLeaderboardHandler создаёт обработчик запроса таблицы.
func NewGetLeaderboardHandler(store cup.ScoreReader, config GetLeaderboardConfig) *GetLeaderboardHandler {
	if config.Weights == (leaderboard.WeightTable{}) {
		config.Weights = leaderboard.DefaultWeights
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &GetLeaderboardHandler{
		store:    store,
		cache:    config.Cache,
		weights:  config.Weights,
		loc:      config.Location,
		clock:    config.Clock,
		cacheTTL: config.CacheTTL,
		logger:   config.Logger,
	}
}

// Handle возвращает таблицу окна.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	now := h.clock()
	window := q.Window.Resolve(now, h.loc)

	if h.cache != nil && !q.SkipCache {
		snap, ok, err := h.cache.Get(ctx, window)
		if err != nil {
			// Кеш не обязателен: считаем заново.
			h.logger.Warn("leaderboard cache read failed", "window", window.String(), "error", err)
		} else if ok {
			return h.result(window, snap.Ranking(), snap.ComputedAt, q.Limit, true), nil
		}
	}

	ranking, err := h.Ranking(ctx, window)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, leaderboard.NewSnapshot(window, ranking, now), h.cacheTTL); err != nil {
			h.logger.Warn("leaderboard cache write failed", "window", window.String(), "error", err)
		}
	}

	return h.result(window, ranking, now, q.Limit, false), nil
}

// Ranking считает таблицу окна без кеша и с именами игроков.
func (h *GetLeaderboardHandler) Ranking(ctx context.Context, window leaderboard.Window) (*leaderboard.Ranking, error) {
	window = window.Resolve(h.clock(), h.loc)

	var (
		records []cup.ScoreRecord
		err     error
	)
	if window.Kind == leaderboard.WindowAll {
		records, err = h.store.AllScores(ctx)
	} else {
		records, err = h.store.ScoresInCup(ctx, window.Cup)
	}
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to load scores for %s: %w", window, err)
	}

	names, err := playerNames(ctx, h.store)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	return leaderboard.Aggregate(records, h.weights).WithNames(names), nil
}

// CurrentCup возвращает ключ текущего кубка.
func (h *GetLeaderboardHandler) CurrentCup() cup.CupKey {
	return cup.KeyAt(h.clock(), h.loc)
}

// Weights возвращает таблицу весов.
func (h *GetLeaderboardHandler) Weights() leaderboard.WeightTable {
	return h.weights
}

func (h *GetLeaderboardHandler) result(window leaderboard.Window, r *leaderboard.Ranking, at time.Time, limit int, cached bool) *GetLeaderboardResult {
	return &GetLeaderboardResult{
		Window:     window,
		WindowName: window.String(),
		Entries:    r.Top(limit),
		TotalCount: r.Count(),
		ComputedAt: at,
		FromCache:  cached,
	}
}

// playerNames возвращает отображаемые имена всех игроков.
func playerNames(ctx context.Context, store cup.ScoreReader) (map[cup.PlayerID]string, error) {
	players, err := store.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	names := make(map[cup.PlayerID]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name()
	}
	return names, nil
}
