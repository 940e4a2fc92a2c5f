package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPLAY HISTORY COMMAND
// Загружает историю чата и прогоняет каждое сообщение через обычную запись.
// Первая отправка за день выигрывает и здесь; события и реакции не
// публикуются.
// ══════════════════════════════════════════════════════════════════════════════

// HistoricalMessage - сообщение из выгрузки чата.
type HistoricalMessage struct {
	Text        string
	Player      cup.PlayerID
	DisplayName string
	Source      cup.MessageRef
	SentAt      time.Time
}

// Resetter очищает хранилище перед загрузкой.
type Resetter interface {
	Reset(ctx context.Context) error
}

// ReplayHistoryCommand - параметры загрузки.
type ReplayHistoryCommand struct {
	Messages []HistoricalMessage

	// Reset - очистить результаты перед загрузкой.
	Reset bool
}

// ReplayHistoryResult - статистика загрузки.
type ReplayHistoryResult struct {
	Total      int
	Skipped    int
	Rejected   int
	Inserted   int
	Duplicates int
	Duration   time.Duration
}

// StandingsInvalidator сбрасывает закешированные таблицы.
type StandingsInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// ReplayHistoryHandler выполняет загрузку истории.
type ReplayHistoryHandler struct {
	recorder *RecordScoreHandler
	resetter Resetter
	cache    StandingsInvalidator
	logger   *slog.Logger
}

// NewReplayHistoryHandler создаёт обработчик. resetter может быть nil,
// тогда Reset в команде запрещён.
func NewReplayHistoryHandler(recorder *RecordScoreHandler, resetter Resetter, logger *slog.Logger) *ReplayHistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplayHistoryHandler{recorder: recorder, resetter: resetter, logger: logger}
}

// WithCache задаёт кеш таблиц. Загрузка не публикует событий, поэтому кеш
// сбрасывается здесь.
func (h *ReplayHistoryHandler) WithCache(cache StandingsInvalidator) *ReplayHistoryHandler {
	h.cache = cache
	return h
}

// Handle загружает сообщения в порядке отправки.
// Ошибка хранилища прерывает загрузку; ошибки разбора только считаются.
// Кеш сбрасывается и после прерванной загрузки, если что-то изменилось.
func (h *ReplayHistoryHandler) Handle(ctx context.Context, cmd ReplayHistoryCommand) (*ReplayHistoryResult, error) {
	res, err := h.replay(ctx, cmd)
	if cmd.Reset || (res != nil && res.Inserted > 0) {
		h.invalidate(ctx)
	}
	return res, err
}

func (h *ReplayHistoryHandler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	// Отменённый ctx не должен оставить кеш устаревшим.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.cache.InvalidateAll(ctx); err != nil {
		h.logger.Error("failed to invalidate standings after replay", "error", err)
	}
}

func (h *ReplayHistoryHandler) replay(ctx context.Context, cmd ReplayHistoryCommand) (*ReplayHistoryResult, error) {
	start := time.Now()

	if cmd.Reset {
		if h.resetter == nil {
			return nil, errors.New("replay_history: store does not support reset")
		}
		if err := h.resetter.Reset(ctx); err != nil {
			return nil, fmt.Errorf("replay_history: reset failed: %w", err)
		}
		h.logger.Warn("score store reset before replay")
	}

	messages := make([]HistoricalMessage, len(cmd.Messages))
	copy(messages, cmd.Messages)
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].SentAt.Equal(messages[j].SentAt) {
			return messages[i].SentAt.Before(messages[j].SentAt)
		}
		return messages[i].Source.MessageID < messages[j].Source.MessageID
	})

	res := &ReplayHistoryResult{Total: len(messages)}
	for _, m := range messages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !cup.LooksLikeResult(m.Text) || m.Player <= 0 {
			res.Skipped++
			continue
		}

		out, err := h.recorder.Handle(ctx, RecordScoreCommand{
			Text:        m.Text,
			Player:      m.Player,
			DisplayName: m.DisplayName,
			Source:      m.Source,
			SentAt:      m.SentAt,
			Silent:      true,
		})
		if err != nil {
			if shared.IsValidation(err) {
				res.Rejected++
				continue
			}
			return res, fmt.Errorf("replay_history: message %d: %w", m.Source.MessageID, err)
		}
		if out.Inserted {
			res.Inserted++
		} else {
			res.Duplicates++
		}
	}

	res.Duration = time.Since(start)
	h.logger.Info("history replayed",
		"total", res.Total,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"rejected", res.Rejected,
		"skipped", res.Skipped,
		"duration", res.Duration.String(),
	)
	return res, nil
}
