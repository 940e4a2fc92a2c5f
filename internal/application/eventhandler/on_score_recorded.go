package eventhandler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON SCORE RECORDED HANDLER
// После нового результата сбрасывает кеш таблиц и обновляет описание
// канала. Обе части необязательны.
// ═══════════════════════════════════════════════════════════════════════════

// OnScoreRecordedHandler обрабатывает cup.ScoreRecordedEvent.
type OnScoreRecordedHandler struct {
	cache    CacheInvalidator
	summary  SummarySource
	topic    TopicSink
	fallback string
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	lastTopic string
}

// ScoreRecordedConfig - зависимости обработчика. Любое поле может быть nil.
type ScoreRecordedConfig struct {
	Cache        CacheInvalidator
	Summary      SummarySource
	Topic        TopicSink
	FallbackName string
	Logger       *slog.Logger
}

// NewOnScoreRecordedHandler создаёт обработчик.
func NewOnScoreRecordedHandler(config ScoreRecordedConfig) *OnScoreRecordedHandler {
	if config.FallbackName == "" {
		config.FallbackName = "Tomten"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &OnScoreRecordedHandler{
		cache:    config.Cache,
		summary:  config.Summary,
		topic:    config.Topic,
		fallback: config.FallbackName,
		timeout:  30 * time.Second,
		logger:   config.Logger.With("handler", "on_score_recorded"),
	}
}

// Handle реализует shared.EventHandler.
func (h *OnScoreRecordedHandler) Handle(event shared.Event) error {
	if event.EventType() != shared.EventScoreRecorded {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if h.cache != nil {
		if err := h.cache.InvalidateAll(ctx); err != nil {
			h.logger.Warn("failed to invalidate leaderboard cache", "error", err)
		}
	}

	if h.summary == nil || h.topic == nil {
		return nil
	}
	summary, err := h.summary.Handle(ctx)
	if err != nil {
		h.logger.Error("failed to build channel summary", "error", err)
		return err
	}
	text := summary.Text(h.fallback)

	h.mu.Lock()
	defer h.mu.Unlock()
	// Telegram отвергает описание, совпадающее с текущим.
	if text == h.lastTopic {
		return nil
	}
	if err := h.topic.SetTopic(ctx, text); err != nil {
		h.logger.Warn("failed to update channel topic", "error", err)
		return err
	}
	h.lastTopic = text
	return nil
}
