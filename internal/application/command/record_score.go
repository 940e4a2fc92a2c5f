// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
	"github.com/alem-hub/wordle-cup/internal/infrastructure/metrics"
	"github.com/alem-hub/wordle-cup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD SCORE COMMAND
// Принимает сообщение с результатом, записывает его и пересчитывает медали.
// Запись, обновление рекорда дня и сохранение рекорда - одна транзакция.
// Медали снимаются по старому рекорду и ставятся по новому уже после
// фиксации, так что при ошибке хранилища реакции не трогаются.
// ══════════════════════════════════════════════════════════════════════════════

const tracerName = "github.com/alem-hub/wordle-cup/internal/application/command"

// RecordScoreCommand содержит сообщение с результатом.
type RecordScoreCommand struct {
	// Text - текст сообщения ("Wordle 547 3/6 ...").
	Text string

	// Player - автор сообщения.
	Player cup.PlayerID

	// DisplayName - имя автора; пустое имя не затирает сохранённое.
	DisplayName string

	// Source - ссылка на сообщение для реакций.
	Source cup.MessageRef

	// SentAt - время отправки; определяет кубок. Нулевое = сейчас.
	SentAt time.Time

	// Silent - не публиковать события (загрузка истории).
	Silent bool
}

// Validate проверяет команду.
func (c RecordScoreCommand) Validate() error {
	if c.Player <= 0 {
		return cup.ErrInvalidPlayer
	}
	return nil
}

// RecordScoreResult - итог записи.
type RecordScoreResult struct {
	// Inserted == false - у игрока уже есть результат за этот день.
	Inserted bool

	Record    cup.ScoreRecord
	HighScore cup.HighScore

	// HighScoreChanged - рекорд дня изменился.
	HighScoreChanged bool

	// Removed и Added - медали, которые нужно снять и поставить.
	Removed []cup.MarkerChange
	Added   []cup.MarkerChange

	// Events - опубликованные события.
	Events []shared.Event
}

// RecordScoreHandler записывает результаты.
// Записи выполняются строго по одной: рекорд дня строится
// последовательными вставками.
type RecordScoreHandler struct {
	mu sync.Mutex

	store     cup.ScoreStore
	publisher shared.EventPublisher
	loc       *time.Location
	clock     func() time.Time
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// RecordScoreConfig - зависимости обработчика.
type RecordScoreConfig struct {
	Location *time.Location
	Clock    func() time.Time
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// NewRecordScoreHandler создаёт обработчик. publisher может быть nil.
func NewRecordScoreHandler(store cup.ScoreStore, publisher shared.EventPublisher, config RecordScoreConfig) *RecordScoreHandler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RecordScoreHandler{
		store:     store,
		publisher: publisher,
		loc:       config.Location,
		clock:     config.Clock,
		logger:    config.Logger,
		metrics:   config.Metrics,
		tracer:    otel.Tracer(tracerName),
	}
}

// Handle разбирает и записывает результат.
// Ошибки разбора - cup.ErrMalformedMessage или cup.ErrIllegalGuessCount.
func (h *RecordScoreHandler) Handle(ctx context.Context, cmd RecordScoreCommand) (*RecordScoreResult, error) {
	ctx, span := h.tracer.Start(ctx, "record_score", trace.WithAttributes(attribute.Int64("player_id", int64(cmd.Player))))
	defer span.End()

	res, err := h.handle(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("period_id", int64(res.Record.Period)),
		attribute.Bool("inserted", res.Inserted),
	)
	return res, nil
}

func (h *RecordScoreHandler) handle(ctx context.Context, cmd RecordScoreCommand) (*RecordScoreResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_score: %w", err)
	}

	parsed, err := cup.ParseResult(cmd.Text)
	if err != nil {
		h.metrics.MessageRejected(rejectReason(err))
		return nil, fmt.Errorf("record_score: %w", err)
	}

	sentAt := cmd.SentAt
	if sentAt.IsZero() {
		sentAt = h.clock()
	}
	rec := cup.ScoreRecord{
		Period:     parsed.Period,
		Player:     cmd.Player,
		Guess:      parsed.Guess,
		Cup:        cup.KeyAt(sentAt, h.loc),
		Source:     cmd.Source,
		RecordedAt: sentAt.UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Первый проход: медали до записи. Провал медалей не меняет.
	var before []cup.MarkerChange
	if rec.Guess.Solved() {
		if before, err = h.markers(ctx, rec.Period); err != nil {
			h.metrics.ScoreRecorded("failed")
			return nil, fmt.Errorf("record_score: %w", err)
		}
	}

	result := &RecordScoreResult{Record: rec}
	err = h.store.WithinTx(ctx, func(tx cup.ScoreTx) error {
		if err := tx.EnsurePlayer(ctx, cup.Player{ID: cmd.Player, DisplayName: cmd.DisplayName}); err != nil {
			return fmt.Errorf("ensure player: %w", err)
		}
		if err := tx.EnsurePeriod(ctx, rec.Period); err != nil {
			return fmt.Errorf("ensure period: %w", err)
		}

		inserted, err := tx.RecordScore(ctx, rec)
		if err != nil {
			return fmt.Errorf("record: %w", err)
		}
		result.Inserted = inserted

		hs, err := tx.HighScore(ctx, rec.Period)
		if err != nil {
			return fmt.Errorf("load high score: %w", err)
		}
		result.HighScore = hs
		if !inserted {
			return nil
		}

		updated := hs.Upsert(rec.Guess)
		if updated.Equal(hs) {
			return nil
		}
		if err := tx.SaveHighScore(ctx, updated); err != nil {
			return fmt.Errorf("save high score: %w", err)
		}
		result.HighScore = updated
		result.HighScoreChanged = true
		return nil
	})
	if err != nil {
		h.metrics.ScoreRecorded("failed")
		return nil, fmt.Errorf("record_score: %w", err)
	}

	log := h.logger.With(logger.Period(int64(rec.Period)), logger.Player(int64(rec.Player)), "guess", rec.Guess.String())
	if !result.Inserted {
		h.metrics.ScoreRecorded("duplicate")
		log.Debug("duplicate submission ignored")
		return result, nil
	}
	h.metrics.ScoreRecorded("inserted")
	log.Debug("score recorded", "cup", rec.Cup.String(), "high_score_changed", result.HighScoreChanged)

	// Второй проход: медали после записи.
	if rec.Guess.Solved() {
		after, err := h.markers(ctx, rec.Period)
		if err != nil {
			// Запись уже зафиксирована; реакции обновятся при следующем результате.
			log.Error("failed to resolve medals after record", "error", err)
		} else {
			result.Removed, result.Added = cup.DiffMarkers(before, after)
		}
	}

	if cmd.Silent {
		return result, nil
	}

	result.Events = append(result.Events, cup.NewScoreRecordedEvent(rec))
	if len(result.Removed) > 0 || len(result.Added) > 0 {
		h.metrics.MedalsChanged()
		log.Info("medals changed", "removed", len(result.Removed), "added", len(result.Added))
		result.Events = append(result.Events, cup.NewMedalsChangedEvent(rec.Period, result.Removed, result.Added))
	}
	h.publish(result.Events)
	return result, nil
}

// markers возвращает текущих медалистов дня. Неинициализированный день
// медалей не имеет.
func (h *RecordScoreHandler) markers(ctx context.Context, period cup.PeriodID) ([]cup.MarkerChange, error) {
	hs, records, err := h.store.PeriodResults(ctx, period)
	if errors.Is(err, cup.ErrPeriodNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load day: %w", err)
	}
	return cup.Markers(hs, records), nil
}

func (h *RecordScoreHandler) publish(events []shared.Event) {
	if h.publisher == nil {
		return
	}
	for _, e := range events {
		if err := h.publisher.Publish(e); err != nil {
			h.logger.Error("failed to publish event", "event_type", e.EventType(), logger.Err(err))
		}
	}
}

func rejectReason(err error) string {
	if errors.Is(err, cup.ErrIllegalGuessCount) {
		return "illegal_guess"
	}
	return "malformed"
}
