package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CUP ENDED HANDLER
// Объявляет итог кубка. Поздравление выбирается случайно из шаблонов,
// {nick} заменяется на имя победителя. Кубок без победителя тоже
// объявляется.
// ═══════════════════════════════════════════════════════════════════════════

// NoWinnerText - объявление для кубка без победителя.
const NoWinnerText = "Ingen vinnare i denna cup."

// DefaultCongratulations - шаблоны поздравлений.
var DefaultCongratulations = []string{
	"Grattis {nick}, du vann cupen!",
	"{nick} tar hem cupen! Snyggt spelat!",
	"Hela kanalen bugar för {nick}, månadens Wordle-mästare!",
}

// OnCupEndedHandler обрабатывает cup.CupEndedEvent.
type OnCupEndedHandler struct {
	sink      AnnouncementSink
	templates []string
	fallback  string
	pick      func(n int) int
	timeout   time.Duration
	logger    *slog.Logger
}

// CupEndedConfig - настройки объявления.
type CupEndedConfig struct {
	// Templates - шаблоны поздравлений с {nick}.
	Templates []string

	// FallbackName - имя, если имя победителя неизвестно.
	FallbackName string

	// Pick выбирает шаблон; по умолчанию случайно.
	Pick func(n int) int

	Logger *slog.Logger
}

// NewOnCupEndedHandler создаёт обработчик.
func NewOnCupEndedHandler(sink AnnouncementSink, config CupEndedConfig) *OnCupEndedHandler {
	if len(config.Templates) == 0 {
		config.Templates = DefaultCongratulations
	}
	if config.FallbackName == "" {
		config.FallbackName = "Tomten"
	}
	if config.Pick == nil {
		config.Pick = rand.IntN
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &OnCupEndedHandler{
		sink:      sink,
		templates: config.Templates,
		fallback:  config.FallbackName,
		pick:      config.Pick,
		timeout:   30 * time.Second,
		logger:    config.Logger.With("handler", "on_cup_ended"),
	}
}

// Handle реализует shared.EventHandler. Работает и с событиями,
// пришедшими от другого процесса.
func (h *OnCupEndedHandler) Handle(event shared.Event) error {
	if event.EventType() != shared.EventCupEnded {
		return nil
	}

	p := event.Payload()
	key := cup.CupKey(shared.PayloadString(p, "cup_key"))
	_, hasWinner := shared.PayloadInt64(p, "winner_id")
	name := shared.PayloadString(p, "winner_name")
	points, _ := shared.PayloadInt64(p, "points")

	text := h.Text(key, hasWinner, name, int(points))

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.sink.Announce(ctx, text); err != nil {
		h.logger.Error("failed to announce cup result", "cup", key.String(), "error", err)
		return fmt.Errorf("announce %s: %w", key, err)
	}
	h.logger.Info("cup result announced", "cup", key.String(), "has_winner", hasWinner)
	return nil
}

// Text собирает объявление.
func (h *OnCupEndedHandler) Text(key cup.CupKey, hasWinner bool, name string, points int) string {
	header := fmt.Sprintf("🏆 Cupen för %s är avgjord.", key.Label())
	if !hasWinner {
		return header + "\n" + NoWinnerText
	}
	if name == "" {
		name = h.fallback
	}
	tpl := h.templates[h.pick(len(h.templates))]
	return fmt.Sprintf("%s\n%s (%dp)", header, strings.ReplaceAll(tpl, "{nick}", name), points)
}
