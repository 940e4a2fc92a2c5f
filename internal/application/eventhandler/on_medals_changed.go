package eventhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON MEDALS CHANGED HANDLER
// Переставляет реакции-медали. Сначала снимаются медали, которые ушли с
// сообщения, затем ставятся новые; сообщение, которое сменило медаль,
// получает новую реакцию без промежуточного снятия.
// ═══════════════════════════════════════════════════════════════════════════

// OnMedalsChangedHandler обрабатывает cup.MedalsChangedEvent.
type OnMedalsChangedHandler struct {
	sink    ReactionSink
	markers Markers
	timeout time.Duration
	logger  *slog.Logger
}

// NewOnMedalsChangedHandler создаёт обработчик.
func NewOnMedalsChangedHandler(sink ReactionSink, markers Markers, logger *slog.Logger) *OnMedalsChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if len(markers) == 0 {
		markers = DefaultMarkers()
	}
	return &OnMedalsChangedHandler{
		sink:    sink,
		markers: markers,
		timeout: 30 * time.Second,
		logger:  logger.With("handler", "on_medals_changed"),
	}
}

// Handle реализует shared.EventHandler.
func (h *OnMedalsChangedHandler) Handle(event shared.Event) error {
	removed, added, err := medalChanges(event)
	if err != nil {
		h.logger.Warn("unexpected medals event", "event_type", event.EventType(), "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	return h.apply(ctx, removed, added)
}

func (h *OnMedalsChangedHandler) apply(ctx context.Context, removed, added []cup.MarkerChange) error {
	gaining := make(map[cup.MessageRef]bool, len(added))
	for _, m := range added {
		gaining[m.Source] = true
	}

	var errs []error
	for _, m := range removed {
		if m.Source.IsZero() || gaining[m.Source] {
			continue
		}
		if err := h.sink.ClearMarker(ctx, m.Source); err != nil {
			errs = append(errs, fmt.Errorf("clear %d: %w", m.Source.MessageID, err))
		}
	}
	for _, m := range added {
		marker, ok := h.markers.For(m.Placement)
		if !ok || m.Source.IsZero() {
			continue
		}
		if err := h.sink.SetMarker(ctx, m.Source, marker); err != nil {
			errs = append(errs, fmt.Errorf("set %d: %w", m.Source.MessageID, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		h.logger.Error("failed to update medal reactions", "error", err)
		return err
	}
	h.logger.Debug("medal reactions updated", "removed", len(removed), "added", len(added))
	return nil
}

// medalChanges достаёт изменения из локального или пришедшего по сети события.
func medalChanges(event shared.Event) (removed, added []cup.MarkerChange, err error) {
	if e, ok := event.(cup.MedalsChangedEvent); ok {
		return e.Removed, e.Added, nil
	}
	if event.EventType() != shared.EventMedalsChanged {
		return nil, nil, fmt.Errorf("wrong event type %s", event.EventType())
	}
	p := event.Payload()
	return markersFromPayload(p["removed"]), markersFromPayload(p["added"]), nil
}

func markersFromPayload(v interface{}) []cup.MarkerChange {
	var items []map[string]interface{}
	switch list := v.(type) {
	case []map[string]interface{}:
		items = list
	case []interface{}:
		for _, it := range list {
			if m, ok := it.(map[string]interface{}); ok {
				items = append(items, m)
			}
		}
	}

	out := make([]cup.MarkerChange, 0, len(items))
	for _, m := range items {
		chat, _ := shared.PayloadInt64(m, "chat_id")
		msg, _ := shared.PayloadInt64(m, "message_id")
		player, _ := shared.PayloadInt64(m, "player_id")
		out = append(out, cup.MarkerChange{
			Source:    cup.MessageRef{ChatID: chat, MessageID: msg},
			Player:    cup.PlayerID(player),
			Placement: cup.ParsePlacement(shared.PayloadString(m, "placement")),
		})
	}
	return out
}
