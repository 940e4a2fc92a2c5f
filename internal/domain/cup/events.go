package cup

import (
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// События кубка, на которые реагируют реакции в чате, описание канала
// и объявления о победителе.
// ══════════════════════════════════════════════════════════════════════════════

// ScoreRecordedEvent - засчитан новый результат.
type ScoreRecordedEvent struct {
	shared.BaseEvent
	Period PeriodID
	Player PlayerID
	Guess  GuessCount
	Cup    CupKey
	Source MessageRef
}

// NewScoreRecordedEvent создаёт событие для записанного результата.
func NewScoreRecordedEvent(rec ScoreRecord) ScoreRecordedEvent {
	return ScoreRecordedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventScoreRecorded, rec.Period.String()),
		Period:    rec.Period,
		Player:    rec.Player,
		Guess:     rec.Guess,
		Cup:       rec.Cup,
		Source:    rec.Source,
	}
}

// Payload возвращает данные события.
func (e ScoreRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"period_id":  int64(e.Period),
		"player_id":  int64(e.Player),
		"guess":      int(e.Guess),
		"cup_key":    string(e.Cup),
		"chat_id":    e.Source.ChatID,
		"message_id": e.Source.MessageID,
	}
}

// ─────────────────────────────────────────────────────────────────────────────

// MarkerChange - одна медаль на конкретном сообщении.
type MarkerChange struct {
	Source    MessageRef
	Player    PlayerID
	Placement Placement
}

// MedalsChangedEvent - рекорд дня изменился, и медали надо переставить.
// Removed - медали, которые нужно снять, Added - которые нужно поставить.
type MedalsChangedEvent struct {
	shared.BaseEvent
	Period  PeriodID
	Removed []MarkerChange
	Added   []MarkerChange
}

// NewMedalsChangedEvent создаёт событие перестановки медалей.
func NewMedalsChangedEvent(period PeriodID, removed, added []MarkerChange) MedalsChangedEvent {
	return MedalsChangedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMedalsChanged, period.String()),
		Period:    period,
		Removed:   removed,
		Added:     added,
	}
}

// Payload возвращает данные события.
func (e MedalsChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"period_id": int64(e.Period),
		"removed":   markerPayload(e.Removed),
		"added":     markerPayload(e.Added),
	}
}

func markerPayload(changes []MarkerChange) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(changes))
	for _, c := range changes {
		out = append(out, map[string]interface{}{
			"chat_id":    c.Source.ChatID,
			"message_id": c.Source.MessageID,
			"player_id":  int64(c.Player),
			"placement":  c.Placement.String(),
		})
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────

// CupEndedEvent - месячный кубок завершён.
type CupEndedEvent struct {
	shared.BaseEvent
	Cup        CupKey
	Winner     *PlayerID
	WinnerName string
	Points     int
}

// NewCupEndedEvent создаёт событие завершения кубка.
func NewCupEndedEvent(result CupResult, winnerName string) CupEndedEvent {
	return CupEndedEvent{
		BaseEvent:  shared.NewBaseEvent(shared.EventCupEnded, result.Cup.String()),
		Cup:        result.Cup,
		Winner:     result.Winner,
		WinnerName: winnerName,
		Points:     result.Points,
	}
}

// Payload возвращает данные события. winner_id отсутствует, если победителя нет.
func (e CupEndedEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"cup_key":     string(e.Cup),
		"winner_name": e.WinnerName,
		"points":      e.Points,
	}
	if e.Winner != nil {
		p["winner_id"] = int64(*e.Winner)
	}
	return p
}
