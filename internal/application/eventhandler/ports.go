// Package eventhandler содержит обработчики доменных событий.
// Обработчики переводят события кубка в побочные эффекты в чате:
// реакции-медали, объявления о победителе и описание канала.
// Ошибки чата логируются и не влияют на уже записанные данные.
package eventhandler

import (
	"context"

	"github.com/alem-hub/wordle-cup/internal/application/query"
	"github.com/alem-hub/wordle-cup/internal/domain/cup"
)

// ReactionSink ставит и снимает реакции на сообщениях.
type ReactionSink interface {
	// SetMarker заменяет реакцию на сообщении на marker.
	SetMarker(ctx context.Context, ref cup.MessageRef, marker string) error

	// ClearMarker убирает реакцию бота с сообщения.
	ClearMarker(ctx context.Context, ref cup.MessageRef) error
}

// AnnouncementSink публикует сообщение в канал.
type AnnouncementSink interface {
	Announce(ctx context.Context, text string) error
}

// TopicSink меняет описание канала.
type TopicSink interface {
	SetTopic(ctx context.Context, text string) error
}

// SummarySource собирает данные для описания канала.
type SummarySource interface {
	Handle(ctx context.Context) (*query.ChannelSummary, error)
}

// CacheInvalidator сбрасывает закешированные таблицы.
type CacheInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// Markers - реакции для медалей.
type Markers map[cup.Placement]string

// DefaultMarkers - 🥇 🥈 🥉.
func DefaultMarkers() Markers {
	return Markers{
		cup.PlacementGold:   "🥇",
		cup.PlacementSilver: "🥈",
		cup.PlacementBronze: "🥉",
	}
}

// For возвращает реакцию медали и признак её наличия.
func (m Markers) For(p cup.Placement) (string, bool) {
	s, ok := m[p]
	return s, ok && s != ""
}
