// Package cup содержит доменную модель Wordle-кубка: результаты игроков,
// дневные рекорды (золото/серебро/бронза) и ключи месячных кубков.
//
// Пакет не зависит от инфраструктуры: хранилище описано интерфейсами
// (см. repository.go), а все вычисления (парсинг, пересчёт рекордов,
// вычисление ключа кубка) являются чистыми функциями.
package cup

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// PlayerID - непрозрачный числовой идентификатор игрока из чат-платформы.
type PlayerID int64

// String возвращает строковое представление ID.
func (id PlayerID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// PeriodID - порядковый номер дневной игры (например, 547 в "Wordle 547 3/6").
type PeriodID int64

// String возвращает строковое представление номера дня.
func (p PeriodID) String() string {
	return fmt.Sprintf("%d", int64(p))
}

// GuessCount - количество попыток, за которое решена загадка.
// 0 означает провал (X) и не даёт права на медаль.
type GuessCount int

const (
	// GuessFailed - загадка не решена.
	GuessFailed GuessCount = 0

	// MaxGuesses - максимальное количество попыток в игре.
	MaxGuesses GuessCount = 6
)

// IsValid проверяет, что значение лежит в диапазоне 0..6.
func (g GuessCount) IsValid() bool {
	return g >= GuessFailed && g <= MaxGuesses
}

// Solved возвращает true, если загадка решена.
func (g GuessCount) Solved() bool {
	return g > GuessFailed && g <= MaxGuesses
}

// String возвращает представление в формате игры ("X" для провала).
func (g GuessCount) String() string {
	if g == GuessFailed {
		return "X"
	}
	return fmt.Sprintf("%d", int(g))
}

// MessageRef - ссылка на исходное сообщение в чате.
// Нужна, чтобы потом ставить и снимать реакции-медали.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

// IsZero возвращает true, если ссылка не указывает ни на какое сообщение.
func (r MessageRef) IsZero() bool {
	return r.ChatID == 0 && r.MessageID == 0
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Player - участник кубка. Имя хранится только для отображения
// и никогда не участвует в расчётах.
type Player struct {
	ID          PlayerID
	DisplayName string
}

// Name возвращает отображаемое имя или ID, если имя неизвестно.
func (p Player) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID.String()
}

// ScoreRecord - один засчитанный результат игрока за день.
// На пару (Period, Player) существует не более одной записи:
// повторная отправка за тот же день игнорируется.
type ScoreRecord struct {
	ID         int64
	Period     PeriodID
	Player     PlayerID
	Guess      GuessCount
	Cup        CupKey
	Source     MessageRef
	RecordedAt time.Time
}

// MedalCount - пожизненный счёт медалей игрока.
type MedalCount struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Bronze int `json:"bronze"`
}

// Total возвращает общее количество медалей.
func (m MedalCount) Total() int {
	return m.Gold + m.Silver + m.Bronze
}

// Of возвращает количество медалей указанного достоинства.
func (m MedalCount) Of(p Placement) int {
	switch p {
	case PlacementGold:
		return m.Gold
	case PlacementSilver:
		return m.Silver
	case PlacementBronze:
		return m.Bronze
	default:
		return 0
	}
}

// Add увеличивает счётчик медалей указанного достоинства.
func (m *MedalCount) Add(p Placement) {
	switch p {
	case PlacementGold:
		m.Gold++
	case PlacementSilver:
		m.Silver++
	case PlacementBronze:
		m.Bronze++
	}
}

// CupResult - итог завершённого кубка.
// Winner == nil, если никто не набрал очков.
type CupResult struct {
	Cup          CupKey
	Winner       *PlayerID
	Points       int
	Participants int
	ClosedAt     time.Time
}

// HasWinner возвращает true, если у кубка есть победитель.
func (r CupResult) HasWinner() bool {
	return r.Winner != nil
}
