package leaderboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
)

// WindowKind - вид окна, по которому считаются очки.
type WindowKind int

const (
	// WindowAll - за всё время.
	WindowAll WindowKind = iota

	// WindowCurrentCup - текущий кубок (ключ вычисляется в момент запроса).
	WindowCurrentCup

	// WindowCup - конкретный кубок.
	WindowCup
)

// Window - окно агрегации.
type Window struct {
	Kind WindowKind
	Cup  cup.CupKey
}

// ErrInvalidWindow - не удалось разобрать окно.
var ErrInvalidWindow = shared.NewDomainError("leaderboard", "ParseWindow", shared.ErrInvalidFormat, "invalid leaderboard window")

// AllTime возвращает окно за всё время.
func AllTime() Window { return Window{Kind: WindowAll} }

// CurrentCup возвращает окно текущего кубка.
func CurrentCup() Window { return Window{Kind: WindowCurrentCup} }

// ForCup возвращает окно конкретного кубка.
func ForCup(key cup.CupKey) Window { return Window{Kind: WindowCup, Cup: key} }

// Resolve заменяет "текущий кубок" на конкретный ключ для момента now.
func (w Window) Resolve(now time.Time, loc *time.Location) Window {
	if w.Kind == WindowCurrentCup {
		return ForCup(cup.KeyAt(now, loc))
	}
	return w
}

// String возвращает представление окна ("all", "current", "2024-3").
func (w Window) String() string {
	switch w.Kind {
	case WindowAll:
		return "all"
	case WindowCurrentCup:
		return "current"
	default:
		return w.Cup.String()
	}
}

// ParseWindow разбирает окно из строки. Пустая строка - текущий кубок.
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "current", "cup":
		return CurrentCup(), nil
	case "all", "total":
		return AllTime(), nil
	}
	key, err := cup.ParseCupKey(s)
	if err != nil {
		return Window{}, ErrInvalidWindow.WithDetail(fmt.Errorf("%q", s))
	}
	return ForCup(key), nil
}
