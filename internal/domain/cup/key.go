package cup

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CUP KEY
// Кубок длится календарный месяц. Ключ - строка "ГГГГ-М" без ведущего нуля
// у месяца ("2024-1", "2024-11"), так что ключи разных месяцев не совпадают.
// ══════════════════════════════════════════════════════════════════════════════

// CupKey - идентификатор месячного кубка.
type CupKey string

// KeyAt вычисляет ключ кубка для момента t в часовом поясе loc.
// Функция чистая: одно и то же время всегда даёт один и тот же ключ.
func KeyAt(t time.Time, loc *time.Location) CupKey {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return NewCupKey(local.Year(), local.Month())
}

// NewCupKey собирает ключ из года и месяца.
func NewCupKey(year int, month time.Month) CupKey {
	return CupKey(fmt.Sprintf("%d-%d", year, int(month)))
}

// ParseCupKey проверяет строку и возвращает ключ.
func ParseCupKey(s string) (CupKey, error) {
	y, m, ok := splitKey(strings.TrimSpace(s))
	if !ok {
		return "", ErrInvalidCupKey.WithDetail(fmt.Errorf("%q", s))
	}
	return NewCupKey(y, m), nil
}

func splitKey(s string) (int, time.Month, bool) {
	ys, ms, found := strings.Cut(s, "-")
	if !found || len(ys) != 4 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(ys)
	if err != nil || y < 1 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	return y, time.Month(m), true
}

// String возвращает ключ как есть.
func (k CupKey) String() string {
	return string(k)
}

// IsZero возвращает true для пустого ключа.
func (k CupKey) IsZero() bool {
	return k == ""
}

// YearMonth раскладывает ключ на год и месяц.
func (k CupKey) YearMonth() (int, time.Month, bool) {
	return splitKey(string(k))
}

// Bounds возвращает полуинтервал [начало, конец) месяца кубка в loc.
func (k CupKey) Bounds(loc *time.Location) (time.Time, time.Time, error) {
	y, m, ok := k.YearMonth()
	if !ok {
		return time.Time{}, time.Time{}, ErrInvalidCupKey.WithDetail(fmt.Errorf("%q", string(k)))
	}
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0), nil
}

// Previous возвращает ключ предыдущего месяца.
func (k CupKey) Previous() (CupKey, error) {
	y, m, ok := k.YearMonth()
	if !ok {
		return "", ErrInvalidCupKey.WithDetail(fmt.Errorf("%q", string(k)))
	}
	t := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return NewCupKey(t.Year(), t.Month()), nil
}

// Next возвращает ключ следующего месяца.
func (k CupKey) Next() (CupKey, error) {
	y, m, ok := k.YearMonth()
	if !ok {
		return "", ErrInvalidCupKey.WithDetail(fmt.Errorf("%q", string(k)))
	}
	t := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return NewCupKey(t.Year(), t.Month()), nil
}

// Before сообщает, идёт ли кубок k раньше other.
// Некорректные ключи считаются несравнимыми.
func (k CupKey) Before(other CupKey) bool {
	y1, m1, ok1 := k.YearMonth()
	y2, m2, ok2 := other.YearMonth()
	if !ok1 || !ok2 {
		return false
	}
	return y1 < y2 || (y1 == y2 && m1 < m2)
}

// Label возвращает человекочитаемое название кубка ("januari 2024").
func (k CupKey) Label() string {
	y, m, ok := k.YearMonth()
	if !ok {
		return string(k)
	}
	return fmt.Sprintf("%s %d", swedishMonths[m-1], y)
}

var swedishMonths = [12]string{
	"januari", "februari", "mars", "april", "maj", "juni",
	"juli", "augusti", "september", "oktober", "november", "december",
}
