// Package timeutil holds the calendar helpers shared by the commands.
// Cup boundaries are computed in the configured zone; storage is UTC.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// DefaultZone is the zone cups are counted in.
const DefaultZone = "Europe/Stockholm"

var swedishMonths = [...]string{
	"januari", "februari", "mars", "april", "maj", "juni",
	"juli", "augusti", "september", "oktober", "november", "december",
}

// LoadLocation resolves a zone name. An empty name gives DefaultZone,
// "UTC" and "Local" map to the Go built-ins.
func LoadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "":
		name = DefaultZone
	case "UTC":
		return time.UTC, nil
	case "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

// FormatDate formats t in loc as "15 mars 2024".
func FormatDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d %s %d", t.Day(), swedishMonths[t.Month()-1], t.Year())
}

// FormatRange formats the half-open interval [from, to) by its first and
// last day, e.g. "1 mars 2024 - 31 mars 2024".
func FormatRange(from, to time.Time, loc *time.Location) string {
	last := to.Add(-time.Nanosecond)
	return FormatDate(from, loc) + " - " + FormatDate(last, loc)
}

// DaysBetween returns the number of calendar days from t1 to t2 in loc.
func DaysBetween(t1, t2 time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	a := t1.In(loc)
	b := t2.In(loc)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
