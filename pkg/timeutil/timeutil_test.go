package timeutil

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, DefaultZone, loc.String())

	loc, err = LoadLocation("UTC")
	require.NoError(t, err)
	assert.Same(t, time.UTC, loc)

	_, err = LoadLocation("Mars/Olympus")
	assert.ErrorContains(t, err, "Mars/Olympus")
}

func TestFormat(t *testing.T) {
	loc, err := LoadLocation(DefaultZone)
	require.NoError(t, err)

	// 23:30 UTC on the last day of February is already March in Stockholm.
	ts := time.Date(2024, 2, 29, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "1 mars 2024", FormatDate(ts, loc))
	assert.Equal(t, "29 februari 2024", FormatDate(ts, time.UTC))

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, loc)
	assert.Equal(t, "1 mars 2024 - 31 mars 2024", FormatRange(from, to, loc))
}

func TestDaysBetween(t *testing.T) {
	loc, _ := LoadLocation(DefaultZone)
	a := time.Date(2024, 3, 30, 12, 0, 0, 0, loc)
	b := time.Date(2024, 4, 1, 1, 0, 0, 0, loc)
	assert.Equal(t, 2, DaysBetween(a, b, loc))
	assert.Equal(t, -2, DaysBetween(b, a, loc))
}
