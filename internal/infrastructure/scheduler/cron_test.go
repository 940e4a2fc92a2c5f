package scheduler

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression_Invalid(t *testing.T) {
	tests := []string{
		"",
		"* * * *",
		"60 * * * *",
		"* 24 * * *",
		"* * 0 * *",
		"* * * 13 *",
		"* * * * 7",
		"*/0 * * * *",
		"5-1 * * * *",
		"a * * * *",
		"1,,2 * * * *",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseCronExpression(expr)
			assert.Error(t, err)
		})
	}
}

func TestCronExpression_Next(t *testing.T) {
	base := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		expr  string
		after time.Time
		want  time.Time
	}{
		{name: "every minute", expr: "* * * * *", after: base, want: base.Add(time.Minute)},
		{name: "strictly after", expr: "30 10 * * *", after: base, want: base.AddDate(0, 0, 1)},
		{name: "rollover default", expr: CupRolloverDefault, after: base, want: time.Date(2024, 3, 16, 0, 5, 0, 0, time.UTC)},
		{name: "every hour", expr: EveryHour, after: base, want: time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC)},
		{name: "first of month", expr: FirstOfMonth, after: base, want: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{name: "year wrap", expr: FirstOfMonth, after: time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC), want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "step", expr: "*/15 * * * *", after: base, want: time.Date(2024, 3, 15, 10, 45, 0, 0, time.UTC)},
		{name: "list", expr: "0 8,20 * * *", after: base, want: time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)},
		{name: "weekday", expr: "0 9 * * 1", after: base, want: time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)},
		{name: "seconds are dropped", expr: "* * * * *", after: base.Add(42 * time.Second), want: base.Add(time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, err := ParseCronExpression(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ce.Next(tt.after))
		})
	}
}

func TestCronExpression_NoMatchWithinYear(t *testing.T) {
	ce := MustParseCronExpression("0 0 30 2 *")
	assert.True(t, ce.Next(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)).IsZero())
}

func TestCronExpression_NextInLocation(t *testing.T) {
	stockholm, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)

	ce := MustParseCronExpression(CupRolloverDefault)
	after := time.Date(2024, 3, 31, 23, 0, 0, 0, stockholm)
	got := ce.Next(after)

	assert.Equal(t, time.Date(2024, 4, 1, 0, 5, 0, 0, stockholm), got)
	assert.Equal(t, stockholm, got.Location())
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("@every 30s")
	require.NoError(t, err)
	assert.Equal(t, "@every 30s", s.String())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(30*time.Second), s.Next(now))

	s, err = ParseSchedule("5 0 * * *")
	require.NoError(t, err)
	assert.Equal(t, "5 0 * * *", s.String())

	_, err = ParseSchedule("@every soon")
	assert.Error(t, err)
	_, err = ParseSchedule("@every -1m")
	assert.Error(t, err)
}

func TestMustParseCronExpression_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseCronExpression("nope") })
}
