package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule runs a job at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates an IntervalSchedule. Non-positive intervals
// fall back to one minute.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	if interval <= 0 {
		interval = time.Minute
	}
	return &IntervalSchedule{Interval: interval}
}

// Next returns t plus the interval.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}

// ParseSchedule accepts either "@every <duration>" or a five-field cron
// expression.
func ParseSchedule(expr string) (Schedule, error) {
	var d string
	if _, err := fmt.Sscanf(expr, "@every %s", &d); err == nil {
		interval, err := time.ParseDuration(d)
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q: %w", d, err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("interval must be positive: %s", d)
		}
		return NewIntervalSchedule(interval), nil
	}
	return ParseCronExpression(expr)
}
