// Package jobs contains the scheduled jobs of the cup engine.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alem-hub/wordle-cup/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// CUP ROLLOVER JOB
// ══════════════════════════════════════════════════════════════════════════════

// RolloverChecker checks whether the monthly cup has ended.
type RolloverChecker interface {
	Handle(ctx context.Context, now time.Time) (*command.RolloverResult, error)
}

// Locker serialises the job across processes. held is false when another
// process is already running it.
type Locker interface {
	TryLock(ctx context.Context, resource string, ttl time.Duration) (release func(context.Context) error, held bool, err error)
}

// CupRolloverJob runs the cup rollover check on a schedule.
type CupRolloverJob struct {
	checker RolloverChecker
	locker  Locker
	config  CupRolloverConfig
	logger  *slog.Logger

	last atomic.Pointer[command.RolloverResult]
}

// CupRolloverConfig contains configuration for the rollover job.
type CupRolloverConfig struct {
	// LockTTL bounds how long a crashed process can block the next run.
	LockTTL time.Duration

	// Timeout is the maximum duration of a single check.
	Timeout time.Duration

	// Now overrides the clock; used by tests.
	Now func() time.Time
}

// DefaultCupRolloverConfig returns sensible defaults.
func DefaultCupRolloverConfig() CupRolloverConfig {
	return CupRolloverConfig{
		LockTTL: 2 * time.Minute,
		Timeout: time.Minute,
	}
}

// NewCupRolloverJob creates the job. locker may be nil for a single process.
func NewCupRolloverJob(checker RolloverChecker, locker Locker, logger *slog.Logger, config CupRolloverConfig) *CupRolloverJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 2 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &CupRolloverJob{
		checker: checker,
		locker:  locker,
		config:  config,
		logger:  logger.With("job", "cup_rollover"),
	}
}

// Name returns the job name.
func (j *CupRolloverJob) Name() string {
	return "cup_rollover"
}

// Description returns a human-readable description.
func (j *CupRolloverJob) Description() string {
	return "Closes the monthly cup and announces the winner when the month changes"
}

// Run executes the rollover check.
func (j *CupRolloverJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	if j.locker != nil {
		release, held, err := j.locker.TryLock(ctx, j.Name(), j.config.LockTTL)
		if err != nil {
			return fmt.Errorf("failed to take rollover lock: %w", err)
		}
		if !held {
			j.logger.Debug("rollover already running elsewhere")
			return nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				j.logger.Warn("failed to release rollover lock", "error", err)
			}
		}()
	}

	result, err := j.checker.Handle(ctx, j.config.Now())
	if err != nil {
		return fmt.Errorf("cup rollover check failed: %w", err)
	}
	j.last.Store(result)

	if len(result.Ended) > 0 {
		j.logger.Info("cups closed", "count", len(result.Ended), "current", result.Current.String())
	}
	return nil
}

// LastResult returns the outcome of the most recent successful run.
func (j *CupRolloverJob) LastResult() *command.RolloverResult {
	return j.last.Load()
}
