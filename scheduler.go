package transit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultRefreshInterval = 7 * 24 * time.Hour
	DefaultFailureBackoff  = 10 * time.Minute
	DefaultInitialDelay    = 10 * time.Second

	// MinRefreshInterval is the floor for configured intervals.
	MinRefreshInterval = time.Minute
)

type SchedulerState string

const (
	SchedulerIdle     SchedulerState = "idle"
	SchedulerRunning  SchedulerState = "running"
	SchedulerSleeping SchedulerState = "sleeping"
)

// Scheduler runs a Refresher in a loop. A successful run sleeps for
// the normal interval; a failed run sleeps for the shorter failure
// backoff. Runs never overlap: the loop is the only caller, and a
// second Run on the same Scheduler refuses to start.
type Scheduler struct {
	Interval       time.Duration
	FailureBackoff time.Duration
	InitialDelay   time.Duration

	refresher *Refresher
	logger    *slog.Logger

	mutex      sync.Mutex
	active     bool
	state      SchedulerState
	sleepUntil time.Time
}

func NewScheduler(refresher *Refresher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		Interval:       DefaultRefreshInterval,
		FailureBackoff: DefaultFailureBackoff,
		InitialDelay:   DefaultInitialDelay,

		refresher: refresher,
		logger:    logger,
		state:     SchedulerIdle,
	}
}

// State reports the loop's current state and, when sleeping, the
// wakeup time.
func (s *Scheduler) State() (SchedulerState, time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state, s.sleepUntil
}

// Run blocks until ctx is canceled, refreshing on the configured
// cadence. Cancellation interrupts any in-progress sleep immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mutex.Lock()
	if s.active {
		s.mutex.Unlock()
		return errors.New("scheduler already running")
	}
	s.active = true
	s.mutex.Unlock()

	defer func() {
		s.mutex.Lock()
		s.active = false
		s.state = SchedulerIdle
		s.mutex.Unlock()
	}()

	interval := s.Interval
	if interval < MinRefreshInterval {
		s.logger.Warn("refresh interval below minimum, clamping",
			"configured", interval, "minimum", MinRefreshInterval)
		interval = MinRefreshInterval
	}

	s.logger.Info("refresh scheduler started",
		"interval", interval, "failure_backoff", s.FailureBackoff)

	if !s.sleep(ctx, s.InitialDelay) {
		return ctx.Err()
	}

	for {
		s.setState(SchedulerRunning, time.Time{})
		ok := s.refresher.Refresh(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := interval
		if !ok {
			wait = s.FailureBackoff
			s.logger.Info("refresh failed, retrying sooner", "backoff", wait)
		}

		if !s.sleep(ctx, wait) {
			return ctx.Err()
		}
	}
}

// sleep waits for d or until ctx is canceled, whichever comes first.
// Returns false on cancellation.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	s.setState(SchedulerSleeping, time.Now().Add(d))

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scheduler) setState(state SchedulerState, sleepUntil time.Time) {
	s.mutex.Lock()
	s.state = state
	s.sleepUntil = sleepUntil
	s.mutex.Unlock()
}
