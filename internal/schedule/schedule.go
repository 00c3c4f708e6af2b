// Package schedule runs a fixed set of tasks from a single ticker. Every task
// carries its own due predicate, lastRun + interval <= now, and tasks never
// overlap: a tick runs the due tasks one after another in registration order.
package schedule

import (
	"context"
	"time"

	"github.com/mamchain/mamio/internal/logger"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrStop ends Scheduler.Run when returned by a task.
var ErrStop = errors.New("schedule: stop")

type Task struct {
	Name string
	// Interval is drawn at start and again after every firing.
	Interval func() time.Duration
	// Immediate makes the task due on the first tick.
	Immediate bool
	Run       func(ctx context.Context) error

	lastRun time.Time
	wait    time.Duration
}

// Every is an Interval returning d.
func Every(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

func (t *Task) Due(now time.Time) bool {
	return !now.Before(t.lastRun.Add(t.wait))
}

type Scheduler struct {
	clock clock.Clock
	tick  time.Duration
	tasks []*Task
}

func New(clk clock.Clock, tick time.Duration, tasks ...*Task) *Scheduler {
	now := clk.Now()
	for _, task := range tasks {
		task.lastRun = now
		if !task.Immediate {
			task.wait = task.Interval()
		}
	}

	return &Scheduler{
		clock: clk,
		tick:  tick,
		tasks: tasks,
	}
}

// Run ticks until ctx is cancelled or a task returns ErrStop.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := s.clock.Ticker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped", zap.Error(ctx.Err()))
			return nil
		case <-ticker.C:
			if err := s.Tick(ctx); errors.Is(err, ErrStop) {
				logger.Info("scheduler finished")
				return nil
			}
		}
	}
}

// Tick runs every task that is due now. Task failures are logged and do not
// stop the remaining tasks; only ErrStop is returned.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.clock.Now()

	for _, task := range s.tasks {
		if !task.Due(now) {
			continue
		}

		err := task.Run(ctx)
		task.lastRun = now
		task.wait = task.Interval()

		if errors.Is(err, ErrStop) {
			return ErrStop
		}
		if err != nil {
			logger.Error("task failed", zap.String("task", task.Name), zap.Error(err))
		}
	}

	return nil
}
