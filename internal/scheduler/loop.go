package scheduler

import (
	"context"
	"runtime/debug"
	"time"

	"obsidian/internal/logger"
)

// PollLoop drives a step function at a fixed cadence. A step that returns an
// error (or panics) pushes the next run out to Backoff instead of Interval;
// the loop itself only exits when the context is cancelled.
type PollLoop struct {
	Interval time.Duration
	Backoff  time.Duration
}

func NewPollLoop(interval, backoff time.Duration) *PollLoop {
	if interval <= 0 {
		interval = time.Second
	}
	if backoff <= 0 {
		backoff = time.Minute
	}
	return &PollLoop{Interval: interval, Backoff: backoff}
}

func (l *PollLoop) Run(ctx context.Context, step func(context.Context) error) error {
	logger.Infof("PollLoop: started interval=%s backoff=%s", l.Interval, l.Backoff)
	for {
		wait := l.Interval
		if err := l.runStep(ctx, step); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Errorf("PollLoop: step failed, backing off %s: %v", l.Backoff, err)
			wait = l.Backoff
		}
		if !sleepWithContext(ctx, wait) {
			logger.Infof("PollLoop: ctx done, exit")
			return ctx.Err()
		}
	}
}

func (l *PollLoop) runStep(ctx context.Context, step func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("PollLoop: step panic: %v\n%s", r, debug.Stack())
			err = &panicError{value: r}
		}
	}()
	return step(ctx)
}

type panicError struct{ value any }

func (p *panicError) Error() string { return "step panicked" }

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
