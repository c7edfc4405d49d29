package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollLoopDefaults(t *testing.T) {
	loop := NewPollLoop(0, 0)
	assert.Equal(t, time.Second, loop.Interval)
	assert.Equal(t, time.Minute, loop.Backoff)
}

func TestPollLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewPollLoop(time.Millisecond, time.Millisecond)

	runs := 0
	err := loop.Run(ctx, func(context.Context) error {
		runs++
		if runs >= 3 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, runs)
}

func TestPollLoopBacksOffAfterError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewPollLoop(time.Millisecond, 60*time.Millisecond)

	var stamps []time.Time
	err := loop.Run(ctx, func(context.Context) error {
		stamps = append(stamps, time.Now())
		if len(stamps) == 1 {
			return errors.New("transient")
		}
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, stamps, 2)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 60*time.Millisecond)
}

func TestPollLoopRecoversFromPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewPollLoop(time.Millisecond, time.Millisecond)

	runs := 0
	err := loop.Run(ctx, func(context.Context) error {
		runs++
		if runs == 1 {
			panic("boom")
		}
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, runs)
}
