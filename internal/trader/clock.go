package trader

import "time"

// Clock abstracts wall-clock reads so the breach watchdog can be driven by a
// fake clock in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
