package services

import "time"

// Clock abstracts time and one-shot timers so the debounce/retry/backup
// machinery can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a stoppable one-shot timer handle.
type Timer interface {
	// Stop prevents the timer from firing. Reports whether it stopped the
	// timer before it fired.
	Stop() bool
}

type realClock struct{}

// NewClock returns a Clock backed by the time package.
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
