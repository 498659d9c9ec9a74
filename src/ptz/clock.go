package ptz

import "time"

// Timer is a pending stop action. Stop cancels it and reports whether it
// was still pending.
type Timer interface {
	Stop() bool
}

// Clock creates cancellable timers. The scheduler takes its timers from
// a Clock so tests can drive it with a manual clock instead of waiting
// on real time.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by time.AfterFunc.
func SystemClock() Clock {
	return systemClock{}
}
