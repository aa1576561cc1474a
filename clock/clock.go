package clock

import "time"

// Clock abstracts the time source used by lifecycle timers.
//
// Components that need the current time or a delayed callback hold a Clock
// field instead of calling the time package directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for duration d, then calls f in its own goroutine.
	// The returned Timer cancels the pending call via Stop. If d <= 0,
	// f runs immediately.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a cancellable scheduled call created by [Clock.AfterFunc].
type Timer struct {
	stopFunc func() bool
}

// Stop cancels the pending call. It reports whether the call was still
// pending; false means the callback already ran or was stopped before.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}
