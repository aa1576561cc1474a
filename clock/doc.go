// Package clock provides an injectable time source for lifecycle timers.
//
// Production wiring uses [Real]. Tests use [Fake], which stands still until
// [FakeClock.Advance] moves it forward and fires pending timers in deadline
// order. Every timer in this module (handshake reply deadline, refresh
// watchdog, revoke watchdog) is created through a [Clock], so timing behavior
// is deterministic under test without sleeping.
//
// # What this package must NOT do
//
//   - Import any other package from this module.
//   - Start goroutines on the fake path ([FakeClock.Advance] fires callbacks
//     synchronously on the advancing goroutine).
package clock
