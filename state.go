package goSession

import (
	"sync"
	"sync/atomic"
)

// stateChange pairs the states around one transition for hooks that
// compare them, such as cache invalidation.
type stateChange struct {
	prev SessionState
	next SessionState
}

// stateOwner is the only holder of the mutable SessionState. Every
// transition goes through apply or applyIf, bumps Version, and queues a
// change notification. Notifications are delivered strictly in
// transition order by a single drainer, outside the state lock, so
// hooks may trigger further transitions without deadlocking.
type stateOwner struct {
	mu      sync.Mutex
	state   SessionState
	pending []stateChange

	draining atomic.Bool

	// onChange runs on the drain goroutine for every transition.
	// Set once before the first transition.
	onChange func(stateChange)
}

func newStateOwner(onChange func(stateChange)) *stateOwner {
	return &stateOwner{onChange: onChange}
}

func (o *stateOwner) current() SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// apply runs mutate under the lock and bumps Version. mutate must not
// call back into the owner.
func (o *stateOwner) apply(mutate func(*SessionState)) SessionState {
	o.mu.Lock()
	prev := o.state
	mutate(&o.state)
	o.state.Version = prev.Version + 1
	next := o.state
	o.pending = append(o.pending, stateChange{prev: prev, next: next})
	o.mu.Unlock()

	o.drain()
	return next
}

// applyIf is apply gated on the version observed when the asynchronous
// work was dispatched. A mismatch means the session moved on and the
// result is stale; the current state is returned untouched.
func (o *stateOwner) applyIf(expect uint64, mutate func(*SessionState)) (SessionState, bool) {
	o.mu.Lock()
	if o.state.Version != expect {
		cur := o.state
		o.mu.Unlock()
		return cur, false
	}
	prev := o.state
	mutate(&o.state)
	o.state.Version = prev.Version + 1
	next := o.state
	o.pending = append(o.pending, stateChange{prev: prev, next: next})
	o.mu.Unlock()

	o.drain()
	return next, true
}

// drain delivers queued changes in order. The CAS elects exactly one
// drainer; transitions queued by hooks while draining are picked up by
// the same loop, so delivery order always matches transition order.
func (o *stateOwner) drain() {
	if !o.draining.CompareAndSwap(false, true) {
		return
	}
	for {
		o.mu.Lock()
		if len(o.pending) == 0 {
			o.draining.Store(false)
			o.mu.Unlock()
			return
		}
		change := o.pending[0]
		o.pending = o.pending[1:]
		o.mu.Unlock()

		if o.onChange != nil {
			o.onChange(change)
		}
	}
}
