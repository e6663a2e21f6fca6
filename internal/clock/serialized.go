package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Serialized wraps a Clock so every callback runs with a lock held and is
// skipped if its timer was stopped before the lock was acquired. Code that
// holds the lock can therefore stop a timer and rely on its callback not
// running afterwards.
type Serialized struct {
	clock Clock
	lock  sync.Locker
}

// NewSerialized returns c with callbacks serialized through lock.
func NewSerialized(c Clock, lock sync.Locker) *Serialized {
	return &Serialized{clock: c, lock: lock}
}

// Now returns the wrapped clock's time.
func (s *Serialized) Now() time.Time { return s.clock.Now() }

// AfterFunc schedules f once under the lock.
func (s *Serialized) AfterFunc(d time.Duration, f func()) Timer {
	t := &serialTimer{}
	t.inner = s.clock.AfterFunc(d, s.wrap(t, f))

	return t
}

// Every schedules f repeatedly under the lock.
func (s *Serialized) Every(d time.Duration, f func()) Timer {
	t := &serialTimer{}
	t.inner = s.clock.Every(d, s.wrap(t, f))

	return t
}

func (s *Serialized) wrap(t *serialTimer, f func()) func() {
	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()

		if t.stopped.Load() {
			return
		}

		f()
	}
}

type serialTimer struct {
	inner   Timer
	stopped atomic.Bool
}

func (t *serialTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}

	if t.inner != nil {
		t.inner.Stop()
	}

	return true
}
