// Package clock provides cancellable scheduled tasks over a real or a
// manually advanced clock.
package clock

import (
	"sync"
	"time"
)

// Timer is a handle to a scheduled task.
type Timer interface {
	// Stop cancels the task. It reports whether the call stopped a pending
	// task; stopping twice is a no-op returning false.
	Stop() bool
}

// Clock schedules one-shot and repeating tasks.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f once after d.
	AfterFunc(d time.Duration, f func()) Timer
	// Every runs f every d until stopped. d must be positive.
	Every(d time.Duration, f func()) Timer
}

// Wall is the real-time clock.
type Wall struct{}

// Now returns the current time.
func (Wall) Now() time.Time { return time.Now() }

// AfterFunc wraps time.AfterFunc.
func (Wall) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Every runs f on a ticker goroutine.
func (Wall) Every(d time.Duration, f func()) Timer {
	t := &ticker{t: time.NewTicker(d), done: make(chan struct{})}

	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.t.C:
				f()
			}
		}
	}()

	return t
}

type ticker struct {
	t    *time.Ticker
	once sync.Once
	done chan struct{}
}

func (t *ticker) Stop() bool {
	stopped := false

	t.once.Do(func() {
		t.t.Stop()
		close(t.done)
		stopped = true
	})

	return stopped
}
