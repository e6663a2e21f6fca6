package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a clock that only moves when Advance is called. Tasks run on
// the goroutine calling Advance, in due-time order.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	m      *Manual
	due    time.Time
	period time.Duration
	seq    uint64
	f      func()
	done   bool
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

// AfterFunc schedules f once at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	return m.schedule(d, 0, f)
}

// Every schedules f at every multiple of d from Now().
func (m *Manual) Every(d time.Duration, f func()) Timer {
	if d <= 0 {
		panic("clock: non-positive period")
	}

	return m.schedule(d, d, f)
}

func (m *Manual) schedule(d, period time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{m: m, due: m.now.Add(d), period: period, seq: m.seq, f: f}
	m.tasks = append(m.tasks, t)

	return t
}

// Pending counts scheduled tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.tasks)
}

// Advance moves the clock forward by d, running every task that falls due,
// including tasks scheduled by the tasks themselves.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	end := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()

		t := m.next(end)
		if t == nil {
			m.now = end
			m.mu.Unlock()

			return
		}

		m.now = t.due
		if t.period > 0 {
			t.due = t.due.Add(t.period)
		} else {
			t.done = true
			m.removeLocked(t)
		}

		f := t.f
		m.mu.Unlock()

		f()
	}
}

// next returns the earliest task due at or before end.
func (m *Manual) next(end time.Time) *manualTask {
	sort.SliceStable(m.tasks, func(i, j int) bool {
		a, b := m.tasks[i], m.tasks[j]
		if !a.due.Equal(b.due) {
			return a.due.Before(b.due)
		}

		return a.seq < b.seq
	})

	if len(m.tasks) == 0 || m.tasks[0].due.After(end) {
		return nil
	}

	return m.tasks[0]
}

func (m *Manual) removeLocked(t *manualTask) {
	for i, x := range m.tasks {
		if x == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.done {
		return false
	}

	t.done = true
	t.m.removeLocked(t)

	return true
}
