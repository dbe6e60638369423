// Package clock supplies the logical millisecond timestamps used to order
// queue entries and timeline content. Production code injects Monotonic;
// tests inject a Fake.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current logical time in milliseconds since the epoch.
type Clock interface {
	NowMillis() int64
}

// Monotonic is a wall clock that never goes backwards and never repeats a
// value: two calls in the same millisecond return consecutive integers.
type Monotonic struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewMonotonic returns a Monotonic clock backed by time.Now.
func NewMonotonic() *Monotonic {
	return &Monotonic{now: time.Now}
}

func (m *Monotonic) NowMillis() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms := m.now().UnixMilli()
	if ms <= m.last {
		ms = m.last + 1
	}
	m.last = ms
	return ms
}

// Fake is a manually advanced clock. Each call to NowMillis returns the
// current value and then advances it by Step (1 when zero).
type Fake struct {
	mu   sync.Mutex
	now  int64
	Step int64
}

// NewFake returns a Fake starting at start.
func NewFake(start int64) *Fake {
	return &Fake{now: start}
}

func (f *Fake) NowMillis() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := f.now
	step := f.Step
	if step == 0 {
		step = 1
	}
	f.now += step
	return v
}

// Set moves the fake clock to ms.
func (f *Fake) Set(ms int64) {
	f.mu.Lock()
	f.now = ms
	f.mu.Unlock()
}
