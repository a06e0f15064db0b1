package flow

import (
	"sync"
	"time"
)

// #region pacer
// Pacer defers scenario advances so a transition message can be shown first.
// Stop cancels every callback that has not fired yet. Fired callbacks are
// forgotten, so a long session holds only the timers still pending.
type Pacer struct {
	mu      sync.Mutex
	delay   time.Duration
	next    uint64
	timers  map[uint64]*time.Timer
	stopped bool
}

// NewPacer creates a pacer with a fixed delay. A zero delay still defers the
// callback to its own goroutine.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay, timers: make(map[uint64]*time.Timer)}
}

// Schedule runs fn after the delay. Returns false once the pacer is stopped.
func (p *Pacer) Schedule(fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.next++
	id := p.next
	p.timers[id] = time.AfterFunc(p.delay, func() {
		p.mu.Lock()
		delete(p.timers, id)
		p.mu.Unlock()
		fn()
	})
	return true
}

// ScheduleAdvance defers m.Advance(tr). done, if non-nil, receives the result.
func (p *Pacer) ScheduleAdvance(m *Machine, tr Transition, done func(applied bool, err error)) bool {
	return p.Schedule(func() {
		applied, err := m.Advance(tr)
		if done != nil {
			done(applied, err)
		}
	})
}

// Scheduled returns the number of callbacks that have not fired yet.
func (p *Pacer) Scheduled() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

// Stop cancels pending callbacks. Safe to call more than once.
func (p *Pacer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}

// #endregion pacer
