package game

import (
	"sync/atomic"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	Stop()
}

// Scheduler fires callbacks on the goroutine that owns the session.
// Implementations never run two callbacks concurrently.
type Scheduler interface {
	Now() time.Time
	Every(d time.Duration, fn func()) Timer
	After(d time.Duration, fn func()) Timer
}

/* ======================
   Loop (wall clock)
   ====================== */

// Loop is a single-goroutine event loop. Timers and posted closures all run
// inside Run, so whatever they touch needs no locking.
type Loop struct {
	inbox chan func()
	quit  chan struct{}
	done  atomic.Bool
}

func NewLoop() *Loop {
	return &Loop{
		inbox: make(chan func(), 256),
		quit:  make(chan struct{}),
	}
}

// Run processes posted work until Stop is called.
func (l *Loop) Run() {
	for {
		select {
		case <-l.quit:
			return
		case fn := <-l.inbox:
			fn()
		}
	}
}

func (l *Loop) Stop() {
	if l.done.CompareAndSwap(false, true) {
		close(l.quit)
	}
}

// Do posts fn to the loop. It returns false once the loop has stopped.
func (l *Loop) Do(fn func()) bool {
	if l.done.Load() {
		return false
	}
	select {
	case <-l.quit:
		return false
	case l.inbox <- fn:
		return true
	}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

type loopTimer struct {
	stopped atomic.Bool
	stop    func()
}

func (t *loopTimer) Stop() {
	if t.stopped.CompareAndSwap(false, true) && t.stop != nil {
		t.stop()
	}
}

func (l *Loop) Every(d time.Duration, fn func()) Timer {
	ticker := time.NewTicker(d)
	halt := make(chan struct{})
	t := &loopTimer{}
	t.stop = func() {
		ticker.Stop()
		close(halt)
	}

	go func() {
		for {
			select {
			case <-halt:
				return
			case <-l.quit:
				ticker.Stop()
				return
			case <-ticker.C:
				l.Do(func() {
					// a tick may already be queued when Stop runs
					if !t.stopped.Load() {
						fn()
					}
				})
			}
		}
	}()
	return t
}

func (l *Loop) After(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	timer := time.AfterFunc(d, func() {
		l.Do(func() {
			if t.stopped.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	t.stop = func() { timer.Stop() }
	return t
}

/* ======================
   ManualScheduler (simulated clock)
   ====================== */

// ManualScheduler is a deterministic Scheduler driven by Advance. The bot
// runner plays whole sessions on it and the tests use it to step timers.
type ManualScheduler struct {
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	at      time.Time
	every   time.Duration
	fn      func()
	seq     uint64
	stopped bool
}

func (t *manualTask) Stop() {
	t.stopped = true
}

func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

func (m *ManualScheduler) Now() time.Time {
	return m.now
}

func (m *ManualScheduler) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	return m.add(d, d, fn)
}

func (m *ManualScheduler) After(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	return m.add(d, 0, fn)
}

func (m *ManualScheduler) add(delay time.Duration, every time.Duration, fn func()) *manualTask {
	m.seq++
	task := &manualTask{at: m.now.Add(delay), every: every, fn: fn, seq: m.seq}
	m.tasks = append(m.tasks, task)
	return task
}

// Pending reports how many timers are still armed.
func (m *ManualScheduler) Pending() int {
	count := 0
	for _, task := range m.tasks {
		if !task.stopped {
			count++
		}
	}
	return count
}

// Advance moves the clock forward by d, firing every due callback in
// deadline order. Callbacks scheduled while advancing fire too if they fall
// inside the window.
func (m *ManualScheduler) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		task := m.next(target)
		if task == nil {
			break
		}
		m.now = task.at
		if task.every > 0 {
			task.at = task.at.Add(task.every)
		} else {
			task.stopped = true
		}
		task.fn()
	}
	m.now = target
	m.compact()
}

func (m *ManualScheduler) next(target time.Time) *manualTask {
	var best *manualTask
	for _, task := range m.tasks {
		if task.stopped || task.at.After(target) {
			continue
		}
		if best == nil || task.at.Before(best.at) || (task.at.Equal(best.at) && task.seq < best.seq) {
			best = task
		}
	}
	return best
}

func (m *ManualScheduler) compact() {
	live := m.tasks[:0]
	for _, task := range m.tasks {
		if !task.stopped {
			live = append(live, task)
		}
	}
	for i := len(live); i < len(m.tasks); i++ {
		m.tasks[i] = nil
	}
	m.tasks = live
}
