// Package scheduler runs periodic background tasks.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"us30bot/internal/logger"
)

// Task is one iteration of periodic work.
type Task func(ctx context.Context)

// IntervalRunner calls a task every interval until stopped. At most one
// iteration runs at a time; a tick that finds the previous iteration still
// running is skipped. Start and Stop may be called repeatedly.
type IntervalRunner struct {
	name string
	task Task

	// Align wakes on interval boundaries (e.g. :00, :01 for one minute)
	// instead of interval after start.
	Align          bool
	RunImmediately bool

	interval atomic.Int64
	inFlight sync.Mutex
	stopped  atomic.Bool
	resetCh  chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	nowFn  func() time.Time
}

func NewIntervalRunner(name string, interval time.Duration, task Task) *IntervalRunner {
	r := &IntervalRunner{
		name:    name,
		task:    task,
		resetCh: make(chan struct{}, 1),
		nowFn:   time.Now,
	}
	r.interval.Store(int64(interval))
	return r
}

func (r *IntervalRunner) Interval() time.Duration { return time.Duration(r.interval.Load()) }

// SetInterval changes the period; a running loop picks it up immediately.
func (r *IntervalRunner) SetInterval(d time.Duration) {
	if d <= 0 {
		logger.Warnf("%s: ignoring invalid interval %s", r.name, d)
		return
	}
	r.interval.Store(int64(d))
	select {
	case r.resetCh <- struct{}{}:
	default:
	}
}

// Running reports whether the loop is active.
func (r *IntervalRunner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Start launches the loop. It returns false if already running.
func (r *IntervalRunner) Start(ctx context.Context) bool {
	if r.task == nil || r.Interval() <= 0 {
		logger.Warnf("%s: invalid task or interval=%s, not starting", r.name, r.Interval())
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.stopped.Store(false)
	go r.loop(ctx, r.done)
	logger.Infof("%s: started interval=%s align=%v", r.name, r.Interval(), r.Align)
	return true
}

// Stop cancels the loop and waits for the current iteration to return.
// It returns false if the loop was not running.
func (r *IntervalRunner) Stop() bool {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return false
	}
	r.stopped.Store(true)
	cancel()
	<-done
	logger.Infof("%s: stopped", r.name)
	return true
}

// RunOnce runs the task now unless an iteration is already in flight.
func (r *IntervalRunner) RunOnce(ctx context.Context) bool {
	if !r.inFlight.TryLock() {
		logger.Debugf("%s: previous iteration still running, skip", r.name)
		return false
	}
	defer r.inFlight.Unlock()
	r.task(ctx)
	return true
}

func (r *IntervalRunner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer r.release(done)
	if r.RunImmediately {
		r.RunOnce(ctx)
	}
	for {
		if r.stopped.Load() {
			return
		}
		timer := time.NewTimer(r.nextWait(r.nowFn()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-r.resetCh:
			timer.Stop()
			continue
		case <-timer.C:
		}
		if r.stopped.Load() || ctx.Err() != nil {
			return
		}
		r.RunOnce(ctx)
	}
}

// release forgets a run that ended on its own (parent context cancelled) so
// Running reports false and Start may launch it again. A run already
// detached by Stop, or replaced by a newer Start, is left alone.
func (r *IntervalRunner) release(done chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != done {
		return
	}
	r.cancel()
	r.cancel, r.done = nil, nil
}

func (r *IntervalRunner) nextWait(now time.Time) time.Duration {
	interval := r.Interval()
	if !r.Align {
		return interval
	}
	_, wait := nextTimes(now, interval)
	return wait
}

func nextTimes(now time.Time, interval time.Duration) (wakeAt time.Time, wait time.Duration) {
	now = now.UTC()
	wakeAt = now.Truncate(interval).Add(interval)
	return wakeAt, wakeAt.Sub(now)
}
