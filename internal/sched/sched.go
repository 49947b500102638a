// Discrete-event scheduler with a logical clock
package sched

import (
	"container/heap"
	"time"
)

// Callback is invoked when its event fires. It runs to completion before
// the next event is dispatched.
type Callback func()

type event struct {
	at  time.Duration
	seq uint64
	fn  Callback
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	// FIFO for equal timestamps keeps runs deterministic.
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Scheduler dispatches callbacks in timestamp order on a logical clock.
// Time only advances by jumping to the next scheduled event; there is no
// wall-clock coupling and no concurrency.
type Scheduler struct {
	queue  eventQueue
	now    time.Duration
	seq    uint64
	halted bool
}

// New returns a Scheduler with its clock at zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the current simulation time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Schedule enqueues fn at absolute simulation time at. Events scheduled in
// the past fire at the current time, after already-queued events for it.
func (s *Scheduler) Schedule(at time.Duration, fn Callback) {
	if at < s.now {
		at = s.now
	}
	s.seq++
	heap.Push(&s.queue, &event{at: at, seq: s.seq, fn: fn})
}

// ScheduleAfter enqueues fn at Now()+delay.
func (s *Scheduler) ScheduleAfter(delay time.Duration, fn Callback) {
	s.Schedule(s.now+delay, fn)
}

// Pending reports the number of queued events.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Halt stops dispatching after the current callback returns. Used for
// fatal configuration errors discovered mid-run.
func (s *Scheduler) Halt() {
	s.halted = true
}

// Halted reports whether Halt was called.
func (s *Scheduler) Halted() bool {
	return s.halted
}

// Run dispatches events in timestamp order until the queue is empty, Halt
// is called, or the next event lies beyond stop. Events remaining past
// stop are abandoned; the clock is left at stop on a full run.
func (s *Scheduler) Run(stop time.Duration) {
	for len(s.queue) > 0 && !s.halted {
		next := s.queue[0]
		if next.at > stop {
			break
		}
		heap.Pop(&s.queue)
		s.now = next.at
		next.fn()
	}
	if !s.halted && s.now < stop {
		s.now = stop
	}
}
