// Package schedule is the simulator's Event Queue (spec §3 Event, §4.1,
// §4.2), built the way the teacher's txnengine.VarManager builds its
// deferred-callback queue: a *tw.TimerWheel created over a fixed epoch,
// fed with ScheduleEventIn, and drained with AdvanceTo. Here a "tick" is
// a synthetic offset from that epoch rather than wall-clock time.
package schedule

import (
	"time"

	tw "github.com/msackman/gotimerwheel"

	"goshawkdb.io/paxossim/paxos"
)

// Resolution is the timer wheel's synthetic time unit per logical
// tick. Its value is arbitrary — nothing in the simulator reads
// wall-clock time — it only needs to be coarse enough that AdvanceTo
// never has to take more than a handful of internal steps per tick.
const Resolution = time.Millisecond

// Queue adapts gotimerwheel to logical ticks and implements
// paxos.Retryer directly, so the ACCEPTED handler can hand a preempted
// proposer straight back to the event queue without an adapter type.
type Queue struct {
	wheel *tw.TimerWheel
	epoch time.Time
	now   int

	due     []*paxos.Event
	pending map[paxos.NodeID]struct{}

	// last is the most recently appended event still awaiting its
	// tick=⊥ resolution (spec §4.1 step 2). Only one can be pending at
	// a time: resolution happens on the very next tick the loop runs.
	last *paxos.Event
}

func NewQueue() *Queue {
	epoch := time.Unix(0, 0)
	return &Queue{
		wheel:   tw.NewTimerWheel(epoch, Resolution),
		epoch:   epoch,
		pending: make(map[paxos.NodeID]struct{}),
	}
}

func (q *Queue) tickTime(tick int) time.Time {
	return q.epoch.Add(time.Duration(tick) * Resolution)
}

// Append adds e to the queue. If e.Tick is already set (every
// scenario-authored event is), it's scheduled immediately; otherwise it
// becomes the most-recently-appended unresolved event.
func (q *Queue) Append(e *paxos.Event) {
	if e.Request != nil {
		q.pending[*e.Request] = struct{}{}
	}
	if e.Tick != nil {
		q.schedule(*e.Tick, e)
		return
	}
	q.last = e
}

func (q *Queue) schedule(tick int, e *paxos.Event) {
	target := q.tickTime(tick)
	delay := target.Sub(q.tickTime(q.now))
	if delay < 0 {
		delay = 0
	}
	if err := q.wheel.ScheduleEventIn(delay, func() {
		q.due = append(q.due, e)
	}); err != nil {
		panic(err)
	}
}

// ResolvePending implements the spec §4.1 step 2 / §9 delay rule: if
// the most recently appended event is still unticked, draw r uniformly
// from {0..5} and schedule it at tick+r. Must be called before Advance
// for the same tick.
func (q *Queue) ResolvePending(tick int, draw func() int) {
	if q.last == nil {
		return
	}
	e := q.last
	q.last = nil
	resolved := tick + draw()
	e.Tick = &resolved
	q.schedule(resolved, e)
}

// Advance materializes every event scheduled at or before tick.
func (q *Queue) Advance(tick int) {
	q.now = tick
	q.wheel.AdvanceTo(q.tickTime(tick), 1<<20)
}

// Take removes and returns the event due exactly at tick, if any
// (spec §4.1 step 3: "if an event exists at t, remove it").
func (q *Queue) Take(tick int) (*paxos.Event, bool) {
	for i, e := range q.due {
		if e.Tick != nil && *e.Tick == tick {
			q.due = append(q.due[:i:i], q.due[i+1:]...)
			if e.Request != nil {
				delete(q.pending, *e.Request)
			}
			return e, true
		}
	}
	return nil, false
}

// HasPendingRequest reports whether a request-carrying event for p is
// already queued (due or still unresolved), per the ACCEPTED-drop
// retry rule's "no pending event already re-targets p" guard (spec
// §4.4).
func (q *Queue) HasPendingRequest(p paxos.NodeID) bool {
	_, ok := q.pending[p]
	return ok
}

// ScheduleRetry implements paxos.Retryer: it appends a new tick=⊥
// event carrying p's identity and current value, to be resolved on the
// next tick the loop processes (spec §4.4).
func (q *Queue) ScheduleRetry(p *paxos.Node) {
	id := p.NodeID()
	var value *int
	if p.Value != nil {
		v := *p.Value
		value = &v
	}
	q.Append(&paxos.Event{Request: &id, ProposedValue: value})
}

// IsEmpty reports whether anything remains in the queue at all: due
// events, the unresolved tail event, or anything still sitting in the
// wheel awaiting its scheduled tick (spec §4.1 step 1 "both queues
// empty").
func (q *Queue) IsEmpty() bool {
	return len(q.due) == 0 && q.last == nil && q.wheel.IsEmpty()
}

func (q *Queue) Len() int {
	n := len(q.due) + q.wheel.Length()
	if q.last != nil {
		n++
	}
	return n
}
