package event

import (
	"log/slog"

	"github.com/malbeclabs/fabric-sim/internal/simerrors"
)

// Message is the minimal shape the scheduler needs from a simulated
// message to keep an ordered ledger of everything originated during a
// run (§4.2 register_message), without the event package depending on
// the netsim package's concrete Message type.
type Message interface {
	MessageID() int
}

// Scheduler is the deterministic, single-threaded discrete-event loop
// driving simulated time. It is adapted from the teacher's
// container/heap-based liveness.Scheduler, generalized from BFD TX/Detect
// events to arbitrary scheduled Actions and rewritten to drive a virtual
// clock instead of time.Now().
type Scheduler struct {
	log *slog.Logger

	currentTime float64
	queue       *priorityQueue
	seq         uint64

	ledger  []Message
	endTime float64
	ran     bool
}

// NewScheduler constructs a Scheduler starting at simulated time 0.
func NewScheduler(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		log:   log,
		queue: newPriorityQueue(),
	}
}

// CurrentTime returns the scheduler's simulated clock, in seconds.
func (s *Scheduler) CurrentTime() float64 { return s.currentTime }

// EndTime returns the simulated time at which Run last returned, for
// statistics (§4.2, §6).
func (s *Scheduler) EndTime() float64 { return s.endTime }

// Schedule inserts an event at currentTime+delay with the next sequence
// number. delay must be non-negative (§4.2).
func (s *Scheduler) Schedule(delay float64, action Action) error {
	if delay < 0 {
		return simerrors.InvalidArgumentf("Scheduler.Schedule", "delay must be >= 0, got %v", delay)
	}
	s.seq++
	s.queue.enqueue(&evt{time: s.currentTime + delay, seq: s.seq, action: action})
	return nil
}

// RegisterMessage appends a message to the run's ledger in originate
// order (§4.2).
func (s *Scheduler) RegisterMessage(m Message) {
	s.ledger = append(s.ledger, m)
}

// Ledger returns every message registered so far, in originate order.
func (s *Scheduler) Ledger() []Message {
	return s.ledger
}

// Run repeatedly dequeues the earliest event, advances current_time to
// its timestamp, and invokes its action, until the queue is empty or
// the next event's time exceeds until. In that case the pending event
// remains queued and current_time is advanced to until
// (§4.2, §5 Cancellation/timeouts).
func (s *Scheduler) Run(until *float64) {
	for {
		e := s.queue.peek()
		if e == nil {
			break
		}
		if until != nil && e.time > *until {
			s.currentTime = *until
			s.log.Debug("event.Scheduler: run horizon reached, re-enqueued pending event", "until", *until, "next_event_time", e.time)
			break
		}
		s.queue.dequeue()
		s.currentTime = e.time
		e.action()
	}
	s.endTime = s.currentTime
	s.ran = true
}

// QueueLen returns the number of pending events, for diagnostics/metrics.
func (s *Scheduler) QueueLen() int { return s.queue.size() }
