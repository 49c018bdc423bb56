// Package ledger scopes the simulator's process-wide mutable state — the
// scheduler, the message registry, the id counters, and the per-simulation
// RNG — into one explicit context passed to every node, instead of package
// globals (§9 DESIGN NOTES: "Scope them to an explicit Simulation context
// passed to every action... This also makes multi-run experiments
// independent.").
package ledger

import (
	"log/slog"
	"math/rand"

	"github.com/malbeclabs/fabric-sim/internal/event"
)

// Run is one independent simulation: its own scheduler, its own seeded
// RNG (governs lost-mode port selection and the traffic scenario's
// destination choice; the topology builders sample link failures from a
// separate RNG seeded with the same seed — §6), and its own monotonically
// increasing message id counter.
type Run struct {
	Scheduler *event.Scheduler
	Rand      *rand.Rand
	Log       *slog.Logger

	nextMessageID int
}

// NewRun constructs a fresh, independent Run seeded from seed (§6 default
// 1972).
func NewRun(log *slog.Logger, seed int64) *Run {
	if log == nil {
		log = slog.Default()
	}
	return &Run{
		Scheduler: event.NewScheduler(log),
		Rand:      rand.New(rand.NewSource(seed)),
		Log:       log,
	}
}

// NextMessageID allocates the next globally unique message id, assigned
// in originate order (§3 Message.id).
func (r *Run) NextMessageID() int {
	id := r.nextMessageID
	r.nextMessageID++
	return id
}
