package topology

import (
	"log/slog"
	"math/rand"

	"github.com/malbeclabs/fabric-sim/internal/ledger"
)

// HSHBuilder builds the small fixed Host-Switch-Host topology used for
// focused tests: H1 <-> S1 <-> H2 (original_source/scenarios/hsh_creator.py).
// max_path defaults to 3 (one hop each way through the switch, plus the
// originating host).
type HSHBuilder struct {
	state *builderState
}

// NewHSHBuilder returns a ready-to-build HSHBuilder.
func NewHSHBuilder() *HSHBuilder {
	return &HSHBuilder{}
}

// CreateSimulator builds H1-S1-H2, installs routes, injects failures, and
// schedules the repeated back-and-forth traffic pattern from the original
// (§6).
func (b *HSHBuilder) CreateSimulator(cfg BuildConfig) (*ledger.Run, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	const maxPath = 3
	b.state = newBuilderState("hsh", maxPath)
	b.state.params["link_failure_percent"] = cfg.LinkFailurePercent
	run := ledger.NewRun(log, cfg.Seed)
	b.state.run = run

	h1, err := b.state.createHost(run, "Host1", "10.0.0.1", log)
	if err != nil {
		return nil, err
	}
	h2, err := b.state.createHost(run, "Host2", "10.0.0.2", log)
	if err != nil {
		return nil, err
	}
	s1 := b.state.createSwitch(run, "Switch1", 2, log)

	l1 := b.state.createLink(run, "h1_s1", 1e3, 0.01, log)
	l2 := b.state.createLink(run, "h2_s1", 1e3, 0.01, log)

	if err := h1.Connect(1, l1); err != nil {
		return nil, err
	}
	if err := h2.Connect(1, l2); err != nil {
		return nil, err
	}
	if err := s1.Connect(1, l1); err != nil {
		return nil, err
	}
	if err := s1.Connect(2, l2); err != nil {
		return nil, err
	}

	b.state.deferRoute(h1.NetworkNode, h2.IP.String()+"/32", 1)
	b.state.deferRoute(h2.NetworkNode, h1.IP.String()+"/32", 1)
	b.state.deferRoute(s1.NetworkNode, h2.IP.String()+"/32", 2)
	b.state.deferRoute(s1.NetworkNode, h1.IP.String()+"/32", 1)

	r := rand.New(rand.NewSource(cfg.Seed))
	if err := b.state.injectFailures(cfg.LinkFailurePercent, r); err != nil {
		return nil, err
	}

	// Repeated bidirectional traffic: H1 sends two messages to H2, H2
	// replies once, five times over, staggered a tenth of a second apart.
	for i := 0; i < 5; i++ {
		t := float64(i) / 10.0
		if err := run.Scheduler.Schedule(t, func() {
			_ = h1.Send(h2.IP, "Hello, Host2!", 500000, false)
			_ = h1.Send(h2.IP, "Hello again, Host2!", 500000, false)
		}); err != nil {
			return nil, err
		}
		if err := run.Scheduler.Schedule(t, func() {
			_ = h2.Send(h1.IP, "bye bye, Host1!", 100, false)
		}); err != nil {
			return nil, err
		}
	}

	return run, nil
}

// Results returns the built topology's summary.
func (b *HSHBuilder) Results() Results {
	return b.state.results()
}
