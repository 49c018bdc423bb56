package topology

import (
	"log/slog"
	"math/rand"

	"github.com/malbeclabs/fabric-sim/internal/ledger"
	"github.com/malbeclabs/fabric-sim/internal/netsim"
)

// SimpleStarBuilder builds the fixed two-pod topology from
// original_source/scenarios/simple_star_creator.py: H1/H2 under edge
// switch E1, H3/H4 under edge switch E2, both uplinked to core switch C.
// max_path is 6; the longest straight path, host->edge->core->edge->host,
// reaches path_length 5 (four hops plus the originating host).
type SimpleStarBuilder struct {
	state *builderState
}

// NewSimpleStarBuilder returns a ready-to-build SimpleStarBuilder.
func NewSimpleStarBuilder() *SimpleStarBuilder {
	return &SimpleStarBuilder{}
}

type hostSend struct {
	from, to *netsim.Host
}

// CreateSimulator builds H1..H4/E1/E2/C, installs routes, injects link
// failures, and schedules the all-pairs broadcast scenario (§6).
func (b *SimpleStarBuilder) CreateSimulator(cfg BuildConfig) (*ledger.Run, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	const maxPath = 6
	b.state = newBuilderState("simple-star", maxPath)
	b.state.params["link_failure_percent"] = cfg.LinkFailurePercent
	run := ledger.NewRun(log, cfg.Seed)
	b.state.run = run

	h1, err := b.state.createHost(run, "H1", "10.1.1.1", log)
	if err != nil {
		return nil, err
	}
	h2, err := b.state.createHost(run, "H2", "10.1.1.2", log)
	if err != nil {
		return nil, err
	}
	h3, err := b.state.createHost(run, "H3", "10.2.1.1", log)
	if err != nil {
		return nil, err
	}
	h4, err := b.state.createHost(run, "H4", "10.2.1.2", log)
	if err != nil {
		return nil, err
	}

	e1 := b.state.createSwitch(run, "E1", 3, log).NetworkNode
	e2 := b.state.createSwitch(run, "E2", 3, log).NetworkNode
	core := b.state.createSwitch(run, "C", 2, log).NetworkNode

	h1e1 := b.state.createLink(run, "H1E1", fatTreeBandwidth, fatTreeDelay, log)
	h2e1 := b.state.createLink(run, "H2E1", fatTreeBandwidth, fatTreeDelay, log)
	h3e2 := b.state.createLink(run, "H3E2", fatTreeBandwidth, fatTreeDelay, log)
	h4e2 := b.state.createLink(run, "H4E2", fatTreeBandwidth, fatTreeDelay, log)
	ce1 := b.state.createLink(run, "CE1", 2.0e2, 1.0e-3, log)
	ce2 := b.state.createLink(run, "CE2", fatTreeBandwidth, fatTreeDelay, log)

	if err := h1.Connect(1, h1e1); err != nil {
		return nil, err
	}
	if err := e1.Connect(1, h1e1); err != nil {
		return nil, err
	}
	if err := h2.Connect(1, h2e1); err != nil {
		return nil, err
	}
	if err := e1.Connect(2, h2e1); err != nil {
		return nil, err
	}
	if err := h3.Connect(1, h3e2); err != nil {
		return nil, err
	}
	if err := e2.Connect(1, h3e2); err != nil {
		return nil, err
	}
	if err := h4.Connect(1, h4e2); err != nil {
		return nil, err
	}
	if err := e2.Connect(2, h4e2); err != nil {
		return nil, err
	}
	if err := e1.Connect(3, ce1); err != nil {
		return nil, err
	}
	if err := e2.Connect(3, ce2); err != nil {
		return nil, err
	}
	if err := core.Connect(1, ce1); err != nil {
		return nil, err
	}
	if err := core.Connect(2, ce2); err != nil {
		return nil, err
	}

	b.state.deferRoute(h1.NetworkNode, "0.0.0.0/0", 1)
	b.state.deferRoute(h2.NetworkNode, "0.0.0.0/0", 1)
	b.state.deferRoute(h3.NetworkNode, "0.0.0.0/0", 1)
	b.state.deferRoute(h4.NetworkNode, "0.0.0.0/0", 1)

	b.state.deferRoute(e1, h1.IP.String()+"/32", 1)
	b.state.deferRoute(e1, h2.IP.String()+"/32", 2)
	b.state.deferRoute(e1, "10.2.0.0/16", 3)

	b.state.deferRoute(e2, h3.IP.String()+"/32", 1)
	b.state.deferRoute(e2, h4.IP.String()+"/32", 2)
	b.state.deferRoute(e2, "10.1.0.0/16", 3)

	b.state.deferRoute(core, "10.1.0.0/16", 1)
	b.state.deferRoute(core, "10.2.0.0/16", 2)

	r := rand.New(rand.NewSource(cfg.Seed))
	if err := b.state.injectFailures(cfg.LinkFailurePercent, r); err != nil {
		return nil, err
	}

	// All-pairs traffic (including self-sends), repeated 50 times at t=1,
	// matching the original's create_scenario.
	hosts := []*netsim.Host{h1, h2, h3, h4}
	var allPairs []hostSend
	for _, from := range hosts {
		for _, to := range hosts {
			allPairs = append(allPairs, hostSend{from: from, to: to})
		}
	}
	for i := 0; i < 50; i++ {
		if err := run.Scheduler.Schedule(1, func() {
			for _, hs := range allPairs {
				_ = hs.from.Send(hs.to.IP, "", 1000, false)
			}
		}); err != nil {
			return nil, err
		}
	}

	return run, nil
}

// Results returns the built topology's summary.
func (b *SimpleStarBuilder) Results() Results {
	return b.state.results()
}
