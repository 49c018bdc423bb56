package topology

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/malbeclabs/fabric-sim/internal/ledger"
	"github.com/malbeclabs/fabric-sim/internal/netsim"
	"github.com/malbeclabs/fabric-sim/internal/simerrors"
)

const (
	fatTreeBandwidth = 1e9
	fatTreeDelay     = 0.0001 // 100us
)

// FatTreeBuilder builds the full k-ary fat-tree: pods of edge and
// aggregation switches plus core switches, wired and routed exactly as
// original_source/scenarios/fat_tree_topo_creator.py (§6, SPEC_FULL.md
// "DOMAIN STACK — additional modules").
type FatTreeBuilder struct {
	K       int
	MaxPath int

	state *builderState
}

// defaultFatTreeMaxPath covers the worst-case cross-pod path:
// host->edge->agg->core->agg->edge->host is 6 hops, plus 1 for the
// originating host itself (§4.1 path_length semantics).
const defaultFatTreeMaxPath = 7

// NewFatTreeBuilder validates k (must be >=1 and even, per the original's
// asserts) and returns a builder ready for CreateSimulator. maxPath <= 0
// falls back to defaultFatTreeMaxPath.
func NewFatTreeBuilder(k, maxPath int) (*FatTreeBuilder, error) {
	if k < 1 || k%2 != 0 {
		return nil, simerrors.InvalidArgumentf("topology.NewFatTreeBuilder", "k must be >= 1 and even, got %d", k)
	}
	if maxPath <= 0 {
		maxPath = defaultFatTreeMaxPath
	}
	return &FatTreeBuilder{K: k, MaxPath: maxPath}, nil
}

// CreateSimulator builds the topology, injects link failures, installs
// routes, and schedules the loaded-calls traffic scenario (§6).
func (f *FatTreeBuilder) CreateSimulator(cfg BuildConfig) (*ledger.Run, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	f.state = newBuilderState(fmt.Sprintf("fat-tree-k%d", f.K), f.MaxPath)
	f.state.params["k"] = f.K
	f.state.params["link_failure_percent"] = cfg.LinkFailurePercent
	run := ledger.NewRun(log, cfg.Seed)
	f.state.run = run

	if err := f.buildTopology(run, log); err != nil {
		return nil, err
	}

	r := rand.New(rand.NewSource(cfg.Seed))
	if err := f.state.injectFailures(cfg.LinkFailurePercent, r); err != nil {
		return nil, err
	}

	n, err := scheduleLoadedCalls(f.state, cfg.MessagesPerHost, run.Rand)
	if err != nil {
		return nil, err
	}
	log.Info("topology.FatTreeBuilder: scenario scheduled", "messages", n)

	return run, nil
}

// Results returns the built topology's summary.
func (f *FatTreeBuilder) Results() Results {
	return f.state.results()
}

func (f *FatTreeBuilder) buildTopology(run *ledger.Run, log *slog.Logger) error {
	k := f.K
	podsCount := k
	coreSwitchesCount := (k / 2) * (k / 2)
	aggPerPod := k / 2
	edgePerPod := k / 2
	hostsPerEdge := k / 2

	aggSwitches := make(map[string]*netsim.NetworkNode)

	for pod := 0; pod < podsCount; pod++ {
		for edge := 0; edge < edgePerPod; edge++ {
			edgeName := fmt.Sprintf("es_%d_%d", pod, edge)
			edgeSwitch := f.state.createSwitch(run, edgeName, k, log)
			for hostIdx := 0; hostIdx < hostsPerEdge; hostIdx++ {
				hostName := fmt.Sprintf("h_%d_%d_%d", pod, edge, hostIdx)
				hostIP := fmt.Sprintf("10.%d.%d.%d", pod+1, edge+1, hostIdx+1)
				host, err := f.state.createHost(run, hostName, hostIP, log)
				if err != nil {
					return err
				}
				linkName := fmt.Sprintf("l_%s_%s", hostName, edgeName)
				link := f.state.createLink(run, linkName, fatTreeBandwidth, fatTreeDelay, log)
				edgePort := 1 + hostIdx
				if err := host.Connect(1, link); err != nil {
					return err
				}
				if err := edgeSwitch.NetworkNode.Connect(edgePort, link); err != nil {
					return err
				}
				f.state.deferRoute(host.NetworkNode, "10.0.0.0/8", 1)
				f.state.deferRoute(edgeSwitch.NetworkNode, host.IP.String()+"/32", edgePort)
			}
		}
		for agg := 0; agg < aggPerPod; agg++ {
			aggName := fmt.Sprintf("as%d_%d", pod, agg)
			aggSwitch := f.state.createSwitch(run, aggName, k, log)
			aggSwitches[aggName] = aggSwitch.NetworkNode
			edgeStartPort := 1 + hostsPerEdge
			for edge := 0; edge < edgePerPod; edge++ {
				edgeName := fmt.Sprintf("es_%d_%d", pod, edge)
				edgeSwitch := f.state.switches[edgeName]
				linkName := fmt.Sprintf("l_%s_%s", aggName, edgeName)
				link := f.state.createLink(run, linkName, fatTreeBandwidth, fatTreeDelay, log)
				aggToEdgePort := edge + 1
				if err := aggSwitch.NetworkNode.Connect(aggToEdgePort, link); err != nil {
					return err
				}
				f.state.deferRoute(aggSwitch.NetworkNode, fmt.Sprintf("10.%d.%d.0/24", pod+1, edge+1), aggToEdgePort)
				edgeToAggPort := edgeStartPort + agg
				if err := edgeSwitch.Connect(edgeToAggPort, link); err != nil {
					return err
				}
				f.state.deferRoute(edgeSwitch, "10.0.0.0/8", edgeToAggPort)
			}
		}
	}

	for core := 0; core < coreSwitchesCount; core++ {
		coreName := fmt.Sprintf("core_switch_c%d", core)
		coreSwitch := f.state.createSwitch(run, coreName, k, log)
		aggInPod := core / (k / 2)
		aggStartPort := edgePerPod + 1
		portInAgg := aggStartPort + core%(k/2)
		for pod := 0; pod < podsCount; pod++ {
			aggName := fmt.Sprintf("as%d_%d", pod, aggInPod)
			aggSwitch := aggSwitches[aggName]
			linkName := fmt.Sprintf("link_c%s_e%s", coreName, aggName)
			link := f.state.createLink(run, linkName, fatTreeBandwidth, fatTreeDelay, log)
			portInCore := pod + 1
			if err := coreSwitch.NetworkNode.Connect(portInCore, link); err != nil {
				return err
			}
			f.state.deferRoute(coreSwitch.NetworkNode, fmt.Sprintf("10.%d.0.0/16", pod+1), portInCore)
			if err := aggSwitch.Connect(portInAgg, link); err != nil {
				return err
			}
			f.state.deferRoute(aggSwitch, "10.0.0.0/8", portInAgg)
		}
	}

	log.Info("topology.FatTreeBuilder: created",
		"k", k, "core_switches", coreSwitchesCount, "agg_switches", podsCount*aggPerPod,
		"edge_switches", podsCount*edgePerPod, "hosts", podsCount*edgePerPod*hostsPerEdge)

	for _, sw := range f.state.switches {
		if err := sw.AssertCorrectlyFull(); err != nil {
			return err
		}
	}
	return nil
}
