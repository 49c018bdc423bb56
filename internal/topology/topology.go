// Package topology builds concrete network topologies on top of
// internal/netsim and schedules a traffic scenario against them, the Go
// analog of original_source/scenarios/*.py and
// network_simulation/simulator_creator.py.
package topology

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/malbeclabs/fabric-sim/internal/ipaddr"
	"github.com/malbeclabs/fabric-sim/internal/ledger"
	"github.com/malbeclabs/fabric-sim/internal/netsim"
	"github.com/malbeclabs/fabric-sim/internal/simerrors"
)

// Results summarizes a built topology for statistics and visualization
// (§6, §9 extract_topology_info).
type Results struct {
	Name        string
	Hosts       []*netsim.Host
	Switches    []*netsim.NetworkNode
	Links       []*netsim.Link
	FailedLinks []string
	Params      map[string]any
}

// Builder constructs a topology and its traffic scenario, then hands back
// the ledger.Run ready to drive via Scheduler.Run (§6's Builder
// interface: "out of scope, consumed only" in the core spec; the three
// concrete builders below are what the CLI actually needs).
type Builder interface {
	CreateSimulator(cfg BuildConfig) (*ledger.Run, error)
	Results() Results
}

// BuildConfig is what a Builder needs beyond its own topology-specific
// parameters (k, etc.): the seed, the link-failure fraction, and the
// default number of traffic messages per host.
type BuildConfig struct {
	Seed               int64
	LinkFailurePercent float64
	MessagesPerHost    int
	Verbose            bool
	Log                *slog.Logger
}

// routeEntry defers a route installation until after link failures have
// been decided, so InstallRoute's "skip failed links" behavior (§3, §4.5)
// applies uniformly regardless of build order.
type routeEntry struct {
	node   *netsim.NetworkNode
	prefix string
	port   int
}

// builderState is the shared bookkeeping every concrete Builder embeds:
// entity registries, the deferred route list, and link-failure injection.
type builderState struct {
	name string

	run      *ledger.Run
	maxPath  int
	hosts    map[string]*netsim.Host
	switches map[string]*netsim.NetworkNode
	links    []*netsim.Link

	routes []routeEntry
	params map[string]any

	failedLinkNames []string
}

func newBuilderState(name string, maxPath int) *builderState {
	return &builderState{
		name:     name,
		maxPath:  maxPath,
		hosts:    make(map[string]*netsim.Host),
		switches: make(map[string]*netsim.NetworkNode),
		params:   make(map[string]any),
	}
}

func (b *builderState) createHost(run *ledger.Run, name, ipStr string, log *slog.Logger) (*netsim.Host, error) {
	addr, err := ipaddr.Parse(ipStr)
	if err != nil {
		return nil, simerrors.Wrap(simerrors.InvalidArgument, "topology.createHost", fmt.Sprintf("host %q", name), err)
	}
	h := netsim.NewHost(name, run, addr, b.maxPath, log)
	b.hosts[name] = h
	return h, nil
}

func (b *builderState) createSwitch(run *ledger.Run, name string, portsCount int, log *slog.Logger) *netsim.Switch {
	sw := netsim.NewSwitch(name, portsCount, run, b.maxPath, log)
	b.switches[name] = sw.NetworkNode
	return sw
}

func (b *builderState) createLink(run *ledger.Run, name string, bandwidth, delay float64, log *slog.Logger) *netsim.Link {
	l := netsim.NewLink(name, run, bandwidth, delay, log)
	b.links = append(b.links, l)
	return l
}

// deferRoute queues a route for installation after link failures are
// decided (see injectFailures).
func (b *builderState) deferRoute(node *netsim.NetworkNode, prefix string, port int) {
	b.routes = append(b.routes, routeEntry{node: node, prefix: prefix, port: port})
}

// injectFailures marks linkFailurePercent of b.links as Failed, using r,
// then installs every deferred route — InstallRoute silently skips ports
// wired to a failed link (§3, §4.5), so this is how link failure is
// injected into reachability without touching the forwarding path.
func (b *builderState) injectFailures(linkFailurePercent float64, r *rand.Rand) error {
	if linkFailurePercent > 0 && len(b.links) > 0 {
		failCount := int(float64(len(b.links)) * linkFailurePercent / 100.0)
		if failCount > 0 {
			idx := r.Perm(len(b.links))[:failCount]
			for _, i := range idx {
				b.links[i].Failed = true
				b.failedLinkNames = append(b.failedLinkNames, b.links[i].Name)
			}
		}
	}
	for _, re := range b.routes {
		if err := re.node.InstallRoute(re.prefix, re.port); err != nil {
			return err
		}
	}
	return nil
}

func (b *builderState) results() Results {
	hosts := make([]*netsim.Host, 0, len(b.hosts))
	for _, h := range b.hosts {
		hosts = append(hosts, h)
	}
	switches := make([]*netsim.NetworkNode, 0, len(b.switches))
	for _, s := range b.switches {
		switches = append(switches, s)
	}
	return Results{
		Name:        b.name,
		Hosts:       hosts,
		Switches:    switches,
		Links:       b.links,
		FailedLinks: b.failedLinkNames,
		Params:      b.params,
	}
}

// scheduleLoadedCalls is the loaded_calls traffic scenario: each host
// sends numMessages to distinct random other hosts, staggered by
// serialization-time-sized intervals (§8 scenario 3), grounded on
// original_source/scenarios/fat_tree_topo_creator.py:loaded_calls.
func scheduleLoadedCalls(b *builderState, numMessages int, r *rand.Rand) (int, error) {
	if numMessages <= 0 {
		numMessages = 5
	}
	names := make([]string, 0, len(b.hosts))
	for name := range b.hosts {
		names = append(names, name)
	}
	// Deterministic base ordering so the same seed always produces the
	// same traffic pattern regardless of map iteration order.
	sort.Strings(names)

	const messageSizeBytes = int(1e10 / 8)
	const bandwidthAssumption = 1e9 // matches the fat-tree link bandwidth
	interval := float64(messageSizeBytes) * 8 / bandwidthAssumption

	scheduled := 0
	hostCount := len(names)
	for i, name := range names {
		if hostCount < 2 {
			break
		}
		host := b.hosts[name]
		destIdx := r.Perm(hostCount - 1)
		if numMessages < len(destIdx) {
			destIdx = destIdx[:numMessages]
		}
		for j, di := range destIdx {
			if di >= i {
				di++
			}
			dst := b.hosts[names[di]]
			sendTime := float64(j) * interval
			srcHost := host
			dstHost := dst
			err := b.run.Scheduler.Schedule(sendTime, func() {
				_ = srcHost.Send(dstHost.IP, "", messageSizeBytes, false)
			})
			if err != nil {
				return scheduled, err
			}
			scheduled++
		}
	}
	return scheduled, nil
}
