package netsim

import (
	"log/slog"

	"github.com/malbeclabs/fabric-sim/internal/ipaddr"
	"github.com/malbeclabs/fabric-sim/internal/ledger"
	"github.com/malbeclabs/fabric-sim/internal/simerrors"
)

// NetworkNode adds ports, an IP forwarding table, per-port loop-detection
// sets, and the forwarding decision tree to the base Node (§3, §4.5).
type NetworkNode struct {
	*Node

	MaxConnections int
	MaxPath        int

	ports        map[int]*Link
	forwardTable map[string][]int   // prefix string -> port ids, install order preserved
	prefixOrder  []string           // insertion order of forwardTable keys, for deterministic LPM scans
	seen         map[int]map[int]struct{} // port id -> set of message ids that have traversed it
}

// NewNetworkNode constructs a NetworkNode. handler is the embedding
// concrete type (Host or Switch), wired via the same two-phase
// construction as the base Node.
func NewNetworkNode(name string, maxConnections int, run *ledger.Run, maxPath int, log *slog.Logger, handler MessageHandler) *NetworkNode {
	return &NetworkNode{
		Node:           NewNode(name, run, log, handler),
		MaxConnections: maxConnections,
		MaxPath:        maxPath,
		ports:          make(map[int]*Link),
		forwardTable:   make(map[string][]int),
		seen:           make(map[int]map[int]struct{}),
	}
}

// Connect attaches link to port_id (1-based), which must be free and
// within capacity (§4.5, §3 invariants).
func (nn *NetworkNode) Connect(portID int, link *Link) error {
	if _, exists := nn.ports[portID]; exists {
		return simerrors.InvalidStatef("NetworkNode.Connect", "%s: port %d already connected", nn.Name, portID)
	}
	if portID < 1 || portID > nn.MaxConnections {
		return simerrors.InvalidStatef("NetworkNode.Connect", "%s: port %d out of range [1,%d]", nn.Name, portID, nn.MaxConnections)
	}
	if len(nn.ports) >= nn.MaxConnections {
		return simerrors.InvalidStatef("NetworkNode.Connect", "%s: at capacity (%d)", nn.Name, nn.MaxConnections)
	}
	nn.ports[portID] = link
	return link.Connect(nn)
}

// ConnectionsCount returns the number of occupied ports.
func (nn *NetworkNode) ConnectionsCount() int { return len(nn.ports) }

// AssertCorrectlyFull checks that ports {1..MaxConnections} are all
// occupied (§3 invariant: "filled-topology check").
func (nn *NetworkNode) AssertCorrectlyFull() error {
	if len(nn.ports) != nn.MaxConnections {
		return simerrors.InvalidStatef("NetworkNode.AssertCorrectlyFull", "%s: expected %d ports, have %d", nn.Name, nn.MaxConnections, len(nn.ports))
	}
	for p := 1; p <= nn.MaxConnections; p++ {
		if _, ok := nn.ports[p]; !ok {
			return simerrors.InvalidStatef("NetworkNode.AssertCorrectlyFull", "%s: port %d unconnected", nn.Name, p)
		}
	}
	return nil
}

// InstallRoute registers prefixStr -> portID, but only if portID is
// connected to a non-failed link — this is how link failure is injected
// into reachability; routes are filtered at install time, never at
// forwarding time (§3 invariant, §4.5).
func (nn *NetworkNode) InstallRoute(prefixStr string, portID int) error {
	link, ok := nn.ports[portID]
	if !ok {
		return simerrors.InvalidStatef("NetworkNode.InstallRoute", "%s: port %d not connected", nn.Name, portID)
	}
	if link.Failed {
		return nil
	}
	if _, ok := nn.forwardTable[prefixStr]; !ok {
		nn.prefixOrder = append(nn.prefixOrder, prefixStr)
	}
	nn.forwardTable[prefixStr] = append(nn.forwardTable[prefixStr], portID)
	return nil
}

// Links returns every link attached to this node's ports.
func (nn *NetworkNode) Links() []*Link {
	out := make([]*Link, 0, len(nn.ports))
	for _, l := range nn.ports {
		out = append(out, l)
	}
	return out
}

// Forward is the forwarding decision tree (§4.5). Precondition: the
// message must not already be dropped.
func (nn *NetworkNode) Forward(m *Message) error {
	if m.Dropped {
		return simerrors.InvalidStatef("NetworkNode.Forward", "%s: message %d already dropped", nn.Name, m.ID)
	}

	now := nn.Run.Scheduler.CurrentTime()
	if m.IsExpired(now, nn.MaxPath) {
		nn.dropExpired(m)
		return nil
	}
	if m.Lost {
		return nn.forwardLost(m)
	}
	return nn.forwardNormal(m)
}

func (nn *NetworkNode) dropExpired(m *Message) {
	m.Dropped = true
	m.DropReason = DropReasonExpired
	nn.Log.Debug("netsim.NetworkNode: dropping expired message", "node", nn.Name, "message_id", m.ID)
}

// forwardLost implements the lost-mode fallback: pick uniformly at random
// from ports that are not failed and haven't already carried this
// message, transmit, or drop if none remain (§4.5 step 2).
func (nn *NetworkNode) forwardLost(m *Message) error {
	var candidates []int
	for portID, link := range nn.ports {
		if link.Failed {
			continue
		}
		if _, passed := nn.seen[portID][m.ID]; passed {
			continue
		}
		candidates = append(candidates, portID)
	}
	if len(candidates) == 0 {
		m.Dropped = true
		m.DropReason = DropReasonLostNoPort
		nn.Log.Debug("netsim.NetworkNode: no remaining port for lost message, dropping", "node", nn.Name, "message_id", m.ID)
		return nil
	}
	portID := candidates[nn.Run.Rand.Intn(len(candidates))]
	nn.markSeen(portID, m.ID)
	nn.Log.Debug("netsim.NetworkNode: sending lost message", "node", nn.Name, "message_id", m.ID, "port", portID)
	return nn.transmitOnPort(portID, m)
}

type portPrefix struct {
	portID    int
	prefixLen int
}

// forwardNormal implements longest-prefix-match + ECMP routing, with loop
// detection falling back into lost-mode (§4.5 step 3).
func (nn *NetworkNode) forwardNormal(m *Message) error {
	dst := m.Five.DstIP

	var matches []portPrefix
	for _, prefixStr := range nn.prefixOrder {
		prefix, err := ipaddr.ParsePrefix(prefixStr)
		if err != nil {
			return simerrors.Wrap(simerrors.InvalidArgument, "NetworkNode.forwardNormal", "corrupt installed route", err)
		}
		if !prefix.Contains(dst) {
			continue
		}
		for _, portID := range nn.forwardTable[prefixStr] {
			matches = append(matches, portPrefix{portID: portID, prefixLen: prefix.PrefixLen})
		}
	}

	if len(matches) == 0 {
		m.Dropped = true
		m.DropReason = DropReasonRouteMiss
		nn.Log.Debug("netsim.NetworkNode: no route, dropping", "node", nn.Name, "message_id", m.ID, "dst", dst.String())
		return nil
	}

	longest := 0
	for _, mm := range matches {
		if mm.prefixLen > longest {
			longest = mm.prefixLen
		}
	}
	var ecmpGroup []int
	for _, mm := range matches {
		if mm.prefixLen == longest {
			ecmpGroup = append(ecmpGroup, mm.portID)
		}
	}

	idx := int(m.Five.Hash() % uint64(len(ecmpGroup)))
	portID := ecmpGroup[idx]

	if _, passed := nn.seen[portID][m.ID]; passed {
		m.Lost = true
		nn.Log.Debug("netsim.NetworkNode: routing loop detected, switching to lost mode", "node", nn.Name, "message_id", m.ID, "port", portID)
		return nn.forwardLost(m)
	}
	nn.markSeen(portID, m.ID)
	return nn.transmitOnPort(portID, m)
}

func (nn *NetworkNode) markSeen(portID, messageID int) {
	if nn.seen[portID] == nil {
		nn.seen[portID] = make(map[int]struct{})
	}
	nn.seen[portID][messageID] = struct{}{}
}

func (nn *NetworkNode) transmitOnPort(portID int, m *Message) error {
	link := nn.ports[portID]
	m.PathLength++
	if m.Verbose {
		m.Path = append(m.Path, nn.Name)
	}
	return link.Transmit(m, nn)
}
