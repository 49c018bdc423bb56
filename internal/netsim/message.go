// Package netsim implements the node/link/message model (§3, §4.3–§4.7):
// a full-duplex serialization-and-propagation link model and actor-style
// nodes with inboxes, built around struct embedding rather than
// inheritance (Node → NetworkNode → {Host, Switch}), per §9 DESIGN NOTES.
package netsim

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/malbeclabs/fabric-sim/internal/ipaddr"
)

// Protocol is the carried transport-layer tag of a five-tuple. The
// five-tuple is a routing key only; no window, retransmission, or
// congestion-control behavior is modeled (§1 Non-goals).
type Protocol int

const (
	TCP Protocol = iota + 1
	UDP
	CONTROL
)

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "TCP"
	case UDP:
		return "UDP"
	case CONTROL:
		return "CONTROL"
	default:
		return "UNKNOWN"
	}
}

// FiveTuple identifies a flow. SrcPort/DstPort may be 0 (unset).
type FiveTuple struct {
	SrcIP, DstIP     ipaddr.Address
	SrcPort, DstPort uint16
	Protocol         Protocol
}

func (t FiveTuple) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d (%s)", t.SrcIP, t.SrcPort, t.DstIP, t.DstPort, t.Protocol)
}

// Hash returns a stable hash of the five-tuple's contents, used as the
// ECMP key (§3, §4.5). Stability across runs for the same tuple contents
// is required so that a flow sticks to one path.
func (t FiveTuple) Hash() uint64 {
	return xxhash.Sum64String(t.String())
}

// DropReason records why a message was dropped, for statistics and log
// correlation (§7 policy: RouteMiss/Expired are data-plane conditions,
// never propagated as exceptions).
type DropReason string

const (
	DropReasonNone       DropReason = ""
	DropReasonRouteMiss  DropReason = "route_miss"
	DropReasonExpired    DropReason = "expired"
	DropReasonLostNoPort DropReason = "lost_no_remaining_port"
)

// Message is a passive data record mutated as it traverses the fabric
// (§3).
type Message struct {
	ID         int
	Five       FiveTuple
	SizeBytes  int
	BirthTime  float64
	Content    any
	TTL        float64
	PathLength int
	Verbose    bool
	Path       []string

	Delivered   bool
	Dropped     bool
	Lost        bool
	ArrivalTime *float64
	DropReason  DropReason
}

// MessageID implements event.Message so the scheduler can keep an ordered
// ledger of every originated message without depending on this package.
func (m *Message) MessageID() int { return m.ID }

// IsExpired is true once the message has outlived its TTL (in simulated
// seconds — see DESIGN.md Open Question OQ-1) or exceeded the topology's
// max hop count. Both conditions force a drop (§3 Expiry predicate).
func (m *Message) IsExpired(currentTime float64, maxPath int) bool {
	return (currentTime-m.BirthTime) > m.TTL || m.PathLength > maxPath
}

// recordArrival marks a message as delivered at the given simulated time.
func (m *Message) recordArrival(now float64) {
	m.Delivered = true
	t := now
	m.ArrivalTime = &t
}
