package netsim

import (
	"log/slog"

	"github.com/malbeclabs/fabric-sim/internal/ipaddr"
	"github.com/malbeclabs/fabric-sim/internal/ledger"
)

// DefaultTTL is the default message lifetime, in simulated seconds (see
// DESIGN.md Open Question OQ-1 on TTL units).
const DefaultTTL = 2000

// Host is an endpoint with an IP address that originates and terminates
// traffic (§3, §4.6).
type Host struct {
	*NetworkNode

	IP ipaddr.Address

	delivered int
}

// NewHost constructs a Host with a single uplink port (§4.6: Host extends
// NetworkNode with max_connections=1).
func NewHost(name string, run *ledger.Run, ip ipaddr.Address, maxPath int, log *slog.Logger) *Host {
	h := &Host{IP: ip}
	h.NetworkNode = NewNetworkNode(name, 1, run, maxPath, log, h)
	return h
}

// Delivered returns the number of messages this host has received.
func (h *Host) Delivered() int { return h.delivered }

// Send originates a message toward dstIP and forwards it (§4.6).
func (h *Host) Send(dstIP ipaddr.Address, payload any, sizeBytes int, verbose bool) error {
	id := h.Run.NextMessageID()
	m := &Message{
		ID: id,
		Five: FiveTuple{
			SrcIP:    h.IP,
			DstIP:    dstIP,
			Protocol: TCP,
		},
		SizeBytes: sizeBytes,
		BirthTime: h.Run.Scheduler.CurrentTime(),
		Content:   payload,
		TTL:       DefaultTTL,
		Verbose:   verbose,
	}
	m.PathLength = 1
	if verbose {
		m.Path = append(m.Path, h.Name)
	}
	h.Run.Scheduler.RegisterMessage(m)
	return h.Forward(m)
}

// OnMessage implements forward-to-origin termination: a Host never
// re-forwards a message it receives (§4.5).
func (h *Host) OnMessage(m *Message) {
	m.recordArrival(h.Run.Scheduler.CurrentTime())
	h.delivered++
	h.Log.Debug("netsim.Host: delivered", "host", h.Name, "message_id", m.ID, "lost", m.Lost, "path_length", m.PathLength)
}
