package netsim

import (
	"log/slog"

	"github.com/malbeclabs/fabric-sim/internal/ledger"
)

// Switch is a pure forwarder: it has no IP of its own and never
// terminates traffic, delegating entirely to NetworkNode.Forward (§3,
// §4.5 Switch termination).
type Switch struct {
	*NetworkNode
}

// NewSwitch constructs a Switch with portsCount ports.
func NewSwitch(name string, portsCount int, run *ledger.Run, maxPath int, log *slog.Logger) *Switch {
	s := &Switch{}
	s.NetworkNode = NewNetworkNode(name, portsCount, run, maxPath, log, s)
	return s
}

// OnMessage re-enters the forwarding routine (§4.5).
func (s *Switch) OnMessage(m *Message) {
	if err := s.Forward(m); err != nil {
		s.Log.Error("netsim.Switch: forward failed", "switch", s.Name, "message_id", m.ID, "error", err)
	}
}
