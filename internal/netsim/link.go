package netsim

import (
	"log/slog"

	"github.com/malbeclabs/fabric-sim/internal/ledger"
	"github.com/malbeclabs/fabric-sim/internal/simerrors"
)

// Link is a full-duplex serializer between exactly two endpoints. Each
// direction is its own independent serializer: next_available_time[i]
// is indexed by direction and is monotonically non-decreasing (§3, §4.3).
type Link struct {
	Name            string
	BandwidthBps    float64
	PropagationTime float64
	Failed          bool

	AccumulatedTransmittingTime float64
	AccumulatedBytesTransmitted int64

	run *ledger.Run
	log *slog.Logger

	endpoints         [2]Poster
	nextAvailableTime [2]float64
}

// NewLink constructs an unconnected link bound to run's scheduler.
func NewLink(name string, run *ledger.Run, bandwidthBps, propagationTime float64, log *slog.Logger) *Link {
	if log == nil {
		log = run.Log
	}
	return &Link{
		Name:            name,
		BandwidthBps:    bandwidthBps,
		PropagationTime: propagationTime,
		run:             run,
		log:             log,
	}
}

// Connect fills the first free endpoint slot (§4.3).
func (l *Link) Connect(p Poster) error {
	if l.endpoints[0] == nil {
		l.endpoints[0] = p
		return nil
	}
	if l.endpoints[1] == nil {
		l.endpoints[1] = p
		return nil
	}
	return simerrors.InvalidStatef("Link.Connect", "link %q can only connect two nodes", l.Name)
}

// namedPoster is satisfied by any Poster whose concrete type also exposes
// NodeName (Node and everything embedding it).
type namedPoster interface {
	NodeName() string
}

// EndpointNames returns the display names of this link's two connected
// endpoints, for diagnostics and topology visualization. Endpoints not
// yet connected, or not exposing NodeName, are omitted.
func (l *Link) EndpointNames() []string {
	var out []string
	for _, p := range l.endpoints {
		if p == nil {
			continue
		}
		if n, ok := p.(namedPoster); ok {
			out = append(out, n.NodeName())
		}
	}
	return out
}

// direction returns which of the two directional serializers sender is
// using, and the opposite endpoint.
func (l *Link) direction(sender Poster) (dir int, dst Poster, ok bool) {
	switch sender {
	case l.endpoints[0]:
		return 0, l.endpoints[1], true
	case l.endpoints[1]:
		return 1, l.endpoints[0], true
	default:
		return 0, nil, false
	}
}

// Transmit computes the arrival time (serialization + propagation) and
// schedules a future delivery event (§4.3).
func (l *Link) Transmit(m *Message, sender Poster) error {
	if l.endpoints[0] == nil || l.endpoints[1] == nil {
		return simerrors.InvalidStatef("Link.Transmit", "link %q has unset endpoints", l.Name)
	}
	dir, dst, ok := l.direction(sender)
	if !ok {
		return simerrors.InvalidStatef("Link.Transmit", "sender is not an endpoint of link %q", l.Name)
	}
	if l.Failed {
		return simerrors.InvalidStatef("Link.Transmit", "link %q is failed", l.Name)
	}

	now := l.run.Scheduler.CurrentTime()
	start := now
	if l.nextAvailableTime[dir] > start {
		start = l.nextAvailableTime[dir]
	}
	serializationDuration := float64(m.SizeBytes) * 8 / l.BandwidthBps

	l.AccumulatedTransmittingTime += serializationDuration
	l.AccumulatedBytesTransmitted += int64(m.SizeBytes)

	finish := start + serializationDuration
	l.nextAvailableTime[dir] = finish
	arrival := finish + l.PropagationTime

	if l.log != nil {
		l.log.Debug("netsim.Link: transmitting", "link", l.Name, "message_id", m.ID, "start", start, "finish", finish, "arrival", arrival)
	}

	return l.run.Scheduler.Schedule(arrival-now, func() {
		dst.Post(m)
	})
}
