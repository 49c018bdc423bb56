package netsim_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/malbeclabs/fabric-sim/internal/ipaddr"
	"github.com/malbeclabs/fabric-sim/internal/ledger"
	"github.com/malbeclabs/fabric-sim/internal/netsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ip(t *testing.T, s string) ipaddr.Address {
	t.Helper()
	a, err := ipaddr.Parse(s)
	require.NoError(t, err)
	return a
}

// TestSerializationSingleLink is §8 scenario 2: H1 sends a 500000-byte
// message to H2 at t=0.1 over a 1e3 bps / 0.01s-propagation link.
// Expected arrival: 0.1 + 500000*8/1000 + 0.01 = 4000.11s.
func TestSerializationSingleLink(t *testing.T) {
	run := ledger.NewRun(nil, 1972)
	h1 := netsim.NewHost("h1", run, ip(t, "10.0.0.1"), 1000000, nil)
	h2 := netsim.NewHost("h2", run, ip(t, "10.0.0.2"), 1000000, nil)
	link := netsim.NewLink("l1", run, 1e3, 0.01, nil)
	require.NoError(t, h1.Connect(1, link))
	require.NoError(t, h2.Connect(1, link))
	require.NoError(t, h1.InstallRoute("10.0.0.2/32", 1))
	require.NoError(t, h2.InstallRoute("10.0.0.1/32", 1))

	require.NoError(t, run.Scheduler.Schedule(0.1, func() {
		require.NoError(t, h1.Send(ip(t, "10.0.0.2"), "hello", 500000, false))
	}))

	run.Scheduler.Run(nil)

	assert.Equal(t, 1, h2.Delivered())
	ledgerMsgs := run.Scheduler.Ledger()
	require.Len(t, ledgerMsgs, 1)
	m := ledgerMsgs[0].(*netsim.Message)
	assert.True(t, m.Delivered)
	assert.False(t, m.Dropped)
	require.NotNil(t, m.ArrivalTime)
	assert.InDelta(t, 4000.11, *m.ArrivalTime, 1e-9)
	assert.GreaterOrEqual(t, m.PathLength, 2)
}

// TestBackToBackSendsSameDirection is §8 scenario 3: two 500000-byte
// sends both scheduled at t=0.1 on the same link/direction serialize
// back to back.
func TestBackToBackSendsSameDirection(t *testing.T) {
	run := ledger.NewRun(nil, 1972)
	h1 := netsim.NewHost("h1", run, ip(t, "10.0.0.1"), 1000000, nil)
	h2 := netsim.NewHost("h2", run, ip(t, "10.0.0.2"), 1000000, nil)
	link := netsim.NewLink("l1", run, 1e3, 0.01, nil)
	require.NoError(t, h1.Connect(1, link))
	require.NoError(t, h2.Connect(1, link))
	require.NoError(t, h1.InstallRoute("10.0.0.2/32", 1))
	require.NoError(t, h2.InstallRoute("10.0.0.1/32", 1))

	require.NoError(t, run.Scheduler.Schedule(0.1, func() {
		require.NoError(t, h1.Send(ip(t, "10.0.0.2"), "first", 500000, false))
		require.NoError(t, h1.Send(ip(t, "10.0.0.2"), "second", 500000, false))
	}))

	run.Scheduler.Run(nil)

	msgs := run.Scheduler.Ledger()
	require.Len(t, msgs, 2)
	first := msgs[0].(*netsim.Message)
	second := msgs[1].(*netsim.Message)
	require.NotNil(t, first.ArrivalTime)
	require.NotNil(t, second.ArrivalTime)
	assert.InDelta(t, 4000.11, *first.ArrivalTime, 1e-9)
	assert.InDelta(t, 8000.11, *second.ArrivalTime, 1e-9)
}

// TestLPMOverSlash8AndSlash24 is §8 scenario 4.
func TestLPMOverSlash8AndSlash24(t *testing.T) {
	run := ledger.NewRun(nil, 1972)
	sw := netsim.NewSwitch("sw", 4, run, 1000000, nil)
	for i := 1; i <= 3; i++ {
		link := netsim.NewLink("stub", run, 1e9, 0.0001, nil)
		stub := netsim.NewHost("stub-host", run, ip(t, "192.168.0.1"), 1000000, nil)
		require.NoError(t, sw.Connect(i, link))
		require.NoError(t, stub.Connect(1, link))
	}
	require.NoError(t, sw.InstallRoute("10.0.0.0/8", 3))
	require.NoError(t, sw.InstallRoute("10.1.2.0/24", 2))

	msg1 := &netsim.Message{ID: 1, Five: netsim.FiveTuple{DstIP: ip(t, "10.1.2.5"), Protocol: netsim.TCP}, SizeBytes: 100, TTL: netsim.DefaultTTL}
	require.NoError(t, sw.Forward(msg1))
	assert.False(t, msg1.Dropped)

	msg2 := &netsim.Message{ID: 2, Five: netsim.FiveTuple{DstIP: ip(t, "10.3.4.5"), Protocol: netsim.TCP}, SizeBytes: 100, TTL: netsim.DefaultTTL}
	require.NoError(t, sw.Forward(msg2))
	assert.False(t, msg2.Dropped)

	msg3 := &netsim.Message{ID: 3, Five: netsim.FiveTuple{DstIP: ip(t, "11.0.0.0"), Protocol: netsim.TCP}, SizeBytes: 100, TTL: netsim.DefaultTTL}
	require.NoError(t, sw.Forward(msg3))
	assert.True(t, msg3.Dropped)
	assert.Equal(t, netsim.DropReasonRouteMiss, msg3.DropReason)
}

// TestECMPStability is §8 scenario 5: identical five-tuples must choose
// the same port.
func TestECMPStability(t *testing.T) {
	run := ledger.NewRun(nil, 1972)
	sw := netsim.NewSwitch("sw", 2, run, 1000000, nil)
	links := make([]*netsim.Link, 2)
	for i := 1; i <= 2; i++ {
		link := netsim.NewLink("l", run, 1e9, 0.0001, nil)
		links[i-1] = link
		stub := netsim.NewHost("stub", run, ip(t, "192.168.0.1"), 1000000, nil)
		require.NoError(t, sw.Connect(i, link))
		require.NoError(t, stub.Connect(1, link))
	}
	require.NoError(t, sw.InstallRoute("10.0.0.0/8", 1))
	require.NoError(t, sw.InstallRoute("10.0.0.0/8", 2))

	tuple := netsim.FiveTuple{SrcIP: ip(t, "10.9.9.9"), DstIP: ip(t, "10.1.2.3"), SrcPort: 1111, DstPort: 80, Protocol: netsim.TCP}
	for i := 0; i < 5; i++ {
		m := &netsim.Message{ID: i, Five: tuple, SizeBytes: 100, TTL: netsim.DefaultTTL}
		require.NoError(t, sw.Forward(m))
		assert.False(t, m.Dropped)
	}

	// All five messages share a five-tuple, so every one of them must have
	// been sent out the same ECMP port: exactly one of the two links
	// should have accumulated all 500 bytes, the other none.
	bytes := []int64{links[0].AccumulatedBytesTransmitted, links[1].AccumulatedBytesTransmitted}
	assert.ElementsMatch(t, []int64{0, 500}, bytes)

	// A different five-tuple may (but need not) land on the other port;
	// it must still be accepted and not treated as a loop.
	other := netsim.FiveTuple{SrcIP: ip(t, "10.9.9.9"), DstIP: ip(t, "10.1.2.4"), SrcPort: 2222, DstPort: 443, Protocol: netsim.TCP}
	m := &netsim.Message{ID: 100, Five: other, SizeBytes: 50, TTL: netsim.DefaultTTL}
	require.NoError(t, sw.Forward(m))
	assert.False(t, m.Dropped)
}

// TestLoopDetectionFallsBackToLostMode exercises §4.5 step 3's loop
// fallback: a message re-entering the same egress port is marked lost
// and rerouted via a different, unused port.
func TestLoopDetectionFallsBackToLostMode(t *testing.T) {
	run := ledger.NewRun(nil, 1972)
	sw := netsim.NewSwitch("sw", 2, run, 1000000, nil)
	link1 := netsim.NewLink("l1", run, 1e9, 0.0001, nil)
	link2 := netsim.NewLink("l2", run, 1e9, 0.0001, nil)
	stub1 := netsim.NewHost("stub1", run, ip(t, "192.168.0.1"), 1000000, nil)
	stub2 := netsim.NewHost("stub2", run, ip(t, "192.168.0.2"), 1000000, nil)
	require.NoError(t, sw.Connect(1, link1))
	require.NoError(t, stub1.Connect(1, link1))
	require.NoError(t, sw.Connect(2, link2))
	require.NoError(t, stub2.Connect(1, link2))
	require.NoError(t, sw.InstallRoute("10.0.0.0/8", 1))

	m := &netsim.Message{ID: 1, Five: netsim.FiveTuple{DstIP: ip(t, "10.1.2.3"), Protocol: netsim.TCP}, SizeBytes: 100, TTL: netsim.DefaultTTL}
	require.NoError(t, sw.Forward(m))
	assert.False(t, m.Dropped)
	assert.False(t, m.Lost)

	// Re-enter the switch with the same message id: port 1 has already
	// carried it, so the only LPM match becomes a loop -> lost mode.
	require.NoError(t, sw.Forward(m))
	assert.True(t, m.Lost)
	assert.False(t, m.Dropped)
}

// TestExpiryForcesDropBeforeLostModeRouting is §9 Open Question OQ-2:
// expiry is checked before the lost-mode branch.
func TestExpiryForcesDropBeforeLostModeRouting(t *testing.T) {
	run := ledger.NewRun(nil, 1972)
	sw := netsim.NewSwitch("sw", 1, run, 1000000, nil)
	link := netsim.NewLink("l", run, 1e9, 0.0001, nil)
	stub := netsim.NewHost("stub", run, ip(t, "192.168.0.1"), 1000000, nil)
	require.NoError(t, sw.Connect(1, link))
	require.NoError(t, stub.Connect(1, link))

	m := &netsim.Message{ID: 1, Five: netsim.FiveTuple{DstIP: ip(t, "10.1.2.3"), Protocol: netsim.TCP}, SizeBytes: 100, TTL: 10, BirthTime: -100, Lost: true}
	require.NoError(t, sw.Forward(m))
	assert.True(t, m.Dropped)
	assert.Equal(t, netsim.DropReasonExpired, m.DropReason)
}

// TestFiveTupleRoundTripsThroughForward checks that Forward never mutates
// the five-tuple identifying a flow, comparing the full struct (rather
// than field-by-field) so a future field addition to FiveTuple can't
// silently go unchecked here.
func TestFiveTupleRoundTripsThroughForward(t *testing.T) {
	run := ledger.NewRun(nil, 1972)
	sw := netsim.NewSwitch("sw", 1, run, 1000000, nil)
	link := netsim.NewLink("l", run, 1e9, 0.0001, nil)
	stub := netsim.NewHost("stub", run, ip(t, "192.168.0.1"), 1000000, nil)
	require.NoError(t, sw.Connect(1, link))
	require.NoError(t, stub.Connect(1, link))
	require.NoError(t, sw.InstallRoute("10.0.0.0/8", 1))

	want := netsim.FiveTuple{SrcIP: ip(t, "10.9.9.9"), DstIP: ip(t, "10.1.2.3"), SrcPort: 1234, DstPort: 80, Protocol: netsim.UDP}
	m := &netsim.Message{ID: 1, Five: want, SizeBytes: 100, TTL: netsim.DefaultTTL}
	require.NoError(t, sw.Forward(m))

	if diff := cmp.Diff(want, m.Five, cmpopts.EquateComparable(ipaddr.Address{})); diff != "" {
		t.Errorf("five-tuple mutated by Forward (-want +got):\n%s", diff)
	}
}
