package stats_test

import (
	"bytes"
	"testing"

	"github.com/malbeclabs/fabric-sim/internal/event"
	"github.com/malbeclabs/fabric-sim/internal/ipaddr"
	"github.com/malbeclabs/fabric-sim/internal/ledger"
	"github.com/malbeclabs/fabric-sim/internal/netsim"
	"github.com/malbeclabs/fabric-sim/internal/stats"
	"github.com/malbeclabs/fabric-sim/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePercentagesSumTo100(t *testing.T) {
	run := ledger.NewRun(nil, 1)
	arrival := 1.0
	ip := func(s string) ipaddr.Address {
		a, err := ipaddr.Parse(s)
		require.NoError(t, err)
		return a
	}
	delivered := &netsim.Message{ID: 1, Five: netsim.FiveTuple{DstIP: ip("10.0.0.1")}, Delivered: true, PathLength: 3, ArrivalTime: &arrival}
	deliveredLost := &netsim.Message{ID: 2, Five: netsim.FiveTuple{DstIP: ip("10.0.0.2")}, Delivered: true, Lost: true, PathLength: 5, ArrivalTime: &arrival}
	dropped := &netsim.Message{ID: 3, Five: netsim.FiveTuple{DstIP: ip("10.0.0.3")}, Dropped: true, DropReason: netsim.DropReasonRouteMiss}

	var ledgerMsgs []event.Message
	ledgerMsgs = append(ledgerMsgs, delivered, deliveredLost, dropped)

	link := netsim.NewLink("l1", run, 1e9, 0.0001, nil)
	res := topology.Results{Links: []*netsim.Link{link}}

	r := stats.Compute(ledgerMsgs, 10.0, res)

	assert.Equal(t, 1, r.DeliveredStraightCount)
	assert.Equal(t, 1, r.DeliveredWhileLostCount)
	assert.Equal(t, 1, r.DroppedCount)
	assert.InDelta(t, 100.0, r.DeliveredStraightPercent+r.DeliveredWhileLostPercent+r.DroppedPercent, 1e-9)
	assert.Equal(t, 3, r.MinPathLength)
	assert.Equal(t, 5, r.MaxPathLength)
}

func TestComputeHandlesEmptyLedger(t *testing.T) {
	r := stats.Compute(nil, 0, topology.Results{})
	assert.Equal(t, 0, r.TotalMessages)
	assert.Equal(t, 0.0, r.DeliveredStraightPercent)
}

func TestWriteTableDoesNotPanic(t *testing.T) {
	r := stats.Compute(nil, 0, topology.Results{})
	var buf bytes.Buffer
	r.WriteTable(&buf)
	assert.NotEmpty(t, buf.String())
}
