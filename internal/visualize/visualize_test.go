package visualize_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/malbeclabs/fabric-sim/internal/ipaddr"
	"github.com/malbeclabs/fabric-sim/internal/ledger"
	"github.com/malbeclabs/fabric-sim/internal/netsim"
	"github.com/malbeclabs/fabric-sim/internal/topology"
	"github.com/malbeclabs/fabric-sim/internal/visualize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSmallResults(t *testing.T) topology.Results {
	t.Helper()
	builder, err := topology.NewFatTreeBuilder(2, 7)
	require.NoError(t, err)
	_, err = builder.CreateSimulator(topology.BuildConfig{Seed: 1, MessagesPerHost: 1})
	require.NoError(t, err)
	return builder.Results()
}

func TestWriteDOTIncludesHostsAndSwitches(t *testing.T) {
	res := buildSmallResults(t)
	var buf bytes.Buffer
	require.NoError(t, visualize.WriteDOT(&buf, res))
	out := buf.String()
	assert.Contains(t, out, "graph")
	assert.NotEmpty(t, res.Hosts)
	for _, h := range res.Hosts {
		assert.Contains(t, out, h.Name)
	}
	assert.NotEmpty(t, res.Switches)
	for _, sw := range res.Switches {
		assert.Contains(t, out, sw.Name)
	}
}

func TestSaveUsesFakeClockForDeterministicFilename(t *testing.T) {
	res := buildSmallResults(t)
	dir := t.TempDir()
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(fixed)

	path, err := visualize.Save(dir, res, clock)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "topology_fat-tree-k2_20250102_030405.dot"), path)
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestSaveAvoidsOverwritingExistingFile(t *testing.T) {
	res := buildSmallResults(t)
	dir := t.TempDir()
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(fixed)

	first, err := visualize.Save(dir, res, clock)
	require.NoError(t, err)
	second, err := visualize.Save(dir, res, clock)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestLinkEndpointNamesResolvesBothSides(t *testing.T) {
	run := ledger.NewRun(nil, 1)
	ip1, err := ipaddr.Parse("10.0.0.1")
	require.NoError(t, err)
	ip2, err := ipaddr.Parse("10.0.0.2")
	require.NoError(t, err)
	h1 := netsim.NewHost("h1", run, ip1, 10, nil)
	h2 := netsim.NewHost("h2", run, ip2, 10, nil)
	link := netsim.NewLink("l1", run, 1e9, 0.0001, nil)
	require.NoError(t, h1.Connect(1, link))
	require.NoError(t, h2.Connect(1, link))
	assert.ElementsMatch(t, []string{"h1", "h2"}, link.EndpointNames())
}
