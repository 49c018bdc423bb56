// Package simconfig holds the simulator's CLI-derived configuration, in
// the same Config-struct-plus-Validate shape the teacher uses for its
// per-service configs (e.g. gm.RunnerConfig.Validate()).
package simconfig

import (
	"strings"

	"github.com/malbeclabs/fabric-sim/internal/simerrors"
)

// Topology names a concrete topology builder (§6).
type Topology string

const (
	TopologyFatTree     Topology = "fat-tree"
	TopologyHSH         Topology = "hsh"
	TopologySimpleStar  Topology = "simple-star"
)

// Config is the set of parameters the CLI accepts (§6).
type Config struct {
	Topology        Topology
	K               []int
	Visualize       bool
	LinkFailure     []float64
	Verbose         bool
	Seed            int64
	DefaultTTL      float64
	MessagesPerHost int
	MaxPath         int
}

// Default returns a Config with the spec's defaults (§6: link-failure
// [0.0], seed 1972).
func Default() Config {
	return Config{
		Topology:        TopologyFatTree,
		LinkFailure:     []float64{0.0},
		Seed:            1972,
		DefaultTTL:      2000,
		MessagesPerHost: 5,
	}
}

// MaxPathFor returns the per-topology default max_path when cfg.MaxPath is
// unset (<=0): 7 for fat-tree (worst-case cross-pod hop count), 3 for
// hsh, 6 for simple-star (SPEC_FULL.md "DOMAIN STACK — additional
// modules").
func (c Config) MaxPathFor(t Topology) int {
	if c.MaxPath > 0 {
		return c.MaxPath
	}
	switch t {
	case TopologyHSH:
		return 3
	case TopologySimpleStar:
		return 6
	default:
		return 7
	}
}

// Validate checks range and required-field constraints, returning a
// simerrors.InvalidArgument on violation (§6, §7).
func (c *Config) Validate() error {
	switch c.Topology {
	case TopologyFatTree, TopologyHSH, TopologySimpleStar:
	default:
		return simerrors.InvalidArgumentf("simconfig.Validate", "unknown topology %q: valid options are fat-tree, hsh, simple-star", c.Topology)
	}
	if c.Topology == TopologyFatTree {
		if len(c.K) == 0 {
			return simerrors.InvalidArgumentf("simconfig.Validate", "-k is required for fat-tree topology")
		}
		for _, k := range c.K {
			if k < 1 || k%2 != 0 {
				return simerrors.InvalidArgumentf("simconfig.Validate", "k must be >= 1 and even, got %d", k)
			}
		}
	}
	if len(c.LinkFailure) == 0 {
		c.LinkFailure = []float64{0.0}
	}
	for _, lf := range c.LinkFailure {
		if lf < 0 || lf > 100 {
			return simerrors.InvalidArgumentf("simconfig.Validate", "link-failure must be in [0,100], got %v", lf)
		}
	}
	return nil
}

// ParseTopology normalizes and validates a topology name from the CLI.
func ParseTopology(s string) (Topology, error) {
	t := Topology(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TopologyFatTree, TopologyHSH, TopologySimpleStar:
		return t, nil
	default:
		return "", simerrors.InvalidArgumentf("simconfig.ParseTopology", "unknown topology %q", s)
	}
}
