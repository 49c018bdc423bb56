// Package visualize renders a built topology as a Graphviz DOT file, the
// Go substitute for original_source/network_simulation/visualizer.py's
// matplotlib/networkx PNG (no native image-rendering stack in this pack;
// see DESIGN.md for the substitution rationale). The invocation point from
// spec.md §6 is kept; files are named topology_<name>_<timestamp>.dot, with
// a numeric suffix added only when that name is already taken (see Save).
package visualize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/fabric-sim/internal/netsim"
	"github.com/malbeclabs/fabric-sim/internal/simerrors"
	"github.com/malbeclabs/fabric-sim/internal/topology"
)

// WriteDOT renders res as a Graphviz "graph" to w: one node per host/
// switch, one edge per link, failed links styled dashed/red.
func WriteDOT(w io.Writer, res topology.Results) error {
	fmt.Fprintf(w, "graph %q {\n", sanitize(res.Name))
	fmt.Fprintln(w, `  rankdir=BT;`)
	fmt.Fprintln(w, `  node [shape=box];`)

	for _, h := range res.Hosts {
		fmt.Fprintf(w, "  %q [shape=ellipse, label=%q];\n", h.Name, fmt.Sprintf("%s\\n%s", h.Name, h.IP.String()))
	}
	for _, sw := range res.Switches {
		fmt.Fprintf(w, "  %q;\n", sw.Name)
	}

	failed := make(map[string]bool, len(res.FailedLinks))
	for _, name := range res.FailedLinks {
		failed[name] = true
	}
	for _, l := range res.Links {
		a, b, ok := linkEndpointNames(l)
		if !ok {
			continue
		}
		attrs := ""
		if l.Failed || failed[l.Name] {
			attrs = ` [style=dashed, color=red]`
		}
		fmt.Fprintf(w, "  %q -- %q%s;\n", a, b, attrs)
	}

	fmt.Fprintln(w, "}")
	return nil
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}

// linkEndpointNames resolves a Link's two connected Poster endpoints back
// to display names via Link.EndpointNames; ok is false unless both
// endpoints are connected and expose a name.
func linkEndpointNames(l *netsim.Link) (a, b string, ok bool) {
	names := l.EndpointNames()
	if len(names) != 2 {
		return "", "", false
	}
	return names[0], names[1], true
}

// Save writes res to <dir>/topology_<name>_<timestamp>.dot, using clock
// for the timestamp. If that file already exists, _1, _2, ... is appended
// before ".dot" until the name is free, so an existing file is never
// overwritten. Production callers pass clockwork.NewRealClock();
// tests pass clockwork.NewFakeClock() for deterministic names.
func Save(dir string, res topology.Results, clock clockwork.Clock) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", simerrors.Wrap(simerrors.Fatal, "visualize.Save", "creating results directory", err)
	}
	timestamp := clock.Now().UTC().Format("20060102_150405")
	base := fmt.Sprintf("topology_%s_%s", sanitizeFilename(res.Name), timestamp)

	path := filepath.Join(dir, base+".dot")
	for n := 1; fileExists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.dot", base, n))
	}

	f, err := os.Create(path)
	if err != nil {
		return "", simerrors.Wrap(simerrors.Fatal, "visualize.Save", "creating dot file", err)
	}
	defer f.Close()

	if err := WriteDOT(f, res); err != nil {
		return "", err
	}
	return path, nil
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
