// Package main is the netsim CLI: it parses topology/traffic parameters,
// builds one ledger.Run per (k, link-failure) combination, runs each to
// completion, and prints a statistics summary — grounded on
// telemetry/global-monitor/cmd/global-monitor/main.go's flag-parsing +
// logger-construction + prometheus-metrics-server shape, and
// e2e/internal/devnet/cmd/start.go's cobra.Command wrapper pattern for
// the version subcommand.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/fabric-sim/internal/metrics"
	"github.com/malbeclabs/fabric-sim/internal/simconfig"
	"github.com/malbeclabs/fabric-sim/internal/stats"
	"github.com/malbeclabs/fabric-sim/internal/topology"
	"github.com/malbeclabs/fabric-sim/internal/visualize"

	"log/slog"
)

// Set by -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		topologyFlag    string
		kFlag           []int
		linkFailureFlag []float64
		visualizeFlag   bool
		verboseFlag     bool
		seedFlag        int64
		messagesFlag    int
		maxPathFlag     int
		metricsAddrFlag string
		resultsDirFlag  string
	)

	cmd := &cobra.Command{
		Use:   "netsim",
		Short: "Discrete-event network fabric simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verboseFlag)

			if len(kFlag) == 0 {
				kFlag = []int{4}
			}
			if len(linkFailureFlag) == 0 {
				linkFailureFlag = []float64{0.0}
			}

			topo, err := simconfig.ParseTopology(topologyFlag)
			if err != nil {
				log.Error("invalid topology", "error", err)
				return err
			}

			if metricsAddrFlag != "" {
				startMetricsServer(log, metricsAddrFlag)
			}

			for _, k := range kFlag {
				for _, lf := range linkFailureFlag {
					if err := runOne(log, topo, k, lf, seedFlag, messagesFlag, maxPathFlag, visualizeFlag, resultsDirFlag); err != nil {
						log.Error("run failed", "topology", topo, "k", k, "link_failure", lf, "error", err)
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&topologyFlag, "topology", "t", string(simconfig.TopologyFatTree), "topology to simulate: fat-tree, hsh, simple-star")
	cmd.Flags().IntSliceVarP(&kFlag, "k", "k", nil, "fat-tree k value(s); repeatable")
	cmd.Flags().Float64SliceVar(&linkFailureFlag, "link-failure", nil, "link failure percentage(s) in [0,100]; repeatable")
	cmd.Flags().BoolVar(&visualizeFlag, "visualize", false, "write a Graphviz DOT diagram of the topology")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging of per-message routing decisions")
	cmd.Flags().Int64Var(&seedFlag, "seed", 1972, "random seed")
	cmd.Flags().IntVar(&messagesFlag, "messages-per-host", 5, "messages each host sends during the traffic scenario")
	cmd.Flags().IntVar(&maxPathFlag, "max-path", 0, "override the fat-tree max hop count (0 = default of 7); hsh and simple-star always use 3 and 6")
	cmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "address to serve Prometheus /metrics on (empty disables)")
	cmd.Flags().StringVar(&resultsDirFlag, "results-dir", "results", "directory for visualization output")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
			return nil
		},
	}
}

func runOne(log *slog.Logger, topo simconfig.Topology, k int, linkFailurePercent float64, seed int64, messagesPerHost, maxPath int, visualizeTopo bool, resultsDir string) error {
	cfg := simconfig.Config{Topology: topo, K: []int{k}, LinkFailure: []float64{linkFailurePercent}, Seed: seed, MessagesPerHost: messagesPerHost, MaxPath: maxPath}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var builder topology.Builder
	switch topo {
	case simconfig.TopologyFatTree:
		fb, err := topology.NewFatTreeBuilder(k, cfg.MaxPathFor(topo))
		if err != nil {
			return err
		}
		builder = fb
	case simconfig.TopologyHSH:
		builder = topology.NewHSHBuilder()
	case simconfig.TopologySimpleStar:
		builder = topology.NewSimpleStarBuilder()
	}

	run, err := builder.CreateSimulator(topology.BuildConfig{
		Seed:               seed,
		LinkFailurePercent: linkFailurePercent,
		MessagesPerHost:    messagesPerHost,
		Verbose:            log.Enabled(nil, slog.LevelDebug),
		Log:                log,
	})
	if err != nil {
		return err
	}

	run.Scheduler.Run(nil)

	res := builder.Results()
	report := stats.Compute(run.Scheduler.Ledger(), run.Scheduler.EndTime(), res)
	metrics.RecordRun(topo, k, linkFailurePercent, report)
	report.WriteTable(os.Stdout)

	if visualizeTopo {
		path, err := visualize.Save(resultsDir, res, clockwork.NewRealClock())
		if err != nil {
			return err
		}
		log.Info("topology visualization saved", "path", path)
	}

	return nil
}

func startMetricsServer(log *slog.Logger, addr string) {
	go func() {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			log.Error("failed to start prometheus metrics listener", "error", err)
			return
		}
		log.Info("prometheus metrics server listening", "address", listener.Addr().String())
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.Serve(listener, mux); err != nil {
			log.Error("prometheus metrics server stopped", "error", err)
		}
	}()
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}
