// Package metrics exposes netsim's Prometheus instrumentation, grounded
// on telemetry/global-monitor/internal/metrics/metrics.go's package-var
// promauto declarations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/malbeclabs/fabric-sim/internal/simconfig"
	"github.com/malbeclabs/fabric-sim/internal/stats"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fabric_sim_runs_total",
		Help: "Total number of simulation runs completed",
	}, []string{"topology"})

	MessagesDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fabric_sim_messages_delivered_total",
		Help: "Total number of messages delivered, by whether lost-mode forwarding was used",
	}, []string{"topology", "lost_mode"})

	MessagesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fabric_sim_messages_dropped_total",
		Help: "Total number of messages dropped",
	}, []string{"topology"})

	PathLength = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fabric_sim_path_length_hops",
		Help:    "Average path length of delivered messages, observed once per run, in hops",
		Buckets: prometheus.LinearBuckets(0, 1, 16),
	}, []string{"topology"})

	LinkUtilizationPercent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fabric_sim_link_utilization_percent",
		Help: "Average link utilization percentage for the most recent run",
	}, []string{"topology"})

	FailedLinksCurrent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fabric_sim_failed_links_current",
		Help: "Number of failed links in the most recent run",
	}, []string{"topology"})

	RunDurationSimSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fabric_sim_run_duration_sim_seconds",
		Help:    "Simulated end time of completed runs",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
	}, []string{"topology"})
)

// RecordRun folds a completed run's Report into the package's metrics.
func RecordRun(topo simconfig.Topology, k int, linkFailurePercent float64, report stats.Report) {
	t := string(topo)

	RunsTotal.WithLabelValues(t).Inc()
	MessagesDeliveredTotal.WithLabelValues(t, "false").Add(float64(report.DeliveredStraightCount))
	MessagesDeliveredTotal.WithLabelValues(t, "true").Add(float64(report.DeliveredWhileLostCount))
	MessagesDroppedTotal.WithLabelValues(t).Add(float64(report.DroppedCount))
	PathLength.WithLabelValues(t).Observe(report.AveragePathLength)
	LinkUtilizationPercent.WithLabelValues(t).Set(report.LinkAverageUtilizationPercent)
	FailedLinksCurrent.WithLabelValues(t).Set(float64(report.NumFailedLinks))
	RunDurationSimSeconds.WithLabelValues(t).Observe(report.TotalTime)
}
