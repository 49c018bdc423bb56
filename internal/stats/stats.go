// Package stats computes end-of-run statistics over a simulation's
// message ledger and link set, grounded on
// original_source/network_simulation/stats.py:compute_run_stats.
package stats

import (
	"math"

	"github.com/malbeclabs/fabric-sim/internal/event"
	"github.com/malbeclabs/fabric-sim/internal/netsim"
	"github.com/malbeclabs/fabric-sim/internal/topology"
)

// Report is the typed equivalent of the original's loose stats dict.
type Report struct {
	TotalTime float64

	TotalMessages int

	DeliveredStraightCount      int
	DeliveredStraightPercent    float64
	DeliveredWhileLostCount     int
	DeliveredWhileLostPercent   float64
	DroppedCount                int
	DroppedPercent              float64

	AveragePathLength float64
	MaxPathLength     int
	MinPathLength     int

	LinkAverageDeliveryTime     float64
	LinkMinDeliveryTime         float64
	LinkMaxDeliveryTime         float64
	LinkAverageUtilizationPercent float64
	LinkAverageBytesTransmitted float64

	NumFailedLinks           int
	NumSwitchesWithFailedLink int
	NumHosts                 int
	NumSwitches              int
	NumLinks                 int
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Compute builds a Report from a run's message ledger, the scheduler's
// end time, and the built topology's results (§9 "statistics"; OQ-3:
// delivered-while-lost is kept as its own bucket, never folded into
// plain "delivered").
func Compute(messages []event.Message, endTime float64, res topology.Results) Report {
	r := Report{
		TotalTime:    endTime,
		NumHosts:     len(res.Hosts),
		NumSwitches:  len(res.Switches),
		NumLinks:     len(res.Links),
		NumFailedLinks: len(res.FailedLinks),
	}
	r.TotalMessages = len(messages)

	var pathLengths []float64
	for _, raw := range messages {
		m, ok := raw.(*netsim.Message)
		if !ok {
			continue
		}
		switch {
		case m.Delivered && m.Lost:
			r.DeliveredWhileLostCount++
			pathLengths = append(pathLengths, float64(m.PathLength))
		case m.Delivered:
			r.DeliveredStraightCount++
			pathLengths = append(pathLengths, float64(m.PathLength))
		case m.Dropped:
			r.DroppedCount++
		}
	}

	if r.TotalMessages > 0 {
		r.DeliveredStraightPercent = float64(r.DeliveredStraightCount) / float64(r.TotalMessages) * 100.0
		r.DeliveredWhileLostPercent = float64(r.DeliveredWhileLostCount) / float64(r.TotalMessages) * 100.0
		r.DroppedPercent = float64(r.DroppedCount) / float64(r.TotalMessages) * 100.0
	}

	if len(pathLengths) > 0 {
		r.AveragePathLength = mean(pathLengths)
		minP, maxP := pathLengths[0], pathLengths[0]
		for _, p := range pathLengths {
			if p < minP {
				minP = p
			}
			if p > maxP {
				maxP = p
			}
		}
		r.MinPathLength = int(minP)
		r.MaxPathLength = int(maxP)
	}

	computeLinkStats(&r, res)
	r.NumSwitchesWithFailedLink = countSwitchesWithFailedLink(res)

	return r
}

func computeLinkStats(r *Report, res topology.Results) {
	if len(res.Links) == 0 {
		return
	}
	var totalTime, totalBytes float64
	minTime, maxTime := math.Inf(1), 0.0
	for _, l := range res.Links {
		t := l.AccumulatedTransmittingTime
		totalTime += t
		totalBytes += float64(l.AccumulatedBytesTransmitted)
		if t < minTime {
			minTime = t
		}
		if t > maxTime {
			maxTime = t
		}
	}
	n := float64(len(res.Links))
	r.LinkAverageDeliveryTime = totalTime / n
	if math.IsInf(minTime, 1) {
		minTime = 0
	}
	r.LinkMinDeliveryTime = minTime
	r.LinkMaxDeliveryTime = maxTime
	r.LinkAverageBytesTransmitted = totalBytes / n
	if r.TotalTime > 0 {
		r.LinkAverageUtilizationPercent = (totalTime / (n * r.TotalTime)) * 100.0
	}
}

// countSwitchesWithFailedLink attributes each failed link to the
// switches among its two connected endpoints, mirroring
// extract_topology_info's node1/node2 attribution in the original.
func countSwitchesWithFailedLink(res topology.Results) int {
	switchNames := make(map[string]struct{}, len(res.Switches))
	for _, sw := range res.Switches {
		switchNames[sw.Name] = struct{}{}
	}
	seen := make(map[string]struct{})
	failedSet := make(map[string]struct{}, len(res.FailedLinks))
	for _, name := range res.FailedLinks {
		failedSet[name] = struct{}{}
	}
	for _, sw := range res.Switches {
		for _, link := range sw.Links() {
			if _, failed := failedSet[link.Name]; failed {
				seen[sw.Name] = struct{}{}
			}
		}
	}
	return len(seen)
}
