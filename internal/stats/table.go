package stats

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// WriteTable renders the report as a summary table, grounded on
// controlplane/telemetry/internal/data/cli/internet.go's tablewriter
// usage, in place of stats.py's f-string join.
func (r Report) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetHeader([]string{"Metric", "Value"})

	rows := [][2]string{
		{"Total time (s)", fmt.Sprintf("%.4f", r.TotalTime)},
		{"Total messages", fmt.Sprintf("%d", r.TotalMessages)},
		{"Delivered straight", fmt.Sprintf("%d (%.2f%%)", r.DeliveredStraightCount, r.DeliveredStraightPercent)},
		{"Delivered while lost", fmt.Sprintf("%d (%.2f%%)", r.DeliveredWhileLostCount, r.DeliveredWhileLostPercent)},
		{"Dropped", fmt.Sprintf("%d (%.2f%%)", r.DroppedCount, r.DroppedPercent)},
		{"Average path length", fmt.Sprintf("%.3f", r.AveragePathLength)},
		{"Min/Max path length", fmt.Sprintf("%d / %d", r.MinPathLength, r.MaxPathLength)},
		{"Link avg delivery time (s)", fmt.Sprintf("%.6f", r.LinkAverageDeliveryTime)},
		{"Link min/max delivery time (s)", fmt.Sprintf("%.6f / %.6f", r.LinkMinDeliveryTime, r.LinkMaxDeliveryTime)},
		{"Link avg utilization (%)", fmt.Sprintf("%.4f", r.LinkAverageUtilizationPercent)},
		{"Link avg bytes transmitted", fmt.Sprintf("%.1f", r.LinkAverageBytesTransmitted)},
		{"Hosts / Switches / Links", fmt.Sprintf("%d / %d / %d", r.NumHosts, r.NumSwitches, r.NumLinks)},
		{"Failed links", fmt.Sprintf("%d", r.NumFailedLinks)},
		{"Switches with a failed link", fmt.Sprintf("%d", r.NumSwitchesWithFailedLink)},
	}
	for _, row := range rows {
		table.Append([]string{row[0], row[1]})
	}
	table.Render()
}
