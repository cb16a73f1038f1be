package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/ritzau/net-topology/pkg/analysis"
	"github.com/ritzau/net-topology/pkg/graph"
	"github.com/ritzau/net-topology/pkg/ingest"
)

// MaxListedWarnings caps the warnings printed in the summary
const MaxListedWarnings = 20

// PrintSummary prints a colored ingestion summary: what was read, what the
// topology contains, what the rendered view kept, and which records were skipped
func PrintSummary(w io.Writer, input string, result *analysis.Result, view *graph.Graph) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Network Topology - Ingestion Report")
	bold.Fprintln(w, "===================================")
	fmt.Fprintf(w, "Input: %s\n", input)
	fmt.Fprintf(w, "Read: %d file(s), %d batch(es)\n", result.Files, result.Report.Batches)
	fmt.Fprintln(w)

	snap := result.Graph.Snapshot()
	fmt.Fprintf(w, "Resources: %d\n", len(snap.Nodes))
	byType := snap.NodeCountByType()
	for _, t := range sortedKeys(byType) {
		cyan.Fprintf(w, "  %-28s %d\n", t, byType[t])
	}
	fmt.Fprintf(w, "Relationships: %d\n", len(snap.Edges))
	byKind := snap.EdgeCountByKind()
	for _, k := range sortedKeys(byKind) {
		cyan.Fprintf(w, "  %-28s %d\n", k, byKind[k])
	}
	fmt.Fprintln(w)

	if view != nil && view != result.Graph {
		fmt.Fprintf(w, "Rendered view: %d nodes, %d edges\n", view.NodeCount(), view.EdgeCount())
		fmt.Fprintln(w)
	}

	skipped := result.Report.TotalSkipped()
	if skipped == 0 {
		green.Fprintf(w, "Summary: %d record(s) ingested, none skipped\n", result.Report.TotalIngested())
		return
	}

	red.Fprintln(w, "SKIPPED RECORDS:")
	printWarnings(w, result.Report.Warnings, yellow)
	yellow.Fprintf(w, "Summary: %d record(s) ingested, %d skipped\n", result.Report.TotalIngested(), skipped)
}

func printWarnings(w io.Writer, warnings []ingest.Warning, c *color.Color) {
	for i, warn := range warnings {
		if i == MaxListedWarnings {
			fmt.Fprintf(w, "  ... and %d more\n", len(warnings)-MaxListedWarnings)
			break
		}
		c.Fprintf(w, "  [%s] %s\n", warn.Category, warn.Record)
		fmt.Fprintf(w, "    Reason: %s\n", warn.Reason)
	}
	fmt.Fprintln(w)
}

func sortedKeys[K ~string](m map[K]int) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
