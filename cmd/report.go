package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/jobshop-sim/jobshop-sim/sim"
	"github.com/jobshop-sim/jobshop-sim/sim/scenario"
	"github.com/jobshop-sim/jobshop-sim/sim/trace"
)

// printRunReport writes the human-readable summary of one batch run.
func printRunReport(w io.Writer, res *scenario.Result) {
	fmt.Fprintln(w, "=== Simulation Results ===")
	fmt.Fprintf(w, "Run ID          : %s\n", res.RunID)
	fmt.Fprintf(w, "Policy          : %s\n", res.Policy)
	fmt.Fprintf(w, "Variant         : %s\n", res.Variant)
	fmt.Fprintf(w, "Seed            : %d\n", res.Seed)
	fmt.Fprintf(w, "Orders          : %d/%d completed\n", res.CompletedOrders, res.TotalOrders)
	fmt.Fprintf(w, "Total Time      : %.1f min (%.2f working days)\n", res.TotalMinutes, res.WorkingDays)
	fmt.Fprintf(w, "Delivery        : %s\n", res.Delivery)
	fmt.Fprintf(w, "Setup Time      : %.1f min\n", res.TotalSetupMinutes)
	if res.Incomplete {
		fmt.Fprintln(w, "WARNING: horizon reached before the batch completed")
	}

	printBatch(w, res.Batch)
	printKPIs(w, res.KPIs)
	printResourceTable(w, res.KPIs.Resources)
	printTraceSummary(w, res.TraceSummary)
}

func printBatch(w io.Writer, batch map[sim.ProductID]int) {
	if len(batch) == 0 {
		return
	}
	products := make([]string, 0, len(batch))
	for p := range batch {
		products = append(products, string(p))
	}
	sort.Strings(products)
	fmt.Fprintln(w, "=== Batch ===")
	for _, p := range products {
		fmt.Fprintf(w, "  %-6s %6d\n", p, batch[sim.ProductID(p)])
	}
}

func printKPIs(w io.Writer, k scenario.KPIReport) {
	fmt.Fprintln(w, "=== KPIs ===")
	fmt.Fprintf(w, "OEE             : %6.2f%%\n", k.OEE)
	fmt.Fprintf(w, "  Availability  : %6.2f%%\n", k.Availability)
	fmt.Fprintf(w, "  Performance   : %6.2f%%\n", k.Performance)
	fmt.Fprintf(w, "  Quality       : %6.2f%%\n", k.Quality)
	if k.Bottleneck != "" {
		fmt.Fprintf(w, "Bottleneck      : %s (%.1f%%)\n", k.Bottleneck, k.BottleneckUtilization)
	}
	fmt.Fprintf(w, "Late Orders     : %d (mean lateness %.1f min)\n", k.LateOrders, k.MeanLateness)
	fmt.Fprintf(w, "Defective Orders: %d\n", k.DefectiveOrders)
	if k.LeadTime.Count > 0 {
		fmt.Fprintf(w, "Lead Time       : mean %.1f, p50 %.1f, p90 %.1f, max %.1f min\n",
			k.LeadTime.Mean, k.LeadTime.P50, k.LeadTime.P90, k.LeadTime.Max)
	}
	if k.AssemblyLeadTime.Count > 0 {
		fmt.Fprintf(w, "Assembly Lead   : mean %.1f, p90 %.1f min\n", k.AssemblyLeadTime.Mean, k.AssemblyLeadTime.P90)
	}
}

func printResourceTable(w io.Writer, resources []scenario.ResourceKPI) {
	if len(resources) == 0 {
		return
	}
	fmt.Fprintln(w, "=== Resource Utilization ===")
	fmt.Fprintf(w, "%-18s %4s %10s %8s %8s %10s\n", "Resource", "Cap", "Processing", "Setup", "Total", "Breakdown")
	for _, r := range resources {
		line := fmt.Sprintf("%-18s %4d %9.1f%% %7.1f%% %7.1f%% %8.1f m",
			r.Name, r.Capacity, r.ProcessingUtilization, r.SetupUtilization, r.Utilization, r.BreakdownMinutes)
		if over := r.Overtime(); over > 0 {
			line += fmt.Sprintf("  (+%.1f%% overtime)", over)
		}
		fmt.Fprintln(w, line)
	}
}

// printTraceSummary is a no-op when tracing was off.
func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	if s == nil {
		return
	}
	fmt.Fprintln(w, "=== Decision Trace ===")
	fmt.Fprintf(w, "Decisions       : %d\n", s.TotalDecisions)
	fmt.Fprintf(w, "Setups          : %d (%.1f min)\n", s.Setups, s.SetupMinutes)
	fmt.Fprintf(w, "Breakdowns      : %d (%.1f min repair, longest %.1f)\n", s.Breakdowns, s.RepairMinutes, s.MaxRepairMinutes)
	fmt.Fprintf(w, "Reworks         : %d of %d rolls\n", s.ReworksTriggered, s.ReworkRolls)
	fmt.Fprintf(w, "Cap Waits       : %d (%.1f min)\n", s.CapWaits, s.CapWaitMinutes)
	fmt.Fprintf(w, "Replenishments  : %d (%d units)\n", s.Replenishments, s.ReplenishedUnits)
}

// printBenchmark writes one comparison row per policy.
func printBenchmark(w io.Writer, b *scenario.BenchmarkResult) {
	fmt.Fprintln(w, "=== Policy Benchmark ===")
	fmt.Fprintf(w, "%-6s %10s %8s %8s %10s %6s %10s  %s\n",
		"Policy", "Minutes", "Days", "OEE%", "Setup min", "Late", "Bottleneck", "Delivery")
	for _, r := range b.Results {
		fmt.Fprintf(w, "%-6s %10.1f %8.2f %8.2f %10.1f %6d %10s  %s\n",
			r.Policy, r.TotalMinutes, r.WorkingDays, r.KPIs.OEE, r.TotalSetupMinutes,
			r.KPIs.LateOrders, r.KPIs.Bottleneck, r.Delivery)
	}
	if b.SPTSetupPenalty {
		fmt.Fprintln(w, "NOTE: SPT pays more than 1.5x FIFO's setup time")
	}
}
