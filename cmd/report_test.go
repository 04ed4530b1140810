package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobshop-sim/jobshop-sim/sim"
	"github.com/jobshop-sim/jobshop-sim/sim/scenario"
	"github.com/jobshop-sim/jobshop-sim/sim/trace"
)

func sampleResult(policy string) *scenario.Result {
	return &scenario.Result{
		RunID:             "run-1",
		Policy:            policy,
		Variant:           "base",
		Seed:              42,
		Batch:             map[sim.ProductID]int{sim.ProductPin: 3, sim.ProductFlange: 2},
		TotalOrders:       5,
		CompletedOrders:   5,
		TotalMinutes:      1234.5,
		Delivery:          "Tue 07/01/2025 14:30",
		WorkingDays:       2.3,
		TotalSetupMinutes: 45,
		KPIs: scenario.KPIReport{
			OEE: 61.2, Availability: 90, Performance: 80, Quality: 85,
			Bottleneck: "mill", BottleneckUtilization: 97.5,
			LateOrders: 1, MeanLateness: 12,
			LeadTime: scenario.Distribution{Count: 5, Mean: 300, P50: 280, P90: 400, Max: 410},
			Resources: []scenario.ResourceKPI{
				{Name: "mill", Kind: sim.KindMachine, Capacity: 2, Utilization: 104, ProcessingUtilization: 90, SetupUtilization: 14},
				{Name: "lathe", Kind: sim.KindMachine, Capacity: 3, Utilization: 50, ProcessingUtilization: 45, SetupUtilization: 5},
			},
		},
	}
}

func TestPrintRunReport_Sections(t *testing.T) {
	// GIVEN a completed run without a trace
	var buf bytes.Buffer
	res := sampleResult("fifo")

	// WHEN the report is printed
	printRunReport(&buf, res)

	// THEN the headline, batch, KPI and resource sections are present
	out := buf.String()
	assert.Contains(t, out, "=== Simulation Results ===")
	assert.Contains(t, out, "Orders          : 5/5 completed")
	assert.Contains(t, out, "Delivery        : Tue 07/01/2025 14:30")
	assert.Contains(t, out, "=== Batch ===")
	assert.Contains(t, out, "=== KPIs ===")
	assert.Contains(t, out, "Bottleneck      : mill (97.5%)")
	assert.Contains(t, out, "=== Resource Utilization ===")
	assert.Contains(t, out, "(+4.0% overtime)")
	assert.NotContains(t, out, "=== Decision Trace ===")
	assert.NotContains(t, out, "WARNING")

	// batch lines are sorted by product code
	assert.Less(t, strings.Index(out, "  FL-01"), strings.Index(out, "  PN-03"))
}

func TestPrintRunReport_IncompleteWithTrace(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResult("edd")
	res.Incomplete = true
	res.TraceSummary = &trace.TraceSummary{Breakdowns: 2, RepairMinutes: 40, MaxRepairMinutes: 25, Replenishments: 1, ReplenishedUnits: 10}

	printRunReport(&buf, res)

	out := buf.String()
	assert.Contains(t, out, "WARNING: horizon reached before the batch completed")
	assert.Contains(t, out, "=== Decision Trace ===")
	assert.Contains(t, out, "Breakdowns      : 2 (40.0 min repair, longest 25.0)")
	assert.Contains(t, out, "Replenishments  : 1 (10 units)")
}

func TestPrintBenchmark_OneRowPerPolicy(t *testing.T) {
	// GIVEN a benchmark where SPT was penalized
	var buf bytes.Buffer
	b := &scenario.BenchmarkResult{
		Results:         []*scenario.Result{sampleResult("fifo"), sampleResult("spt"), sampleResult("edd")},
		SPTSetupPenalty: true,
	}

	// WHEN printed
	printBenchmark(&buf, b)

	// THEN every policy has a row, in order, and the penalty note is shown
	out := buf.String()
	assert.Contains(t, out, "=== Policy Benchmark ===")
	fifo, spt, edd := strings.Index(out, "\nfifo "), strings.Index(out, "\nspt "), strings.Index(out, "\nedd ")
	require.True(t, fifo > 0 && spt > 0 && edd > 0)
	assert.Less(t, fifo, spt)
	assert.Less(t, spt, edd)
	assert.Contains(t, out, "NOTE: SPT pays more than 1.5x FIFO's setup time")
}

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2025-01-06", time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), false},
		{"2025-01-06T06:00:00Z", time.Date(2025, 1, 6, 6, 0, 0, 0, time.UTC), false},
		{"06/01/2025", time.Time{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseEpoch(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got))
		})
	}
}

func TestCommands_Registered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["benchmark"])
	assert.NotNil(t, runCmd.Flags().Lookup("policy"))
	assert.Nil(t, benchmarkCmd.Flags().Lookup("policy"))
	for _, flag := range []string{"seed", "config", "variant", "log", "horizon-days", "results", "trace-level", "epoch"} {
		assert.NotNil(t, benchmarkCmd.Flags().Lookup(flag), flag)
	}
}
