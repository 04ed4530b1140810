package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobshop-sim/jobshop-sim/sim/kernel"
)

func TestResource_RecordUsage_AccumulatesCategoriesAndLogsInterval(t *testing.T) {
	// GIVEN a machine with capacity 2
	env := kernel.NewEnvironment()
	defer env.Close()
	r, err := NewResource(env, MachineLathe, KindMachine, 2)
	require.NoError(t, err)

	// WHEN setup, processing and breakdown are recorded at t=100
	env.Spawn("recorder", func(p *kernel.Process) error {
		if err := p.Delay(100); err != nil {
			return err
		}
		r.RecordUsage(15, UsageSetup, "WO-1")
		r.RecordUsage(30, UsageProcessing, "WO-1")
		r.RecordUsage(60, UsageBreakdown, "")
		return nil
	})
	require.NoError(t, env.Run(nil))

	// THEN counters and intervals reflect each category
	assert.Equal(t, 15.0, r.SetupMinutes)
	assert.Equal(t, 30.0, r.ProcessingMinutes)
	assert.Equal(t, 60.0, r.BreakdownMinutes)
	assert.Equal(t, 105.0, r.BusyMinutes)
	require.Len(t, r.Intervals, 3)
	assert.Equal(t, Interval{Kind: UsageProcessing, Start: 70, End: 100, OrderID: "WO-1"}, r.Intervals[1])
}

func TestResource_Utilization_ExcludesBreakdown(t *testing.T) {
	env := kernel.NewEnvironment()
	defer env.Close()
	r, err := NewResource(env, MachineMill, KindMachine, 2)
	require.NoError(t, err)
	r.ProcessingMinutes = 300
	r.SetupMinutes = 100
	r.BreakdownMinutes = 500

	assert.Equal(t, 20.0, r.Utilization(1000))
	assert.Equal(t, 0.0, r.Utilization(0))
}

func TestNewResource_NonPositiveCapacity_Rejected(t *testing.T) {
	env := kernel.NewEnvironment()
	defer env.Close()

	_, err := NewResource(env, MachineFurnace, KindMachine, 0)
	assert.ErrorIs(t, err, kernel.ErrInvalidCapacity)
}

func TestResource_NeedsSetup_OnlyAfterDifferentProduct(t *testing.T) {
	env := kernel.NewEnvironment()
	defer env.Close()
	r, err := NewResource(env, MachineCuttingSaw, KindMachine, 1)
	require.NoError(t, err)

	assert.False(t, r.needsSetup(ProductFlange), "fresh resource has no changeover")
	r.markProduct(ProductFlange)
	assert.False(t, r.needsSetup(ProductFlange))
	assert.True(t, r.needsSetup(ProductPin))
}

func TestResource_Snapshot_CopiesIntervals(t *testing.T) {
	env := kernel.NewEnvironment()
	defer env.Close()
	r, err := NewResource(env, OperatorGeneral, KindOperator, 3)
	require.NoError(t, err)
	r.RecordUsage(0, UsageProcessing, "x")

	snap := r.Snapshot()
	snap.Intervals[0].OrderID = "mutated"

	assert.Equal(t, "x", r.Intervals[0].OrderID)
	assert.Equal(t, KindOperator, snap.Kind)
	assert.Equal(t, 3, snap.Capacity)
}

func TestResource_Snapshot_CarriesEveryCategory(t *testing.T) {
	// GIVEN a machine that processed, changed over and broke down
	env := kernel.NewEnvironment()
	defer env.Close()
	r, err := NewResource(env, MachineDrill, KindMachine, 1)
	require.NoError(t, err)
	r.RecordUsage(20, UsageProcessing, "WO-1")
	r.RecordUsage(5, UsageSetup, "WO-1")
	r.RecordUsage(45, UsageBreakdown, "WO-1")

	// WHEN a snapshot is taken
	snap := r.Snapshot()

	// THEN each counter lands in its own field and the log keeps the categories
	assert.Equal(t, UsageSnapshot{
		Name: MachineDrill, Kind: KindMachine, Capacity: 1,
		Processing: 20, Setup: 5, Breakdown: 45, Busy: 70,
		Intervals: []Interval{
			{Kind: UsageProcessing, Start: -20, End: 0, OrderID: "WO-1"},
			{Kind: UsageSetup, Start: -5, End: 0, OrderID: "WO-1"},
			{Kind: UsageBreakdown, Start: -45, End: 0, OrderID: "WO-1"},
		},
	}, snap)
}
