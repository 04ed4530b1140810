package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobshop-sim/jobshop-sim/sim/calendar"
	"github.com/jobshop-sim/jobshop-sim/sim/internal/testutil"
	"github.com/jobshop-sim/jobshop-sim/sim/kernel"
)

const testPress = "press"

// deterministicConfig is the default plant with every stochastic effect and
// setup switched off, starting at Monday's shift opening.
func deterministicConfig() *Config {
	cfg := DefaultConfig()
	cfg.Epoch = testutil.MondayShiftOpen
	cfg.BreakdownProbability = 0
	cfg.ReworkProbability = 0
	cfg.Variability = 0
	cfg.SetupMinutes = 0
	return cfg
}

// singleMachineConfig is a one-press plant where FL-01 and PN-03 each take a
// single unattended operation of the given length.
func singleMachineConfig(flange, pin float64) (*Config, map[ProductID]Routing) {
	cfg := &Config{
		Epoch:           testutil.MondayShiftOpen,
		ProcessingTimes: map[string]map[ProductID]float64{testPress: {ProductFlange: flange, ProductPin: pin}},
		Machines:        map[string]int{testPress: 1},
		RepairMinutes:   RepairRange{Min: 60, Max: 180},
		Shift:           ShiftConfig{StartHour: 8, EndHour: 17},
	}
	cfg.ApplyDefaults()
	routings := map[ProductID]Routing{
		ProductFlange: {Product: ProductFlange, Operations: []Operation{{Resource: testPress}}},
		ProductPin:    {Product: ProductPin, Operations: []Operation{{Resource: testPress}}},
	}
	return cfg, routings
}

func newPlant(t *testing.T, cfg *Config, routings map[ProductID]Routing, policy SchedulingPolicy, seed int64) *ProductionSystem {
	t.Helper()
	cal, err := calendar.New(cfg.Epoch, cfg.Shift.StartHour, cfg.Shift.EndHour)
	require.NoError(t, err)
	env := kernel.NewEnvironment()
	t.Cleanup(env.Close)
	ps, err := NewProductionSystem(env, cal, routings, cfg, seed, policy)
	require.NoError(t, err)
	return ps
}

func newOrder(id string, product ProductID, due float64) *WorkOrder {
	return NewWorkOrder(id, catalog[product], 0, due)
}

func completedAt(t *testing.T, wo *WorkOrder) float64 {
	t.Helper()
	at, ok := wo.CompletedAt()
	require.True(t, ok, "order %s not completed", wo.ID)
	return at
}
