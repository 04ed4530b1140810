package workload

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

func workloadRNG(seed int64) *rand.Rand {
	return sim.NewPartitionedRNG(sim.NewSimulationKey(seed)).ForSubsystem(sim.SubsystemWorkload)
}

func TestGenerateQuantities_RangesAndBOMCoverage(t *testing.T) {
	cfg := sim.DefaultConfig()
	batch := GenerateQuantities(workloadRNG(42), cfg, sim.DefaultRoutings())

	rd := batch[sim.ProductReducer]
	assert.GreaterOrEqual(t, rd, 50)
	assert.LessOrEqual(t, rd, 80)

	fl, pn := batch[sim.ProductFlange], batch[sim.ProductPin]
	assert.GreaterOrEqual(t, fl, rd+20)
	assert.LessOrEqual(t, fl, rd+50)
	assert.GreaterOrEqual(t, pn, 2*rd+20)
	assert.LessOrEqual(t, pn, 2*rd+50)

	in := batch[sim.ProductGear]
	assert.GreaterOrEqual(t, in, 100)
	assert.LessOrEqual(t, in, 160)

	assert.Equal(t, rd+fl+pn+in, batch.Total())
	// Components are planned to cover demand even with no stock.
	noStock := sim.DefaultConfig()
	noStock.IntermediateStock = nil
	assert.NoError(t, CheckMaterialBalance(batch, noStock))
}

func TestGenerateQuantities_SameSeed_SameBatch(t *testing.T) {
	cfg := sim.DefaultConfig()
	a := GenerateQuantities(workloadRNG(7), cfg, sim.DefaultRoutings())
	b := GenerateQuantities(workloadRNG(7), cfg, sim.DefaultRoutings())
	assert.Equal(t, a, b)
}

func TestBatch_ProductsSkipsEmptyEntries(t *testing.T) {
	b := Batch{sim.ProductPin: 3, sim.ProductFlange: 0, sim.ProductGear: 1}
	assert.Equal(t, []sim.ProductID{sim.ProductGear, sim.ProductPin}, b.Products())
}

func TestCheckMaterialBalance(t *testing.T) {
	tests := []struct {
		name     string
		batch    Batch
		stock    map[sim.ProductID]int
		wantErr  bool
		contains string
	}{
		{
			name:  "planned components cover demand",
			batch: Batch{sim.ProductReducer: 10, sim.ProductFlange: 10, sim.ProductPin: 20},
		},
		{
			name:  "stock makes up the gap",
			batch: Batch{sim.ProductReducer: 10, sim.ProductFlange: 5, sim.ProductPin: 10},
			stock: map[sim.ProductID]int{sim.ProductFlange: 5, sim.ProductPin: 10},
		},
		{
			name:     "flange shortage",
			batch:    Batch{sim.ProductReducer: 10, sim.ProductFlange: 5, sim.ProductPin: 20},
			wantErr:  true,
			contains: "FL-01: required 10, planned+stock 5 (missing 5)",
		},
		{
			name:  "no assemblies, no demand",
			batch: Batch{sim.ProductGear: 100},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := sim.DefaultConfig()
			cfg.IntermediateStock = tc.stock

			err := CheckMaterialBalance(tc.batch, cfg)

			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrMaterialShortage)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestAssignDueDate_FixedUrgencyNoSpread(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.DueDates = sim.DueDateConfig{UrgencyMin: 2, UrgencyMax: 2, AssemblyMargin: 300, SpreadPerOrder: 0}
	rng := workloadRNG(1)

	assert.Equal(t, 100.0+30*2, AssignDueDate(rng, cfg, 30, false, 50, 100))
	assert.Equal(t, 100.0+(90+300)*2, AssignDueDate(rng, cfg, 90, true, 50, 100))
}

func TestAssignDueDate_WithinBounds(t *testing.T) {
	cfg := sim.DefaultConfig()
	rng := workloadRNG(3)
	for i := 0; i < 200; i++ {
		due := AssignDueDate(rng, cfg, 75, false, 10, 0)
		assert.GreaterOrEqual(t, due, 75*cfg.DueDates.UrgencyMin)
		assert.Less(t, due, 75*cfg.DueDates.UrgencyMax+10*cfg.DueDates.SpreadPerOrder)
	}
}

func TestGenerateOrders_OnePerUnit(t *testing.T) {
	// GIVEN a batch of two flanges and one reducer
	cfg := sim.DefaultConfig()
	batch := Batch{sim.ProductFlange: 2, sim.ProductReducer: 1}

	// WHEN orders are generated at t=0
	orders, err := GenerateOrders(workloadRNG(5), batch, sim.DefaultRoutings(), cfg, 0)
	require.NoError(t, err)

	// THEN each unit becomes an order, grouped by product ID
	require.Len(t, orders, 3)
	assert.Equal(t, "WO-BATCH-FL-01-0001", orders[0].ID)
	assert.Equal(t, "WO-BATCH-FL-01-0002", orders[1].ID)
	assert.Equal(t, "WO-BATCH-RD-01-0001", orders[2].ID)
	assert.Equal(t, sim.ProductReducer, orders[2].Product.ID)
	for _, wo := range orders {
		assert.Equal(t, 0.0, wo.CreatedAt)
		assert.Equal(t, sim.OrderCreated, wo.State)
	}
	// reducer: (90 + 300 margin) × urgency ≥ 3
	assert.GreaterOrEqual(t, orders[2].DueAt, 390*cfg.DueDates.UrgencyMin)
}

func TestGenerateOrders_UnroutedProduct_Error(t *testing.T) {
	routings := sim.DefaultRoutings()
	delete(routings, sim.ProductGear)

	_, err := GenerateOrders(workloadRNG(5), Batch{sim.ProductGear: 1}, routings, sim.DefaultConfig(), 0)
	assert.ErrorIs(t, err, sim.ErrMissingRouting)
}

func TestGenerateConfig_ValidAndReproducible(t *testing.T) {
	rngFor := func() *rand.Rand {
		return sim.NewPartitionedRNG(sim.NewSimulationKey(11)).ForSubsystem(sim.SubsystemPlantConfig)
	}
	cfg := GenerateConfig(rngFor())

	require.NoError(t, cfg.Validate())
	for machine, capacity := range cfg.Machines {
		assert.GreaterOrEqual(t, capacity, 2, machine)
		assert.LessOrEqual(t, capacity, 4, machine)
		for _, p := range sim.CatalogProducts() {
			minutes, err := cfg.ProcessingTime(machine, p.ID)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, minutes, 10.0)
			assert.LessOrEqual(t, minutes, 40.0)
		}
	}
	assert.GreaterOrEqual(t, cfg.DailyCaps.Total, 300)
	assert.LessOrEqual(t, cfg.DailyCaps.Total, 600)
	assert.Equal(t, 0.02, cfg.ReworkProbability)
	// stochastic plants vary process times but never change over or break down
	assert.Equal(t, 0.10, cfg.Variability)
	assert.Equal(t, 0.0, cfg.SetupMinutes)
	assert.Equal(t, 0.0, cfg.BreakdownProbability)

	_, err := sim.EstimateCycleTimes(sim.DefaultRoutings(), cfg)
	assert.NoError(t, err)
	assert.Equal(t, cfg, GenerateConfig(rngFor()))
}
