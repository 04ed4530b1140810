package workload

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

// AssignDueDate returns now + estimate × urgency + spread, where urgency is
// drawn from the configured urgency range and spread from [0, totalOrders ×
// SpreadPerOrder). Assemblies add AssemblyMargin to estimate first.
func AssignDueDate(rng *rand.Rand, cfg *sim.Config, estimate float64, assembly bool, totalOrders int, now float64) float64 {
	if assembly {
		estimate += cfg.DueDates.AssemblyMargin
	}
	urgency := uniform(rng, cfg.DueDates.UrgencyMin, cfg.DueDates.UrgencyMax)
	spread := uniform(rng, 0, float64(totalOrders)*cfg.DueDates.SpreadPerOrder)
	return now + estimate*urgency + spread
}

// GenerateOrders creates one work order per planned unit, created at now,
// with due dates from AssignDueDate. Orders are grouped by product in ID
// order and numbered WO-BATCH-<product>-<n>.
func GenerateOrders(rng *rand.Rand, batch Batch, routings map[sim.ProductID]sim.Routing, cfg *sim.Config, now float64) ([]*sim.WorkOrder, error) {
	total := batch.Total()
	orders := make([]*sim.WorkOrder, 0, total)
	for _, id := range batch.Products() {
		routing, ok := routings[id]
		if !ok {
			return nil, fmt.Errorf("%w: batch product %s", sim.ErrMissingRouting, id)
		}
		estimate, err := routing.EstimateCycleTime(cfg)
		if err != nil {
			return nil, err
		}
		product, ok := sim.LookupProduct(id)
		if !ok {
			product = sim.Product{ID: id, Name: string(id)}
		}
		for i := 0; i < batch[id]; i++ {
			due := AssignDueDate(rng, cfg, estimate, routing.WithdrawComponents, total, now)
			orders = append(orders, sim.NewWorkOrder(fmt.Sprintf("WO-BATCH-%s-%04d", id, i+1), product, now, due))
		}
		logrus.Debugf("generated %d %s orders (nominal cycle %.1f min)", batch[id], id, estimate)
	}
	return orders, nil
}
