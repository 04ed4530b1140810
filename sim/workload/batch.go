package workload

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

// ErrMaterialShortage is returned when planned production plus initial stock
// cannot cover the component demand of the planned assemblies.
var ErrMaterialShortage = errors.New("material shortage")

// Quantity ranges for stochastic batches, inclusive.
const (
	assemblyQtyMin   = 50
	assemblyQtyMax   = 80
	componentXtraMin = 20
	componentXtraMax = 50
	standaloneQtyMin = 100
	standaloneQtyMax = 160
)

// Batch maps each product to the number of units planned for it.
type Batch map[sim.ProductID]int

// Total returns the number of planned units across all products.
func (b Batch) Total() int {
	total := 0
	for _, qty := range b {
		total += qty
	}
	return total
}

// Products returns the products with a positive quantity, sorted by ID.
func (b Batch) Products() []sim.ProductID {
	ids := make([]sim.ProductID, 0, len(b))
	for id, qty := range b {
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ComponentDemand returns the component units the batch's assemblies consume.
func (b Batch) ComponentDemand(cfg *sim.Config) map[sim.ProductID]int {
	demand := make(map[sim.ProductID]int)
	for _, assembly := range b.Products() {
		for component, per := range cfg.BOM[assembly] {
			demand[component] += b[assembly] * per
		}
	}
	return demand
}

// GenerateQuantities draws a batch for every routed product. Assemblies get
// 50-80 units, components cover the assemblies' BOM demand plus 20-50 extra,
// and every other product gets 100-160 units. Draws happen in product order,
// so the same rng state yields the same batch.
func GenerateQuantities(rng *rand.Rand, cfg *sim.Config, routings map[sim.ProductID]sim.Routing) Batch {
	ids := make([]sim.ProductID, 0, len(routings))
	for id := range routings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	components := make(map[sim.ProductID]bool)
	for _, c := range cfg.ComponentProducts() {
		components[c] = true
	}

	batch := make(Batch, len(ids))
	for _, id := range ids {
		if len(cfg.BOM[id]) > 0 {
			batch[id] = uniformInt(rng, assemblyQtyMin, assemblyQtyMax)
		}
	}
	demand := batch.ComponentDemand(cfg)
	for _, id := range ids {
		switch {
		case len(cfg.BOM[id]) > 0:
		case components[id]:
			batch[id] = demand[id] + uniformInt(rng, componentXtraMin, componentXtraMax)
		default:
			batch[id] = uniformInt(rng, standaloneQtyMin, standaloneQtyMax)
		}
	}
	return batch
}

// CheckMaterialBalance verifies that, for every component, planned units plus
// initial intermediate stock cover the BOM demand of the planned assemblies.
// An unbalanced plan would leave assemblies blocked forever on an empty buffer.
func CheckMaterialBalance(batch Batch, cfg *sim.Config) error {
	demand := batch.ComponentDemand(cfg)
	ids := make([]sim.ProductID, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		available := batch[id] + cfg.IntermediateStock[id]
		if available < demand[id] {
			return fmt.Errorf("%w for %s: required %d, planned+stock %d (missing %d)",
				ErrMaterialShortage, id, demand[id], available, demand[id]-available)
		}
	}
	return nil
}

// uniformInt returns an integer in [lo, hi].
func uniformInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// uniform returns a float in [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
