package workload

import (
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

const generatedVariability = 0.10

// GenerateConfig derives a stochastic plant from the default one: every
// machine gets a 10-40 minute time for every catalog product, machines get 2-4
// units, general operators 6-10, specialists 3-5, and daily caps are drawn
// per product (50-100) and plant-wide (300-600). A generated plant has 10%
// process variability, no changeover time and no breakdowns; shift, repair
// range and stock settings stay at their defaults.
func GenerateConfig(rng *rand.Rand) *sim.Config {
	cfg := sim.DefaultConfig()
	products := sim.CatalogProducts()

	machines := make([]string, 0, len(cfg.Machines))
	for name := range cfg.Machines {
		machines = append(machines, name)
	}
	sort.Strings(machines)

	cfg.ProcessingTimes = make(map[string]map[sim.ProductID]float64, len(machines))
	for _, m := range machines {
		cfg.ProcessingTimes[m] = make(map[sim.ProductID]float64, len(products))
		for _, p := range products {
			cfg.ProcessingTimes[m][p.ID] = float64(uniformInt(rng, 10, 40))
		}
	}
	for _, m := range machines {
		cfg.Machines[m] = uniformInt(rng, 2, 4)
	}
	cfg.Operators[sim.OperatorGeneral] = uniformInt(rng, 6, 10)
	cfg.Operators[sim.OperatorSpecialist] = uniformInt(rng, 3, 5)

	cfg.DailyCaps.PerProduct = make(map[sim.ProductID]int, len(products))
	for _, p := range products {
		cfg.DailyCaps.PerProduct[p.ID] = uniformInt(rng, 50, 100)
	}
	cfg.DailyCaps.Total = uniformInt(rng, 300, 600)

	cfg.ReworkProbability = 0.02
	cfg.RequiresSpecialist = true
	cfg.Variability = generatedVariability
	cfg.SetupMinutes = 0
	cfg.BreakdownProbability = 0
	logrus.Infof("generated plant: %d general operators, %d specialists, daily cap %d",
		cfg.Operators[sim.OperatorGeneral], cfg.Operators[sim.OperatorSpecialist], cfg.DailyCaps.Total)
	return cfg
}
