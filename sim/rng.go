package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey identifies a reproducible run: the same key, configuration
// and submission order yield identical per-resource usage logs.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemWorkload is the RNG subsystem for batch quantities.
	// Uses master seed directly so --seed alone reproduces the order book.
	SubsystemWorkload = "workload"

	// SubsystemProduction drives every stochastic decision inside the plant:
	// variability, breakdown rolls, repair durations and rework rolls.
	SubsystemProduction = "production"

	// SubsystemPlantConfig drives stochastic plant configuration generation.
	SubsystemPlantConfig = "plant-config"

	// SubsystemDueDates drives the due dates of generated orders.
	SubsystemDueDates = "due-dates"
)

// PartitionedRNG hands out one independent stream per subsystem, so adding
// draws to one concern never shifts the numbers another concern sees.
// SubsystemWorkload is seeded with the key itself; every other stream with
// key XOR fnv1a64(name). Not safe for concurrent use.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	seed := int64(p.key)
	if name != SubsystemWorkload {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the key the streams derive from.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
