package sim

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrMissingRouting is returned when a product has no routing.
	ErrMissingRouting = errors.New("missing routing")
	// ErrMissingResource is returned when a routing references an undeclared resource.
	ErrMissingResource = errors.New("missing resource")
	// ErrMissingProcessingTime is returned when a (resource, product) pair has no time.
	ErrMissingProcessingTime = errors.New("missing processing time")
)

// DefaultEpoch is minute 0 of the default calendar: Monday 2024-01-01 00:00 UTC.
var DefaultEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	defaultMonitorInterval  = 60.0
	defaultReplenishmentDue = 2880.0
	defaultReorderQuantity  = 10
)

// ShiftConfig groups the working hours of a weekday.
type ShiftConfig struct {
	StartHour int `yaml:"start_hour"` // inclusive
	EndHour   int `yaml:"end_hour"`   // exclusive
}

// RepairRange bounds the uniformly drawn repair time after a breakdown.
type RepairRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// DailyCapConfig groups daily output caps. Zero or absent means unlimited.
type DailyCapConfig struct {
	PerProduct map[ProductID]int `yaml:"per_product"`
	Total      int               `yaml:"total"`
}

// ReplenishmentConfig groups the stock monitor parameters. The monitor only
// runs when at least one reorder point is configured.
type ReplenishmentConfig struct {
	ReorderPoints     map[ProductID]int `yaml:"reorder_points"`
	ReorderQuantities map[ProductID]int `yaml:"reorder_quantities"` // default 10
	IntervalMinutes   float64           `yaml:"interval_minutes"`   // default 60
	DueMinutes        float64           `yaml:"due_minutes"`        // default 2880
}

// DueDateConfig groups the due-date assignment parameters used by workload generation.
type DueDateConfig struct {
	UrgencyMin     float64 `yaml:"urgency_min"`
	UrgencyMax     float64 `yaml:"urgency_max"`
	AssemblyMargin float64 `yaml:"assembly_margin"`
	SpreadPerOrder float64 `yaml:"spread_per_order"`
}

// Config is the plant configuration. It is read-only once a ProductionSystem is built.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Epoch                time.Time                        `yaml:"epoch"`
	ProcessingTimes      map[string]map[ProductID]float64 `yaml:"processing_times"` // resource → product → minutes
	Machines             map[string]int                   `yaml:"machines"`         // name → capacity
	Operators            map[string]int                   `yaml:"operators"`        // name → capacity
	ReworkProbability    float64                          `yaml:"rework_probability"`
	RequiresSpecialist   bool                             `yaml:"requires_specialist"`
	Variability          float64                          `yaml:"process_variability"`
	SetupMinutes         float64                          `yaml:"setup_minutes"`
	BreakdownProbability float64                          `yaml:"breakdown_probability"`
	RepairMinutes        RepairRange                      `yaml:"repair_minutes"`
	Shift                ShiftConfig                      `yaml:"shift"`
	DailyCaps            DailyCapConfig                   `yaml:"daily_caps"`
	BOM                  map[ProductID]map[ProductID]int  `yaml:"bom"` // assembly → component → qty
	IntermediateStock    map[ProductID]int                `yaml:"intermediate_stock"`
	Replenishment        ReplenishmentConfig              `yaml:"replenishment"`
	DueDates             DueDateConfig                    `yaml:"due_dates"`
}

// DefaultConfig returns the base plant: nine machine types, two operator pools,
// one reducer assembly built from a flange and two pins.
func DefaultConfig() *Config {
	cfg := &Config{
		Epoch: DefaultEpoch,
		ProcessingTimes: map[string]map[ProductID]float64{
			MachineCuttingSaw:      {ProductFlange: 10, ProductPin: 15, ProductGear: 30},
			MachineDrill:           {ProductFlange: 10},
			MachineLathe:           {ProductPin: 30},
			MachineMill:            {ProductGear: 45},
			MachineGrinder:         {ProductPin: 20, ProductGear: 20},
			MachineFurnace:         {ProductGear: 12},
			MachineAssemblyBench:   {ProductReducer: 60},
			MachineTestBench:       {ProductReducer: 30},
			MachineInspectionBench: {ProductFlange: 10, ProductPin: 10, ProductGear: 10},
		},
		Machines: map[string]int{
			MachineCuttingSaw:      3,
			MachineLathe:           3,
			MachineMill:            2,
			MachineDrill:           2,
			MachineGrinder:         2,
			MachineFurnace:         1,
			MachineAssemblyBench:   2,
			MachineTestBench:       2,
			MachineInspectionBench: 2,
		},
		Operators: map[string]int{
			OperatorGeneral:    6,
			OperatorSpecialist: 3,
		},
		ReworkProbability:    0.05,
		RequiresSpecialist:   true,
		Variability:          0,
		SetupMinutes:         15,
		BreakdownProbability: 0.01,
		RepairMinutes:        RepairRange{Min: 60, Max: 180},
		Shift:                ShiftConfig{StartHour: 8, EndHour: 17},
		BOM: map[ProductID]map[ProductID]int{
			ProductReducer: {ProductFlange: 1, ProductPin: 2},
		},
		IntermediateStock: map[ProductID]int{ProductFlange: 20, ProductPin: 40},
		DueDates: DueDateConfig{
			UrgencyMin:     3,
			UrgencyMax:     6,
			AssemblyMargin: 300,
			SpreadPerOrder: 30,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued optional fields.
func (c *Config) ApplyDefaults() {
	if c.Epoch.IsZero() {
		c.Epoch = DefaultEpoch
	}
	if c.Replenishment.IntervalMinutes == 0 {
		c.Replenishment.IntervalMinutes = defaultMonitorInterval
	}
	if c.Replenishment.DueMinutes == 0 {
		c.Replenishment.DueMinutes = defaultReplenishmentDue
	}
}

// LoadConfig reads a plant configuration from YAML with strict field checking
// (typos must cause errors), applies defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plant config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes, defaults and validates YAML plant configuration bytes.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing plant config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks probabilities, capacities, ranges and cross references.
func (c *Config) Validate() error {
	for _, p := range []struct {
		key string
		v   float64
	}{
		{"rework_probability", c.ReworkProbability},
		{"breakdown_probability", c.BreakdownProbability},
	} {
		if math.IsNaN(p.v) || p.v < 0 || p.v > 1 {
			return fmt.Errorf("%w: %s %v outside [0,1]", ErrInvalidConfig, p.key, p.v)
		}
	}
	if c.Variability < 0 || c.Variability > 1 || math.IsNaN(c.Variability) {
		return fmt.Errorf("%w: process_variability %v outside [0,1]", ErrInvalidConfig, c.Variability)
	}
	if c.SetupMinutes < 0 {
		return fmt.Errorf("%w: setup_minutes %v is negative", ErrInvalidConfig, c.SetupMinutes)
	}
	if c.RepairMinutes.Min < 0 || c.RepairMinutes.Min > c.RepairMinutes.Max {
		return fmt.Errorf("%w: repair_minutes min %v / max %v", ErrInvalidConfig, c.RepairMinutes.Min, c.RepairMinutes.Max)
	}
	if c.Shift.StartHour < 0 || c.Shift.EndHour > 24 || c.Shift.StartHour >= c.Shift.EndHour {
		return fmt.Errorf("%w: shift hours %d-%d", ErrInvalidConfig, c.Shift.StartHour, c.Shift.EndHour)
	}
	if len(c.Machines) == 0 {
		return fmt.Errorf("%w: machines is empty", ErrInvalidConfig)
	}
	for _, pool := range []struct {
		key  string
		caps map[string]int
	}{
		{"machines", c.Machines},
		{"operators", c.Operators},
	} {
		for _, name := range sortedKeys(pool.caps) {
			if pool.caps[name] < 1 {
				return fmt.Errorf("%w: %s.%s capacity %d must be >= 1", ErrInvalidConfig, pool.key, name, pool.caps[name])
			}
		}
	}
	for _, name := range sortedKeys(c.Operators) {
		if _, dup := c.Machines[name]; dup {
			return fmt.Errorf("%w: %s declared as both machine and operator", ErrInvalidConfig, name)
		}
	}
	for _, resource := range sortedKeys(c.ProcessingTimes) {
		for _, product := range sortedProductIDs(c.ProcessingTimes[resource]) {
			minutes := c.ProcessingTimes[resource][product]
			if minutes < 0 || math.IsNaN(minutes) {
				return fmt.Errorf("%w: processing_times.%s.%s %v is negative", ErrInvalidConfig, resource, product, minutes)
			}
		}
	}
	for _, product := range sortedProductIDs(c.DailyCaps.PerProduct) {
		limit := c.DailyCaps.PerProduct[product]
		if limit < 0 {
			return fmt.Errorf("%w: daily_caps.per_product.%s %d is negative", ErrInvalidConfig, product, limit)
		}
	}
	if c.DailyCaps.Total < 0 {
		return fmt.Errorf("%w: daily_caps.total %d is negative", ErrInvalidConfig, c.DailyCaps.Total)
	}
	for _, assembly := range sortedProductIDs(c.BOM) {
		components := c.BOM[assembly]
		for _, component := range sortedProductIDs(components) {
			qty := components[component]
			if qty < 1 {
				return fmt.Errorf("%w: bom.%s.%s quantity %d must be >= 1", ErrInvalidConfig, assembly, component, qty)
			}
			if component == assembly {
				return fmt.Errorf("%w: bom.%s lists itself as a component", ErrInvalidConfig, assembly)
			}
		}
	}
	for _, product := range sortedProductIDs(c.IntermediateStock) {
		qty := c.IntermediateStock[product]
		if qty < 0 {
			return fmt.Errorf("%w: intermediate_stock.%s %d is negative", ErrInvalidConfig, product, qty)
		}
	}
	for _, product := range sortedProductIDs(c.Replenishment.ReorderQuantities) {
		qty := c.Replenishment.ReorderQuantities[product]
		if qty < 1 {
			return fmt.Errorf("%w: replenishment.reorder_quantities.%s %d must be >= 1", ErrInvalidConfig, product, qty)
		}
	}
	for _, product := range sortedProductIDs(c.Replenishment.ReorderPoints) {
		rop := c.Replenishment.ReorderPoints[product]
		if rop < 0 {
			return fmt.Errorf("%w: replenishment.reorder_points.%s %d is negative", ErrInvalidConfig, product, rop)
		}
	}
	if c.Replenishment.IntervalMinutes <= 0 {
		return fmt.Errorf("%w: replenishment.interval_minutes %v must be positive", ErrInvalidConfig, c.Replenishment.IntervalMinutes)
	}
	if c.DueDates.UrgencyMin > c.DueDates.UrgencyMax {
		return fmt.Errorf("%w: due_dates urgency_min %v > urgency_max %v", ErrInvalidConfig, c.DueDates.UrgencyMin, c.DueDates.UrgencyMax)
	}
	return nil
}

// ProcessingTime returns the base minutes product spends on resource.
func (c *Config) ProcessingTime(resource string, product ProductID) (float64, error) {
	minutes, ok := c.ProcessingTimes[resource][product]
	if !ok {
		return 0, fmt.Errorf("%w: processing_times.%s.%s", ErrMissingProcessingTime, resource, product)
	}
	return minutes, nil
}

// Capacity returns the configured capacity of a machine or operator pool.
func (c *Config) Capacity(resource string) (int, bool) {
	if n, ok := c.Machines[resource]; ok {
		return n, true
	}
	n, ok := c.Operators[resource]
	return n, ok
}

// ReorderQuantity returns the reorder lot for product, defaulting to 10.
func (c *Config) ReorderQuantity(product ProductID) int {
	if qty, ok := c.Replenishment.ReorderQuantities[product]; ok {
		return qty
	}
	return defaultReorderQuantity
}

// BOMComponents returns the components of an assembly sorted by product ID.
func (c *Config) BOMComponents(assembly ProductID) []ProductID {
	components := make([]ProductID, 0, len(c.BOM[assembly]))
	for component := range c.BOM[assembly] {
		components = append(components, component)
	}
	sort.Slice(components, func(i, j int) bool { return components[i] < components[j] })
	return components
}

// ComponentProducts returns every product named as a BOM component, sorted.
func (c *Config) ComponentProducts() []ProductID {
	seen := map[ProductID]bool{}
	for _, components := range c.BOM {
		for component := range components {
			seen[component] = true
		}
	}
	out := make([]ProductID, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedProductIDs[V any](m map[ProductID]V) []ProductID {
	ids := make([]ProductID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
