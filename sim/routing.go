package sim

import (
	"fmt"
	"sort"
)

// Machine names.
const (
	MachineCuttingSaw      = "cutting_saw"
	MachineDrill           = "drill"
	MachineLathe           = "lathe"
	MachineMill            = "milling_machine"
	MachineGrinder         = "grinder"
	MachineFurnace         = "furnace"
	MachineAssemblyBench   = "assembly_bench"
	MachineTestBench       = "test_bench"
	MachineInspectionBench = "inspection_bench"
)

// Operator pool names.
const (
	OperatorGeneral    = "general_operator"
	OperatorSpecialist = "specialist"
)

// Operation is one step of a routing: a machine, its base duration (looked up
// per product in Config.ProcessingTimes) and an optional operator pool.
type Operation struct {
	Resource string
	Operator string // empty when the machine runs unattended
	// SpecialistIfRequired escalates the operator to OperatorSpecialist when
	// Config.RequiresSpecialist is set.
	SpecialistIfRequired bool
	// Recheck marks a repeat pass on a station the sequence already visited. It
	// is executed like any other step but left out of the nominal cycle time.
	Recheck bool
}

// reworkOperations is the rectification pass executed when a rework roll triggers.
var reworkOperations = []Operation{
	{Resource: MachineGrinder, Operator: OperatorGeneral},
	{Resource: MachineInspectionBench, Operator: OperatorGeneral},
}

// Routing is the fixed operation sequence of one product.
type Routing struct {
	Product    ProductID
	Operations []Operation
	// ReworkRolls is the number of independent rework rolls after the main sequence.
	ReworkRolls int
	// WithdrawComponents pulls the BOM components from intermediate stock before
	// the first operation.
	WithdrawComponents bool
	// StoreOutput deposits finished units into the finished-goods buffer (and the
	// intermediate buffer when the product is a BOM component).
	StoreOutput bool
}

// DefaultRoutings returns the routing sheets of the four catalog products.
func DefaultRoutings() map[ProductID]Routing {
	return map[ProductID]Routing{
		ProductFlange: {
			Product: ProductFlange,
			Operations: []Operation{
				{Resource: MachineCuttingSaw, Operator: OperatorGeneral},
				{Resource: MachineDrill, Operator: OperatorGeneral},
				{Resource: MachineInspectionBench, Operator: OperatorGeneral},
				{Resource: MachineInspectionBench, Operator: OperatorGeneral, Recheck: true},
			},
			StoreOutput: true,
		},
		ProductPin: {
			Product: ProductPin,
			Operations: []Operation{
				{Resource: MachineCuttingSaw, Operator: OperatorGeneral},
				{Resource: MachineLathe, Operator: OperatorGeneral, SpecialistIfRequired: true},
				{Resource: MachineGrinder, Operator: OperatorGeneral},
				{Resource: MachineInspectionBench, Operator: OperatorGeneral},
			},
			ReworkRolls: 2,
			StoreOutput: true,
		},
		ProductGear: {
			Product: ProductGear,
			Operations: []Operation{
				{Resource: MachineCuttingSaw, Operator: OperatorGeneral},
				{Resource: MachineMill, Operator: OperatorGeneral, SpecialistIfRequired: true},
				{Resource: MachineGrinder, Operator: OperatorGeneral},
				{Resource: MachineFurnace, Operator: OperatorGeneral},
				{Resource: MachineInspectionBench, Operator: OperatorGeneral},
			},
			ReworkRolls: 2,
			StoreOutput: true,
		},
		ProductReducer: {
			Product:            ProductReducer,
			WithdrawComponents: true,
			Operations: []Operation{
				{Resource: MachineAssemblyBench, Operator: OperatorGeneral},
				{Resource: MachineTestBench, Operator: OperatorGeneral},
			},
		},
	}
}

// operatorFor resolves the operator pool of op, applying specialist escalation.
func operatorFor(op Operation, cfg *Config) string {
	if op.Operator != "" && op.SpecialistIfRequired && cfg.RequiresSpecialist {
		return OperatorSpecialist
	}
	return op.Operator
}

// EstimateCycleTime sums the base durations of the main sequence. Rechecks,
// rework, setups, breakdowns and queueing are not included.
func (r Routing) EstimateCycleTime(cfg *Config) (float64, error) {
	total := 0.0
	for _, op := range r.Operations {
		if op.Recheck {
			continue
		}
		minutes, err := cfg.ProcessingTime(op.Resource, r.Product)
		if err != nil {
			return 0, err
		}
		total += minutes
	}
	return total, nil
}

// validate checks that every resource, operator and processing time the routing
// can touch is configured.
func (r Routing) validate(cfg *Config) error {
	ops := r.Operations
	if r.ReworkRolls > 0 {
		ops = append(append([]Operation{}, ops...), reworkOperations...)
	}
	if len(r.Operations) == 0 {
		return fmt.Errorf("%w: routing %s has no operations", ErrInvalidConfig, r.Product)
	}
	for _, op := range ops {
		if _, ok := cfg.Machines[op.Resource]; !ok {
			return fmt.Errorf("%w: routing %s needs machine %q", ErrMissingResource, r.Product, op.Resource)
		}
		if operator := operatorFor(op, cfg); operator != "" {
			if _, ok := cfg.Operators[operator]; !ok {
				return fmt.Errorf("%w: routing %s needs operator %q", ErrMissingResource, r.Product, operator)
			}
		}
		if _, err := cfg.ProcessingTime(op.Resource, r.Product); err != nil {
			return fmt.Errorf("routing %s: %w", r.Product, err)
		}
	}
	if r.WithdrawComponents && len(cfg.BOM[r.Product]) == 0 {
		return fmt.Errorf("%w: routing %s withdraws components but bom.%s is empty", ErrInvalidConfig, r.Product, r.Product)
	}
	return nil
}

// EstimateCycleTimes returns the nominal cycle time of every routing.
func EstimateCycleTimes(routings map[ProductID]Routing, cfg *Config) (map[ProductID]float64, error) {
	ids := make([]ProductID, 0, len(routings))
	for id := range routings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make(map[ProductID]float64, len(ids))
	for _, id := range ids {
		est, err := routings[id].EstimateCycleTime(cfg)
		if err != nil {
			return nil, err
		}
		out[id] = est
	}
	return out, nil
}
