package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/jobshop-sim/jobshop-sim/sim/calendar"
	"github.com/jobshop-sim/jobshop-sim/sim/kernel"
	"github.com/jobshop-sim/jobshop-sim/sim/trace"
)

// minEffectiveDuration is the floor applied to a varied processing time.
const minEffectiveDuration = 0.001

// ProductionSystem owns every resource, buffer and daily counter of the plant
// and executes work orders through their routings.
//
// Thread-safety: NOT thread-safe. All state is mutated by kernel processes,
// which run one at a time on the owning environment.
type ProductionSystem struct {
	env      *kernel.Environment
	cal      *calendar.Calendar
	routings map[ProductID]Routing
	cfg      *Config
	rng      *rand.Rand
	policy   SchedulingPolicy
	trace    *trace.SimulationTrace

	resources    map[string]*Resource
	finished     map[ProductID]*kernel.Store[*WorkOrder]
	intermediate map[ProductID]*kernel.Store[*WorkOrder]

	day            int
	dailyByProduct map[ProductID]int
	dailyTotal     int

	orders    []*WorkOrder
	completed []*WorkOrder
	monitor   *kernel.Process // nil when no reorder point is configured
}

// NewProductionSystem validates cfg and routings, creates every resource and
// buffer, pre-stocks intermediate buffers and starts the stock monitor when
// reorder points are configured. seed drives the production RNG stream; a nil
// policy means FIFO.
func NewProductionSystem(env *kernel.Environment, cal *calendar.Calendar, routings map[ProductID]Routing, cfg *Config, seed int64, policy SchedulingPolicy) (*ProductionSystem, error) {
	if env == nil || cal == nil || cfg == nil {
		return nil, fmt.Errorf("%w: environment, calendar and config are required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cal.ShiftStartMinute() != float64(cfg.Shift.StartHour*60) || cal.ShiftEndMinute() != float64(cfg.Shift.EndHour*60) {
		return nil, fmt.Errorf("%w: calendar shift %.0f-%.0f min differs from shift %d-%d h",
			ErrInvalidConfig, cal.ShiftStartMinute(), cal.ShiftEndMinute(), cfg.Shift.StartHour, cfg.Shift.EndHour)
	}
	if policy == nil {
		policy = FIFOPolicy{}
	}

	ps := &ProductionSystem{
		env:            env,
		cal:            cal,
		routings:       make(map[ProductID]Routing, len(routings)),
		cfg:            cfg,
		rng:            NewPartitionedRNG(NewSimulationKey(seed)).ForSubsystem(SubsystemProduction),
		policy:         policy,
		resources:      make(map[string]*Resource),
		finished:       make(map[ProductID]*kernel.Store[*WorkOrder]),
		intermediate:   make(map[ProductID]*kernel.Store[*WorkOrder]),
		day:            cal.DayIndex(env.Now()),
		dailyByProduct: make(map[ProductID]int),
	}

	if err := ps.buildResources(); err != nil {
		return nil, err
	}
	if err := ps.buildRoutings(routings); err != nil {
		return nil, err
	}
	if err := ps.buildBuffers(); err != nil {
		return nil, err
	}
	if len(cfg.Replenishment.ReorderPoints) > 0 {
		ps.monitor = env.Spawn("stock-monitor", ps.monitorStock)
	}
	return ps, nil
}

func (ps *ProductionSystem) buildResources() error {
	for _, name := range sortedKeys(ps.cfg.Machines) {
		r, err := NewResource(ps.env, name, KindMachine, ps.cfg.Machines[name])
		if err != nil {
			return fmt.Errorf("machines.%s: %w", name, err)
		}
		ps.resources[name] = r
	}
	for _, name := range sortedKeys(ps.cfg.Operators) {
		r, err := NewResource(ps.env, name, KindOperator, ps.cfg.Operators[name])
		if err != nil {
			return fmt.Errorf("operators.%s: %w", name, err)
		}
		ps.resources[name] = r
	}
	return nil
}

func (ps *ProductionSystem) buildRoutings(routings map[ProductID]Routing) error {
	if len(routings) == 0 {
		return fmt.Errorf("%w: no routings supplied", ErrMissingRouting)
	}
	for _, id := range sortedProductIDs(routings) {
		r := routings[id]
		if r.Product != id {
			return fmt.Errorf("%w: routing keyed %s describes product %s", ErrInvalidConfig, id, r.Product)
		}
		if err := r.validate(ps.cfg); err != nil {
			return err
		}
		ps.routings[id] = r
	}
	for _, id := range sortedProductIDs(ps.routings) {
		if !ps.routings[id].WithdrawComponents {
			continue
		}
		for _, component := range ps.cfg.BOMComponents(id) {
			if _, ok := ps.routings[component]; !ok {
				return fmt.Errorf("%w: bom.%s component %s has no routing", ErrMissingRouting, id, component)
			}
		}
	}
	return nil
}

func (ps *ProductionSystem) buildBuffers() error {
	for _, id := range sortedProductIDs(ps.routings) {
		if ps.routings[id].StoreOutput {
			ps.finished[id] = kernel.NewStore[*WorkOrder](ps.env, "finished/"+string(id))
		}
	}
	for _, component := range ps.cfg.ComponentProducts() {
		ps.intermediate[component] = kernel.NewStore[*WorkOrder](ps.env, "intermediate/"+string(component))
	}
	for product, qty := range ps.cfg.IntermediateStock {
		if _, ok := ps.intermediate[product]; !ok && qty > 0 {
			return fmt.Errorf("%w: intermediate_stock.%s is not a bom component", ErrInvalidConfig, product)
		}
	}
	for _, component := range ps.cfg.ComponentProducts() {
		store := ps.intermediate[component]
		product := productFor(component)
		for i := 0; i < ps.cfg.IntermediateStock[component]; i++ {
			unit := NewWorkOrder(fmt.Sprintf("STOCK-INIT-%s-%d", component, i), product, 0, 0)
			if err := unit.Complete(0); err != nil {
				return err
			}
			store.Put(unit)
		}
	}
	for _, id := range sortedProductIDs(ps.cfg.Replenishment.ReorderPoints) {
		if _, ok := ps.finished[id]; !ok {
			return fmt.Errorf("%w: replenishment.reorder_points.%s has no finished-goods buffer", ErrInvalidConfig, id)
		}
	}
	return nil
}

// SetTrace attaches a decision trace. A nil trace disables recording.
func (ps *ProductionSystem) SetTrace(st *trace.SimulationTrace) { ps.trace = st }

// Submit spawns a process that dispatches wo.
func (ps *ProductionSystem) Submit(wo *WorkOrder) *kernel.Process {
	return ps.env.Spawn("order/"+wo.ID, func(p *kernel.Process) error {
		return ps.Dispatch(p, wo)
	})
}

// Dispatch runs wo to completion on process p: daily-cap gate, component
// withdrawal, every operation of its routing, rework rolls and stock deposit.
// It returns once the order is completed.
func (ps *ProductionSystem) Dispatch(p *kernel.Process, wo *WorkOrder) error {
	ps.orders = append(ps.orders, wo)
	logrus.Infof("[t=%9.1f] work order %s generated (%s, due %.1f)", p.Now(), wo.ID, wo.Product.ID, wo.DueAt)

	routing, ok := ps.routings[wo.Product.ID]
	if !ok {
		return fmt.Errorf("%w: product %s (order %s)", ErrMissingRouting, wo.Product.ID, wo.ID)
	}
	if err := ps.awaitDailyCapacity(p, wo); err != nil {
		return err
	}
	wo.State = OrderRouted

	if routing.WithdrawComponents {
		if err := ps.withdrawComponents(p, wo); err != nil {
			return err
		}
	}
	for _, op := range routing.Operations {
		if err := ps.runOperation(p, wo, op); err != nil {
			return err
		}
	}
	for roll := 1; roll <= routing.ReworkRolls; roll++ {
		if err := ps.reworkRoll(p, wo, roll); err != nil {
			return err
		}
	}
	ps.deposit(p, wo)

	if err := wo.Complete(p.Now()); err != nil {
		return err
	}
	ps.completed = append(ps.completed, wo)
	logrus.Infof("[t=%9.1f] work order %s completed", p.Now(), wo.ID)
	return nil
}

// rollDay resets the daily counters once per detected day transition.
func (ps *ProductionSystem) rollDay(now float64) {
	if day := ps.cal.DayIndex(now); day > ps.day {
		ps.day = day
		ps.dailyByProduct = make(map[ProductID]int)
		ps.dailyTotal = 0
		logrus.Debugf("[t=%9.1f] day %d: daily counters reset", now, day)
	}
}

// awaitDailyCapacity reserves a slot in today's output caps, waiting for the
// next day's shift opening while either cap is met. Check and reservation
// happen without a suspension point in between.
func (ps *ProductionSystem) awaitDailyCapacity(p *kernel.Process, wo *WorkOrder) error {
	id := wo.Product.ID
	for {
		ps.rollDay(p.Now())
		reason := ""
		if limit := ps.cfg.DailyCaps.PerProduct[id]; limit > 0 && ps.dailyByProduct[id] >= limit {
			reason = "product-cap"
		} else if total := ps.cfg.DailyCaps.Total; total > 0 && ps.dailyTotal >= total {
			reason = "total-cap"
		}
		if reason == "" {
			ps.dailyByProduct[id]++
			ps.dailyTotal++
			return nil
		}

		wait := ps.cal.UntilNextDayOpening(p.Now())
		wo.State = OrderCapWait
		if ps.trace.Enabled() {
			ps.trace.RecordCapWait(trace.CapWaitRecord{OrderID: wo.ID, Product: string(id), Clock: p.Now(), Wait: wait, Reason: reason})
		}
		logrus.Infof("[t=%9.1f] daily capacity reached for %s (%s), waiting %.1f min", p.Now(), wo.ID, reason, wait)
		if err := p.Delay(wait); err != nil {
			return err
		}
	}
}

// withdrawComponents takes the BOM quantity of every component from
// intermediate stock, blocking while a buffer is empty.
func (ps *ProductionSystem) withdrawComponents(p *kernel.Process, wo *WorkOrder) error {
	logrus.Infof("[t=%9.1f] assembly %s: requesting components", p.Now(), wo.ID)
	for _, component := range ps.cfg.BOMComponents(wo.Product.ID) {
		store, ok := ps.intermediate[component]
		if !ok {
			return fmt.Errorf("%w: no intermediate buffer for %s", ErrMissingResource, component)
		}
		for i := 0; i < ps.cfg.BOM[wo.Product.ID][component]; i++ {
			unit, err := store.Get(p)
			if err != nil {
				return err
			}
			unit.Consumed = true
			wo.Components = append(wo.Components, unit)
		}
	}
	logrus.Infof("[t=%9.1f] assembly %s: %d components withdrawn", p.Now(), wo.ID, len(wo.Components))
	return nil
}

// runOperation executes one operation of wo: shift wait, machine acquisition,
// setup, breakdown, operator acquisition and processing. Both units are held
// until the operation is logged.
func (ps *ProductionSystem) runOperation(p *kernel.Process, wo *WorkOrder, op Operation) error {
	machine, ok := ps.resources[op.Resource]
	if !ok {
		return fmt.Errorf("%w: %s (order %s)", ErrMissingResource, op.Resource, wo.ID)
	}
	base, err := ps.cfg.ProcessingTime(op.Resource, wo.Product.ID)
	if err != nil {
		return err
	}
	priority := ps.policy.Priority(wo, base)

	if err := ps.cal.WaitForShift(p); err != nil {
		return err
	}
	if err := machine.Acquire(p, priority); err != nil {
		return err
	}
	defer machine.Release()

	if machine.needsSetup(wo.Product.ID) && ps.cfg.SetupMinutes > 0 {
		from := machine.LastProduct()
		if err := ps.cal.ConsumeWorkingDuration(p, ps.cfg.SetupMinutes); err != nil {
			return err
		}
		machine.RecordUsage(ps.cfg.SetupMinutes, UsageSetup, wo.ID)
		if ps.trace.Enabled() {
			ps.trace.RecordSetup(trace.SetupRecord{
				Resource: machine.Name(), OrderID: wo.ID,
				FromProduct: string(from), ToProduct: string(wo.Product.ID),
				Clock: p.Now(), Minutes: ps.cfg.SetupMinutes,
			})
		}
	}
	machine.markProduct(wo.Product.ID)

	if err := ps.cal.WaitForShift(p); err != nil {
		return err
	}

	if ps.rng.Float64() < ps.cfg.BreakdownProbability {
		repair := ps.cfg.RepairMinutes.Min + ps.rng.Float64()*(ps.cfg.RepairMinutes.Max-ps.cfg.RepairMinutes.Min)
		logrus.Warnf("[t=%9.1f] breakdown: %s down for %.1f min while serving %s", p.Now(), machine.Name(), repair, wo.ID)
		if err := ps.cal.ConsumeWorkingDuration(p, repair); err != nil {
			return err
		}
		machine.RecordUsage(repair, UsageBreakdown, wo.ID)
		if ps.trace.Enabled() {
			ps.trace.RecordBreakdown(trace.BreakdownRecord{Resource: machine.Name(), OrderID: wo.ID, Clock: p.Now(), RepairMinutes: repair})
		}
	}

	var operator *Resource
	if name := operatorFor(op, ps.cfg); name != "" {
		operator, ok = ps.resources[name]
		if !ok {
			return fmt.Errorf("%w: operator %s (order %s)", ErrMissingResource, name, wo.ID)
		}
		if err := operator.Acquire(p, priority); err != nil {
			return err
		}
		defer operator.Release()
		if err := ps.cal.WaitForShift(p); err != nil {
			return err
		}
	}

	v := ps.cfg.Variability
	effective := math.Max(minEffectiveDuration, base*(1-v+2*v*ps.rng.Float64()))
	if err := ps.cal.ConsumeWorkingDuration(p, effective); err != nil {
		return err
	}

	machine.RecordUsage(effective, UsageProcessing, wo.ID)
	rec := OperationRecord{Stage: machine.Name(), Duration: effective, Start: p.Now() - effective, End: p.Now()}
	if operator != nil {
		operator.RecordUsage(effective, UsageProcessing, wo.ID)
		rec.Operator = operator.Name()
	}
	wo.traceOperation(rec)
	logrus.Debugf("[t=%9.1f] %s finished %s (%.1f min)", p.Now(), wo.ID, machine.Name(), effective)
	return nil
}

// reworkRoll rolls the rework probability once and, on a defect, sends wo
// through rectification and inspection.
func (ps *ProductionSystem) reworkRoll(p *kernel.Process, wo *WorkOrder, roll int) error {
	triggered := ps.rng.Float64() < ps.cfg.ReworkProbability
	if ps.trace.Enabled() {
		ps.trace.RecordRework(trace.ReworkRecord{OrderID: wo.ID, Product: string(wo.Product.ID), Clock: p.Now(), Roll: roll, Triggered: triggered})
	}
	if !triggered {
		return nil
	}
	wo.Reworks++
	logrus.Infof("[t=%9.1f] quality defect on %s, rework pass %d", p.Now(), wo.ID, wo.Reworks)
	for _, op := range reworkOperations {
		if err := ps.runOperation(p, wo, op); err != nil {
			return err
		}
	}
	return nil
}

// deposit puts a finished unit into its finished-goods buffer (routings with
// StoreOutput) and into its intermediate buffer when it is a BOM component.
func (ps *ProductionSystem) deposit(p *kernel.Process, wo *WorkOrder) {
	if store, ok := ps.finished[wo.Product.ID]; ok {
		store.Put(wo)
		logrus.Infof("[t=%9.1f] stock: deposited %s (%s total %d)", p.Now(), wo.ID, wo.Product.ID, store.Len())
	}
	if store, ok := ps.intermediate[wo.Product.ID]; ok {
		store.Put(wo)
	}
}

// monitorStock periodically compares finished-goods stock with its reorder
// point and submits replenishment orders for products below it.
func (ps *ProductionSystem) monitorStock(p *kernel.Process) error {
	products := sortedProductIDs(ps.cfg.Replenishment.ReorderPoints)
	for {
		if err := p.Delay(ps.cfg.Replenishment.IntervalMinutes); err != nil {
			return err
		}
		now := p.Now()
		for _, id := range products {
			level, rop := ps.finished[id].Len(), ps.cfg.Replenishment.ReorderPoints[id]
			if level >= rop {
				continue
			}
			qty := ps.cfg.ReorderQuantity(id)
			logrus.Infof("[t=%9.1f] stock monitor: %s low (%d < %d), issuing %d orders", now, id, level, rop, qty)
			if ps.trace.Enabled() {
				ps.trace.RecordReplenishment(trace.ReplenishmentRecord{Product: string(id), Clock: now, Stock: level, ReorderPoint: rop, Quantity: qty})
			}
			product := productFor(id)
			for i := 0; i < qty; i++ {
				wo := NewWorkOrder(fmt.Sprintf("R-ORD-%s-%.0f-%d", id, now, i), product, now, now+ps.cfg.Replenishment.DueMinutes)
				wo.Replenishment = true
				ps.Submit(wo)
			}
		}
	}
}

// === Run control ===

// RunUntil advances the plant to horizon minutes.
func (ps *ProductionSystem) RunUntil(horizon float64) error { return ps.env.RunUntil(horizon) }

// Run steps until stop reports true or no events remain.
func (ps *ProductionSystem) Run(stop func() bool) error { return ps.env.Run(stop) }

// Step executes the next kernel event. An empty schedule is reported as
// kernel.ErrEmptySchedule.
func (ps *ProductionSystem) Step() error { return ps.env.Step() }

// === Queries ===

// Now returns the current simulation time.
func (ps *ProductionSystem) Now() float64 { return ps.env.Now() }

// Env returns the kernel environment.
func (ps *ProductionSystem) Env() *kernel.Environment { return ps.env }

// Calendar returns the shift calendar.
func (ps *ProductionSystem) Calendar() *calendar.Calendar { return ps.cal }

// Config returns the plant configuration.
func (ps *ProductionSystem) Config() *Config { return ps.cfg }

// Policy returns the active scheduling policy.
func (ps *ProductionSystem) Policy() SchedulingPolicy { return ps.policy }

// Routing returns the routing of product.
func (ps *ProductionSystem) Routing(id ProductID) (Routing, bool) {
	r, ok := ps.routings[id]
	return r, ok
}

// Resource returns the named machine or operator pool.
func (ps *ProductionSystem) Resource(name string) (*Resource, bool) {
	r, ok := ps.resources[name]
	return r, ok
}

// Resources returns a snapshot of every resource, sorted by name.
func (ps *ProductionSystem) Resources() []UsageSnapshot {
	out := make([]UsageSnapshot, 0, len(ps.resources))
	for _, name := range sortedKeys(ps.resources) {
		out = append(out, ps.resources[name].Snapshot())
	}
	return out
}

// TotalSetupMinutes sums setup time over all resources.
func (ps *ProductionSystem) TotalSetupMinutes() float64 {
	total := 0.0
	for _, r := range ps.resources {
		total += r.SetupMinutes
	}
	return total
}

// FinishedStock returns the number of units in product's finished-goods buffer.
func (ps *ProductionSystem) FinishedStock(id ProductID) int {
	if store, ok := ps.finished[id]; ok {
		return store.Len()
	}
	return 0
}

// IntermediateStock returns the number of units in product's intermediate buffer.
func (ps *ProductionSystem) IntermediateStock(id ProductID) int {
	if store, ok := ps.intermediate[id]; ok {
		return store.Len()
	}
	return 0
}

// IntermediateUnits returns the units resting in product's intermediate buffer, oldest first.
func (ps *ProductionSystem) IntermediateUnits(id ProductID) []*WorkOrder {
	if store, ok := ps.intermediate[id]; ok {
		return store.Items()
	}
	return nil
}

// Orders returns every dispatched work order in dispatch order.
func (ps *ProductionSystem) Orders() []*WorkOrder {
	return append([]*WorkOrder(nil), ps.orders...)
}

// CompletedOrders returns completed work orders in completion order.
func (ps *ProductionSystem) CompletedOrders() []*WorkOrder {
	return append([]*WorkOrder(nil), ps.completed...)
}

// MonitorRunning reports whether the stock monitor process is alive.
func (ps *ProductionSystem) MonitorRunning() bool {
	return ps.monitor != nil && !ps.monitor.Finished()
}

// DailyOutput returns the current day index and its dispatch counters.
func (ps *ProductionSystem) DailyOutput() (int, map[ProductID]int, int) {
	perProduct := make(map[ProductID]int, len(ps.dailyByProduct))
	for k, v := range ps.dailyByProduct {
		perProduct[k] = v
	}
	return ps.day, perProduct, ps.dailyTotal
}

func productFor(id ProductID) Product {
	if p, ok := LookupProduct(id); ok {
		return p
	}
	return Product{ID: id, Name: string(id)}
}
