package sim

import (
	"github.com/jobshop-sim/jobshop-sim/sim/kernel"
)

// ResourceKind distinguishes machines from operator pools.
type ResourceKind string

const (
	KindMachine  ResourceKind = "machine"
	KindOperator ResourceKind = "operator"
)

// UsageCategory classifies busy time on a resource.
type UsageCategory string

const (
	UsageProcessing UsageCategory = "processing"
	UsageSetup      UsageCategory = "setup"
	UsageBreakdown  UsageCategory = "breakdown"
)

// Interval is one entry of a resource's event log.
type Interval struct {
	Kind    UsageCategory
	Start   float64
	End     float64
	OrderID string // empty for intervals not tied to an order
}

// Resource is a named machine or operator pool with usage accounting.
// Counters and the interval log are only mutated by the process holding a unit.
type Resource struct {
	name string
	kind ResourceKind
	pool *kernel.Resource
	env  *kernel.Environment

	ProcessingMinutes float64
	SetupMinutes      float64
	BreakdownMinutes  float64
	BusyMinutes       float64 // sum of the three categories

	Intervals []Interval

	lastProduct ProductID
}

// NewResource creates a resource backed by a kernel priority resource.
// Capacity below 1 is rejected.
func NewResource(env *kernel.Environment, name string, kind ResourceKind, capacity int) (*Resource, error) {
	pool, err := kernel.NewResource(env, name, capacity)
	if err != nil {
		return nil, err
	}
	return &Resource{name: name, kind: kind, pool: pool, env: env}, nil
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Kind returns machine or operator.
func (r *Resource) Kind() ResourceKind { return r.kind }

// Capacity returns the number of parallel units.
func (r *Resource) Capacity() int { return r.pool.Capacity() }

// InUse returns the number of units currently held.
func (r *Resource) InUse() int { return r.pool.InUse() }

// QueueLen returns the number of processes waiting for a unit.
func (r *Resource) QueueLen() int { return r.pool.QueueLen() }

// LastProduct returns the product most recently started on the resource.
func (r *Resource) LastProduct() ProductID { return r.lastProduct }

// Acquire suspends p until a unit is granted. Lower priority values win.
func (r *Resource) Acquire(p *kernel.Process, priority float64) error {
	return r.pool.Acquire(p, priority)
}

// Release returns a unit to the pool.
func (r *Resource) Release() { r.pool.Release() }

// needsSetup reports whether starting product requires a changeover: only when
// the resource has processed something and it was a different product.
func (r *Resource) needsSetup(product ProductID) bool {
	return r.lastProduct != "" && r.lastProduct != product
}

func (r *Resource) markProduct(product ProductID) { r.lastProduct = product }

// RecordUsage adds duration to the matching counter and appends an interval
// ending now.
func (r *Resource) RecordUsage(duration float64, category UsageCategory, orderID string) {
	switch category {
	case UsageProcessing:
		r.ProcessingMinutes += duration
	case UsageSetup:
		r.SetupMinutes += duration
	case UsageBreakdown:
		r.BreakdownMinutes += duration
	}
	r.BusyMinutes += duration
	now := r.env.Now()
	r.Intervals = append(r.Intervals, Interval{Kind: category, Start: now - duration, End: now, OrderID: orderID})
}

// Utilization returns productive time (processing + setup) as a percentage of
// horizon × capacity. Breakdown time is excluded.
func (r *Resource) Utilization(horizon float64) float64 {
	if horizon <= 0 {
		return 0
	}
	return (r.ProcessingMinutes + r.SetupMinutes) / (horizon * float64(r.Capacity())) * 100
}

// UsageSnapshot is a read-only snapshot of a resource's counters.
type UsageSnapshot struct {
	Name       string
	Kind       ResourceKind
	Capacity   int
	Processing float64
	Setup      float64
	Breakdown  float64
	Busy       float64
	Intervals  []Interval
}

// Snapshot copies the resource's counters and interval log.
func (r *Resource) Snapshot() UsageSnapshot {
	intervals := make([]Interval, len(r.Intervals))
	copy(intervals, r.Intervals)
	return UsageSnapshot{
		Name:       r.name,
		Kind:       r.kind,
		Capacity:   r.Capacity(),
		Processing: r.ProcessingMinutes,
		Setup:      r.SetupMinutes,
		Breakdown:  r.BreakdownMinutes,
		Busy:       r.BusyMinutes,
		Intervals:  intervals,
	}
}
