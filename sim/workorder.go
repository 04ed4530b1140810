// Product catalog and work orders. A work order is one unit of demand for a
// catalog product; it carries its due time, the stations it visited and the
// completion stamp the KPIs are computed from.

package sim

import (
	"fmt"
	"sort"
)

// ProductID is the catalog code of a product type.
type ProductID string

const (
	ProductFlange  ProductID = "FL-01"
	ProductPin     ProductID = "PN-03"
	ProductGear    ProductID = "IN-07"
	ProductReducer ProductID = "RD-01" // assembly of flanges and pins
)

// Product is an immutable catalog entry.
type Product struct {
	ID   ProductID
	Name string
}

var catalog = map[ProductID]Product{
	ProductFlange:  {ID: ProductFlange, Name: "Flange"},
	ProductPin:     {ID: ProductPin, Name: "Pin"},
	ProductGear:    {ID: ProductGear, Name: "Gear"},
	ProductReducer: {ID: ProductReducer, Name: "Reducer"},
}

// LookupProduct returns the catalog entry for id.
func LookupProduct(id ProductID) (Product, bool) {
	p, ok := catalog[id]
	return p, ok
}

// CatalogProducts returns every catalog product sorted by ID.
func CatalogProducts() []Product {
	out := make([]Product, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OrderState represents the lifecycle state of a work order.
type OrderState string

const (
	OrderCreated   OrderState = "created"
	OrderCapWait   OrderState = "cap-wait"
	OrderRouted    OrderState = "routed"
	OrderCompleted OrderState = "completed"
)

// OperationRecord is one executed operation in a work order's log.
type OperationRecord struct {
	Stage    string  // resource name
	Duration float64 // effective processing minutes
	Operator string  // operator pool used, empty when none
	Start    float64
	End      float64
}

// WorkOrder is one unit of demand moving through a product routing.
type WorkOrder struct {
	ID        string
	Product   Product
	CreatedAt float64
	DueAt     float64
	State     OrderState

	completedAt float64
	completed   bool

	History    []string          // visited stages in order
	Operations []OperationRecord // per-operation log

	Components    []*WorkOrder // units withdrawn for an assembly
	Consumed      bool         // set when withdrawn into an assembly
	Replenishment bool         // generated by the stock monitor
	Reworks       int          // rework passes executed
}

// NewWorkOrder creates a work order in the created state.
func NewWorkOrder(id string, product Product, createdAt, dueAt float64) *WorkOrder {
	return &WorkOrder{
		ID:        id,
		Product:   product,
		CreatedAt: createdAt,
		DueAt:     dueAt,
		State:     OrderCreated,
	}
}

// Complete marks the order finished at minute at. An order finishes once,
// never before its release.
func (w *WorkOrder) Complete(at float64) error {
	if w.completed {
		return fmt.Errorf("work order %s already completed at %.3f", w.ID, w.completedAt)
	}
	if at < w.CreatedAt {
		return fmt.Errorf("work order %s: completion %.3f precedes creation %.3f", w.ID, at, w.CreatedAt)
	}
	w.completedAt = at
	w.completed = true
	w.State = OrderCompleted
	return nil
}

// Completed reports whether the order has left the last station.
func (w *WorkOrder) Completed() bool { return w.completed }

// CompletedAt is the finish minute and whether the order has finished.
func (w *WorkOrder) CompletedAt() (float64, bool) {
	return w.completedAt, w.completed
}

// LeadTime is the release-to-finish span of a completed order.
func (w *WorkOrder) LeadTime() (float64, bool) {
	if !w.completed {
		return 0, false
	}
	return w.completedAt - w.CreatedAt, true
}

// Lateness is the minutes by which a completed order missed its due time.
// On-time and unfinished orders have zero lateness.
func (w *WorkOrder) Lateness() float64 {
	if !w.completed || w.completedAt <= w.DueAt {
		return 0
	}
	return w.completedAt - w.DueAt
}

// String formats the order as "<id> <product> [<state>]" with its release and
// due minutes, for log lines.
func (w *WorkOrder) String() string {
	return fmt.Sprintf("%s %s [%s] released %.1f due %.1f", w.ID, w.Product.ID, w.State, w.CreatedAt, w.DueAt)
}

// traceOperation appends an executed operation to the order's routing log.
func (w *WorkOrder) traceOperation(rec OperationRecord) {
	w.History = append(w.History, rec.Stage)
	w.Operations = append(w.Operations, rec)
}
