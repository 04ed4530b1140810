// Package trace provides decision-trace recording for production-level analysis.
// This package has no dependencies on sim/; it stores plain data types.
package trace

// CapWaitRecord captures a work order held back by a daily output cap.
type CapWaitRecord struct {
	OrderID string
	Product string
	Clock   float64
	Wait    float64 // minutes until the next day's shift opening
	Reason  string  // "product-cap" or "total-cap"
}

// SetupRecord captures a changeover on a machine.
type SetupRecord struct {
	Resource    string
	OrderID     string
	FromProduct string
	ToProduct   string
	Clock       float64
	Minutes     float64
}

// BreakdownRecord captures a machine failure and its repair duration.
type BreakdownRecord struct {
	Resource      string
	OrderID       string
	Clock         float64
	RepairMinutes float64
}

// ReworkRecord captures one quality roll after a routing's main sequence.
type ReworkRecord struct {
	OrderID   string
	Product   string
	Clock     float64
	Roll      int // 1-based roll index within the order
	Triggered bool
}

// ReplenishmentRecord captures a reorder issued by the stock monitor.
type ReplenishmentRecord struct {
	Product      string
	Clock        float64
	Stock        int
	ReorderPoint int
	Quantity     int
}
