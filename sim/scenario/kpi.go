package scenario

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/jobshop-sim/jobshop-sim/sim"
	"github.com/jobshop-sim/jobshop-sim/sim/calendar"
)

// overtimeThreshold is the utilization (percent) above which a resource is
// reported as working overtime.
const overtimeThreshold = 100.1

// Distribution summarizes a set of durations in minutes.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	d := Distribution{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:   stat.Quantile(0.9, stat.Empirical, sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	return d
}

// ResourceKPI is the utilization of one machine or operator pool over the
// shift-bound operating time. Percentages may exceed 100 when breakdowns or
// long operations push work past the theoretical capacity.
type ResourceKPI struct {
	Name                  string           `json:"name"`
	Kind                  sim.ResourceKind `json:"kind"`
	Capacity              int              `json:"capacity"`
	ProcessingUtilization float64          `json:"processing_utilization"`
	SetupUtilization      float64          `json:"setup_utilization"`
	Utilization           float64          `json:"utilization"`
	BreakdownMinutes      float64          `json:"breakdown_minutes"`
}

// Overtime returns how far utilization exceeds 100 percent, or 0.
func (r ResourceKPI) Overtime() float64 {
	return math.Max(0, r.Utilization-100)
}

// KPIReport aggregates the performance of a run. Percentages are 0-100.
type KPIReport struct {
	OEE          float64 `json:"oee"`
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`

	// OperatingMinutes is the shift-bound working time up to the horizon.
	OperatingMinutes float64 `json:"operating_minutes"`
	Horizon          float64 `json:"horizon"`

	Resources             []ResourceKPI `json:"resources"`
	Bottleneck            string        `json:"bottleneck"`
	BottleneckUtilization float64       `json:"bottleneck_utilization"`

	CompletedOrders int                   `json:"completed_orders"`
	Throughput      map[sim.ProductID]int `json:"throughput"`
	DefectiveOrders int                   `json:"defective_orders"`
	LateOrders      int                   `json:"late_orders"`
	MeanLateness    float64               `json:"mean_lateness"`

	LeadTime         Distribution `json:"lead_time"`
	AssemblyLeadTime Distribution `json:"assembly_lead_time"`
}

// ComputeKPIs builds the KPI report of a run that ended at now.
//
// The horizon is the latest of now, the last completion and the busiest
// machine's productive minutes. Availability is machine processing+setup over
// operating time × machine units, performance is standard cycle time over
// actual processing (capped at 1), and quality counts orders that went through
// rework as defective.
func ComputeKPIs(completed []*sim.WorkOrder, resources []sim.UsageSnapshot, routings map[sim.ProductID]sim.Routing, cfg *sim.Config, cal *calendar.Calendar, now float64) KPIReport {
	report := KPIReport{Throughput: make(map[sim.ProductID]int)}
	if len(completed) == 0 {
		return report
	}

	horizon := now
	var leadTimes, assemblyLeadTimes []float64
	lateness := 0.0
	standard := 0.0
	for _, wo := range completed {
		at, _ := wo.CompletedAt()
		horizon = math.Max(horizon, at)
		report.Throughput[wo.Product.ID]++
		if wo.Reworks > 0 {
			report.DefectiveOrders++
		}
		if late := wo.Lateness(); late > 0 {
			report.LateOrders++
			lateness += late
		}
		lt, _ := wo.LeadTime()
		leadTimes = append(leadTimes, lt)
		routing, ok := routings[wo.Product.ID]
		if !ok {
			continue
		}
		if routing.WithdrawComponents {
			assemblyLeadTimes = append(assemblyLeadTimes, lt)
		}
		if est, err := routing.EstimateCycleTime(cfg); err == nil {
			standard += est
		}
	}

	productive, processing, machineUnits := 0.0, 0.0, 0
	for _, r := range resources {
		if r.Kind != sim.KindMachine {
			continue
		}
		horizon = math.Max(horizon, r.Processing+r.Setup)
		productive += r.Processing + r.Setup
		processing += r.Processing
		machineUnits += r.Capacity
	}

	report.Horizon = horizon
	report.OperatingMinutes = cal.WorkingMinutes(0, horizon)
	report.CompletedOrders = len(completed)
	if report.LateOrders > 0 {
		report.MeanLateness = lateness / float64(report.LateOrders)
	}
	report.LeadTime = NewDistribution(leadTimes)
	report.AssemblyLeadTime = NewDistribution(assemblyLeadTimes)

	quality := float64(len(completed)-report.DefectiveOrders) / float64(len(completed))
	availability := 0.0
	if capacity := report.OperatingMinutes * float64(machineUnits); capacity > 0 {
		availability = productive / capacity
	}
	performance := 0.0
	if processing > 0 {
		performance = math.Min(1, standard/processing)
	}
	report.Availability = availability * 100
	report.Performance = performance * 100
	report.Quality = quality * 100
	report.OEE = availability * performance * quality * 100

	report.Resources = resourceKPIs(resources, report.OperatingMinutes)
	for _, r := range report.Resources {
		if r.Utilization > report.BottleneckUtilization {
			report.Bottleneck = r.Name
			report.BottleneckUtilization = r.Utilization
		}
	}
	return report
}

func resourceKPIs(resources []sim.UsageSnapshot, operating float64) []ResourceKPI {
	out := make([]ResourceKPI, 0, len(resources))
	for _, r := range resources {
		k := ResourceKPI{Name: r.Name, Kind: r.Kind, Capacity: r.Capacity, BreakdownMinutes: r.Breakdown}
		if denom := operating * float64(r.Capacity); denom > 0 {
			k.ProcessingUtilization = r.Processing / denom * 100
			k.SetupUtilization = r.Setup / denom * 100
			k.Utilization = k.ProcessingUtilization + k.SetupUtilization
		}
		if k.Utilization > overtimeThreshold {
			logrus.Warnf("resource %s worked %.1f%% overtime", r.Name, k.Overtime())
		}
		out = append(out, k)
	}
	return out
}
