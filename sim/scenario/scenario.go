// Package scenario drives complete batch runs of the plant: it resolves the
// configuration and the order batch from a seed, releases every order at t=0,
// runs until the batch is done and reports KPIs. Benchmark repeats the run for
// each scheduling policy.
package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jobshop-sim/jobshop-sim/sim"
	"github.com/jobshop-sim/jobshop-sim/sim/calendar"
	"github.com/jobshop-sim/jobshop-sim/sim/kernel"
	"github.com/jobshop-sim/jobshop-sim/sim/trace"
	"github.com/jobshop-sim/jobshop-sim/sim/workload"
)

// DefaultHorizonDays bounds a batch run when Options.HorizonDays is zero.
const DefaultHorizonDays = 365

const minutesPerDay = 24 * 60

// runNamespace scopes deterministic run IDs.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/jobshop-sim/jobshop-sim/runs"))

// Variant adjusts a copy of the plant configuration before a run.
type Variant func(cfg *sim.Config)

// Variants are the named what-if adjustments of the base plant.
var Variants = map[string]Variant{
	"base": func(*sim.Config) {},
	// One more milling machine.
	"extra-mill": func(cfg *sim.Config) { cfg.Machines[sim.MachineMill]++ },
	// Two specialists, and general operators may run the lathe and mill.
	"no-specialist": func(cfg *sim.Config) {
		cfg.Operators[sim.OperatorSpecialist] = 2
		cfg.RequiresSpecialist = false
	},
}

// VariantNames returns the registered variant names, sorted.
func VariantNames() []string {
	names := make([]string, 0, len(Variants))
	for name := range Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options configures a batch run. Zero values select defaults: a stochastic
// configuration and batch derived from Seed, the default routings, FIFO, the
// base variant and a 365-day horizon.
type Options struct {
	Seed        int64
	Policy      string
	Variant     string
	Config      *sim.Config
	Routings    map[sim.ProductID]sim.Routing
	Batch       workload.Batch
	HorizonDays float64
	TraceLevel  trace.TraceLevel
}

// Result is the outcome of one batch run.
type Result struct {
	RunID   string         `json:"run_id"`
	Policy  string         `json:"policy"`
	Variant string         `json:"variant"`
	Seed    int64          `json:"seed"`
	Batch   workload.Batch `json:"batch"`

	TotalOrders       int     `json:"total_orders"`
	CompletedOrders   int     `json:"completed_orders"`
	TotalMinutes      float64 `json:"total_minutes"`
	Delivery          string  `json:"delivery"`
	WorkingDays       float64 `json:"working_days"`
	TotalSetupMinutes float64 `json:"total_setup_minutes"`

	// Incomplete is set when the horizon passed or the schedule emptied
	// before every batch order completed.
	Incomplete bool `json:"incomplete"`

	KPIs         KPIReport           `json:"kpis"`
	Resources    []sim.UsageSnapshot `json:"-"`
	Orders       []*sim.WorkOrder    `json:"-"`
	TraceSummary *trace.TraceSummary `json:"trace_summary,omitempty"`
}

// Prepare resolves the configuration and batch a run will use, without
// running it. Options with Config and Batch set are returned unchanged apart
// from defaults.
func Prepare(opts Options) (Options, error) {
	if !sim.IsValidSchedulingPolicy(opts.Policy) {
		return opts, fmt.Errorf("unknown scheduling policy %q; valid: %s", opts.Policy, strings.Join(sim.SchedulingPolicyNames(), ", "))
	}
	if opts.Variant == "" {
		opts.Variant = "base"
	}
	if _, ok := Variants[opts.Variant]; !ok {
		return opts, fmt.Errorf("unknown variant %q; valid: %s", opts.Variant, strings.Join(VariantNames(), ", "))
	}
	if opts.TraceLevel == "" {
		opts.TraceLevel = trace.TraceLevelNone
	}
	if !trace.IsValidTraceLevel(string(opts.TraceLevel)) {
		return opts, fmt.Errorf("unknown trace level %q", opts.TraceLevel)
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = DefaultHorizonDays
	}
	if opts.Routings == nil {
		opts.Routings = sim.DefaultRoutings()
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(opts.Seed))
	if opts.Config == nil {
		opts.Config = workload.GenerateConfig(rng.ForSubsystem(sim.SubsystemPlantConfig))
	}
	if opts.Batch == nil {
		opts.Batch = workload.GenerateQuantities(rng.ForSubsystem(sim.SubsystemWorkload), opts.Config, opts.Routings)
	}
	return opts, nil
}

// Run executes one batch run. It fails before simulating anything when the
// configuration is invalid or the batch cannot be balanced against the BOM.
func Run(ctx context.Context, opts Options) (*Result, error) {
	opts, err := Prepare(opts)
	if err != nil {
		return nil, err
	}
	cfg := copyConfig(opts.Config)
	Variants[opts.Variant](cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := workload.CheckMaterialBalance(opts.Batch, cfg); err != nil {
		return nil, err
	}

	cal, err := calendar.New(cfg.Epoch, cfg.Shift.StartHour, cfg.Shift.EndHour)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sim.ErrInvalidConfig, err)
	}
	env := kernel.NewEnvironment()
	defer env.Close()
	policy := sim.NewSchedulingPolicy(opts.Policy)
	ps, err := sim.NewProductionSystem(env, cal, opts.Routings, cfg, opts.Seed, policy)
	if err != nil {
		return nil, err
	}
	var st *trace.SimulationTrace
	if opts.TraceLevel != trace.TraceLevelNone {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: opts.TraceLevel})
		ps.SetTrace(st)
	}

	drng := sim.NewPartitionedRNG(sim.NewSimulationKey(opts.Seed)).ForSubsystem(sim.SubsystemDueDates)
	orders, err := workload.GenerateOrders(drng, opts.Batch, opts.Routings, cfg, env.Now())
	if err != nil {
		return nil, err
	}

	runID := uuid.NewSHA1(runNamespace, []byte(fmt.Sprintf("%d/%s/%s", opts.Seed, policy.Name(), opts.Variant))).String()
	logrus.Infof("run %s: %d orders, policy %s, variant %s, seed %d", runID, len(orders), policy.Name(), opts.Variant, opts.Seed)

	done := 0
	for _, wo := range orders {
		wo := wo
		env.Spawn("batch/"+wo.ID, func(p *kernel.Process) error {
			if err := ps.Dispatch(p, wo); err != nil {
				return err
			}
			done++
			return nil
		})
	}

	horizon := opts.HorizonDays * minutesPerDay
	err = ps.Run(func() bool {
		return done >= len(orders) || ps.Now() > horizon || ctx.Err() != nil
	})
	if errors.Is(err, kernel.ErrEmptySchedule) {
		// blocked orders left with nothing to wake them; reported as incomplete
		logrus.Warnf("run %s: %v", runID, err)
		err = nil
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var completed []*sim.WorkOrder
	for _, wo := range orders {
		if wo.Completed() {
			completed = append(completed, wo)
		}
	}
	resources := ps.Resources()
	now := ps.Now()
	res := &Result{
		RunID:             runID,
		Policy:            policy.Name(),
		Variant:           opts.Variant,
		Seed:              opts.Seed,
		Batch:             opts.Batch,
		TotalOrders:       len(orders),
		CompletedOrders:   len(completed),
		TotalMinutes:      now,
		Delivery:          cal.FormatDelivery(now),
		WorkingDays:       cal.WorkingDays(now),
		TotalSetupMinutes: ps.TotalSetupMinutes(),
		Incomplete:        done < len(orders),
		KPIs:              ComputeKPIs(completed, resources, opts.Routings, cfg, cal, now),
		Resources:         resources,
		Orders:            orders,
	}
	if st != nil {
		res.TraceSummary = trace.Summarize(st)
	}
	if res.Incomplete {
		logrus.Warnf("run %s stopped at %.1f min with %d/%d orders completed", runID, now, done, len(orders))
	}
	return res, nil
}

// Save writes the result as indented JSON.
func (r *Result) Save(path string) error {
	return writeJSON(path, r)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing results to %s: %w", path, err)
	}
	return nil
}

// copyConfig deep-copies the maps a Variant may mutate.
func copyConfig(cfg *sim.Config) *sim.Config {
	out := *cfg
	out.Machines = make(map[string]int, len(cfg.Machines))
	for k, v := range cfg.Machines {
		out.Machines[k] = v
	}
	out.Operators = make(map[string]int, len(cfg.Operators))
	for k, v := range cfg.Operators {
		out.Operators[k] = v
	}
	return &out
}
