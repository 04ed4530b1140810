package scenario

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// setupPenaltyFactor flags SPT when its setup minutes exceed this multiple of FIFO's.
const setupPenaltyFactor = 1.5

// BenchmarkPolicies is the policy order of a benchmark.
var BenchmarkPolicies = []string{"fifo", "spt", "edd"}

// BenchmarkResult compares the policies on one configuration and batch.
type BenchmarkResult struct {
	Results []*Result `json:"results"`
	// SPTSetupPenalty is set when SPT spent more than 1.5× FIFO's setup minutes.
	SPTSetupPenalty bool `json:"spt_setup_penalty"`
}

// Result returns the run of the named policy, or nil.
func (b *BenchmarkResult) Result(policy string) *Result {
	for _, r := range b.Results {
		if r.Policy == policy {
			return r
		}
	}
	return nil
}

// Save writes every policy's result as one indented JSON document.
func (b *BenchmarkResult) Save(path string) error {
	return writeJSON(path, b)
}

// Benchmark resolves the configuration and batch once from opts, then runs
// them under every policy in BenchmarkPolicies with the same seed. Each run is
// an independent simulation, so runs execute concurrently; results keep
// BenchmarkPolicies order. opts.Policy is ignored.
func Benchmark(ctx context.Context, opts Options) (*BenchmarkResult, error) {
	opts, err := Prepare(opts)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(BenchmarkPolicies))
	g, gCtx := errgroup.WithContext(ctx)
	for i, policy := range BenchmarkPolicies {
		i, runOpts := i, opts
		runOpts.Policy = policy
		g.Go(func() error {
			res, err := Run(gCtx, runOpts)
			if err != nil {
				return fmt.Errorf("policy %s: %w", runOpts.Policy, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &BenchmarkResult{Results: results}
	fifo, spt := out.Result("fifo"), out.Result("spt")
	if fifo != nil && spt != nil && fifo.TotalSetupMinutes > 0 && spt.TotalSetupMinutes > fifo.TotalSetupMinutes*setupPenaltyFactor {
		out.SPTSetupPenalty = true
		logrus.Warnf("spt penalized by changeovers: %.1f setup min vs fifo %.1f (+%.1f%%)",
			spt.TotalSetupMinutes, fifo.TotalSetupMinutes, (spt.TotalSetupMinutes-fifo.TotalSetupMinutes)/fifo.TotalSetupMinutes*100)
	}
	return out, nil
}
