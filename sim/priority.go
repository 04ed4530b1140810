package sim

import (
	"fmt"
	"sort"
	"strings"
)

// SchedulingPolicy converts a work order and the base duration of the operation
// it is queuing for into a resource-queue priority.
// Lower values are granted first; equal values are served in arrival order.
// Implementations MUST NOT modify the work order.
type SchedulingPolicy interface {
	Name() string
	Priority(wo *WorkOrder, baseDuration float64) float64
}

// FIFOPolicy gives every request the same priority, so arrival order decides.
type FIFOPolicy struct{}

func (FIFOPolicy) Name() string { return "fifo" }

func (FIFOPolicy) Priority(_ *WorkOrder, _ float64) float64 { return 0 }

// SPTPolicy prefers the shortest operation.
type SPTPolicy struct{}

func (SPTPolicy) Name() string { return "spt" }

func (SPTPolicy) Priority(_ *WorkOrder, baseDuration float64) float64 { return baseDuration }

// EDDPolicy prefers the earliest due date.
type EDDPolicy struct{}

func (EDDPolicy) Name() string { return "edd" }

func (EDDPolicy) Priority(wo *WorkOrder, _ float64) float64 { return wo.DueAt }

// ValidSchedulingPolicies is the set of recognized policy names (lower case).
// Shared by Config validation, the CLI and NewSchedulingPolicy.
var ValidSchedulingPolicies = map[string]bool{"": true, "fifo": true, "spt": true, "edd": true}

// IsValidSchedulingPolicy reports whether name (case-insensitive) is recognized.
func IsValidSchedulingPolicy(name string) bool {
	return ValidSchedulingPolicies[strings.ToLower(name)]
}

// SchedulingPolicyNames returns the non-empty policy names, sorted.
func SchedulingPolicyNames() []string {
	names := make([]string, 0, len(ValidSchedulingPolicies))
	for name := range ValidSchedulingPolicies {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// NewSchedulingPolicy creates a SchedulingPolicy by name (case-insensitive).
// Empty string defaults to FIFO.
// Panics on unrecognized names.
func NewSchedulingPolicy(name string) SchedulingPolicy {
	if !IsValidSchedulingPolicy(name) {
		panic(fmt.Sprintf("unknown scheduling policy %q", name))
	}
	switch strings.ToLower(name) {
	case "", "fifo":
		return FIFOPolicy{}
	case "spt":
		return SPTPolicy{}
	case "edd":
		return EDDPolicy{}
	default:
		panic(fmt.Sprintf("unhandled scheduling policy %q", name))
	}
}
