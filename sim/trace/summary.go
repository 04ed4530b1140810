package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions       int
	CapWaits             int
	CapWaitMinutes       float64
	Setups               int
	SetupMinutes         float64
	Breakdowns           int
	RepairMinutes        float64
	MaxRepairMinutes     float64
	BreakdownsByResource map[string]int // resource name → count of failures
	ReworkRolls          int
	ReworksTriggered     int
	Replenishments       int
	ReplenishedUnits     int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		BreakdownsByResource: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.CapWaits = len(st.CapWaits)
	for _, c := range st.CapWaits {
		summary.CapWaitMinutes += c.Wait
	}

	summary.Setups = len(st.Setups)
	for _, s := range st.Setups {
		summary.SetupMinutes += s.Minutes
	}

	summary.Breakdowns = len(st.Breakdowns)
	for _, b := range st.Breakdowns {
		summary.BreakdownsByResource[b.Resource]++
		summary.RepairMinutes += b.RepairMinutes
		if b.RepairMinutes > summary.MaxRepairMinutes {
			summary.MaxRepairMinutes = b.RepairMinutes
		}
	}

	summary.ReworkRolls = len(st.Reworks)
	for _, r := range st.Reworks {
		if r.Triggered {
			summary.ReworksTriggered++
		}
	}

	summary.Replenishments = len(st.Replenishments)
	for _, r := range st.Replenishments {
		summary.ReplenishedUnits += r.Quantity
	}

	summary.TotalDecisions = summary.CapWaits + summary.Setups + summary.Breakdowns +
		summary.ReworkRolls + summary.Replenishments
	return summary
}
