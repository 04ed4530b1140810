package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures cap waits, setups, breakdowns, rework rolls and reorders.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a production run.
type SimulationTrace struct {
	Config         TraceConfig
	CapWaits       []CapWaitRecord
	Setups         []SetupRecord
	Breakdowns     []BreakdownRecord
	Reworks        []ReworkRecord
	Replenishments []ReplenishmentRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:         config,
		CapWaits:       make([]CapWaitRecord, 0),
		Setups:         make([]SetupRecord, 0),
		Breakdowns:     make([]BreakdownRecord, 0),
		Reworks:        make([]ReworkRecord, 0),
		Replenishments: make([]ReplenishmentRecord, 0),
	}
}

// Enabled reports whether st records anything. Safe on nil.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelDecisions
}

// RecordCapWait appends a daily-cap wait record.
func (st *SimulationTrace) RecordCapWait(record CapWaitRecord) {
	st.CapWaits = append(st.CapWaits, record)
}

// RecordSetup appends a changeover record.
func (st *SimulationTrace) RecordSetup(record SetupRecord) {
	st.Setups = append(st.Setups, record)
}

// RecordBreakdown appends a breakdown record.
func (st *SimulationTrace) RecordBreakdown(record BreakdownRecord) {
	st.Breakdowns = append(st.Breakdowns, record)
}

// RecordRework appends a rework roll record.
func (st *SimulationTrace) RecordRework(record ReworkRecord) {
	st.Reworks = append(st.Reworks, record)
}

// RecordReplenishment appends a reorder record.
func (st *SimulationTrace) RecordReplenishment(record ReplenishmentRecord) {
	st.Replenishments = append(st.Replenishments, record)
}
