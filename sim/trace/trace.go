package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures docking, departure and failure decisions.
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

// Enabled reports whether records should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelDecisions
}

// PortTrace collects decision records during a port simulation.
type PortTrace struct {
	Config            TraceConfig
	Dockings          []DockingRecord
	Departures        []DepartureRecord
	Unservable        []UnservableRecord
	Inconsistencies   []InconsistencyRecord
	EvaluatorFailures []EvaluatorFailureRecord
}

// NewPortTrace creates a PortTrace ready for recording.
func NewPortTrace(config TraceConfig) *PortTrace {
	return &PortTrace{
		Config:            config,
		Dockings:          make([]DockingRecord, 0),
		Departures:        make([]DepartureRecord, 0),
		Unservable:        make([]UnservableRecord, 0),
		Inconsistencies:   make([]InconsistencyRecord, 0),
		EvaluatorFailures: make([]EvaluatorFailureRecord, 0),
	}
}

// RecordDocking appends a docking record.
func (pt *PortTrace) RecordDocking(record DockingRecord) {
	pt.Dockings = append(pt.Dockings, record)
}

// RecordDeparture appends a departure record.
func (pt *PortTrace) RecordDeparture(record DepartureRecord) {
	pt.Departures = append(pt.Departures, record)
}

// RecordUnservable appends an unservable-movement record.
func (pt *PortTrace) RecordUnservable(record UnservableRecord) {
	pt.Unservable = append(pt.Unservable, record)
}

// RecordInconsistency appends an inconsistent-departure record.
func (pt *PortTrace) RecordInconsistency(record InconsistencyRecord) {
	pt.Inconsistencies = append(pt.Inconsistencies, record)
}

// RecordEvaluatorFailure appends an evaluator failure record.
func (pt *PortTrace) RecordEvaluatorFailure(record EvaluatorFailureRecord) {
	pt.EvaluatorFailures = append(pt.EvaluatorFailures, record)
}
