package trace

// Level controls the verbosity of scheduling-decision tracing.
// Grounded on sim/trace's TraceLevel/TraceConfig pattern.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelRounds captures one DecisionRecord per scheduling round.
	LevelRounds Level = "rounds"
)

var validLevels = map[Level]bool{
	LevelNone:   true,
	LevelRounds: true,
}

// IsValidLevel reports whether level is a recognized trace level string.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// DecisionRecord captures one scheduling round: which scheduler ran,
// the resulting plan length, and the cache head it scheduled against.
type DecisionRecord struct {
	Round     int
	Scheduler string
	PlanLen   int
	CacheHead int
}

// Config controls trace collection behavior for a session.
type Config struct {
	Level Level
}

// SessionTrace accumulates DecisionRecords for one session when
// Config.Level != LevelNone.
type SessionTrace struct {
	Config    Config
	Decisions []DecisionRecord
}

// NewSessionTrace creates a trace collector for the given config.
func NewSessionTrace(config Config) *SessionTrace {
	return &SessionTrace{Config: config}
}

// RecordDecision appends a DecisionRecord, a no-op when tracing is
// disabled.
func (st *SessionTrace) RecordDecision(rec DecisionRecord) {
	if st.Config.Level == LevelNone {
		return
	}
	st.Decisions = append(st.Decisions, rec)
}
