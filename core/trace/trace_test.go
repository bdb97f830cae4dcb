package trace

import "testing"

func TestSessionTrace_RecordDecision_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured to capture rounds
	st := NewSessionTrace(Config{Level: LevelRounds})

	// WHEN a decision is recorded
	st.RecordDecision(DecisionRecord{Round: 1, Scheduler: "greedy", PlanLen: 8, CacheHead: 0})

	// THEN the trace contains one decision record with correct data
	if len(st.Decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(st.Decisions))
	}
	if st.Decisions[0].Scheduler != "greedy" {
		t.Errorf("expected scheduler greedy, got %s", st.Decisions[0].Scheduler)
	}
}

func TestSessionTrace_LevelNone_DropsRecords(t *testing.T) {
	// GIVEN a trace configured for no tracing
	st := NewSessionTrace(Config{Level: LevelNone})

	// WHEN a decision is recorded
	st.RecordDecision(DecisionRecord{Round: 1, Scheduler: "topk", PlanLen: 3})

	// THEN nothing is retained
	if len(st.Decisions) != 0 {
		t.Errorf("expected 0 decisions retained, got %d", len(st.Decisions))
	}
}

func TestIsValidLevel(t *testing.T) {
	cases := map[string]bool{
		"none":    true,
		"rounds":  true,
		"verbose": false,
		"":        false,
	}
	for level, want := range cases {
		if got := IsValidLevel(level); got != want {
			t.Errorf("IsValidLevel(%q) = %v, want %v", level, got, want)
		}
	}
}
