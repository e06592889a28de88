package domain

// Priority classifies queue urgency. Within one class tasks are strictly
// FIFO by due time; lower numeric value drains first.
type Priority int

const (
	PriorityHigh   Priority = 0 // prescreen and hot re-checks
	PriorityNormal Priority = 1 // regular enrichment passes
	PriorityLow    Priority = 2 // backfill and catch-up work
)

// EnrichmentTask is the queue's unit of work: one pending stage for one token.
// At most one outstanding task exists per (mint, stage), and a token has at
// most one next due task across all stages because the successor stage is
// only enqueued after the previous one completes.
type EnrichmentTask struct {
	Token    TokenRef
	Stage    Stage
	DueAt    int64    // scheduled execution time (ms)
	Priority Priority
	Flags    []RiskFlag // soft-risk flags carried forward from earlier stages
	Attempt  int        // monotonically increasing per (mint, stage)
}

// Key returns the queue identity for the task. One task per key.
func (t *EnrichmentTask) Key() string {
	return t.Token.Mint + ":" + string(t.Stage)
}

// HasFlag reports whether a carried flag is set.
func (t *EnrichmentTask) HasFlag(f RiskFlag) bool {
	for _, v := range t.Flags {
		if v == f {
			return true
		}
	}
	return false
}

// AddFlag appends a flag if not already carried.
func (t *EnrichmentTask) AddFlag(f RiskFlag) {
	if !t.HasFlag(f) {
		t.Flags = append(t.Flags, f)
	}
}
