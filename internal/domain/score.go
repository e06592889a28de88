package domain

// ScoreComponent is one contribution inside a score breakdown.
type ScoreComponent struct {
	Name   string
	Points float64
}

// ScoreResult is the output of one scoring variant over one snapshot.
// Derived data: persisted only alongside the snapshot, recomputed on demand.
type ScoreResult struct {
	Variant      string // "v2" or "v3"
	Score        int    // 0..100
	Components   []ScoreComponent
	Disqualified bool   // a hard disqualifier short-circuited to 0
	Disqualifier string // which one, when Disqualified
	Capped       bool   // the completeness cap was applied
	CoreMetrics  int    // populated core metrics at scoring time
}
