package domain

// Stage identifies one enrichment pass in a token's lifecycle.
// Stages are strictly ordered; a token moves through them via the
// static successor table and never revisits an earlier stage.
type Stage string

const (
	StagePrescreen Stage = "PRESCREEN" // near-zero-cost on-chain checks, runs seconds after discovery
	StageInitial   Stage = "INITIAL"   // first full enrichment, long fan-out budget
	StageEarly     Stage = "EARLY"     // short follow-up pass
	StageMid       Stage = "MID"       // mid-life pass
	StageLate      Stage = "LATE"      // late confirmation pass
	StageFinal     Stage = "FINAL"     // final outcome pass, terminal
)

// stageSuccessors is the static successor table. StageFinal has no successor.
var stageSuccessors = map[Stage]Stage{
	StagePrescreen: StageInitial,
	StageInitial:   StageEarly,
	StageEarly:     StageMid,
	StageMid:       StageLate,
	StageLate:      StageFinal,
}

// Next returns the successor stage. ok is false for the final stage.
func (s Stage) Next() (Stage, bool) {
	next, ok := stageSuccessors[s]
	return next, ok
}

// IsValid checks if the stage is a known value.
func (s Stage) IsValid() bool {
	if s == StageFinal {
		return true
	}
	_, ok := stageSuccessors[s]
	return ok
}

// Stages lists all stages in lifecycle order.
func Stages() []Stage {
	return []Stage{StagePrescreen, StageInitial, StageEarly, StageMid, StageLate, StageFinal}
}
