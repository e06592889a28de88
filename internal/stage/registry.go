// Package stage holds the static stage table: offsets, adapter sets,
// fan-out budgets, and prune predicates. The table is built once from
// config and never mutated at runtime.
package stage

import (
	"fmt"
	"time"

	"solana-token-radar/internal/adapter"
	"solana-token-radar/internal/config"
	"solana-token-radar/internal/domain"
)

// Spec is the resolved runtime description of one stage.
type Spec struct {
	Stage           domain.Stage
	Offset          time.Duration
	AnchorDiscovery bool // offset anchors to discovery time, else previous stage completion
	Adapters        []adapter.Adapter
	AdapterOrder    []string // declared order, drives merge precedence
	Budget          time.Duration
	PruneBelow      int
	HardReject      []domain.RiskFlag
}

// Due computes the stage's due time from its anchor.
func (s *Spec) Due(discoveredAtMs, prevCompletedAtMs int64) int64 {
	anchor := prevCompletedAtMs
	if s.AnchorDiscovery {
		anchor = discoveredAtMs
	}
	return anchor + s.Offset.Milliseconds()
}

// Prune decides whether the token's lifecycle ends after this stage.
// Confirmed fraud and the stage's hard-reject flags always prune;
// otherwise both scoring variants must sit below the stage floor.
func (s *Spec) Prune(snap *domain.TokenSnapshot, v2, v3 *domain.ScoreResult) bool {
	if snap.Honeypot {
		return true
	}
	for _, f := range s.HardReject {
		if domain.HasFlag(snap.Flags, f) {
			return true
		}
	}
	if v2.Disqualified || v3.Disqualified {
		return true
	}
	return v2.Score < s.PruneBelow && v3.Score < s.PruneBelow
}

// Registry resolves stages to their specs.
type Registry struct {
	specs map[domain.Stage]*Spec
}

// NewRegistry builds the stage table, resolving adapter names against the
// provided set. Unknown adapter names are an error: a stage silently
// missing a source would skew the completeness gate.
func NewRegistry(cfg map[string]config.StageConfig, adapters map[string]adapter.Adapter) (*Registry, error) {
	r := &Registry{specs: make(map[domain.Stage]*Spec, len(cfg))}

	for name, sc := range cfg {
		st := domain.Stage(name)
		if !st.IsValid() {
			return nil, fmt.Errorf("unknown stage %q in config", name)
		}

		spec := &Spec{
			Stage:           st,
			Offset:          sc.Offset(),
			AnchorDiscovery: sc.AnchorDiscovery,
			AdapterOrder:    sc.Adapters,
			Budget:          sc.Budget(),
			PruneBelow:      sc.PruneBelow,
		}
		for _, an := range sc.Adapters {
			a, ok := adapters[an]
			if !ok {
				return nil, fmt.Errorf("stage %s references unknown adapter %q", name, an)
			}
			spec.Adapters = append(spec.Adapters, a)
		}
		for _, fn := range sc.HardReject {
			f := domain.RiskFlag(fn)
			if !f.IsValid() {
				return nil, fmt.Errorf("stage %s references unknown hard-reject flag %q", name, fn)
			}
			spec.HardReject = append(spec.HardReject, f)
		}
		r.specs[st] = spec
	}

	for _, st := range domain.Stages() {
		if _, ok := r.specs[st]; !ok {
			return nil, fmt.Errorf("stage %s missing from config", st)
		}
	}

	return r, nil
}

// Spec returns the spec for a stage.
func (r *Registry) Spec(st domain.Stage) (*Spec, error) {
	spec, ok := r.specs[st]
	if !ok {
		return nil, fmt.Errorf("no spec for stage %s", st)
	}
	return spec, nil
}

// NextSpec returns the successor stage's spec, or nil for the final stage.
func (r *Registry) NextSpec(st domain.Stage) (*Spec, error) {
	next, ok := st.Next()
	if !ok {
		return nil, nil
	}
	return r.Spec(next)
}
