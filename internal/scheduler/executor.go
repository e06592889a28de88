package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/fusion"
	"solana-token-radar/internal/observability"
	"solana-token-radar/internal/scoring"
	"solana-token-radar/internal/signal"
	"solana-token-radar/internal/storage"
)

// Copycat detection: more than this many registrations of the same symbol
// inside the window marks the token.
const (
	copycatWindow = 24 * time.Hour
	copycatCount  = 3
)

// executeStage runs the full pipeline for one claimed task: fan out to the
// stage's adapters, fuse partials into a snapshot, score both variants,
// evaluate the signal table, persist the decision, then either prune the
// token or schedule the successor stage.
func (p *Pool) executeStage(ctx context.Context, task *domain.EnrichmentTask) error {
	spec, err := p.registry.Spec(task.Stage)
	if err != nil {
		return err
	}

	token, err := p.tokens.GetByMint(ctx, task.Token.Mint)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Token vanished between enqueue and claim; nothing to enrich.
			p.logger.Printf("[stage] %s references unknown token, dropping", task.Key())
			return nil
		}
		return fmt.Errorf("load token: %w", err)
	}

	prev, err := p.snapshots.GetLatest(ctx, token.Mint)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load previous snapshot: %w", err)
	}

	if task.Stage == domain.StagePrescreen {
		p.flagCopycat(ctx, token, task)
	}

	nowMs := p.now().UnixMilli()
	res := fusion.FanOut(ctx, token.Ref(), spec.Adapters, p.limits, spec.Budget, p.logger)
	snap := fusion.Merge(token.Ref(), task.Stage, nowMs, spec.AdapterOrder, res, prev)
	snap.SourcesQueried, snap.SourcesFailed = res.Sources(spec.Adapters)

	for _, source := range snap.SourcesFailed {
		observability.RecordAdapterError(source)
	}

	if err := p.snapshots.Insert(ctx, snap); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist snapshot: %w", err)
		}
		// A crash-recovered task re-ran a stage that already wrote its
		// snapshot. The stored row wins; score and signal off it.
		stored, getErr := p.snapshots.GetByMintStage(ctx, token.Mint, task.Stage)
		if getErr != nil {
			return fmt.Errorf("load stored snapshot after duplicate: %w", getErr)
		}
		snap = stored
	}

	if p.archive != nil {
		if err := p.archive.Insert(ctx, snap); err != nil {
			p.logger.Printf("[stage] archive write for %s failed: %v", task.Key(), err)
		}
	}

	flags := domain.MergeFlags(task.Flags, snap.Flags)
	v2, v3 := p.scoreBoth(token.Mint, snap, flags, prev)

	eval := p.signalEngine.Evaluate(&signal.Input{
		Snapshot: snap,
		Flags:    flags,
		ScoreV2:  v2,
		ScoreV3:  v3,
	})

	if err := p.persistDecision(ctx, token, eval, nowMs); err != nil {
		return err
	}

	if spec.Prune(snap, &v2, &v3) {
		observability.DefaultMetrics.TokensPruned.WithLabelValues(string(task.Stage)).Inc()
		p.logger.Printf("[stage] pruning %s after %s (v2=%d v3=%d honeypot=%v)",
			token.Mint, task.Stage, v2.Score, v3.Score, snap.Honeypot)
		return nil
	}

	return p.scheduleNext(ctx, token, task, flags, nowMs)
}

// flagCopycat marks tokens whose symbol was registered repeatedly in the
// recent window. Advisory only; the compound-risk gate decides what it
// means alongside other flags.
func (p *Pool) flagCopycat(ctx context.Context, token *domain.Token, task *domain.EnrichmentTask) {
	if token.Symbol == "" {
		return
	}
	since := p.now().Add(-copycatWindow).UnixMilli()
	n, err := p.tokens.CountBySymbol(ctx, token.Symbol, since)
	if err != nil {
		p.logger.Printf("[stage] copycat check for %s failed: %v", token.Mint, err)
		return
	}
	if n >= copycatCount {
		task.AddFlag(domain.FlagCopycatSymbol)
	}
}

// scoreBoth runs both scoring variants on identical input and reports
// their divergence.
func (p *Pool) scoreBoth(mint string, snap *domain.TokenSnapshot, flags []domain.RiskFlag, prev *domain.TokenSnapshot) (domain.ScoreResult, domain.ScoreResult) {
	hist := &scoring.History{PrevSnapshot: prev}
	v2 := p.scorerV2.Score(snap, flags, hist)
	v3 := p.scorerV3.Score(snap, flags, hist)

	observability.RecordScore(v2.Variant, float64(v2.Score), v2.Capped)
	observability.RecordScore(v3.Variant, float64(v3.Score), v3.Capped)

	if p.comparator != nil {
		if _, diverged := p.comparator.Compare(mint, v2, v3); diverged {
			observability.DefaultMetrics.ScoreDivergences.Inc()
		}
	}
	return v2, v3
}

// persistDecision upserts the standing signal decision and notifies.
// UpdatedAt is stamped here and travels with the write; the decay sweep
// measures staleness from it.
func (p *Pool) persistDecision(ctx context.Context, token *domain.Token, eval signal.Evaluation, nowMs int64) error {
	decision := &domain.SignalDecision{
		Mint:       token.Mint,
		Status:     domain.StatusForAction(eval.Action),
		NetScore:   eval.NetScore,
		Fired:      eval.Fired,
		GateReason: eval.GateReason,
		CreatedAt:  nowMs,
		UpdatedAt:  nowMs,
	}

	if err := p.signals.Upsert(ctx, decision); err != nil {
		return fmt.Errorf("persist decision: %w", err)
	}

	observability.RecordSignal(string(eval.Action))
	if eval.GateReason != "" {
		observability.DefaultMetrics.GateRejections.WithLabelValues(gateLabel(eval.GateReason)).Inc()
	}

	p.notifier.OnSignal(ctx, token.Ref(), decision)
	return nil
}

// scheduleNext enqueues the successor stage, carrying forward accumulated
// flags. The final stage has no successor and ends the lifecycle.
func (p *Pool) scheduleNext(ctx context.Context, token *domain.Token, task *domain.EnrichmentTask, flags []domain.RiskFlag, completedAtMs int64) error {
	next, err := p.registry.NextSpec(task.Stage)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}

	nt := &domain.EnrichmentTask{
		Token:    token.Ref(),
		Stage:    next.Stage,
		DueAt:    next.Due(token.FirstSeenAt, completedAtMs),
		Priority: domain.PriorityNormal,
		Flags:    flags,
	}

	if err := p.queue.Enqueue(ctx, nt, true); err != nil {
		return fmt.Errorf("enqueue %s: %w", nt.Key(), err)
	}
	observability.RecordTaskEnqueued(string(next.Stage))
	return nil
}

// gateLabel reduces a gate reason to its stable prefix for metric labels.
func gateLabel(reason string) string {
	for i := 0; i < len(reason); i++ {
		if reason[i] == ':' {
			return reason[:i]
		}
	}
	return reason
}
