package scoring

import (
	"testing"

	"solana-token-radar/internal/config"
	"solana-token-radar/internal/domain"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int64) *int64     { return &v }

func testEngine(variant string) *Engine {
	weights := config.Default().Scoring.V2Weights
	if variant == "v3" {
		weights = config.Default().Scoring.V3Weights
	}
	return New(variant, weights, 4, 40)
}

// fullSnapshot populates every core metric with strong values.
func fullSnapshot() *domain.TokenSnapshot {
	return &domain.TokenSnapshot{
		Mint:         "mintA",
		Stage:        domain.StageMid,
		CapturedAt:   1000,
		PriceUSD:     fptr(0.5),
		LiquidityUSD: fptr(100_000),
		HolderCount:  iptr(1_000),
		VolumeUSD5m:  fptr(25_000),
		TopHolderPct: fptr(0.05),
		SupplyRaw:    fptr(1e9),

		HolderVelocity: fptr(20),
		Concentration:  fptr(0.1),
	}
}

func TestScore_RangeBounded(t *testing.T) {
	e := testEngine("v2")

	res := e.Score(fullSnapshot(), nil, &History{})
	if res.Score < 0 || res.Score > 100 {
		t.Fatalf("Score out of range: %d", res.Score)
	}
	if res.Score < 80 {
		t.Errorf("Strong metrics should score high, got %d", res.Score)
	}
	if res.Capped || res.Disqualified {
		t.Errorf("Full snapshot must not be capped or disqualified: %+v", res)
	}
	if res.CoreMetrics != domain.CoreMetricCount {
		t.Errorf("Expected %d core metrics, got %d", domain.CoreMetricCount, res.CoreMetrics)
	}
}

func TestScore_EmptySnapshotScoresZero(t *testing.T) {
	e := testEngine("v2")

	res := e.Score(&domain.TokenSnapshot{Mint: "mintA"}, nil, &History{})
	if res.Score != 0 {
		t.Errorf("Empty snapshot should score 0, got %d", res.Score)
	}
}

func TestScore_HoneypotDisqualifies(t *testing.T) {
	for _, variant := range []string{"v2", "v3"} {
		e := testEngine(variant)
		snap := fullSnapshot()
		snap.Honeypot = true

		res := e.Score(snap, nil, &History{})
		if !res.Disqualified || res.Score != 0 {
			t.Errorf("%s: honeypot must disqualify to 0, got %+v", variant, res)
		}
		if res.Disqualifier != "honeypot" {
			t.Errorf("%s: expected honeypot disqualifier, got %q", variant, res.Disqualifier)
		}
	}
}

func TestScore_FrozenSellPathDisqualifies(t *testing.T) {
	e := testEngine("v2")
	snap := fullSnapshot()
	snap.SellSimFailed = true
	snap.FreezeAuthority = true

	res := e.Score(snap, nil, &History{})
	if !res.Disqualified || res.Disqualifier != "frozen_sell_path" {
		t.Errorf("Failed sell sim plus freeze authority must disqualify, got %+v", res)
	}

	// Either condition alone is not a disqualifier.
	snap = fullSnapshot()
	snap.SellSimFailed = true
	if res := e.Score(snap, nil, &History{}); res.Disqualified {
		t.Error("Sell sim failure alone must not disqualify")
	}
}

func TestScore_CompletenessCapAppliesToSparseSnapshot(t *testing.T) {
	e := testEngine("v2")

	// Only three of six core metrics present, but all look excellent.
	snap := &domain.TokenSnapshot{
		Mint:         "mintA",
		LiquidityUSD: fptr(500_000),
		HolderCount:  iptr(10_000),
		VolumeUSD5m:  fptr(100_000),
		Concentration: fptr(0.05),
	}

	res := e.Score(snap, nil, &History{})
	if res.CoreMetrics != 3 {
		t.Fatalf("Expected 3 core metrics, got %d", res.CoreMetrics)
	}
	if !res.Capped {
		t.Fatal("Sparse snapshot scoring above the cap must be capped")
	}
	if res.Score != 40 {
		t.Errorf("Expected capped score 40, got %d", res.Score)
	}
}

func TestScore_NoCapWhenScoreAlreadyLow(t *testing.T) {
	e := testEngine("v2")

	// Sparse AND weak: the raw score is under the cap, no capping flag.
	snap := &domain.TokenSnapshot{
		Mint:         "mintA",
		LiquidityUSD: fptr(500),
	}

	res := e.Score(snap, nil, &History{})
	if res.Capped {
		t.Errorf("Cap must not fire when the score is already below it, got %+v", res)
	}
	if res.Score > 40 {
		t.Errorf("Weak sparse snapshot scored implausibly high: %d", res.Score)
	}
}

func TestScore_VariantsShareDisqualifyContract(t *testing.T) {
	snap := fullSnapshot()
	snap.Honeypot = true

	v2 := testEngine("v2").Score(snap, nil, &History{})
	v3 := testEngine("v3").Score(snap, nil, &History{})

	if v2.Score != v3.Score || v2.Disqualified != v3.Disqualified {
		t.Errorf("Variants must agree on disqualification: v2=%+v v3=%+v", v2, v3)
	}
}

func TestScore_SecurityPenalties(t *testing.T) {
	e := testEngine("v2")

	clean := e.Score(fullSnapshot(), nil, &History{})

	risky := fullSnapshot()
	risky.MintAuthority = true
	risky.LPUnlocked = true
	withRisk := e.Score(risky, nil, &History{})

	if withRisk.Score >= clean.Score {
		t.Errorf("Security penalties must lower the score: clean=%d risky=%d", clean.Score, withRisk.Score)
	}
}

func TestScore_DeterministicForIdenticalInput(t *testing.T) {
	e := testEngine("v3")
	snap := fullSnapshot()

	a := e.Score(snap, nil, &History{})
	b := e.Score(snap, nil, &History{})
	if a.Score != b.Score {
		t.Errorf("Scoring must be deterministic: %d vs %d", a.Score, b.Score)
	}
}
