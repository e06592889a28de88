package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
	"solana-token-radar/internal/storage/postgres"
)

func TestSnapshotStore_InsertAndGetByMintStage(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewSnapshotStore(pool)
	ctx := context.Background()

	snap := &domain.TokenSnapshot{
		Mint:            "MintSnap1",
		Stage:           domain.StagePrescreen,
		CapturedAt:      1700000000000,
		PriceUSD:        ptr(0.0025),
		LiquidityUSD:    ptr(45_000.0),
		HolderCount:     ptr(int64(320)),
		VolumeUSD5m:     ptr(7_500.0),
		TopHolderPct:    ptr(0.12),
		SupplyRaw:       ptr(1e9),
		HolderVelocity:  ptr(12.5),
		Concentration:   ptr(0.35),
		MintAuthority:   true,
		Flags:           []domain.RiskFlag{domain.FlagMintableSupply},
		SourcesQueried:  []string{"mint_inspector", "sell_probe"},
		SourcesFailed:   []string{"sell_probe"},
	}

	require.NoError(t, store.Insert(ctx, snap))

	got, err := store.GetByMintStage(ctx, "MintSnap1", domain.StagePrescreen)
	require.NoError(t, err)

	assert.Equal(t, snap.Mint, got.Mint)
	assert.Equal(t, snap.Stage, got.Stage)
	assert.Equal(t, snap.CapturedAt, got.CapturedAt)
	assert.Equal(t, *snap.PriceUSD, *got.PriceUSD)
	assert.Equal(t, *snap.LiquidityUSD, *got.LiquidityUSD)
	assert.Equal(t, *snap.HolderCount, *got.HolderCount)
	assert.Equal(t, *snap.VolumeUSD5m, *got.VolumeUSD5m)
	assert.Equal(t, *snap.TopHolderPct, *got.TopHolderPct)
	assert.Equal(t, *snap.SupplyRaw, *got.SupplyRaw)
	assert.Equal(t, *snap.HolderVelocity, *got.HolderVelocity)
	assert.Equal(t, *snap.Concentration, *got.Concentration)
	assert.True(t, got.MintAuthority)
	assert.False(t, got.Honeypot)
	assert.Equal(t, snap.Flags, got.Flags)
	assert.Equal(t, snap.SourcesQueried, got.SourcesQueried)
	assert.Equal(t, snap.SourcesFailed, got.SourcesFailed)
}

func TestSnapshotStore_NullableMetrics(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewSnapshotStore(pool)
	ctx := context.Background()

	// A prescreen snapshot where most adapters failed: nil metrics must
	// round-trip as nil, not zero.
	snap := &domain.TokenSnapshot{
		Mint:        "MintSparse",
		Stage:       domain.StagePrescreen,
		CapturedAt:  1700000000000,
		HolderCount: ptr(int64(7)),
	}
	require.NoError(t, store.Insert(ctx, snap))

	got, err := store.GetByMintStage(ctx, "MintSparse", domain.StagePrescreen)
	require.NoError(t, err)

	assert.Nil(t, got.PriceUSD)
	assert.Nil(t, got.LiquidityUSD)
	assert.Nil(t, got.VolumeUSD5m)
	assert.Nil(t, got.HolderVelocity)
	require.NotNil(t, got.HolderCount)
	assert.Equal(t, int64(7), *got.HolderCount)
}

func TestSnapshotStore_AppendOnly(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewSnapshotStore(pool)
	ctx := context.Background()

	snap := &domain.TokenSnapshot{Mint: "MintAO", Stage: domain.StageInitial, CapturedAt: 1700000000000}
	require.NoError(t, store.Insert(ctx, snap))

	// Same (mint, stage) is rejected even with different content.
	dup := &domain.TokenSnapshot{Mint: "MintAO", Stage: domain.StageInitial, CapturedAt: 1700000005000}
	assert.ErrorIs(t, store.Insert(ctx, dup), storage.ErrDuplicateKey)

	// A different stage is a new row.
	require.NoError(t, store.Insert(ctx, &domain.TokenSnapshot{Mint: "MintAO", Stage: domain.StageEarly, CapturedAt: 1700000010000}))
}

func TestSnapshotStore_GetLatestAndGetByMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewSnapshotStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.TokenSnapshot{Mint: "MintHist", Stage: domain.StagePrescreen, CapturedAt: 1000}))
	require.NoError(t, store.Insert(ctx, &domain.TokenSnapshot{Mint: "MintHist", Stage: domain.StageInitial, CapturedAt: 3000}))
	require.NoError(t, store.Insert(ctx, &domain.TokenSnapshot{Mint: "MintHist", Stage: domain.StageEarly, CapturedAt: 2000}))

	latest, err := store.GetLatest(ctx, "MintHist")
	require.NoError(t, err)
	assert.Equal(t, domain.StageInitial, latest.Stage)

	all, err := store.GetByMint(ctx, "MintHist")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1000), all[0].CapturedAt)
	assert.Equal(t, int64(2000), all[1].CapturedAt)
	assert.Equal(t, int64(3000), all[2].CapturedAt)

	_, err = store.GetLatest(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
