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

func TestSignalStore_UpsertAndGetByMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewSignalStore(pool)
	ctx := context.Background()

	decision := &domain.SignalDecision{
		Mint:     "MintSig1",
		Status:   domain.StatusBuy,
		NetScore: 17.5,
		Fired: []domain.FiredRule{
			{Name: "liquidity_depth", Weight: 8},
			{Name: "holder_growth", Weight: 10},
			{Name: "stale_momentum", Weight: -4},
		},
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000000000,
	}
	require.NoError(t, store.Upsert(ctx, decision))

	got, err := store.GetByMint(ctx, "MintSig1")
	require.NoError(t, err)

	assert.Equal(t, decision.Mint, got.Mint)
	assert.Equal(t, decision.Status, got.Status)
	assert.Equal(t, decision.NetScore, got.NetScore)
	assert.Equal(t, decision.Fired, got.Fired)
	assert.Empty(t, got.GateReason)
	assert.Equal(t, decision.CreatedAt, got.CreatedAt)
	assert.Equal(t, decision.UpdatedAt, got.UpdatedAt)
}

func TestSignalStore_UpsertPreservesCreatedAt(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewSignalStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &domain.SignalDecision{
		Mint:      "MintSig2",
		Status:    domain.StatusWatch,
		NetScore:  6,
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000000000,
	}))

	// Re-evaluation updates everything except the creation timestamp.
	require.NoError(t, store.Upsert(ctx, &domain.SignalDecision{
		Mint:       "MintSig2",
		Status:     domain.StatusAvoid,
		NetScore:   -3,
		GateReason: "compound_risk: 3 flags",
		CreatedAt:  1700000999999,
		UpdatedAt:  1700000500000,
	}))

	got, err := store.GetByMint(ctx, "MintSig2")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), got.CreatedAt)
	assert.Equal(t, int64(1700000500000), got.UpdatedAt)
	assert.Equal(t, domain.StatusAvoid, got.Status)
	assert.Equal(t, float64(-3), got.NetScore)
	assert.Equal(t, "compound_risk: 3 flags", got.GateReason)
}

func TestSignalStore_GetByMintNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewSignalStore(pool)

	_, err := store.GetByMint(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSignalStore_MarkStatusConditional(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewSignalStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &domain.SignalDecision{
		Mint:      "MintSig3",
		Status:    domain.StatusStrongBuy,
		NetScore:  26,
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000000000,
	}))

	// Mismatched expected status: the write must not land.
	moved, err := store.MarkStatus(ctx, "MintSig3", domain.StatusBuy, domain.StatusWatch, 1700000100000)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = store.MarkStatus(ctx, "MintSig3", domain.StatusStrongBuy, domain.StatusBuy, 1700000100000)
	require.NoError(t, err)
	assert.True(t, moved)

	got, err := store.GetByMint(ctx, "MintSig3")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBuy, got.Status)
	assert.Equal(t, int64(1700000100000), got.UpdatedAt)

	moved, err = store.MarkStatus(ctx, "missing", domain.StatusBuy, domain.StatusWatch, 1700000100000)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestSignalStore_ListActiveOlderThan(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewSignalStore(pool)
	ctx := context.Background()

	seed := func(mint string, status domain.SignalStatus, updatedAt int64) {
		require.NoError(t, store.Upsert(ctx, &domain.SignalDecision{
			Mint:      mint,
			Status:    status,
			CreatedAt: updatedAt,
			UpdatedAt: updatedAt,
		}))
	}
	seed("MintOld", domain.StatusStrongBuy, 1000)
	seed("MintOlder", domain.StatusWatch, 500)
	seed("MintFresh", domain.StatusBuy, 9000)
	seed("MintExpired", domain.StatusExpired, 100)
	seed("MintAvoided", domain.StatusAvoid, 100)

	out, err := store.ListActiveOlderThan(ctx, 5000)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Oldest first.
	assert.Equal(t, "MintOlder", out[0].Mint)
	assert.Equal(t, "MintOld", out[1].Mint)
}
