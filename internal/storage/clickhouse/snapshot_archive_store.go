package clickhouse

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
)

// SnapshotArchiveStore appends fused snapshots to ClickHouse for offline
// analysis and scoring calibration. Write path is best-effort: the worker
// treats archive failures as non-fatal.
type SnapshotArchiveStore struct {
	conn *Conn
}

// NewSnapshotArchiveStore creates a new SnapshotArchiveStore.
func NewSnapshotArchiveStore(conn *Conn) *SnapshotArchiveStore {
	return &SnapshotArchiveStore{conn: conn}
}

// InsertBulk appends snapshots in a single batch.
func (s *SnapshotArchiveStore) InsertBulk(ctx context.Context, snaps []*domain.TokenSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO snapshot_archive (
			mint, stage, captured_at,
			price_usd, liquidity_usd, holder_count, volume_usd_5m, top_holder_pct, supply_raw,
			holder_velocity, concentration,
			honeypot, mint_authority, freeze_authority, lp_unlocked, sell_sim_failed,
			flags, sources_queried, sources_failed
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snaps {
		err = batch.Append(
			snap.Mint, string(snap.Stage), uint64(snap.CapturedAt),
			snap.PriceUSD, snap.LiquidityUSD, snap.HolderCount,
			snap.VolumeUSD5m, snap.TopHolderPct, snap.SupplyRaw,
			snap.HolderVelocity, snap.Concentration,
			snap.Honeypot, snap.MintAuthority, snap.FreezeAuthority,
			snap.LPUnlocked, snap.SellSimFailed,
			archiveFlags(snap.Flags), snap.SourcesQueried, snap.SourcesFailed,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Insert appends a single snapshot.
func (s *SnapshotArchiveStore) Insert(ctx context.Context, snap *domain.TokenSnapshot) error {
	return s.InsertBulk(ctx, []*domain.TokenSnapshot{snap})
}

// GetByMint retrieves archived snapshots for a mint, ordered by capture time ASC.
func (s *SnapshotArchiveStore) GetByMint(ctx context.Context, mint string) ([]*domain.TokenSnapshot, error) {
	query := `
		SELECT mint, stage, captured_at,
		       price_usd, liquidity_usd, holder_count, volume_usd_5m, top_holder_pct, supply_raw,
		       holder_velocity, concentration,
		       honeypot, mint_authority, freeze_authority, lp_unlocked, sell_sim_failed,
		       flags, sources_queried, sources_failed
		FROM snapshot_archive
		WHERE mint = ?
		ORDER BY captured_at ASC
	`

	rows, err := s.conn.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("query archive by mint: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.TokenSnapshot
	for rows.Next() {
		var snap domain.TokenSnapshot
		var stageStr string
		var capturedAt uint64
		var flags []string
		err := rows.Scan(
			&snap.Mint, &stageStr, &capturedAt,
			&snap.PriceUSD, &snap.LiquidityUSD, &snap.HolderCount,
			&snap.VolumeUSD5m, &snap.TopHolderPct, &snap.SupplyRaw,
			&snap.HolderVelocity, &snap.Concentration,
			&snap.Honeypot, &snap.MintAuthority, &snap.FreezeAuthority,
			&snap.LPUnlocked, &snap.SellSimFailed,
			&flags, &snap.SourcesQueried, &snap.SourcesFailed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		snap.Stage = domain.Stage(stageStr)
		snap.CapturedAt = int64(capturedAt)
		for _, f := range flags {
			snap.Flags = append(snap.Flags, domain.RiskFlag(f))
		}
		snaps = append(snaps, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive rows: %w", err)
	}
	return snaps, nil
}

func archiveFlags(flags []domain.RiskFlag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}
