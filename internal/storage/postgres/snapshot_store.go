package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Append-only: one row per (mint, stage).
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `
	mint, stage, captured_at,
	price_usd, liquidity_usd, holder_count, volume_usd_5m, top_holder_pct, supply_raw,
	holder_velocity, concentration,
	honeypot, mint_authority, freeze_authority, lp_unlocked, sell_sim_failed,
	flags, sources_queried, sources_failed
`

// Insert adds a snapshot. Returns ErrDuplicateKey if (mint, stage) exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.TokenSnapshot) error {
	query := `
		INSERT INTO token_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := s.pool.Exec(ctx, query,
		snap.Mint,
		string(snap.Stage),
		snap.CapturedAt,
		snap.PriceUSD,
		snap.LiquidityUSD,
		snap.HolderCount,
		snap.VolumeUSD5m,
		snap.TopHolderPct,
		snap.SupplyRaw,
		snap.HolderVelocity,
		snap.Concentration,
		snap.Honeypot,
		snap.MintAuthority,
		snap.FreezeAuthority,
		snap.LPUnlocked,
		snap.SellSimFailed,
		flagStrings(snap.Flags),
		snap.SourcesQueried,
		snap.SourcesFailed,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetByMintStage retrieves one snapshot. Returns ErrNotFound if not exists.
func (s *SnapshotStore) GetByMintStage(ctx context.Context, mint string, stage domain.Stage) (*domain.TokenSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM token_snapshots
		WHERE mint = $1 AND stage = $2
	`

	row := s.pool.QueryRow(ctx, query, mint, string(stage))
	snap, err := scanSnapshot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot by mint and stage: %w", err)
	}
	return snap, nil
}

// GetLatest retrieves the most recent snapshot for a mint.
func (s *SnapshotStore) GetLatest(ctx context.Context, mint string) (*domain.TokenSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM token_snapshots
		WHERE mint = $1
		ORDER BY captured_at DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, mint)
	snap, err := scanSnapshot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return snap, nil
}

// GetByMint retrieves all snapshots for a mint, ordered by capture time ASC.
func (s *SnapshotStore) GetByMint(ctx context.Context, mint string) ([]*domain.TokenSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM token_snapshots
		WHERE mint = $1
		ORDER BY captured_at ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by mint: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.TokenSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

func scanSnapshot(row pgx.Row) (*domain.TokenSnapshot, error) {
	var snap domain.TokenSnapshot
	var stageStr string
	var flags []string
	err := row.Scan(
		&snap.Mint,
		&stageStr,
		&snap.CapturedAt,
		&snap.PriceUSD,
		&snap.LiquidityUSD,
		&snap.HolderCount,
		&snap.VolumeUSD5m,
		&snap.TopHolderPct,
		&snap.SupplyRaw,
		&snap.HolderVelocity,
		&snap.Concentration,
		&snap.Honeypot,
		&snap.MintAuthority,
		&snap.FreezeAuthority,
		&snap.LPUnlocked,
		&snap.SellSimFailed,
		&flags,
		&snap.SourcesQueried,
		&snap.SourcesFailed,
	)
	if err != nil {
		return nil, err
	}
	snap.Stage = domain.Stage(stageStr)
	snap.Flags = flagValues(flags)
	return &snap, nil
}

func flagStrings(flags []domain.RiskFlag) []string {
	if flags == nil {
		return nil
	}
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}

func flagValues(raw []string) []domain.RiskFlag {
	if raw == nil {
		return nil
	}
	out := make([]domain.RiskFlag, len(raw))
	for i, s := range raw {
		out[i] = domain.RiskFlag(s)
	}
	return out
}
