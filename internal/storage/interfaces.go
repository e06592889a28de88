package storage

import (
	"context"

	"solana-token-radar/internal/domain"
)

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Insert adds a new token. Returns ErrDuplicateKey if the mint exists.
	Insert(ctx context.Context, t *domain.Token) error

	// GetByMint retrieves a token by mint. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.Token, error)

	// UpdateMetadata backfills symbol and name. The only permitted
	// mutation after creation.
	UpdateMetadata(ctx context.Context, mint, symbol, name string) error

	// CountBySymbol counts tokens registered with the given symbol since
	// the cutoff, for copycat-symbol detection.
	CountBySymbol(ctx context.Context, symbol string, sinceMs int64) (int, error)
}

// SnapshotStore provides access to token_snapshots storage. Append-only:
// one snapshot per (mint, stage), never mutated after write.
type SnapshotStore interface {
	// Insert adds a snapshot. Returns ErrDuplicateKey if (mint, stage) exists.
	Insert(ctx context.Context, s *domain.TokenSnapshot) error

	// GetByMintStage retrieves one snapshot. Returns ErrNotFound if not exists.
	GetByMintStage(ctx context.Context, mint string, stage domain.Stage) (*domain.TokenSnapshot, error)

	// GetLatest retrieves the most recent snapshot for a mint.
	// Returns ErrNotFound when the mint has no snapshots.
	GetLatest(ctx context.Context, mint string) (*domain.TokenSnapshot, error)

	// GetByMint retrieves all snapshots for a mint, ordered by capture time ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TokenSnapshot, error)
}

// SignalStore provides access to signal_decisions storage. One record per
// mint; at most one active decision per token at a time.
type SignalStore interface {
	// Upsert atomically creates the decision or updates the existing one
	// (status, score, fired rules, gate reason) in a single conditional
	// operation. The decision's UpdatedAt is written as part of the same
	// operation, never left to a framework timestamp.
	Upsert(ctx context.Context, d *domain.SignalDecision) error

	// GetByMint retrieves the decision for a mint. Returns ErrNotFound
	// if the token was never evaluated.
	GetByMint(ctx context.Context, mint string) (*domain.SignalDecision, error)

	// ListActiveOlderThan returns active decisions whose UpdatedAt is at
	// or before the cutoff, for the decay sweep.
	ListActiveOlderThan(ctx context.Context, cutoffMs int64) ([]*domain.SignalDecision, error)

	// MarkStatus conditionally moves a decision from one status to
	// another, stamping UpdatedAt in the same operation. Returns false
	// without error when the decision is no longer in the from status.
	MarkStatus(ctx context.Context, mint string, from, to domain.SignalStatus, updatedAtMs int64) (bool, error)
}
