package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL. One row per
// mint; re-evaluation updates the row in place.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Upsert atomically creates or replaces the decision for a mint. The
// incoming UpdatedAt is written verbatim; CreatedAt survives updates.
func (s *SignalStore) Upsert(ctx context.Context, d *domain.SignalDecision) error {
	fired, err := json.Marshal(d.Fired)
	if err != nil {
		return fmt.Errorf("marshal fired rules: %w", err)
	}

	query := `
		INSERT INTO signal_decisions (
			mint, status, net_score, fired, gate_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (mint) DO UPDATE SET
			status      = EXCLUDED.status,
			net_score   = EXCLUDED.net_score,
			fired       = EXCLUDED.fired,
			gate_reason = EXCLUDED.gate_reason,
			updated_at  = EXCLUDED.updated_at
	`

	_, err = s.pool.Exec(ctx, query,
		d.Mint,
		string(d.Status),
		d.NetScore,
		fired,
		d.GateReason,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert signal decision: %w", err)
	}
	return nil
}

// GetByMint retrieves the decision for a mint. Returns ErrNotFound if the
// token was never evaluated.
func (s *SignalStore) GetByMint(ctx context.Context, mint string) (*domain.SignalDecision, error) {
	query := `
		SELECT mint, status, net_score, fired, gate_reason, created_at, updated_at
		FROM signal_decisions
		WHERE mint = $1
	`

	var d domain.SignalDecision
	var statusStr string
	var fired []byte
	err := s.pool.QueryRow(ctx, query, mint).Scan(
		&d.Mint,
		&statusStr,
		&d.NetScore,
		&fired,
		&d.GateReason,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal decision: %w", err)
	}

	d.Status = domain.SignalStatus(statusStr)
	if len(fired) > 0 {
		if err := json.Unmarshal(fired, &d.Fired); err != nil {
			return nil, fmt.Errorf("unmarshal fired rules: %w", err)
		}
	}
	return &d, nil
}

// ListActiveOlderThan returns active decisions whose UpdatedAt is at or
// before the cutoff.
func (s *SignalStore) ListActiveOlderThan(ctx context.Context, cutoffMs int64) ([]*domain.SignalDecision, error) {
	query := `
		SELECT mint, status, net_score, fired, gate_reason, created_at, updated_at
		FROM signal_decisions
		WHERE status IN ('strong_buy', 'buy', 'watch') AND updated_at <= $1
		ORDER BY updated_at ASC
	`

	rows, err := s.pool.Query(ctx, query, cutoffMs)
	if err != nil {
		return nil, fmt.Errorf("list active decisions: %w", err)
	}
	defer rows.Close()

	var out []*domain.SignalDecision
	for rows.Next() {
		var d domain.SignalDecision
		var statusStr string
		var fired []byte
		if err := rows.Scan(
			&d.Mint,
			&statusStr,
			&d.NetScore,
			&fired,
			&d.GateReason,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan signal decision: %w", err)
		}
		d.Status = domain.SignalStatus(statusStr)
		if len(fired) > 0 {
			if err := json.Unmarshal(fired, &d.Fired); err != nil {
				return nil, fmt.Errorf("unmarshal fired rules: %w", err)
			}
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal decisions: %w", err)
	}
	return out, nil
}

// MarkStatus conditionally moves a decision between statuses, stamping
// updated_at in the same statement. Returns false when the row is no longer
// in the from status.
func (s *SignalStore) MarkStatus(ctx context.Context, mint string, from, to domain.SignalStatus, updatedAtMs int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE signal_decisions SET status = $3, updated_at = $4 WHERE mint = $1 AND status = $2`,
		mint, string(from), string(to), updatedAtMs,
	)
	if err != nil {
		return false, fmt.Errorf("mark signal status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
