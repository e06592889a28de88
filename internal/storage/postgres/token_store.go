package postgres

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a new token. Returns ErrDuplicateKey if the mint exists.
func (s *TokenStore) Insert(ctx context.Context, t *domain.Token) error {
	query := `
		INSERT INTO tokens (
			mint, chain, source, creator, symbol, name, created_at, first_seen_at, registered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Mint,
		t.Chain,
		string(t.Source),
		t.Creator,
		t.Symbol,
		t.Name,
		t.CreatedAt,
		t.FirstSeenAt,
		t.RegisteredAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByMint retrieves a token by mint. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(ctx context.Context, mint string) (*domain.Token, error) {
	query := `
		SELECT mint, chain, source, creator, symbol, name, created_at, first_seen_at, registered_at
		FROM tokens
		WHERE mint = $1
	`

	var t domain.Token
	var sourceStr string
	err := s.pool.QueryRow(ctx, query, mint).Scan(
		&t.Mint,
		&t.Chain,
		&sourceStr,
		&t.Creator,
		&t.Symbol,
		&t.Name,
		&t.CreatedAt,
		&t.FirstSeenAt,
		&t.RegisteredAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by mint: %w", err)
	}

	t.Source = domain.Source(sourceStr)
	return &t, nil
}

// UpdateMetadata backfills symbol and name.
func (s *TokenStore) UpdateMetadata(ctx context.Context, mint, symbol, name string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tokens SET symbol = $2, name = $3 WHERE mint = $1`,
		mint, symbol, name,
	)
	if err != nil {
		return fmt.Errorf("update token metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountBySymbol counts tokens with the given symbol registered since the cutoff.
func (s *TokenStore) CountBySymbol(ctx context.Context, symbol string, sinceMs int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tokens WHERE LOWER(symbol) = LOWER($1) AND registered_at >= $2`,
		symbol, sinceMs,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tokens by symbol: %w", err)
	}
	return count, nil
}
