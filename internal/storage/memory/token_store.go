package memory

import (
	"context"
	"strings"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Token // keyed by mint
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{data: make(map[string]*domain.Token)}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a new token. Returns ErrDuplicateKey if the mint exists.
func (s *TokenStore) Insert(_ context.Context, t *domain.Token) error {
	if t == nil || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Mint]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	tokenCopy := *t
	s.data[t.Mint] = &tokenCopy
	return nil
}

// GetByMint retrieves a token by mint. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(_ context.Context, mint string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// UpdateMetadata backfills symbol and name.
func (s *TokenStore) UpdateMetadata(_ context.Context, mint, symbol, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[mint]
	if !exists {
		return storage.ErrNotFound
	}
	t.Symbol = symbol
	t.Name = name
	return nil
}

// CountBySymbol counts tokens with the given symbol registered since the cutoff.
func (s *TokenStore) CountBySymbol(_ context.Context, symbol string, sinceMs int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.data {
		if strings.EqualFold(t.Symbol, symbol) && t.RegisteredAt >= sinceMs {
			count++
		}
	}
	return count, nil
}
