package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
// Upsert and MarkStatus hold one lock, matching the single-operation
// atomicity of the Postgres implementation.
type SignalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SignalDecision // keyed by mint
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{data: make(map[string]*domain.SignalDecision)}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Upsert creates or updates the decision for a mint. CreatedAt is
// preserved on update; UpdatedAt always comes from the passed decision.
func (s *SignalStore) Upsert(_ context.Context, d *domain.SignalDecision) error {
	if d == nil || d.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyDecision(d)
	if existing, ok := s.data[d.Mint]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	s.data[d.Mint] = stored
	return nil
}

// GetByMint retrieves the decision for a mint.
func (s *SignalStore) GetByMint(_ context.Context, mint string) (*domain.SignalDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data[mint]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyDecision(d), nil
}

// ListActiveOlderThan returns active decisions with UpdatedAt <= cutoff.
func (s *SignalStore) ListActiveOlderThan(_ context.Context, cutoffMs int64) ([]*domain.SignalDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SignalDecision
	for _, d := range s.data {
		if d.Status.IsActive() && d.UpdatedAt <= cutoffMs {
			out = append(out, copyDecision(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt < out[j].UpdatedAt })
	return out, nil
}

// MarkStatus conditionally moves a decision between statuses, stamping
// UpdatedAt in the same operation.
func (s *SignalStore) MarkStatus(_ context.Context, mint string, from, to domain.SignalStatus, updatedAtMs int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.data[mint]
	if !ok || d.Status != from {
		return false, nil
	}
	d.Status = to
	d.UpdatedAt = updatedAtMs
	return true, nil
}

func copyDecision(d *domain.SignalDecision) *domain.SignalDecision {
	c := *d
	c.Fired = append([]domain.FiredRule(nil), d.Fired...)
	return &c
}
