package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]map[domain.Stage]*domain.TokenSnapshot // mint -> stage -> snapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{data: make(map[string]map[domain.Stage]*domain.TokenSnapshot)}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert adds a snapshot. Returns ErrDuplicateKey if (mint, stage) exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.TokenSnapshot) error {
	if snap == nil || snap.Mint == "" || !snap.Stage.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byStage, ok := s.data[snap.Mint]
	if !ok {
		byStage = make(map[domain.Stage]*domain.TokenSnapshot)
		s.data[snap.Mint] = byStage
	}
	if _, exists := byStage[snap.Stage]; exists {
		return storage.ErrDuplicateKey
	}

	byStage[snap.Stage] = copySnapshot(snap)
	return nil
}

// GetByMintStage retrieves one snapshot.
func (s *SnapshotStore) GetByMintStage(_ context.Context, mint string, stage domain.Stage) (*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[mint][stage]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(snap), nil
}

// GetLatest retrieves the most recent snapshot for a mint.
func (s *SnapshotStore) GetLatest(_ context.Context, mint string) (*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.TokenSnapshot
	for _, snap := range s.data[mint] {
		if latest == nil || snap.CapturedAt > latest.CapturedAt {
			latest = snap
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(latest), nil
}

// GetByMint retrieves all snapshots for a mint, ordered by capture time ASC.
func (s *SnapshotStore) GetByMint(_ context.Context, mint string) ([]*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snaps []*domain.TokenSnapshot
	for _, snap := range s.data[mint] {
		snaps = append(snaps, copySnapshot(snap))
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CapturedAt < snaps[j].CapturedAt
	})
	return snaps, nil
}

// copySnapshot deep-copies slices so callers cannot mutate stored data.
func copySnapshot(s *domain.TokenSnapshot) *domain.TokenSnapshot {
	c := *s
	c.Flags = append([]domain.RiskFlag(nil), s.Flags...)
	c.SourcesQueried = append([]string(nil), s.SourcesQueried...)
	c.SourcesFailed = append([]string(nil), s.SourcesFailed...)
	return &c
}
