// Package memq is an in-memory queue.Queue with the same claim semantics
// as the Redis implementation. Used by tests and -use-memory mode; it does
// not survive process restart.
package memq

import (
	"context"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/queue"
)

type pendingItem struct {
	task *domain.EnrichmentTask
	key  float64 // ordering key frozen at enqueue time
}

type claimedItem struct {
	task     *domain.EnrichmentTask
	deadline int64 // lease expiry (ms)
}

// Queue is an in-memory implementation of queue.Queue.
type Queue struct {
	mu      sync.Mutex
	pending map[string]*pendingItem // keyed by task.Key()
	claimed map[string]*claimedItem
	leaseMs int64
}

// New creates an in-memory queue with the given claim lease in milliseconds.
func New(leaseMs int64) *Queue {
	return &Queue{
		pending: make(map[string]*pendingItem),
		claimed: make(map[string]*claimedItem),
		leaseMs: leaseMs,
	}
}

// Compile-time interface check.
var _ queue.Queue = (*Queue)(nil)

// Enqueue adds or reschedules a task.
func (q *Queue) Enqueue(_ context.Context, task *domain.EnrichmentTask, allowUpdate bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	k := task.Key()
	if _, exists := q.pending[k]; exists && !allowUpdate {
		return queue.ErrDuplicateTask
	}

	// Store a copy to prevent external mutation
	taskCopy := *task
	taskCopy.Flags = append([]domain.RiskFlag(nil), task.Flags...)
	q.pending[k] = &pendingItem{
		task: &taskCopy,
		key:  queue.OrderKey(task.Priority, task.DueAt),
	}
	return nil
}

// ClaimNext removes and returns the due task with the lowest ordering key.
// A linear scan is fine here: the in-memory queue backs tests and small
// single-process runs only.
func (q *Queue) ClaimNext(_ context.Context, nowMs int64) (*domain.EnrichmentTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var bestKey string
	var bestOrder float64
	for k, item := range q.pending {
		if item.task.DueAt > nowMs {
			continue
		}
		if bestKey == "" || item.key < bestOrder {
			bestKey = k
			bestOrder = item.key
		}
	}
	if bestKey == "" {
		return nil, queue.ErrEmpty
	}

	item := q.pending[bestKey]
	delete(q.pending, bestKey)

	item.task.Attempt++
	q.claimed[bestKey] = &claimedItem{
		task:     item.task,
		deadline: nowMs + q.leaseMs,
	}

	taskCopy := *item.task
	taskCopy.Flags = append([]domain.RiskFlag(nil), item.task.Flags...)
	return &taskCopy, nil
}

// Ack discards a claimed task.
func (q *Queue) Ack(_ context.Context, task *domain.EnrichmentTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.claimed, task.Key())
	return nil
}

// ReleaseStaleClaims moves expired claims back to pending, due immediately.
func (q *Queue) ReleaseStaleClaims(_ context.Context, nowMs int64) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	released := 0
	for k, c := range q.claimed {
		if c.deadline > nowMs {
			continue
		}
		delete(q.claimed, k)
		c.task.DueAt = nowMs
		q.pending[k] = &pendingItem{
			task: c.task,
			key:  queue.OrderKey(c.task.Priority, nowMs),
		}
		released++
	}
	return released, nil
}

// Remove drops a pending task if present.
func (q *Queue) Remove(_ context.Context, mint string, stage domain.Stage) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.pending, mint+":"+string(stage))
	return nil
}

// Depth returns pending and claimed counts, for metrics and tests.
func (q *Queue) Depth() (pending, claimed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), len(q.claimed)
}
