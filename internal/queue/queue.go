// Package queue defines the durable priority queue that drives the
// enrichment scheduler: one pending task per (mint, stage), ordered by
// priority class then due time.
package queue

import (
	"context"
	"errors"

	"solana-token-radar/internal/domain"
)

// Queue errors.
var (
	// ErrEmpty is returned by ClaimNext when no task is due.
	ErrEmpty = errors.New("queue: no task due")

	// ErrDuplicateTask is returned by Enqueue when a task for the same
	// (mint, stage) is already pending and allowUpdate is false.
	ErrDuplicateTask = errors.New("queue: task already pending")
)

// Queue is a crash-recoverable priority queue of enrichment tasks.
//
// ClaimNext must be atomic across concurrent callers: a task is handed to
// at most one claimant. A claimed task is leased, not gone; if the claimant
// never acks, ReleaseStaleClaims returns it to pending after the lease
// expires, which is how work survives a worker crash.
type Queue interface {
	// Enqueue adds a task keyed by (mint, stage). With allowUpdate the
	// schedule of an existing pending task is updated in place instead of
	// creating a duplicate.
	Enqueue(ctx context.Context, task *domain.EnrichmentTask, allowUpdate bool) error

	// ClaimNext atomically removes and returns the highest-priority due
	// task, recording a claim lease. Returns ErrEmpty when nothing is due.
	ClaimNext(ctx context.Context, nowMs int64) (*domain.EnrichmentTask, error)

	// Ack acknowledges a claimed task as fully processed, discarding it.
	Ack(ctx context.Context, task *domain.EnrichmentTask) error

	// ReleaseStaleClaims returns tasks whose claim lease expired before
	// nowMs to the pending set, due immediately. Returns how many moved.
	ReleaseStaleClaims(ctx context.Context, nowMs int64) (int, error)

	// Remove drops a pending task, used when a token is pruned while a
	// follow-up stage is still scheduled.
	Remove(ctx context.Context, mint string, stage domain.Stage) error
}

// priorityBase spaces priority classes far enough apart that due times can
// never cross class boundaries. Ordering key = priority*priorityBase + dueMs.
//
// Within a class, tasks are strictly FIFO by due time. The key is
// deliberately NOT weighted by stage: under high discovery volume a
// stage-weighted key lets early-stage tasks perpetually outscore late-stage
// ones, and the pipeline silently stops progressing tokens past the first
// stage.
const priorityBase = 1e13

// OrderKey computes the queue ordering key for a task.
func OrderKey(priority domain.Priority, dueAtMs int64) float64 {
	return float64(priority)*priorityBase + float64(dueAtMs)
}
