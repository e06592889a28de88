package redisq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/queue"
)

// setupTestQueue starts a Redis container and returns a queue bound to it.
func setupTestQueue(t *testing.T, leaseMs int64) (*Queue, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	require.NoError(t, rdb.Ping(ctx).Err())

	q := NewWithClient(rdb, "test:queue", leaseMs)

	cleanup := func() {
		q.Close()
		_ = container.Terminate(ctx)
	}
	return q, cleanup
}

func task(mint string, stage domain.Stage, dueAt int64, prio domain.Priority) *domain.EnrichmentTask {
	return &domain.EnrichmentTask{
		Token:    domain.TokenRef{Mint: mint, Creator: "creator1", Symbol: "TKN"},
		Stage:    stage,
		DueAt:    dueAt,
		Priority: prio,
	}
}

func TestRedisQueue_ClaimOrdering(t *testing.T) {
	q, cleanup := setupTestQueue(t, 60_000)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, task("mintLow", domain.StageMid, 1000, domain.PriorityLow), false))
	require.NoError(t, q.Enqueue(ctx, task("mintNormB", domain.StageEarly, 3000, domain.PriorityNormal), false))
	require.NoError(t, q.Enqueue(ctx, task("mintNormA", domain.StageEarly, 2000, domain.PriorityNormal), false))
	require.NoError(t, q.Enqueue(ctx, task("mintHigh", domain.StagePrescreen, 5000, domain.PriorityHigh), false))

	wantOrder := []string{"mintHigh", "mintNormA", "mintNormB", "mintLow"}
	for _, want := range wantOrder {
		got, err := q.ClaimNext(ctx, 10_000)
		require.NoError(t, err)
		require.Equal(t, want, got.Token.Mint)
		require.NoError(t, q.Ack(ctx, got))
	}

	_, err := q.ClaimNext(ctx, 10_000)
	require.ErrorIs(t, err, queue.ErrEmpty)
}

func TestRedisQueue_NotDueTaskInvisible(t *testing.T) {
	q, cleanup := setupTestQueue(t, 60_000)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, task("mintA", domain.StageEarly, 5000, domain.PriorityNormal), false))

	_, err := q.ClaimNext(ctx, 4999)
	require.ErrorIs(t, err, queue.ErrEmpty)

	got, err := q.ClaimNext(ctx, 5000)
	require.NoError(t, err)
	require.Equal(t, "mintA", got.Token.Mint)
}

func TestRedisQueue_DuplicateRejectedUpdateAllowed(t *testing.T) {
	q, cleanup := setupTestQueue(t, 60_000)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, task("mintA", domain.StageEarly, 1000, domain.PriorityNormal), false))

	err := q.Enqueue(ctx, task("mintA", domain.StageEarly, 2000, domain.PriorityNormal), false)
	require.ErrorIs(t, err, queue.ErrDuplicateTask)

	require.NoError(t, q.Enqueue(ctx, task("mintA", domain.StageEarly, 9000, domain.PriorityNormal), true))

	_, err = q.ClaimNext(ctx, 5000)
	require.ErrorIs(t, err, queue.ErrEmpty, "reschedule must move the due time")

	got, err := q.ClaimNext(ctx, 9000)
	require.NoError(t, err)
	require.Equal(t, int64(9000), got.DueAt)
}

func TestRedisQueue_TaskRoundTrip(t *testing.T) {
	q, cleanup := setupTestQueue(t, 60_000)
	defer cleanup()
	ctx := context.Background()

	in := task("mintA", domain.StageInitial, 1000, domain.PriorityNormal)
	in.Flags = []domain.RiskFlag{domain.FlagRepeatCreator, domain.FlagCopycatSymbol}
	require.NoError(t, q.Enqueue(ctx, in, false))

	got, err := q.ClaimNext(ctx, 2000)
	require.NoError(t, err)
	require.Equal(t, in.Token, got.Token)
	require.Equal(t, in.Stage, got.Stage)
	require.Equal(t, in.Flags, got.Flags)
	require.Equal(t, 1, got.Attempt, "claim bumps the attempt counter")
}

func TestRedisQueue_StaleClaimRecovery(t *testing.T) {
	q, cleanup := setupTestQueue(t, 5_000)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, task("mintA", domain.StageEarly, 1000, domain.PriorityNormal), false))

	_, err := q.ClaimNext(ctx, 2000)
	require.NoError(t, err)

	// Lease runs to 7000; nothing moves before that.
	moved, err := q.ReleaseStaleClaims(ctx, 6999)
	require.NoError(t, err)
	require.Equal(t, 0, moved)

	moved, err = q.ReleaseStaleClaims(ctx, 7001)
	require.NoError(t, err)
	require.Equal(t, 1, moved)

	got, err := q.ClaimNext(ctx, 8000)
	require.NoError(t, err)
	require.Equal(t, "mintA", got.Token.Mint)
	require.Equal(t, 2, got.Attempt)
}

func TestRedisQueue_ConcurrentClaimExclusivity(t *testing.T) {
	q, cleanup := setupTestQueue(t, 60_000)
	defer cleanup()
	ctx := context.Background()

	const n = 30
	for i := 0; i < n; i++ {
		mint := "mint" + string(rune('A'+i%26)) + string(rune('0'+i/26))
		require.NoError(t, q.Enqueue(ctx, task(mint, domain.StageEarly, 1000, domain.PriorityNormal), false))
	}

	results := make(chan string, n*2)
	done := make(chan struct{})
	for w := 0; w < 6; w++ {
		go func() {
			for {
				got, err := q.ClaimNext(ctx, 10_000)
				if errors.Is(err, queue.ErrEmpty) {
					done <- struct{}{}
					return
				}
				if err != nil {
					t.Errorf("ClaimNext failed: %v", err)
					done <- struct{}{}
					return
				}
				results <- got.Token.Mint
			}
		}()
	}
	for w := 0; w < 6; w++ {
		<-done
	}
	close(results)

	claimed := make(map[string]int)
	for mint := range results {
		claimed[mint]++
	}
	require.Len(t, claimed, n)
	for mint, count := range claimed {
		require.Equal(t, 1, count, "task %s claimed more than once", mint)
	}
}

func TestRedisQueue_RemovePendingOnly(t *testing.T) {
	q, cleanup := setupTestQueue(t, 60_000)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, task("mintA", domain.StageEarly, 1000, domain.PriorityNormal), false))
	require.NoError(t, q.Remove(ctx, "mintA", domain.StageEarly))

	_, err := q.ClaimNext(ctx, 10_000)
	require.ErrorIs(t, err, queue.ErrEmpty)

	// Removing a claimed task is a no-op; the claimant still owns it.
	require.NoError(t, q.Enqueue(ctx, task("mintB", domain.StageEarly, 1000, domain.PriorityNormal), false))
	got, err := q.ClaimNext(ctx, 2000)
	require.NoError(t, err)
	require.NoError(t, q.Remove(ctx, "mintB", domain.StageEarly))
	require.NoError(t, q.Ack(ctx, got))
}
