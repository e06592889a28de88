// Package redisq implements queue.Queue on Redis sorted sets. Queue state
// lives entirely in Redis, so pending and claimed tasks survive process
// restarts, and the claim script makes claim-and-remove a single atomic
// operation across any number of concurrent workers.
package redisq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/queue"
)

// Key layout under the configured prefix.
const (
	pendingSuffix = ":pending" // ZSET member=mint:stage score=priority*base+dueMs
	claimedSuffix = ":claimed" // ZSET member=mint:stage score=lease deadline ms
	payloadSuffix = ":tasks"   // HASH field=mint:stage value=task JSON
)

// Queue is a Redis-backed implementation of queue.Queue.
type Queue struct {
	rdb     *redis.Client
	prefix  string
	leaseMs int64
}

// Options configures the Redis queue.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // default "radar:queue"
	LeaseMs  int64  // default 120000
}

// New creates a Redis queue and verifies connectivity.
func New(ctx context.Context, opts Options) (*Queue, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "radar:queue"
	}
	leaseMs := opts.LeaseMs
	if leaseMs == 0 {
		leaseMs = 120_000
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Queue{rdb: rdb, prefix: prefix, leaseMs: leaseMs}, nil
}

// NewWithClient wraps an existing client, for tests.
func NewWithClient(rdb *redis.Client, prefix string, leaseMs int64) *Queue {
	return &Queue{rdb: rdb, prefix: prefix, leaseMs: leaseMs}
}

// Compile-time interface check.
var _ queue.Queue = (*Queue)(nil)

// Close releases the underlying client.
func (q *Queue) Close() error {
	return q.rdb.Close()
}

// taskPayload is the wire form of a task in the payload hash. Field names
// are shared with the Lua scripts, which rewrite attempt and due_at.
type taskPayload struct {
	Mint     string            `json:"mint"`
	Creator  string            `json:"creator"`
	Symbol   string            `json:"symbol"`
	Stage    string            `json:"stage"`
	DueAt    int64             `json:"due_at"`
	Priority int               `json:"priority"`
	Flags    []domain.RiskFlag `json:"flags,omitempty"`
	Attempt  int               `json:"attempt"`
}

func encodeTask(t *domain.EnrichmentTask) ([]byte, error) {
	return json.Marshal(taskPayload{
		Mint:     t.Token.Mint,
		Creator:  t.Token.Creator,
		Symbol:   t.Token.Symbol,
		Stage:    string(t.Stage),
		DueAt:    t.DueAt,
		Priority: int(t.Priority),
		Flags:    t.Flags,
		Attempt:  t.Attempt,
	})
}

func decodeTask(data []byte) (*domain.EnrichmentTask, error) {
	var p taskPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode task payload: %w", err)
	}
	return &domain.EnrichmentTask{
		Token:    domain.TokenRef{Mint: p.Mint, Creator: p.Creator, Symbol: p.Symbol},
		Stage:    domain.Stage(p.Stage),
		DueAt:    p.DueAt,
		Priority: domain.Priority(p.Priority),
		Flags:    p.Flags,
		Attempt:  p.Attempt,
	}, nil
}

// enqueueScript adds a task unless one is already pending for the key.
// Returns 1 when written, 0 when rejected as a duplicate.
var enqueueScript = redis.NewScript(`
local existing = redis.call('ZSCORE', KEYS[1], ARGV[1])
if existing and ARGV[4] == '0' then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
return 1
`)

// claimScript scans priority classes in order and pops the first due task.
// Removing from pending, bumping the attempt counter, and recording the
// claim lease happen in one script execution, so concurrent workers can
// never claim the same task.
var claimScript = redis.NewScript(`
for p = 0, 2 do
  local lo = p * tonumber(ARGV[3])
  local hi = lo + tonumber(ARGV[1])
  local found = redis.call('ZRANGEBYSCORE', KEYS[1], lo, hi, 'LIMIT', 0, 1)
  if found[1] then
    local member = found[1]
    redis.call('ZREM', KEYS[1], member)
    local payload = redis.call('HGET', KEYS[2], member)
    if payload then
      local task = cjson.decode(payload)
      task['attempt'] = (task['attempt'] or 0) + 1
      payload = cjson.encode(task)
      redis.call('HSET', KEYS[2], member, payload)
    end
    redis.call('ZADD', KEYS[3], tonumber(ARGV[1]) + tonumber(ARGV[2]), member)
    return payload
  end
end
return false
`)

// releaseScript moves claims whose lease expired back to pending, due now.
var releaseScript = redis.NewScript(`
local stale = redis.call('ZRANGEBYSCORE', KEYS[3], '-inf', ARGV[1])
local moved = 0
for _, member in ipairs(stale) do
  redis.call('ZREM', KEYS[3], member)
  local payload = redis.call('HGET', KEYS[2], member)
  if payload then
    local task = cjson.decode(payload)
    local prio = tonumber(task['priority']) or 1
    task['due_at'] = tonumber(ARGV[1])
    redis.call('HSET', KEYS[2], member, cjson.encode(task))
    redis.call('ZADD', KEYS[1], prio * tonumber(ARGV[2]) + tonumber(ARGV[1]), member)
    moved = moved + 1
  end
end
return moved
`)

// removeScript drops a pending task and its payload. Claimed tasks are left
// alone; their claimant still owns them.
var removeScript = redis.NewScript(`
local removed = redis.call('ZREM', KEYS[1], ARGV[1])
if removed == 1 then
  redis.call('HDEL', KEYS[2], ARGV[1])
end
return removed
`)

func (q *Queue) keys() []string {
	return []string{q.prefix + pendingSuffix, q.prefix + payloadSuffix, q.prefix + claimedSuffix}
}

// Enqueue adds or reschedules a task.
func (q *Queue) Enqueue(ctx context.Context, task *domain.EnrichmentTask, allowUpdate bool) error {
	payload, err := encodeTask(task)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", task.Key(), err)
	}

	update := "0"
	if allowUpdate {
		update = "1"
	}

	res, err := enqueueScript.Run(ctx, q.rdb,
		[]string{q.prefix + pendingSuffix, q.prefix + payloadSuffix},
		task.Key(), queue.OrderKey(task.Priority, task.DueAt), string(payload), update,
	).Int()
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Key(), err)
	}
	if res == 0 {
		return queue.ErrDuplicateTask
	}
	return nil
}

// ClaimNext pops the highest-priority due task atomically.
func (q *Queue) ClaimNext(ctx context.Context, nowMs int64) (*domain.EnrichmentTask, error) {
	res, err := claimScript.Run(ctx, q.rdb, q.keys(), nowMs, q.leaseMs, int64(1e13)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, queue.ErrEmpty
		}
		return nil, fmt.Errorf("claim next: %w", err)
	}

	payload, ok := res.(string)
	if !ok {
		return nil, queue.ErrEmpty
	}
	return decodeTask([]byte(payload))
}

// Ack discards a claimed task and its payload.
func (q *Queue) Ack(ctx context.Context, task *domain.EnrichmentTask) error {
	pipe := q.rdb.TxPipeline()
	pipe.ZRem(ctx, q.prefix+claimedSuffix, task.Key())
	pipe.HDel(ctx, q.prefix+payloadSuffix, task.Key())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ack %s: %w", task.Key(), err)
	}
	return nil
}

// ReleaseStaleClaims returns expired claims to the pending set.
func (q *Queue) ReleaseStaleClaims(ctx context.Context, nowMs int64) (int, error) {
	moved, err := releaseScript.Run(ctx, q.rdb, q.keys(), nowMs, int64(1e13)).Int()
	if err != nil {
		return 0, fmt.Errorf("release stale claims: %w", err)
	}
	return moved, nil
}

// Remove drops a pending task if present.
func (q *Queue) Remove(ctx context.Context, mint string, stage domain.Stage) error {
	member := mint + ":" + string(stage)
	if err := removeScript.Run(ctx, q.rdb,
		[]string{q.prefix + pendingSuffix, q.prefix + payloadSuffix}, member,
	).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("remove %s: %w", member, err)
	}
	return nil
}

// Depth reports pending and claimed counts for metrics.
func (q *Queue) Depth(ctx context.Context) (pending, claimed int64, err error) {
	pending, err = q.rdb.ZCard(ctx, q.prefix+pendingSuffix).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("queue depth: %w", err)
	}
	claimed, err = q.rdb.ZCard(ctx, q.prefix+claimedSuffix).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("queue depth: %w", err)
	}
	return pending, claimed, nil
}
