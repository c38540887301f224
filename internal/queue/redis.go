// internal/queue/redis.go
package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/r1olo/ase-project/internal/models"
)

// Redis is a Coordinator over a Redis sorted set, for deployments running
// more than one API instance. The waiting set is scored by an INCR-derived
// arrival sequence so ordering survives clock skew between instances, and
// the pop-two runs under a redsync mutex so concurrent TryPair calls never
// claim overlapping entries.
type Redis struct {
	client *redis.Client
	locker *redsync.Redsync
	prefix string
}

// NewRedis builds a Redis-backed coordinator. prefix namespaces every key,
// e.g. "matchq".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "matchq"
	}
	pool := goredis.NewPool(client)
	return &Redis{
		client: client,
		locker: redsync.New(pool),
		prefix: prefix,
	}
}

func (q *Redis) waitingKey() string { return q.prefix + ":waiting" }
func (q *Redis) seqKey() string     { return q.prefix + ":seq" }
func (q *Redis) matchedKey() string { return q.prefix + ":matched" }
func (q *Redis) lockKey() string    { return q.prefix + ":pair_lock" }

func (q *Redis) Enqueue(ctx context.Context, playerID uuid.UUID) (uuid.UUID, error) {
	seq, err := q.client.Incr(ctx, q.seqKey()).Result()
	if err != nil {
		return uuid.Nil, fmt.Errorf("allocate queue sequence: %w", err)
	}

	added, err := q.client.ZAddNX(ctx, q.waitingKey(), redis.Z{
		Score:  float64(seq),
		Member: playerID.String(),
	}).Result()
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue player: %w", err)
	}
	if added == 0 {
		return uuid.Nil, ErrAlreadyQueued
	}

	// A fresh enqueue supersedes any stale MATCHED record from a prior game.
	if err := q.client.HDel(ctx, q.matchedKey(), playerID.String()).Err(); err != nil {
		return uuid.Nil, fmt.Errorf("clear stale matched record: %w", err)
	}
	return uuid.New(), nil
}

func (q *Redis) Dequeue(ctx context.Context, playerID uuid.UUID) error {
	// The same mutex as TryPair, so a remove can never interleave with a
	// pop-two that already claimed this entry.
	mutex := q.locker.NewMutex(q.lockKey())
	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("acquire pair lock: %w", err)
	}
	defer func() { _, _ = mutex.UnlockContext(ctx) }()

	removed, err := q.client.ZRem(ctx, q.waitingKey(), playerID.String()).Result()
	if err != nil {
		return fmt.Errorf("dequeue player: %w", err)
	}
	if removed == 0 {
		return ErrNotQueued
	}
	return nil
}

func (q *Redis) TryPair(ctx context.Context) (uuid.UUID, uuid.UUID, bool, error) {
	mutex := q.locker.NewMutex(q.lockKey())
	if err := mutex.LockContext(ctx); err != nil {
		return uuid.Nil, uuid.Nil, false, fmt.Errorf("acquire pair lock: %w", err)
	}
	defer func() { _, _ = mutex.UnlockContext(ctx) }()

	size, err := q.client.ZCard(ctx, q.waitingKey()).Result()
	if err != nil {
		return uuid.Nil, uuid.Nil, false, fmt.Errorf("inspect queue: %w", err)
	}
	if size < 2 {
		return uuid.Nil, uuid.Nil, false, nil
	}

	popped, err := q.client.ZPopMin(ctx, q.waitingKey(), 2).Result()
	if err != nil {
		return uuid.Nil, uuid.Nil, false, fmt.Errorf("pop waiting pair: %w", err)
	}
	if len(popped) < 2 {
		return uuid.Nil, uuid.Nil, false, nil
	}

	a, err := uuid.Parse(fmt.Sprint(popped[0].Member))
	if err != nil {
		return uuid.Nil, uuid.Nil, false, fmt.Errorf("parse queued player id: %w", err)
	}
	b, err := uuid.Parse(fmt.Sprint(popped[1].Member))
	if err != nil {
		return uuid.Nil, uuid.Nil, false, fmt.Errorf("parse queued player id: %w", err)
	}
	return a, b, true, nil
}

func (q *Redis) Status(ctx context.Context, playerID uuid.UUID) (models.QueueStatusResult, error) {
	_, err := q.client.ZScore(ctx, q.waitingKey(), playerID.String()).Result()
	if err == nil {
		return models.QueueStatusResult{Status: models.QueueWaiting}, nil
	}
	if !errors.Is(err, redis.Nil) {
		return models.QueueStatusResult{}, fmt.Errorf("inspect queue: %w", err)
	}

	raw, err := q.client.HGet(ctx, q.matchedKey(), playerID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.QueueStatusResult{Status: models.QueueUnknown}, nil
		}
		return models.QueueStatusResult{}, fmt.Errorf("inspect matched set: %w", err)
	}
	matchID, err := uuid.Parse(raw)
	if err != nil {
		return models.QueueStatusResult{}, fmt.Errorf("parse recorded match id: %w", err)
	}
	return models.QueueStatusResult{Status: models.QueueMatched, MatchID: matchID}, nil
}

func (q *Redis) RecordMatched(ctx context.Context, a, b, matchID uuid.UUID) error {
	err := q.client.HSet(ctx, q.matchedKey(),
		a.String(), matchID.String(),
		b.String(), matchID.String(),
	).Err()
	if err != nil {
		return fmt.Errorf("record matched players: %w", err)
	}
	return nil
}
