package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "queue:"

// RedisBroker stores each queue as a redis list: LPUSH to enqueue, BRPOP to
// consume, so producers and consumers may live in different processes.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Push(ctx context.Context, queue string, payload []byte) error {
	return b.rdb.LPush(ctx, redisKeyPrefix+queue, payload).Err()
}

func (b *RedisBroker) Pop(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	res, err := b.rdb.BRPop(ctx, timeout, redisKeyPrefix+queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return nil, ErrEmpty
	}
	return []byte(res[1]), nil
}

// Len reports the number of pending payloads in queue.
func (b *RedisBroker) Len(ctx context.Context, queue string) (int64, error) {
	return b.rdb.LLen(ctx, redisKeyPrefix+queue).Result()
}

// Close is a no-op: the redis client is owned by the cache.
func (b *RedisBroker) Close() error {
	return nil
}
