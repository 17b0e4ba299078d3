package queue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"

	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/logger"
)

const popTimeout = time.Second

// RedisQueue keeps jobs in a Redis list so they survive restarts and can be
// shared by several instances. Producers LPUSH, workers BRPOP.
type RedisQueue struct {
	client *redis.Client
	key    string
	closed atomic.Bool
}

// NewRedisQueue connects to Redis and checks the connection
func NewRedisQueue(ctx context.Context, opts *redis.Options, key string) (*RedisQueue, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewRedisQueueWithClient(client, key), nil
}

// NewRedisQueueWithClient wraps an existing client
func NewRedisQueueWithClient(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, job domain.NotificationJob) error {
	if q.closed.Load() {
		return services.ErrQueueClosed
	}
	payload, err := sonic.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Pop polls with a short BRPOP timeout so Close is noticed promptly.
// Jobs left in the list after Close stay there for the next start.
func (q *RedisQueue) Pop(ctx context.Context) (domain.NotificationJob, error) {
	for {
		if q.closed.Load() {
			return domain.NotificationJob{}, services.ErrQueueClosed
		}

		res, err := q.client.BRPop(ctx, popTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return domain.NotificationJob{}, ctx.Err()
			}
			if q.closed.Load() {
				return domain.NotificationJob{}, services.ErrQueueClosed
			}
			return domain.NotificationJob{}, err
		}

		// res is [key, value]
		var job domain.NotificationJob
		if err := sonic.Unmarshal([]byte(res[1]), &job); err != nil {
			logger.GetLogger(ctx).WithError(err).Warn("⚠️ Dropping malformed notification job")
			continue
		}
		return job, nil
	}
}

// Close stops handing out jobs. The client stays open so workers can
// finish in-flight jobs; call Shutdown once they are done.
func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}

// Shutdown closes the queue and releases the Redis client
func (q *RedisQueue) Shutdown() error {
	q.closed.Store(true)
	if err := q.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

// Len reports the number of queued jobs
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
