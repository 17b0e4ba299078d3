package queue_test

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/adapters/queue"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
)

func TestRedisQueueShutdownReleasesClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	q := queue.NewRedisQueueWithClient(client, "libraryhub:test")
	ctx := context.Background()

	require.NoError(t, q.Shutdown())

	err := q.Push(ctx, domain.NotificationJob{Kind: "overdue"})
	assert.ErrorIs(t, err, services.ErrQueueClosed)

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, services.ErrQueueClosed)

	_, err = q.Len(ctx)
	assert.ErrorIs(t, err, redis.ErrClosed)

	// second shutdown is a no-op
	assert.NoError(t, q.Shutdown())
}

func TestRedisQueueCloseKeepsClientOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	q := queue.NewRedisQueueWithClient(client, "libraryhub:test")

	require.NoError(t, q.Close())

	_, err := q.Pop(context.Background())
	assert.ErrorIs(t, err, services.ErrQueueClosed)

	_, err = q.Len(context.Background())
	assert.NotErrorIs(t, err, redis.ErrClosed)
}
