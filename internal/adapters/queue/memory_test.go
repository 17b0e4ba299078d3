package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/adapters/queue"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
)

func TestMemoryQueueFIFO(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue(4)

	require.NoError(t, q.Push(ctx, domain.NotificationJob{ID: "a"}))
	require.NoError(t, q.Push(ctx, domain.NotificationJob{ID: "b"}))
	assert.Equal(t, 2, q.Len())

	first, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", first.ID)

	second, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", second.ID)
}

func TestMemoryQueueDrainsAfterClose(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue(4)

	require.NoError(t, q.Push(ctx, domain.NotificationJob{ID: "a"}))
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Push(ctx, domain.NotificationJob{ID: "b"}), services.ErrQueueClosed)

	job, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", job.ID)

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, services.ErrQueueClosed)
}

func TestMemoryQueueRespectsContext(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	require.NoError(t, q.Push(context.Background(), domain.NotificationJob{ID: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Push(ctx, domain.NotificationJob{ID: "b"}), context.DeadlineExceeded)

	_, err := q.Pop(context.Background())
	require.NoError(t, err)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	_, err = q.Pop(ctx2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
