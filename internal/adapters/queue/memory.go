package queue

import (
	"context"
	"sync"

	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
)

// MemoryQueue is an in-process buffered job queue. Jobs pushed before
// Close are still handed out by Pop; after that Pop reports ErrQueueClosed.
type MemoryQueue struct {
	jobs chan domain.NotificationJob
	done chan struct{}
	once sync.Once
}

// NewMemoryQueue creates a queue holding up to buffer jobs
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer < 1 {
		buffer = 1
	}
	return &MemoryQueue{
		jobs: make(chan domain.NotificationJob, buffer),
		done: make(chan struct{}),
	}
}

// Push blocks while the buffer is full
func (q *MemoryQueue) Push(ctx context.Context, job domain.NotificationJob) error {
	select {
	case <-q.done:
		return services.ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- job:
		return nil
	case <-q.done:
		return services.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Pop(ctx context.Context) (domain.NotificationJob, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return domain.NotificationJob{}, ctx.Err()
	case <-q.done:
		select {
		case job := <-q.jobs:
			return job, nil
		default:
			return domain.NotificationJob{}, services.ErrQueueClosed
		}
	}
}

func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

// Len reports the number of buffered jobs
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}
