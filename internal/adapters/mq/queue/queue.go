// Package queue buffers judge submissions between the API and the workers.
//
// The queue is partitioned: every submission of one category goes to the
// same partition and each partition is drained by exactly one worker, so
// mutations of a category are applied in arrival order by a single writer.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/cragrank/internal/domain/attempt"
	"github.com/okian/cragrank/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10_000
	defaultPartitions    = 1
)

// Event is the payload flowing through the queue.
type Event = attempt.Submission

// Queue provides non-blocking enqueue and per-partition channel dequeue.
type Queue interface {
	// Enqueue routes e to its partition. It never blocks and returns
	// ErrFull or ErrClosed when the submission was not queued.
	Enqueue(ctx context.Context, e Event) error

	// Dequeue returns the channel of one partition. It is closed once the
	// queue is closed and drained, or ctx is done.
	Dequeue(ctx context.Context, partition int) <-chan Event

	// Partitions returns the number of partitions.
	Partitions() int

	// Len returns the number of queued submissions.
	Len(ctx context.Context) int

	// Capacity returns the total capacity.
	Capacity() int

	// Close stops accepting submissions. Queued ones are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue with one buffered channel per partition.
type InMemoryQueue struct {
	parts      []chan Event
	capacity   int
	partitions int
	size       atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		partitions: defaultPartitions,
	}
	for _, opt := range opts {
		opt(q)
	}

	q.parts = make([]chan Event, q.partitions)
	for i := range q.parts {
		q.parts[i] = make(chan Event, q.capacity)
	}

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// PartitionOf maps a partition key onto [0, n).
func PartitionOf(key string, n int) int {
	if n <= 1 {
		return 0
	}
	return int(xxhash.Sum64String(key) % uint64(n))
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return err
	}
	if q.size.Add(1) > int64(q.capacity) {
		q.size.Add(-1)
		metrics.RecordQueueRejected("capacity_exceeded")
		return ErrFull
	}

	select {
	case q.parts[PartitionOf(e.PartitionKey, q.partitions)] <- e:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(int(q.size.Load()))
		return nil
	default:
		q.size.Add(-1)
		metrics.RecordQueueRejected("partition_full")
		return ErrFull
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context, partition int) <-chan Event {
	out := make(chan Event)
	if partition < 0 || partition >= len(q.parts) {
		close(out)
		return out
	}
	in := q.parts[partition]
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- e:
					metrics.UpdateQueueSize(int(q.size.Add(-1)))
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Partitions implements Queue.
func (q *InMemoryQueue) Partitions() int { return q.partitions }

// Len implements Queue.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return int(q.size.Load())
}

// Capacity implements Queue.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close implements Queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	for _, p := range q.parts {
		close(p)
	}
	q.closed = true
	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
