package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of queued submissions across all partitions.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithPartitions sets the number of partitions. Submissions sharing a
// partition key always land in the same partition.
func WithPartitions(n int) Option {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.partitions = n
		}
	}
}
