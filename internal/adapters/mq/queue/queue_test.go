package queue_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/cragrank/internal/adapters/mq/queue"
)

func submission(id, key string) queue.Event {
	return queue.Event{ID: id, PartitionKey: key}
}

func TestInMemoryQueueBasics(t *testing.T) {
	convey.Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		convey.So(q.Len(ctx), convey.ShouldEqual, 0)
		convey.So(q.Capacity(), convey.ShouldEqual, 2)
		convey.So(q.Partitions(), convey.ShouldEqual, 1)

		convey.Convey("When two submissions are enqueued", func() {
			convey.So(q.Enqueue(ctx, submission("a", "1/open:MALE")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, submission("b", "1/open:MALE")), convey.ShouldBeNil)

			convey.Convey("Then a third is refused as full", func() {
				err := q.Enqueue(ctx, submission("c", "1/open:MALE"))
				convey.So(errors.Is(err, queue.ErrFull), convey.ShouldBeTrue)
				convey.So(q.Len(ctx), convey.ShouldEqual, 2)
			})

			convey.Convey("Then they are delivered in order", func() {
				ch := q.Dequeue(ctx, 0)
				convey.So((<-ch).ID, convey.ShouldEqual, "a")
				convey.So((<-ch).ID, convey.ShouldEqual, "b")
			})
		})

		convey.Convey("When the queue is closed", func() {
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)

			convey.Convey("Then enqueue fails and dequeue channels close", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(errors.Is(q.Enqueue(ctx, submission("x", "")), queue.ErrClosed), convey.ShouldBeTrue)
				_, ok := <-q.Dequeue(ctx, 0)
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			convey.Convey("Then enqueue reports it", func() {
				convey.So(errors.Is(q.Enqueue(cctx, submission("x", "")), context.Canceled), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an unknown partition is dequeued", func() {
			_, ok := <-q.Dequeue(ctx, 5)

			convey.Convey("Then the channel is closed", func() {
				convey.So(ok, convey.ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryQueuePartitioning(t *testing.T) {
	convey.Convey("Given a queue with four partitions", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000), queue.WithPartitions(4))

		convey.Convey("When one category submits many times", func() {
			key := "1/open:FEMALE"
			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(ctx, submission(fmt.Sprint(i), key)), convey.ShouldBeNil)
			}

			convey.Convey("Then every submission is in one partition, in order", func() {
				ch := q.Dequeue(ctx, queue.PartitionOf(key, 4))
				for i := 0; i < 50; i++ {
					convey.So((<-ch).ID, convey.ShouldEqual, fmt.Sprint(i))
				}
				convey.So(q.Len(ctx), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("Then routing is stable and in range", func() {
			for _, key := range []string{"", "a", "1/open:MALE", "2/youth:FEMALE"} {
				p := queue.PartitionOf(key, 4)
				convey.So(p, convey.ShouldBeBetweenOrEqual, 0, 3)
				convey.So(queue.PartitionOf(key, 4), convey.ShouldEqual, p)
			}
			convey.So(queue.PartitionOf("anything", 1), convey.ShouldEqual, 0)
		})
	})
}

func TestInMemoryQueueConcurrentProducers(t *testing.T) {
	convey.Convey("Given concurrent producers on several categories", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		const producers, perProducer, parts = 8, 100, 3
		q := queue.NewInMemoryQueue(queue.WithCapacity(producers*perProducer), queue.WithPartitions(parts))

		var wg sync.WaitGroup
		for p := 0; p < producers; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < perProducer; i++ {
					_ = q.Enqueue(ctx, submission(fmt.Sprintf("%d-%d", p, i), fmt.Sprintf("cat-%d", p)))
				}
			}(p)
		}
		wg.Wait()

		convey.Convey("Then draining every partition yields every submission", func() {
			convey.So(q.Len(ctx), convey.ShouldEqual, producers*perProducer)
			convey.So(q.Close(), convey.ShouldBeNil)

			total := 0
			for i := 0; i < parts; i++ {
				for range q.Dequeue(ctx, i) {
					total++
				}
			}
			convey.So(total, convey.ShouldEqual, producers*perProducer)
		})
	})
}
