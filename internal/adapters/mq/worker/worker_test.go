package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/cragrank/internal/adapters/mq/queue"
	worker "github.com/okian/cragrank/internal/adapters/mq/worker"
	logging "github.com/okian/cragrank/pkg/logger"
)

// recorder collects processed submissions per partition key.
type recorder struct {
	mu   sync.Mutex
	seen map[string][]string
	fail map[string]error
}

func newRecorder() *recorder {
	return &recorder{seen: make(map[string][]string), fail: make(map[string]error)}
}

func (r *recorder) Process(_ context.Context, e queue.Event) error { //nolint:gocritic // hugeParam
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[e.ID]; ok {
		return err
	}
	r.seen[e.PartitionKey] = append(r.seen[e.PartitionKey], e.ID)
	return nil
}

func (r *recorder) ids(key string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen[key]...)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker on a single partition", t, func() {
		_ = logging.Init()
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		rec := newRecorder()
		w := worker.NewInMemoryWorker(q, 0, rec, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When submissions arrive", func() {
			convey.So(q.Enqueue(ctx, queue.Event{ID: "a", PartitionKey: "k"}), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, queue.Event{ID: "b", PartitionKey: "k"}), convey.ShouldBeNil)

			convey.Convey("Then they are processed in order", func() {
				convey.So(eventually(func() bool { return len(rec.ids("k")) == 2 }), convey.ShouldBeTrue)
				convey.So(rec.ids("k"), convey.ShouldResemble, []string{"a", "b"})
				convey.So(w.Processed(), convey.ShouldEqual, int64(2))
			})
		})

		convey.Convey("When processing fails", func() {
			rec.mu.Lock()
			rec.fail["bad"] = errors.New("rejected")
			rec.mu.Unlock()
			convey.So(q.Enqueue(ctx, queue.Event{ID: "bad", PartitionKey: "k"}), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, queue.Event{ID: "good", PartitionKey: "k"}), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(eventually(func() bool { return len(rec.ids("k")) == 1 }), convey.ShouldBeTrue)
				convey.So(rec.ids("k"), convey.ShouldResemble, []string{"good"})
			})
		})

		convey.Convey("When the worker is shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it stops promptly", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a partitioned queue", t, func() {
		_ = logging.Init()
		const parts, categories, perCategory = 3, 6, 40
		q := queue.NewInMemoryQueue(queue.WithCapacity(categories*perCategory), queue.WithPartitions(parts))

		var mu sync.Mutex
		inFlight := make(map[string]bool)
		overlap := false
		seen := make(map[string][]int)
		p := worker.ProcessorFunc(func(_ context.Context, e queue.Event) error {
			mu.Lock()
			if inFlight[e.PartitionKey] {
				overlap = true
			}
			inFlight[e.PartitionKey] = true
			mu.Unlock()

			time.Sleep(50 * time.Microsecond)

			mu.Lock()
			inFlight[e.PartitionKey] = false
			var n int
			_, _ = fmt.Sscanf(e.ID, "%d", &n)
			seen[e.PartitionKey] = append(seen[e.PartitionKey], n)
			mu.Unlock()
			return nil
		})

		pool := worker.NewPool(q, p)
		convey.So(pool.Size(), convey.ShouldEqual, parts)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When many categories submit concurrently", func() {
			var wg sync.WaitGroup
			for c := 0; c < categories; c++ {
				wg.Add(1)
				go func(c int) {
					defer wg.Done()
					key := fmt.Sprintf("1/cat-%d:MIXED", c)
					for i := 0; i < perCategory; i++ {
						_ = q.Enqueue(ctx, queue.Event{ID: fmt.Sprint(i), PartitionKey: key})
					}
				}(c)
			}
			wg.Wait()
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then each category is handled by one writer in order", func() {
				convey.So(pool.Processed(), convey.ShouldEqual, int64(categories*perCategory))
				convey.So(overlap, convey.ShouldBeFalse)
				for _, ids := range seen {
					convey.So(ids, convey.ShouldHaveLength, perCategory)
					for i, n := range ids {
						convey.So(n, convey.ShouldEqual, i)
					}
				}
			})
		})
	})
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
