package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/cragrank/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWindow(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new window", t, func() {
		var d dedupe.Deduper = dedupe.NewWindow()

		Convey("When a submission is seen for the first time", func() {
			seen := d.SeenAndRecord(ctx, "sub-1")

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And when it is replayed", func() {
				again := d.SeenAndRecord(ctx, "sub-1")

				Convey("Then the replay is detected", func() {
					So(again, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And when it is unrecorded", func() {
				d.Unrecord(ctx, "sub-1")

				Convey("Then it can be submitted again", func() {
					So(d.Size(), ShouldEqual, 0)
					So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
				})
			})
		})

		Convey("When an unknown id is unrecorded", func() {
			d.Unrecord(ctx, "ghost")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a window of three ids", t, func() {
		d := dedupe.NewWindow(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
		}

		Convey("Then the oldest id is forgotten first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "sub-4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "sub-2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded window", t, func() {
		d := dedupe.NewWindow(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 1000)
			So(d.SeenAndRecord(ctx, "sub-0"), ShouldBeTrue)
		})
	})

	Convey("Given concurrent submitters replaying the same ids", t, func() {
		d := dedupe.NewWindow()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is fresh exactly once", func() {
			So(fresh, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
