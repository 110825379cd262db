package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/valuematrix/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRequestKey(t *testing.T) {
	Convey("Request keys are scoped to their session", t, func() {
		So(dedupe.RequestKey("s1", "retry-1"), ShouldEqual, "s1/retry-1")
		So(dedupe.RequestKey("s1", "k"), ShouldNotEqual, dedupe.RequestKey("s2", "k"))
	})
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new in-memory deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is new", func() {
			prior, seen, err := d.Reserve(ctx, "s1/a", 1)

			Convey("Then it is bound to the sequence", func() {
				So(err, ShouldBeNil)
				So(seen, ShouldBeFalse)
				So(prior, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key repeats with a later sequence", func() {
			_, _, _ = d.Reserve(ctx, "s1/a", 1)
			prior, seen, err := d.Reserve(ctx, "s1/a", 2)

			Convey("Then it reports the first binding", func() {
				So(err, ShouldBeNil)
				So(seen, ShouldBeTrue)
				So(prior, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is unrecorded", func() {
			_, _, _ = d.Reserve(ctx, "s1/a", 1)
			So(d.Unrecord(ctx, "s1/a"), ShouldBeNil)

			Convey("Then it can be bound again", func() {
				So(d.Size(), ShouldEqual, 0)
				prior, seen, _ := d.Reserve(ctx, "s1/a", 4)
				So(seen, ShouldBeFalse)
				So(prior, ShouldEqual, 4)
			})
		})

		Convey("When an unknown key is unrecorded", func() {
			So(d.Unrecord(ctx, "missing"), ShouldBeNil)
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a bounded deduper at capacity", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i, k := range []string{"a", "b", "c"} {
			_, seen, _ := d.Reserve(ctx, k, i+1)
			So(seen, ShouldBeFalse)
		}

		Convey("When another key arrives", func() {
			_, _, _ = d.Reserve(ctx, "d", 4)

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				for i, k := range []string{"b", "c", "d"} {
					prior, seen, _ := d.Reserve(ctx, k, 99)
					So(seen, ShouldBeTrue)
					So(prior, ShouldEqual, i+2)
				}
				_, seen, _ := d.Reserve(ctx, "a", 5)
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			_, _, _ = d.Reserve(ctx, fmt.Sprintf("k-%d", i), i)
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 1000)
			_, seen, _ := d.Reserve(ctx, "k-0", 1)
			So(seen, ShouldBeTrue)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given goroutines racing on the same keys", t, func() {
		d := dedupe.NewInMemoryDeduper()
		const workers = 10
		const keys = 100

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < keys; k++ {
					_, seen, _ := d.Reserve(context.Background(), dedupe.RequestKey("s", fmt.Sprint(k)), k)
					if !seen {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is bound exactly once", func() {
			So(fresh, ShouldEqual, keys)
			So(d.Size(), ShouldEqual, keys)
		})
	})
}
