package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/meritor/internal/adapters/notify"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBus(t *testing.T) {
	ctx := context.Background()

	Convey("Given a notification bus", t, func() {
		bus := notify.NewBus()

		Convey("When two subscribers are attached", func() {
			a := bus.Subscribe()
			b := bus.Subscribe()
			So(bus.SubscriberCount(), ShouldEqual, 2)

			Convey("Then a publish reaches both", func() {
				bus.Publish(ctx, notify.Event{
					Kind:    notify.KindRatingSubmitted,
					Account: "bob",
					Topic:   "zk",
					Rater:   "alice",
					New:     800,
				})

				got := <-a
				So(got.Kind, ShouldEqual, notify.KindRatingSubmitted)
				So(got.Rater, ShouldEqual, "alice")
				So(got.New, ShouldEqual, 800)
				So((<-b).Account, ShouldEqual, "bob")
			})

			Convey("And closing the bus closes both channels", func() {
				So(bus.Close(), ShouldBeNil)
				_, open := <-a
				So(open, ShouldBeFalse)
				_, open = <-b
				So(open, ShouldBeFalse)
				So(bus.SubscriberCount(), ShouldEqual, 0)
			})
		})

		Convey("When a subscriber's buffer is full", func() {
			small := notify.NewBus(notify.WithBuffer(1))
			ch := small.Subscribe()
			small.Publish(ctx, notify.Event{Kind: notify.KindScoreRecalculated})
			small.Publish(ctx, notify.Event{Kind: notify.KindAggregateUpdated})

			Convey("Then the overflow is dropped, not blocked on", func() {
				got := <-ch
				So(got.Kind, ShouldEqual, notify.KindScoreRecalculated)
				select {
				case e := <-ch:
					So(e, ShouldResemble, notify.Event{})
				case <-time.After(10 * time.Millisecond):
				}
			})
		})

		Convey("When publishing after close", func() {
			So(bus.Close(), ShouldBeNil)
			So(func() {
				bus.Publish(ctx, notify.Event{Kind: notify.KindRatingUpdated})
			}, ShouldNotPanic)
		})

		Convey("When subscribing after close", func() {
			So(bus.Close(), ShouldBeNil)
			ch := bus.Subscribe()
			_, open := <-ch
			So(open, ShouldBeFalse)
		})

		Convey("When closing twice", func() {
			So(bus.Close(), ShouldBeNil)
			So(bus.Close(), ShouldBeNil)
		})
	})
}
