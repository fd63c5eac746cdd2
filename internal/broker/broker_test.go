package broker_test

import (
	"testing"
	"time"

	"github.com/okian/vigil/internal/broker"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPublishSubscribe(t *testing.T) {
	Convey("Given a broker with two subscribers", t, func() {
		b := broker.New()
		ch1, cancel1 := b.Subscribe()
		ch2, cancel2 := b.Subscribe()
		defer cancel1()
		defer cancel2()

		Convey("When publishing an event", func() {
			b.Publish(broker.Event{Type: broker.EventCandidateUpdate, Payload: "s-1"})

			Convey("Then both subscribers receive it", func() {
				So((<-ch1).Type, ShouldEqual, broker.EventCandidateUpdate)
				So((<-ch2).Type, ShouldEqual, broker.EventCandidateUpdate)
			})
		})

		Convey("When a subscriber cancels", func() {
			cancel2()

			Convey("Then only the remaining one is counted and served", func() {
				So(b.Subscribers(), ShouldEqual, 1)
				b.Publish(broker.Event{Type: broker.EventSessionEnded})
				So((<-ch1).Type, ShouldEqual, broker.EventSessionEnded)
				_, open := <-ch2
				So(open, ShouldBeFalse)
			})
		})

		Convey("Cancel is safe to call twice", func() {
			cancel1()
			So(cancel1, ShouldNotPanic)
		})
	})
}

func TestSlowSubscriberNeverBlocks(t *testing.T) {
	Convey("Given a subscriber with a tiny buffer that never drains", t, func() {
		b := broker.New(broker.WithSubscriberBuffer(1))
		_, cancel := b.Subscribe()
		defer cancel()

		Convey("When publishing far more events than the buffer holds", func() {
			done := make(chan struct{})
			go func() {
				for i := 0; i < 1000; i++ {
					b.Publish(broker.Event{Type: broker.EventHighRiskAlert, Payload: i})
				}
				close(done)
			}()

			Convey("Then publishing completes promptly, dropping the overflow", func() {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					So("publish blocked on a slow subscriber", ShouldBeEmpty)
				}
			})
		})
	})
}

func TestClose(t *testing.T) {
	Convey("Given a closed broker", t, func() {
		b := broker.New()
		ch, _ := b.Subscribe()
		b.Close()

		Convey("Then subscriber channels are closed", func() {
			_, open := <-ch
			So(open, ShouldBeFalse)
		})

		Convey("And publish and subscribe become no-ops", func() {
			So(func() { b.Publish(broker.Event{Type: broker.EventCandidateUpdate}) }, ShouldNotPanic)
			late, cancel := b.Subscribe()
			defer cancel()
			_, open := <-late
			So(open, ShouldBeFalse)
		})
	})
}
