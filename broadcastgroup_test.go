package qpersist

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBroadcastGroup(t *testing.T) {
	Convey("Given a broadcast group", t, func() {
		group := NewBroadcastGroup("test-group")

		Reset(func() {
			group.Close()
		})

		Convey("All subscribers should receive messages", func() {
			sub1 := group.Subscribe("one", 1)
			sub2 := group.Subscribe("two", 1)

			group.Send(Progress{Completed: 1, Total: 4, Elapsed: time.Second})

			for _, ch := range []chan Progress{sub1, sub2} {
				select {
				case <-time.After(testTimeout):
					t.Fatal("timed out waiting for subscriber")
				case msg := <-ch:
					So(msg.Completed, ShouldEqual, 1)
					So(msg.Fraction(), ShouldEqual, 0.25)
				}
			}
			So(group.Metrics().MessagesSent, ShouldEqual, int64(2))
		})

		Convey("A full subscriber should be skipped, not waited for", func() {
			sub := group.Subscribe("slow", 1)
			group.Send(Progress{Completed: 1, Total: 2})
			group.Send(Progress{Completed: 2, Total: 2})

			So(group.Metrics().MessagesDropped, ShouldEqual, int64(1))
			So((<-sub).Completed, ShouldEqual, 1)
		})

		Convey("Subscribing twice should return the same channel", func() {
			So(group.Subscribe("same", 1), ShouldEqual, group.Subscribe("same", 1))
			So(group.Metrics().ActiveSubscribers, ShouldEqual, 1)
		})

		Convey("Unsubscribing should close the channel", func() {
			sub := group.Subscribe("leaving", 1)
			group.Unsubscribe("leaving")

			_, open := <-sub
			So(open, ShouldBeFalse)
			So(group.Metrics().ActiveSubscribers, ShouldEqual, 0)
		})

		Convey("Closing should end every subscription", func() {
			sub := group.Subscribe("last", 1)
			group.Close()
			group.Send(Progress{Completed: 1, Total: 1})

			_, open := <-sub
			So(open, ShouldBeFalse)

			_, open = <-group.Subscribe("late", 1)
			So(open, ShouldBeFalse)
		})
	})

	Convey("Given an empty progress total", t, func() {
		Convey("The fraction should read as complete", func() {
			So(Progress{}.Fraction(), ShouldEqual, 1.0)
		})
	})
}
