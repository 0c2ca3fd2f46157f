package qpersist

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSpace(t *testing.T) {
	Convey("Given a result space", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		space := newSpace()

		Convey("When storing before awaiting", func() {
			space.Store("test-key", "test-value", nil)
			So(space.Pending(), ShouldEqual, 1)

			Convey("Value should be retrievable exactly once", func() {
				select {
				case <-ctx.Done():
					t.Fatal("timed out waiting for value retrieval")
				case value := <-space.Await("test-key"):
					So(value.Value, ShouldEqual, "test-value")
					So(value.Error, ShouldBeNil)
				}
				So(space.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When awaiting before storing", func() {
			first := space.Await("late-key")
			second := space.Await("late-key")
			space.Store("late-key", nil, errors.New("failed"))

			Convey("Every waiter should receive the result", func() {
				for _, ch := range []chan Result{first, second} {
					select {
					case <-ctx.Done():
						t.Fatal("timed out waiting for waiter")
					case value := <-ch:
						So(value.Error, ShouldNotBeNil)
					}
				}
				So(space.Pending(), ShouldEqual, 0)
			})
		})
	})
}
