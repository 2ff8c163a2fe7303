package orderedset_test

import (
	"fmt"
	"testing"

	"github.com/okian/meritor/internal/domain/orderedset"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSet(t *testing.T) {
	Convey("Given a new set", t, func() {
		s := orderedset.New()

		Convey("When it is empty", func() {
			Convey("Then it should contain nothing", func() {
				So(s.Len(), ShouldEqual, 0)
				So(s.Contains("alice"), ShouldBeFalse)
				So(s.Values(), ShouldBeEmpty)
			})
		})

		Convey("When values are added", func() {
			So(s.Add("alice"), ShouldBeTrue)
			So(s.Add("charlie"), ShouldBeTrue)
			So(s.Add("bob"), ShouldBeTrue)

			Convey("Then membership should reflect the additions", func() {
				So(s.Len(), ShouldEqual, 3)
				So(s.Contains("alice"), ShouldBeTrue)
				So(s.Contains("bob"), ShouldBeTrue)
				So(s.Contains("mallory"), ShouldBeFalse)
			})

			Convey("Then iteration should preserve insertion order", func() {
				So(s.Values(), ShouldResemble, []string{"alice", "charlie", "bob"})
			})

			Convey("And a duplicate add should be a no-op", func() {
				So(s.Add("charlie"), ShouldBeFalse)
				So(s.Len(), ShouldEqual, 3)
				So(s.Values(), ShouldResemble, []string{"alice", "charlie", "bob"})
			})
		})

		Convey("When Values is mutated by the caller", func() {
			s.Add("alice")
			vals := s.Values()
			vals[0] = "evil"

			Convey("Then the set should be unaffected", func() {
				So(s.Values(), ShouldResemble, []string{"alice"})
			})
		})

		Convey("When many values are added", func() {
			for i := 0; i < 1000; i++ {
				s.Add(fmt.Sprintf("acct-%04d", i))
			}

			Convey("Then order and membership should hold", func() {
				So(s.Len(), ShouldEqual, 1000)
				So(s.Values()[0], ShouldEqual, "acct-0000")
				So(s.Values()[999], ShouldEqual, "acct-0999")
				So(s.Contains("acct-0500"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a nil set", t, func() {
		var s *orderedset.Set

		Convey("Then read operations should be total", func() {
			So(s.Len(), ShouldEqual, 0)
			So(s.Contains("x"), ShouldBeFalse)
			So(s.Values(), ShouldBeEmpty)
		})
	})
}
