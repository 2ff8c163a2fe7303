package model_test

import (
	"testing"
	"time"

	"github.com/okian/meritor/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAggregateRating_IsZero(t *testing.T) {
	Convey("Given aggregate ratings", t, func() {
		Convey("When the aggregate has no raters", func() {
			agg := model.AggregateRating{}

			Convey("Then it should be zero", func() {
				So(agg.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When the aggregate has at least one rater", func() {
			agg := model.AggregateRating{
				AverageScore:   700,
				TotalRatings:   2,
				LastRatingTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			}

			Convey("Then it should not be zero", func() {
				So(agg.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When only the average is zero", func() {
			agg := model.AggregateRating{TotalRatings: 1}

			Convey("Then it still carries evidence", func() {
				So(agg.IsZero(), ShouldBeFalse)
			})
		})
	})
}

func TestRatingKey(t *testing.T) {
	Convey("Given rating keys", t, func() {
		Convey("When two keys share ratee and topic", func() {
			a := model.RatingKey{Ratee: "bob", Topic: "solidity"}
			b := model.RatingKey{Ratee: "bob", Topic: "solidity"}

			Convey("Then they should be comparable as map keys", func() {
				So(a, ShouldResemble, b)
				m := map[model.RatingKey]int{a: 1}
				So(m[b], ShouldEqual, 1)
			})
		})

		Convey("When topics differ", func() {
			a := model.RatingKey{Ratee: "bob", Topic: "solidity"}
			b := model.RatingKey{Ratee: "bob", Topic: "zk"}

			Convey("Then the keys should differ", func() {
				So(a, ShouldNotResemble, b)
			})
		})
	})
}
