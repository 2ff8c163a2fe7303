package scoring_test

import (
	"testing"
	"time"

	"github.com/okian/meritor/internal/domain/model"
	scoring "github.com/okian/meritor/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func TestTimeDecay(t *testing.T) {
	Convey("Given an evidence timestamp", t, func() {
		last := epoch

		Convey("When the evidence is fresh", func() {
			So(scoring.TimeDecay(last, last), ShouldEqual, 100)
			So(scoring.TimeDecay(last, last.Add(days(29))), ShouldEqual, 100)
			So(scoring.TimeDecay(last, last.Add(days(30)-time.Second)), ShouldEqual, 100)
		})

		Convey("When the evidence is between 30 and 60 days old", func() {
			Convey("Then the 30-day boundary belongs to the middle bucket", func() {
				So(scoring.TimeDecay(last, last.Add(days(30))), ShouldEqual, 75)
			})
			So(scoring.TimeDecay(last, last.Add(days(45))), ShouldEqual, 75)
			So(scoring.TimeDecay(last, last.Add(days(60)-time.Second)), ShouldEqual, 75)
		})

		Convey("When the evidence is 60 days old or older", func() {
			Convey("Then the 60-day boundary belongs to the stale bucket", func() {
				So(scoring.TimeDecay(last, last.Add(days(60))), ShouldEqual, 50)
			})
			So(scoring.TimeDecay(last, last.Add(days(365))), ShouldEqual, 50)
			So(scoring.TimeDecay(last, last.Add(days(10000))), ShouldEqual, 50)
		})
	})
}

func TestChallengeScore(t *testing.T) {
	Convey("Given challenge evidence", t, func() {
		Convey("When there are no attempts", func() {
			So(scoring.ChallengeScore(model.ExpertiseRecord{}, epoch), ShouldEqual, 0)
		})

		Convey("When the last activity postdates the query instant", func() {
			rec := model.ExpertiseRecord{
				TotalChallenges:   10,
				CorrectChallenges: 7,
				LastActivityTime:  epoch.Add(time.Hour),
			}

			Convey("Then future evidence must not leak into the result", func() {
				So(scoring.ChallengeScore(rec, epoch), ShouldEqual, 0)
			})
		})

		Convey("When an account has 7 correct out of 10 recent attempts", func() {
			rec := model.ExpertiseRecord{
				TotalChallenges:   10,
				CorrectChallenges: 7,
				LastActivityTime:  epoch,
			}

			Convey("Then accuracy contributes 700 on the 0-1000 scale", func() {
				// (700*70 + 30*30) / 100 = 499 at full weight
				So(scoring.ChallengeScore(rec, epoch), ShouldEqual, 499)
			})

			Convey("And the middle decay bucket takes 75%", func() {
				So(scoring.ChallengeScore(rec, epoch.Add(days(45))), ShouldEqual, 374)
			})

			Convey("And the stale bucket takes 50%", func() {
				So(scoring.ChallengeScore(rec, epoch.Add(days(90))), ShouldEqual, 249)
			})
		})

		Convey("When the attempt volume is very high", func() {
			rec := model.ExpertiseRecord{
				TotalChallenges:   1_000_000,
				CorrectChallenges: 900_000,
				LastActivityTime:  epoch,
			}

			Convey("Then the volume bonus is capped at 200", func() {
				// accuracy 900; (900*70 + 200*30) / 100 = 690
				So(scoring.ChallengeScore(rec, epoch), ShouldEqual, 690)
			})
		})

		Convey("When accuracy is terrible and evidence is stale", func() {
			rec := model.ExpertiseRecord{
				TotalChallenges:   100,
				CorrectChallenges: 1,
				LastActivityTime:  epoch,
			}

			Convey("Then the floor clamp applies", func() {
				So(scoring.ChallengeScore(rec, epoch.Add(days(90))), ShouldEqual, 50)
			})
		})

		Convey("When the account is perfect with huge volume", func() {
			rec := model.ExpertiseRecord{
				TotalChallenges:   400,
				CorrectChallenges: 400,
				LastActivityTime:  epoch,
			}

			Convey("Then the ceiling clamp holds the score at 1000", func() {
				// (1000*70 + 200*30) / 100 = 760; never above MaxScore anyway
				So(scoring.ChallengeScore(rec, epoch), ShouldEqual, 760)
				So(scoring.ChallengeScore(rec, epoch), ShouldBeLessThanOrEqualTo, scoring.MaxScore)
			})
		})
	})
}

func TestPeerRatingScore(t *testing.T) {
	Convey("Given a rating aggregate", t, func() {
		Convey("When nobody has rated", func() {
			So(scoring.PeerRatingScore(model.AggregateRating{}, epoch), ShouldEqual, 0)
		})

		Convey("When two raters average 700 recently", func() {
			agg := model.AggregateRating{
				AverageScore:   700,
				TotalRatings:   2,
				LastRatingTime: epoch,
			}

			Convey("Then the blend of average and volume bonus applies", func() {
				// (700*80 + 100*20) / 100 = 580
				So(scoring.PeerRatingScore(agg, epoch), ShouldEqual, 580)
			})

			Convey("And decay reduces stale aggregates", func() {
				So(scoring.PeerRatingScore(agg, epoch.Add(days(45))), ShouldEqual, 435)
				So(scoring.PeerRatingScore(agg, epoch.Add(days(90))), ShouldEqual, 290)
			})
		})

		Convey("When a crowd of 100 raters scores a perfect 1000", func() {
			agg := model.AggregateRating{
				AverageScore:   1000,
				TotalRatings:   100,
				LastRatingTime: epoch,
			}

			Convey("Then the ceiling is reachable through ratings alone", func() {
				// bonus capped at 1000; (1000*80 + 1000*20) / 100 = 1000
				So(scoring.PeerRatingScore(agg, epoch), ShouldEqual, 1000)
			})
		})

		Convey("When the rating volume is extreme", func() {
			agg := model.AggregateRating{
				AverageScore:   500,
				TotalRatings:   1_000_000,
				LastRatingTime: epoch,
			}

			Convey("Then the volume bonus stays capped", func() {
				// (500*80 + 1000*20) / 100 = 600
				So(scoring.PeerRatingScore(agg, epoch), ShouldEqual, 600)
			})
		})
	})
}

func TestExpertiseScore(t *testing.T) {
	Convey("Given both evidence paths", t, func() {
		Convey("When there is no evidence at all", func() {
			Convey("Then the floor score applies", func() {
				got := scoring.ExpertiseScore(model.ExpertiseRecord{}, model.AggregateRating{}, epoch)
				So(got, ShouldEqual, scoring.FloorScore)
			})
		})

		Convey("When only challenge evidence exists", func() {
			rec := model.ExpertiseRecord{
				TotalChallenges:   10,
				CorrectChallenges: 7,
				LastActivityTime:  epoch,
			}

			Convey("Then the challenge path passes through unchanged", func() {
				got := scoring.ExpertiseScore(rec, model.AggregateRating{}, epoch)
				So(got, ShouldEqual, 499)
			})
		})

		Convey("When only peer evidence exists", func() {
			agg := model.AggregateRating{
				AverageScore:   700,
				TotalRatings:   2,
				LastRatingTime: epoch,
			}

			Convey("Then the peer path passes through unchanged", func() {
				got := scoring.ExpertiseScore(model.ExpertiseRecord{}, agg, epoch)
				So(got, ShouldEqual, 580)
			})
		})

		Convey("When both paths carry evidence", func() {
			rec := model.ExpertiseRecord{
				TotalChallenges:   10,
				CorrectChallenges: 7,
				LastActivityTime:  epoch,
			}
			agg := model.AggregateRating{
				AverageScore:   700,
				TotalRatings:   2,
				LastRatingTime: epoch,
			}

			Convey("Then the stronger single path wins over the blend", func() {
				// challenge 499, peer 580, blend (499*60+580*40)/100 = 531
				got := scoring.ExpertiseScore(rec, agg, epoch)
				So(got, ShouldEqual, 580)
			})
		})

		Convey("When one path alone hits the ceiling", func() {
			agg := model.AggregateRating{
				AverageScore:   1000,
				TotalRatings:   100,
				LastRatingTime: epoch,
			}
			rec := model.ExpertiseRecord{
				TotalChallenges:   100,
				CorrectChallenges: 10,
				LastActivityTime:  epoch,
			}

			Convey("Then a weak second path must not drag the result down", func() {
				got := scoring.ExpertiseScore(rec, agg, epoch)
				So(got, ShouldEqual, 1000)
			})
		})
	})
}

func TestPreviewScore(t *testing.T) {
	Convey("Given a preview of one additional challenge attempt", t, func() {
		Convey("When the account has no history and would answer correctly", func() {
			got := scoring.PreviewScore(model.ExpertiseRecord{}, model.AggregateRating{}, true, epoch)

			Convey("Then the hypothetical attempt carries full weight", func() {
				// accuracy 1000, bonus 10: (1000*70 + 10*30) / 100 = 703
				So(got, ShouldEqual, 703)
			})
		})

		Convey("When the account has no history and would answer incorrectly", func() {
			got := scoring.PreviewScore(model.ExpertiseRecord{}, model.AggregateRating{}, false, epoch)

			Convey("Then the result clamps to the floor", func() {
				So(got, ShouldEqual, scoring.FloorScore)
			})
		})

		Convey("When the account already has 7 of 10 correct", func() {
			rec := model.ExpertiseRecord{
				TotalChallenges:   10,
				CorrectChallenges: 7,
				LastActivityTime:  epoch.Add(-days(90)),
			}

			Convey("Then a correct answer lifts the accuracy and resets decay", func() {
				// 8/11: accuracy 727, bonus 30: (727*70 + 30*30) / 100 = 517
				So(scoring.PreviewChallengeScore(rec, true), ShouldEqual, 517)
			})

			Convey("And an incorrect answer lowers it", func() {
				// 7/11: accuracy 636, bonus 30: (636*70 + 30*30) / 100 = 454
				So(scoring.PreviewChallengeScore(rec, false), ShouldEqual, 454)
			})

			Convey("And the preview never mutates the record", func() {
				_ = scoring.PreviewScore(rec, model.AggregateRating{}, true, epoch)
				So(rec.TotalChallenges, ShouldEqual, 10)
				So(rec.CorrectChallenges, ShouldEqual, 7)
			})
		})

		Convey("When peer evidence exists alongside the preview", func() {
			agg := model.AggregateRating{
				AverageScore:   900,
				TotalRatings:   4,
				LastRatingTime: epoch,
			}
			got := scoring.PreviewScore(model.ExpertiseRecord{}, agg, false, epoch)

			Convey("Then the peer path can still dominate", func() {
				// peer: (900*80 + 200*20) / 100 = 760; challenge preview clamps to 50
				// blend (50*60 + 760*40) / 100 = 334; max -> 760
				So(got, ShouldEqual, 760)
			})
		})
	})
}
