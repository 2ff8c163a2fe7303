package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okian/meritor/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(metrics.WithPrometheusRegistry(reg))
		So(m, ShouldNotBeNil)

		Convey("Then the registry gathers its instruments", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			So(families, ShouldNotBeEmpty)
		})
	})

	Convey("Given the package-level helpers", t, func() {
		Convey("When recording a spread of observations", func() {
			So(func() {
				metrics.RecordRatingSubmitted()
				metrics.RecordRatingAmended()
				metrics.RecordRatingRejected("self_rating")
				metrics.RecordAggregateRecompute(1.5)
				metrics.UpdateLedgerEvents(3)
				metrics.UpdateLedgerKeys(2)
				metrics.RecordScoreRecalculation()
				metrics.RecordScoreChange()
				metrics.RecordChallengeAttempt(true)
				metrics.RecordVotingWeightRead()
				metrics.UpdateRecalcQueueSize(1)
				metrics.UpdateRecalcQueueCapacity(10)
				metrics.UpdateRecalcQueueUtilization(0.1)
				metrics.RecordRecalcEnqueued()
				metrics.RecordRecalcDropped()
				metrics.UpdateWorkerCount(4)
				metrics.RecordWorkerJobLatency(0.2)
				metrics.RecordWorkerError()
				metrics.RecordRankStoreUpdateLatency(0.1)
				metrics.RecordRankStoreQueryLatency(0.1)
				metrics.UpdateRankedAccounts(5)
				metrics.RecordNotificationPublished("rating_submitted")
				metrics.RecordNotificationDropped()
				metrics.RecordHTTPRequest("/ratings", "POST", "201")
				metrics.RecordHTTPRequestDuration("/ratings", "POST", "201", 2.0)
				metrics.RecordErrorByComponent("ledger", "cooldown")
			}, ShouldNotPanic)
		})

		Convey("When gathering the shared registry", func() {
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(families, ShouldNotBeEmpty)
		})
	})
}
