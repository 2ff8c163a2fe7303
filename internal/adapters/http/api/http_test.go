package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/okian/meritor/internal/adapters/http/api"
	"github.com/okian/meritor/internal/adapters/http/swagger"
	service "github.com/okian/meritor/internal/app"
	"github.com/okian/meritor/internal/domain/model"
	"github.com/okian/meritor/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

const (
	alice   = model.AccountID("alice")
	bob     = model.AccountID("bob")
	steward = model.AccountID("steward")
	topicGo = model.TopicID("go")
)

// newTestServer starts a full service behind an httptest server. The
// mock clock starts at wall time so default point-in-time reads land
// inside the freshest decay window.
func newTestServer(ctx context.Context) (*httptest.Server, *service.Service, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Now())

	svc := service.New(
		service.WithClock(mock),
		service.WithWorkerCount(2),
		service.WithRecalcInterval(0),
		service.WithAdminAccounts([]model.AccountID{steward}),
	)
	So(svc.Start(ctx), ShouldBeNil)

	for _, id := range []model.AccountID{alice, bob, steward} {
		So(svc.RegisterAccount(ctx, id), ShouldBeNil)
	}
	So(svc.RegisterTopic(ctx, topicGo, ""), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, svc.Ledger(), 100).Register(ctx, mux)
	swagger.Register(ctx, mux)
	return httptest.NewServer(mux), svc, mock
}

func postJSON(ts *httptest.Server, path, body string) (int, map[string]any) {
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	So(err, ShouldBeNil)
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func getRaw(ts *httptest.Server, path string) (int, []byte) {
	resp, err := http.Get(ts.URL + path)
	So(err, ShouldBeNil)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	So(err, ShouldBeNil)
	return resp.StatusCode, raw
}

func getJSON(ts *httptest.Server, path string) (int, map[string]any) {
	status, raw := getRaw(ts, path)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return status, decoded
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestRegistryEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ctx := context.Background()
		ts, svc, _ := newTestServer(ctx)
		defer ts.Close()
		defer svc.Stop()

		Convey("accounts can be registered and listed", func() {
			status, body := postJSON(ts, "/accounts", `{"id":"dora"}`)
			So(status, ShouldEqual, http.StatusCreated)
			So(body["status"], ShouldEqual, "registered")

			status, _ = postJSON(ts, "/accounts", `{"id":"dora"}`)
			So(status, ShouldEqual, http.StatusConflict)

			status, raw := getRaw(ts, "/accounts")
			So(status, ShouldEqual, http.StatusOK)
			So(string(raw), ShouldContainSubstring, "dora")
		})

		Convey("topics honor the parent hierarchy", func() {
			status, _ := postJSON(ts, "/topics", `{"id":"go-concurrency","parent":"go"}`)
			So(status, ShouldEqual, http.StatusCreated)

			status, _ = postJSON(ts, "/topics", `{"id":"orphan","parent":"missing"}`)
			So(status, ShouldEqual, http.StatusBadRequest)

			status, raw := getRaw(ts, "/topics")
			So(status, ShouldEqual, http.StatusOK)
			So(string(raw), ShouldContainSubstring, "go-concurrency")
		})

		Convey("deactivation closes a topic for ratings until reactivated", func() {
			status, _ := postJSON(ts, "/topics/go/deactivate", "")
			So(status, ShouldEqual, http.StatusOK)

			status, _ = postJSON(ts, "/ratings", `{"rater":"bob","ratee":"alice","topic":"go","score":800}`)
			So(status, ShouldEqual, http.StatusBadRequest)

			status, _ = postJSON(ts, "/topics/go/activate", "")
			So(status, ShouldEqual, http.StatusOK)

			status, _ = postJSON(ts, "/ratings", `{"rater":"bob","ratee":"alice","topic":"go","score":800}`)
			So(status, ShouldEqual, http.StatusCreated)
		})

		Convey("unknown topics and malformed state verbs are rejected", func() {
			status, _ := postJSON(ts, "/topics/missing/deactivate", "")
			So(status, ShouldEqual, http.StatusNotFound)

			status, _ = postJSON(ts, "/topics/go/freeze", "")
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRatingEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ctx := context.Background()
		ts, svc, mock := newTestServer(ctx)
		defer ts.Close()
		defer svc.Stop()

		Convey("a valid rating is appended", func() {
			status, body := postJSON(ts, "/ratings", `{"rater":"bob","ratee":"alice","topic":"go","score":800}`)
			So(status, ShouldEqual, http.StatusCreated)
			So(body["score"], ShouldEqual, 800)
			So(body["rater"], ShouldEqual, "bob")

			Convey("amending inside the cooldown is refused with a retry hint", func() {
				status, body := postJSON(ts, "/ratings", `{"rater":"bob","ratee":"alice","topic":"go","score":600}`)
				So(status, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "cooldown")
				So(body["retry_at"], ShouldNotBeEmpty)
			})

			Convey("the bypass channel works only for allowlisted callers", func() {
				mock.Add(time.Second)

				status, _ := postJSON(ts, "/admin/ratings", `{"caller":"bob","rater":"bob","ratee":"alice","topic":"go","score":600}`)
				So(status, ShouldEqual, http.StatusForbidden)

				status, _ = postJSON(ts, "/admin/ratings", `{"caller":"steward","rater":"bob","ratee":"alice","topic":"go","score":600}`)
				So(status, ShouldEqual, http.StatusCreated)

				Convey("the ledger query surface reflects the amendment", func() {
					status, body := getJSON(ts, "/ratings/alice/go/bob")
					So(status, ShouldEqual, http.StatusOK)
					So(body["score"], ShouldEqual, 600)

					before := mock.Now().Add(-500 * time.Millisecond).Format(time.RFC3339Nano)
					status, body = getJSON(ts, "/ratings/alice/go/bob?at="+before)
					So(status, ShouldEqual, http.StatusOK)
					So(body["score"], ShouldEqual, 800)

					status, raw := getRaw(ts, "/ratings/alice/go/bob/timestamps")
					So(status, ShouldEqual, http.StatusOK)
					var ts2 []time.Time
					So(json.Unmarshal(raw, &ts2), ShouldBeNil)
					So(len(ts2), ShouldEqual, 2)
				})
			})
		})

		Convey("validation failures map to 400", func() {
			status, body := postJSON(ts, "/ratings", `{"ratee":"alice","topic":"go","score":800}`)
			So(status, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_request")

			status, _ = postJSON(ts, "/ratings", `{"rater":"alice","ratee":"alice","topic":"go","score":800}`)
			So(status, ShouldEqual, http.StatusBadRequest)

			status, _ = postJSON(ts, "/ratings", `{"rater":"bob","ratee":"alice","topic":"go","score":2000}`)
			So(status, ShouldEqual, http.StatusBadRequest)

			status, _ = postJSON(ts, "/ratings", `{"rater":"ghost","ratee":"alice","topic":"go","score":800}`)
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("aggregates answer even for unrated pairs", func() {
			status, body := getJSON(ts, "/aggregate/alice/go")
			So(status, ShouldEqual, http.StatusOK)
			So(body["total_ratings"], ShouldEqual, 0)
			So(body, ShouldNotContainKey, "last_rating_time")

			postJSON(ts, "/ratings", `{"rater":"bob","ratee":"alice","topic":"go","score":800}`)

			status, body = getJSON(ts, "/aggregate/alice/go")
			So(status, ShouldEqual, http.StatusOK)
			So(body["average_score"], ShouldEqual, 800)
			So(body["total_ratings"], ShouldEqual, 1)
			So(body["last_rating_time"], ShouldNotBeEmpty)

			status, raw := getRaw(ts, "/raters/alice/go")
			So(status, ShouldEqual, http.StatusOK)
			So(string(raw), ShouldContainSubstring, "bob")

			status, raw = getRaw(ts, "/rated-topics/alice")
			So(status, ShouldEqual, http.StatusOK)
			So(string(raw), ShouldContainSubstring, "go")
		})

		Convey("an absent rating is a 404", func() {
			status, _ := getJSON(ts, "/ratings/alice/go/steward")
			So(status, ShouldEqual, http.StatusNotFound)
		})

		Convey("a malformed at parameter is a 400", func() {
			status, _ := getJSON(ts, "/aggregate/alice/go?at=yesterday")
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestScoreEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ctx := context.Background()
		ts, svc, _ := newTestServer(ctx)
		defer ts.Close()
		defer svc.Stop()

		Convey("challenge outcomes feed the blended score", func() {
			status, body := postJSON(ts, "/challenges", `{"account":"alice","topic":"go","correct":true}`)
			So(status, ShouldEqual, http.StatusCreated)
			So(body["total_challenges"], ShouldEqual, 1)
			So(body["correct_challenges"], ShouldEqual, 1)

			// One correct challenge, no peer ratings: accuracy 1000,
			// volume bonus 10, blended (1000*70+10*30)/100 = 703.
			status, body = getJSON(ts, "/scores/alice/go")
			So(status, ShouldEqual, http.StatusOK)
			So(body["score"], ShouldEqual, 703)

			Convey("the preview shows both hypothetical outcomes without writing", func() {
				status, body := getJSON(ts, "/scores/alice/go/preview")
				So(status, ShouldEqual, http.StatusOK)
				So(body["if_correct"], ShouldEqual, 703)
				So(body["if_wrong"], ShouldEqual, 353)

				status, body = getJSON(ts, "/scores/alice/go")
				So(status, ShouldEqual, http.StatusOK)
				So(body["score"], ShouldEqual, 703)
			})

			Convey("the cached weight and ranking converge via the workers", func() {
				So(waitFor(func() bool {
					_, body := getJSON(ts, "/weights/alice/go")
					return body["weight"] == float64(703)
				}), ShouldBeTrue)

				status, raw := getRaw(ts, "/experts/go")
				So(status, ShouldEqual, http.StatusOK)
				var entries []map[string]any
				So(json.Unmarshal(raw, &entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(entries[0]["rank"], ShouldEqual, 1)
				So(entries[0]["account"], ShouldEqual, "alice")
				So(entries[0]["score"], ShouldEqual, 703)

				status, body := getJSON(ts, "/experts/go/alice")
				So(status, ShouldEqual, http.StatusOK)
				So(body["rank"], ShouldEqual, 1)

				status, _ = getJSON(ts, "/experts/go/bob")
				So(status, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("a never-scored account carries the floor weight", func() {
			status, body := getJSON(ts, "/weights/bob/go")
			So(status, ShouldEqual, http.StatusOK)
			So(body["weight"], ShouldEqual, 50)
		})

		Convey("challenges for unknown accounts are rejected", func() {
			status, _ := postJSON(ts, "/challenges", `{"account":"ghost","topic":"go","correct":true}`)
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("the experts limit is clamped", func() {
			status, _ := getJSON(ts, "/experts/go?limit=0")
			So(status, ShouldEqual, http.StatusBadRequest)

			status, body := getJSON(ts, "/experts/go?limit=500")
			So(status, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("recalculation accepts a pair, a sweep, but not half a pair", func() {
			status, body := postJSON(ts, "/scores/recalculate", `{"account":"alice","topic":"go"}`)
			So(status, ShouldEqual, http.StatusAccepted)
			So(body["enqueued"], ShouldEqual, 1)

			status, _ = postJSON(ts, "/scores/recalculate", "")
			So(status, ShouldEqual, http.StatusAccepted)

			status, _ = postJSON(ts, "/scores/recalculate", `{"account":"alice"}`)
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ctx := context.Background()
		ts, svc, _ := newTestServer(ctx)
		defer ts.Close()
		defer svc.Stop()

		Convey("health, stats and metrics respond", func() {
			status, body := getJSON(ts, "/healthz")
			So(status, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "ok")

			status, body = getJSON(ts, "/stats")
			So(status, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldEqual, true)

			status, raw := getRaw(ts, "/metrics")
			So(status, ShouldEqual, http.StatusOK)
			So(len(raw), ShouldBeGreaterThan, 0)
		})

		Convey("the API docs are served", func() {
			status, raw := getRaw(ts, "/api-docs")
			So(status, ShouldEqual, http.StatusOK)
			So(string(raw), ShouldContainSubstring, "redoc")

			status, raw = getRaw(ts, "/openapi.yaml")
			So(status, ShouldEqual, http.StatusOK)
			So(string(raw), ShouldContainSubstring, "openapi: 3.0.3")
		})
	})
}
