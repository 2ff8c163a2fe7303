package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/meritor/internal/adapters/mq/queue"
	"github.com/okian/meritor/internal/adapters/mq/worker"
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

// countingRecalc records every job it sees.
type countingRecalc struct {
	mu   sync.Mutex
	seen []queue.Job
	err  error
}

func (c *countingRecalc) Recalculate(ctx context.Context, account model.AccountID, topic model.TopicID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, queue.Job{Account: account, Topic: topic})
	return true, c.err
}

func (c *countingRecalc) jobs() []queue.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]queue.Job, len(c.seen))
	copy(out, c.seen)
	return out
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWorker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a single worker on a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		recalc := &countingRecalc{}
		w := worker.NewWorker(q, recalc)

		Convey("When jobs are enqueued and the worker runs", func() {
			So(q.Enqueue(ctx, queue.Job{Account: "alice", Topic: "zk"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{Account: "bob", Topic: "zk"}), ShouldBeTrue)
			go w.Run(ctx)

			Convey("Then both jobs are recalculated", func() {
				So(waitFor(func() bool { return len(recalc.jobs()) == 2 }), ShouldBeTrue)
				So(recalc.jobs()[0], ShouldResemble, queue.Job{Account: "alice", Topic: "zk"})

				shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
				defer cancel()
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})

		Convey("When the recalculator fails", func() {
			recalc.err = errors.New("store unavailable")
			So(q.Enqueue(ctx, queue.Job{Account: "alice", Topic: "zk"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{Account: "bob", Topic: "fuzzing"}), ShouldBeTrue)
			go w.Run(ctx)

			Convey("Then the worker keeps draining", func() {
				So(waitFor(func() bool { return len(recalc.jobs()) == 2 }), ShouldBeTrue)

				shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
				defer cancel()
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})

		Convey("When the queue closes", func() {
			go w.Run(ctx)
			So(q.Close(), ShouldBeNil)

			Convey("Then the run loop exits on its own", func() {
				shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
				defer cancel()
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(128))
		recalc := &countingRecalc{}
		pool := worker.NewPool(4, q, recalc)
		So(pool.Size(), ShouldEqual, 4)

		Convey("When many jobs are enqueued", func() {
			pool.Start(ctx)
			for i := 0; i < 64; i++ {
				So(q.Enqueue(ctx, queue.Job{Account: "alice", Topic: "zk"}), ShouldBeTrue)
			}

			Convey("Then every job is processed exactly once", func() {
				So(waitFor(func() bool { return len(recalc.jobs()) == 64 }), ShouldBeTrue)
				pool.Stop()
			})
		})

		Convey("When shutting down via the queue", func() {
			pool.Start(ctx)
			So(q.Enqueue(ctx, queue.Job{Account: "bob", Topic: "zk"}), ShouldBeTrue)

			Convey("Then pending work drains before exit", func() {
				So(pool.Shutdown(ctx, q), ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
				So(len(recalc.jobs()), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a pool with a non-positive size", t, func() {
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(0, q, &countingRecalc{})

		Convey("Then it falls back to a CPU-derived count", func() {
			So(pool.Size(), ShouldBeGreaterThan, 0)
		})
	})
}
