// Package notify fans state-change notifications out to in-process
// subscribers over buffered channels. Publishing never blocks: a
// subscriber that falls behind loses the notification and a drop is
// counted instead.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/okian/meritor/internal/domain/model"
	"github.com/okian/meritor/pkg/metrics"
)

// Default bus configuration constants.
const (
	defaultBuffer = 1024
)

// Kind labels what happened.
type Kind string

// Notification kinds emitted by the service.
const (
	KindRatingSubmitted   Kind = "rating_submitted"
	KindRatingUpdated     Kind = "rating_updated"
	KindAggregateUpdated  Kind = "aggregate_updated"
	KindScoreRecalculated Kind = "score_recalculated"
)

// Event is a single notification. Fields beyond Kind, Account, and Topic
// are populated per kind: rating kinds carry Rater and the score pair,
// aggregate kinds carry Average and Count.
type Event struct {
	Kind    Kind
	At      time.Time
	Account model.AccountID
	Topic   model.TopicID
	Rater   model.AccountID
	Old     int64
	New     int64
	Average int64
	Count   int64
}

// Bus is an in-memory publish/subscribe fan-out.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	buffer int
	closed bool
}

// NewBus creates a bus with configuration options.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		buffer: defaultBuffer,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Subscribe registers a new subscriber and returns its channel. The
// channel is closed when the bus closes.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers e to every subscriber without blocking. Subscribers
// with a full buffer are skipped.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	metrics.RecordNotificationPublished(string(e.Kind))
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			metrics.RecordNotificationDropped()
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	return nil
}
