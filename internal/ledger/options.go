package ledger

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithCooldown overrides the amendment cooldown period.
func WithCooldown(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.cooldown = d
		}
	}
}

// WithClock injects the clock used to timestamp submissions. Tests supply a
// clock.Mock to exercise cooldown and decay boundaries deterministically.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithAuthorizer installs the capability that gates the cooldown bypass
// path. Without one, AdminSubmitRating always fails with ErrNotAuthorized.
func WithAuthorizer(a Authorizer) Option {
	return func(l *Ledger) {
		l.auth = a
	}
}

// WithNotifier installs the downstream notification sink. Notifications are
// an indexing aid; the ledger is correct without them.
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) {
		l.notifier = n
	}
}
