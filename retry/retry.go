// Package retry implements the exponential backoff shared by the wireserver calls.
//
// The backoff starts at Policy.InitialInterval and doubles after every failed
// attempt. Once the interval that would be slept next exceeds Policy.MaxInterval
// the last error is returned unchanged. Failures that cannot change between
// attempts (see interfaces.IsRetryable) are returned immediately.
package retry

import (
	"log/slog"
	"time"

	"github.com/ruteri/wireserver-ready-agent/interfaces"
)

// Policy holds the backoff parameters.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Sleep blocks for the backoff interval. Defaults to time.Sleep when nil.
	Sleep func(time.Duration)
}

// DefaultPolicy starts at 2s and gives up once the next interval would exceed
// two minutes: six sleeps and seven attempts in total.
var DefaultPolicy = Policy{
	InitialInterval: 2 * time.Second,
	MaxInterval:     2 * time.Minute,
	Sleep:           time.Sleep,
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the backoff
// interval exceeds the policy ceiling. Every failed attempt is logged before
// sleeping.
func Do[T any](log *slog.Logger, policy Policy, op interfaces.Operation, fn func() (T, error)) (T, error) {
	sleep := policy.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	interval := policy.InitialInterval
	for attempt := 1; ; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		if !interfaces.IsRetryable(err) {
			log.Error("Attempt failed with non-retryable error", "op", op, "attempt", attempt, "kind", interfaces.KindOf(err), "err", err)
			return res, err
		}

		if interval > policy.MaxInterval {
			log.Error("Retry limit exceeded, aborting", "op", op, "attempt", attempt, "err", err)
			return res, err
		}

		log.Warn("Attempt failed, backing off", "op", op, "attempt", attempt, "kind", interfaces.KindOf(err), "backoff", interval, "err", err)
		sleep(interval)
		interval *= 2
	}
}

// Run is Do for operations without a result.
func Run(log *slog.Logger, policy Policy, op interfaces.Operation, fn func() error) error {
	_, err := Do(log, policy, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
