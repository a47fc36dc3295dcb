// Package retry redelivers operations that fail with retryable classified
// errors. Build notifications are its only user today.
package retry

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/cbuild/internal/foundation"
	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
)

// Mode selects how the delay grows between attempts.
type Mode string

const (
	ModeFixed       Mode = "fixed"
	ModeLinear      Mode = "linear"
	ModeExponential Mode = "exponential"
)

var modes = foundation.NewNormalizer(map[string]Mode{
	"":            ModeLinear,
	"fixed":       ModeFixed,
	"constant":    ModeFixed,
	"linear":      ModeLinear,
	"exponential": ModeExponential,
	"exp":         ModeExponential,
}, "")

// ParseMode reads a backoff mode from configuration. Empty means linear.
func ParseMode(raw string) (Mode, error) {
	if m, ok := modes.Lookup(raw); ok {
		return m, nil
	}
	return "", ferrors.ValidationError(fmt.Sprintf("unknown backoff mode %q", raw)).
		WithContext("accepted", "fixed, linear, exponential").
		Build()
}

const (
	defaultInitial = 250 * time.Millisecond
	defaultMax     = 2 * time.Second
	defaultRetries = 2
)

// Policy is a value; copies are independent. The zero Policy never retries.
type Policy struct {
	Mode       Mode
	Initial    time.Duration // delay before the first retry
	Max        time.Duration // no delay exceeds this
	MaxRetries int           // attempts after the first failure
}

// DefaultPolicy waits 250ms, 500ms before the two retries of a notification.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeLinear, Initial: defaultInitial, Max: defaultMax, MaxRetries: defaultRetries}
}

// NewPolicy overrides DefaultPolicy with the positive durations, a
// non-negative retry count and a known mode. Initial is clamped to Max.
func NewPolicy(mode Mode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if m, ok := modes.Lookup(string(mode)); ok && mode != "" {
		p.Mode = m
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// Delay is the wait before retry n (1-based). It is 0 for n <= 0.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	d := p.Initial
	switch p.Mode {
	case ModeFixed:
	case ModeExponential:
		for i := 1; i < n && d < p.Max; i++ {
			d *= 2
		}
	default:
		d = time.Duration(n) * p.Initial
	}
	return min(d, p.Max)
}

// Do calls fn until it succeeds, fails with an error that is not a retryable
// classified error, runs out of retries, or ctx is done. It returns the last
// error from fn.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	err := fn()
	for n := 1; n <= p.MaxRetries && canRetry(err); n++ {
		timer := time.NewTimer(p.Delay(n))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		err = fn()
	}
	return err
}

func canRetry(err error) bool {
	if err == nil {
		return false
	}
	ce, ok := ferrors.AsClassified(err)
	return ok && ce.CanRetry()
}
