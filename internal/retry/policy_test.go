package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, ModeLinear, p.Mode)
	assert.Equal(t, 250*time.Millisecond, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
}

// initial > max is clamped.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(ModeFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, ModeFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	assert.Equal(t, ModeLinear, NewPolicy("weird", time.Millisecond, time.Second, 1).Mode)
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{"fixed", NewPolicy(ModeFixed, 100*ms, 500*ms, 3), []time.Duration{100 * ms, 100 * ms, 100 * ms}},
		{"linear", NewPolicy(ModeLinear, 100*ms, 250*ms, 5), []time.Duration{100 * ms, 200 * ms, 250 * ms, 250 * ms}},
		{"exponential", NewPolicy(ModeExponential, 50*ms, 160*ms, 5), []time.Duration{50 * ms, 100 * ms, 160 * ms, 160 * ms}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.want {
				assert.Equal(t, want, tt.policy.Delay(i+1), "attempt %d", i+1)
			}
			assert.Zero(t, tt.policy.Delay(0))
			assert.Zero(t, tt.policy.Delay(-1))
		})
	}
}

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]Mode{
		"":            ModeLinear,
		"fixed":       ModeFixed,
		"Constant":    ModeFixed,
		" EXP ":       ModeExponential,
		"exponential": ModeExponential,
	} {
		got, err := ParseMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseMode("jitter")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestExponentialDelayDoesNotOverflow(t *testing.T) {
	p := NewPolicy(ModeExponential, time.Second, time.Minute, 100)
	assert.Equal(t, time.Minute, p.Delay(80))
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(t.Context(), func() error {
		calls++
		if calls < 3 {
			return ferrors.NotifyError("flaky").Retryable().Build()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUp(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(t.Context(), func() error {
		calls++
		return ferrors.NotifyError("down").Retryable().Build()
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentErrors(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 5)
	for _, perm := range []error{errors.New("plain"), ferrors.ValidationError("bad payload").Build()} {
		calls := 0
		err := p.Do(t.Context(), func() error {
			calls++
			return perm
		})
		assert.Equal(t, perm, err)
		assert.Equal(t, 1, calls)
	}
}

func TestDoZeroPolicyNeverRetries(t *testing.T) {
	calls := 0
	_ = Policy{}.Do(t.Context(), func() error {
		calls++
		return ferrors.NotifyError("flaky").Retryable().Build()
	})
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContext(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Hour, time.Hour, 3)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		return ferrors.NotifyError("flaky").Retryable().Build()
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
