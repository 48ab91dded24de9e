package retry

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/ruteri/wireserver-ready-agent/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingPolicy returns DefaultPolicy with a sleep that only records intervals.
func recordingPolicy(slept *[]time.Duration) Policy {
	policy := DefaultPolicy
	policy.Sleep = func(d time.Duration) {
		*slept = append(*slept, d)
	}
	return policy
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		expected []time.Duration
	}{
		{
			name:     "first attempt succeeds",
			failures: 0,
			expected: nil,
		},
		{
			name:     "one failure",
			failures: 1,
			expected: []time.Duration{2 * time.Second},
		},
		{
			name:     "four failures",
			failures: 4,
			expected: []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second},
		},
		{
			name:     "six failures is the most that still succeeds",
			failures: 6,
			expected: []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second, 64 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slept []time.Duration
			calls := 0
			res, err := Do(testLogger(), recordingPolicy(&slept), interfaces.OpFetchGoalState, func() ([]byte, error) {
				calls++
				if calls <= tt.failures {
					return nil, &interfaces.ProtocolError{Op: interfaces.OpFetchGoalState, StatusCode: http.StatusInternalServerError}
				}
				return []byte("ok"), nil
			})

			require.NoError(t, err)
			assert.Equal(t, []byte("ok"), res)
			assert.Equal(t, tt.failures+1, calls)
			assert.Equal(t, tt.expected, slept)
		})
	}
}

func TestDo_AlwaysFailingStopsAtCeiling(t *testing.T) {
	var slept []time.Duration
	calls := 0
	var lastErr error
	_, err := Do(testLogger(), recordingPolicy(&slept), interfaces.OpReportReady, func() (int, error) {
		calls++
		lastErr = &interfaces.TransportError{Op: interfaces.OpReportReady, Err: errors.New("connection refused")}
		return 0, lastErr
	})

	require.Error(t, err)
	assert.Same(t, lastErr, err, "the last failure must be returned unchanged")
	assert.Equal(t, 7, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second, 64 * time.Second}, slept)
}

func TestDo_CustomCeiling(t *testing.T) {
	var slept []time.Duration
	policy := recordingPolicy(&slept)
	policy.InitialInterval = time.Millisecond
	policy.MaxInterval = 4 * time.Millisecond

	calls := 0
	_, err := Do(testLogger(), policy, interfaces.OpFetchGoalState, func() (string, error) {
		calls++
		return "", errors.New("boom")
	})

	require.EqualError(t, err, "boom")
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, slept)
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	var slept []time.Duration
	calls := 0
	_, err := Do(testLogger(), recordingPolicy(&slept), interfaces.OpFetchGoalState, func() (string, error) {
		calls++
		return "", &interfaces.MissingElementError{Tag: "Incarnation", Path: "GoalState"}
	})

	var missing *interfaces.MissingElementError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, calls)
	assert.Empty(t, slept)
}

func TestRun(t *testing.T) {
	var slept []time.Duration
	calls := 0
	err := Run(testLogger(), recordingPolicy(&slept), interfaces.OpReportReady, func() error {
		calls++
		if calls < 3 {
			return &interfaces.ProtocolError{Op: interfaces.OpReportReady, StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, slept)
}
