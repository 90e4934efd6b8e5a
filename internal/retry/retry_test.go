package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("port busy")

func TestDo_Success(t *testing.T) {
	called := 0
	err := Do(context.Background(), Config{MaxRetries: 3, InitialBackoff: time.Millisecond}, func() error {
		called++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, called, "should succeed on first attempt")
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	var retried []int
	cfg := Config{
		MaxRetries:     5,
		InitialBackoff: time.Millisecond,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			assert.ErrorIs(t, err, errBusy)
			retried = append(retried, attempt)
		},
	}

	called := 0
	err := Do(context.Background(), cfg, func() error {
		called++
		if called < 3 {
			return errBusy
		}
		return nil
	}, func(err error) bool {
		return errors.Is(err, errBusy)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, called)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_ExhaustedRetries(t *testing.T) {
	called := 0
	err := Do(context.Background(), Config{MaxRetries: 3, InitialBackoff: time.Millisecond}, func() error {
		called++
		return errBusy
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, called, "should attempt MaxRetries times")
	assert.ErrorIs(t, err, errBusy)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}

func TestDo_NonRetryableError(t *testing.T) {
	notFound := errors.New("port not found")

	called := 0
	err := Do(context.Background(), Config{MaxRetries: 5, InitialBackoff: time.Millisecond}, func() error {
		called++
		if called == 2 {
			return notFound
		}
		return errBusy
	}, func(err error) bool {
		return errors.Is(err, errBusy)
	})

	require.Error(t, err)
	assert.Equal(t, 2, called, "should stop on non-retryable error")
	assert.ErrorIs(t, err, notFound)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	called := 0
	err := Do(ctx, Config{MaxRetries: 10, InitialBackoff: 50 * time.Millisecond}, func() error {
		called++
		if called == 2 {
			cancel()
		}
		return errBusy
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, called)
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		attempt  int
		expected time.Duration
	}{
		{"first retry", Config{InitialBackoff: 10 * time.Millisecond, MaxRetries: 5}, 1, 10 * time.Millisecond},
		{"exponential", Config{InitialBackoff: 10 * time.Millisecond, MaxRetries: 5}, 4, 80 * time.Millisecond},
		{
			"capped",
			Config{InitialBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond, MaxRetries: 5},
			5,
			50 * time.Millisecond,
		},
		{
			"cap not reached",
			Config{InitialBackoff: 200 * time.Millisecond, MaxBackoff: time.Second, MaxRetries: 3},
			2,
			400 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calculateBackoff(tt.cfg, tt.attempt))
		})
	}
}
