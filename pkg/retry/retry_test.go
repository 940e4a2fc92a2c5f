package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("connection refused")

func fast(opts ...Option) *Retrier {
	return New(append([]Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond), WithJitter(0)}, opts...)...)
}

func TestDo(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		errs    []error
		wantErr error
		calls   int
	}{
		{"first try", nil, []error{nil}, nil, 1},
		{"retryable then ok", nil, []error{Retryable(errFlaky), nil}, nil, 2},
		{"plain errors are not retried", nil, []error{errFlaky, nil}, errFlaky, 1},
		{"attempts run out", []Option{WithMaxAttempts(2)}, []error{Retryable(errFlaky), Retryable(errFlaky), nil}, errFlaky, 2},
		{"permanent wins over RetryIf", []Option{WithRetryIf(func(error) bool { return true })}, []error{Permanent(errFlaky), nil}, errFlaky, 1},
		{"RetryIf", []Option{WithRetryIf(func(err error) bool { return errors.Is(err, errFlaky) })}, []error{errFlaky, nil}, nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := fast(tt.opts...).Do(context.Background(), func(context.Context) error {
				err := tt.errs[calls]
				calls++
				return err
			})
			assert.Equal(t, tt.calls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantErr, err)
			}
		})
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := New(WithInitialDelay(time.Hour)).Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return Retryable(errFlaky)
	})
	assert.Equal(t, errFlaky, err)
	assert.Equal(t, 1, calls)

	assert.ErrorIs(t, New().Do(ctx, func(context.Context) error { return nil }), context.Canceled)
}

func TestDoWithData_OnRetry(t *testing.T) {
	var retries []int
	r := StartupRetrier(func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) })
	r.config.InitialDelay = time.Millisecond

	n := 0
	got, err := DoWithData(context.Background(), r, func(context.Context) (string, error) {
		n++
		if n < 3 {
			return "", errFlaky
		}
		return "pool", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "pool", got)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDelay(t *testing.T) {
	r := New(WithInitialDelay(100*time.Millisecond), WithMaxDelay(time.Second), WithMultiplier(2), WithJitter(0))
	assert.Equal(t, 100*time.Millisecond, r.delay(1))
	assert.Equal(t, 400*time.Millisecond, r.delay(3))
	assert.Equal(t, time.Second, r.delay(10))
}
