package debitxgo_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arhyth/debitxgo"
)

var errFlaky = errors.New("flaky downstream")

func flakyOpts(maxRetries int) debitxgo.RetryOpts {
	return debitxgo.RetryOpts{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		IsRetryable: func(err error) bool {
			return errors.Is(err, errFlaky)
		},
	}
}

func TestRetry(t *testing.T) {
	t.Run("returns immediately on success", func(tt *testing.T) {
		as := assert.New(tt)
		calls := 0
		res := debitxgo.Retry(func() (int, error) {
			calls++
			return 42, nil
		}, flakyOpts(3))
		as.Nil(res.Err)
		as.Equal(42, res.Data)
		as.Equal(1, res.Attempts)
		as.Equal(1, calls)
	})

	t.Run("invokes operation at most maxRetries+1 times", func(tt *testing.T) {
		as := assert.New(tt)
		calls := 0
		res := debitxgo.Retry(func() (int, error) {
			calls++
			return 0, errFlaky
		}, flakyOpts(3))
		as.NotNil(res.Err)
		as.Equal(4, calls)
		as.Equal(4, res.Attempts)
		as.True(res.WasRetryable)
	})

	t.Run("terminal errors are never retried", func(tt *testing.T) {
		as := assert.New(tt)
		terminal := errors.New("bad request")
		calls := 0
		res := debitxgo.Retry(func() (int, error) {
			calls++
			return 0, terminal
		}, flakyOpts(10))
		as.Equal(1, calls)
		as.Equal(1, res.Attempts)
		as.False(res.WasRetryable)
		as.ErrorIs(res.Err, terminal)
	})

	t.Run("succeeds on third attempt after two conflicts", func(tt *testing.T) {
		as := assert.New(tt)
		calls := 0
		res := debitxgo.Retry(func() (string, error) {
			calls++
			if calls < 3 {
				return "", errFlaky
			}
			return "done", nil
		}, flakyOpts(3))
		as.Nil(res.Err)
		as.Equal("done", res.Data)
		as.Equal(3, res.Attempts)
	})

	t.Run("recovers a panicking operation as a terminal failure", func(tt *testing.T) {
		as := assert.New(tt)
		calls := 0
		as.NotPanics(func() {
			res := debitxgo.Retry(func() (int, error) {
				calls++
				panic("downstream blew up")
			}, flakyOpts(5))
			as.NotNil(res.Err)
			as.ErrorIs(res.Err, debitxgo.ErrInternalServer)
			as.False(res.WasRetryable)
			as.Equal(1, res.Attempts)
		})
		as.Equal(1, calls)
	})

	t.Run("panics are terminal even when server faults are retryable", func(tt *testing.T) {
		as := assert.New(tt)
		calls := 0
		res := debitxgo.Retry(func() (int, error) {
			calls++
			panic("downstream blew up")
		}, debitxgo.RetryOpts{
			MaxRetries: 4,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
			IsRetryable: func(err error) bool {
				return errors.Is(err, debitxgo.ErrInternalServer)
			},
		})
		as.Equal(1, calls)
		as.Equal(1, res.Attempts)
		as.False(res.WasRetryable)
		as.ErrorIs(res.Err, debitxgo.ErrInternalServer)
	})

	t.Run("reports the final attempt count via OnRetry", func(tt *testing.T) {
		as := assert.New(tt)
		var observed []int
		opts := flakyOpts(2)
		opts.OnRetry = func(attempt int, delay time.Duration, err error) {
			as.ErrorIs(err, errFlaky)
			as.GreaterOrEqual(delay, time.Duration(0))
			observed = append(observed, attempt)
		}
		res := debitxgo.Retry(func() (int, error) {
			return 0, errFlaky
		}, opts)
		as.Equal([]int{1, 2}, observed)
		as.Equal(3, res.Attempts)
	})
}
