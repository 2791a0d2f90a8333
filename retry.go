package debitxgo

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// jitterCeiling bounds the random delay added to each backoff step. Full
// jitter desynchronizes competing retriers so they do not re-collide on the
// same account version in lockstep.
const jitterCeiling = time.Second

// maxBackoffShift caps the exponent so the doubling never overflows int64.
const maxBackoffShift = 32

// RetryOpts parameterizes Retry. IsRetryable classifies errors; anything it
// rejects is returned immediately as terminal. OnRetry, if set, is invoked
// before each backoff sleep.
type RetryOpts struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	IsRetryable func(error) bool
	OnRetry     func(attempt int, delay time.Duration, err error)
}

// RetryResult is the outcome of a Retry invocation. Attempts counts the
// calls actually made to the operation. WasRetryable distinguishes "gave up
// under contention" (true) from "error class is not retryable" (false).
type RetryResult[T any] struct {
	Data         T
	Err          error
	Attempts     int
	WasRetryable bool
}

// Retry runs op until it succeeds, fails terminally, or exhausts
// opts.MaxRetries. Backoff between attempts is
// min(MaxDelay, BaseDelay*2^attempt + jitter) with jitter uniform in
// [0, 1s). A panic inside op is recovered and returned as a terminal,
// non-retryable failure; nothing escapes Retry.
func Retry[T any](op func() (T, error), opts RetryOpts) RetryResult[T] {
	var zero T
	isRetryable := opts.IsRetryable
	if isRetryable == nil {
		isRetryable = func(error) bool { return false }
	}

	for attempt := 0; ; attempt++ {
		data, err := guarded(op)
		if err == nil {
			return RetryResult[T]{Data: data, Attempts: attempt + 1}
		}
		// A recovered panic is terminal no matter what the caller's
		// classifier says about server-fault errors.
		var pe panicError
		if errors.As(err, &pe) {
			return RetryResult[T]{Data: zero, Err: err, Attempts: attempt + 1, WasRetryable: false}
		}
		if !isRetryable(err) {
			return RetryResult[T]{Data: zero, Err: err, Attempts: attempt + 1, WasRetryable: false}
		}
		if attempt >= opts.MaxRetries {
			return RetryResult[T]{Data: zero, Err: err, Attempts: attempt + 1, WasRetryable: true}
		}

		delay := backoff(opts.BaseDelay, opts.MaxDelay, attempt)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt+1, delay, err)
		}
		time.Sleep(delay)
	}
}

// panicError marks an error as born from a recovered panic so Retry can
// refuse to re-execute the operation. It still unwraps to ErrInternalServer
// for the caller's taxonomy.
type panicError struct {
	val any
}

func (e panicError) Error() string {
	return fmt.Sprintf("%v: panic in retried operation: %v", ErrInternalServer, e.val)
}

func (e panicError) Unwrap() error {
	return ErrInternalServer
}

// guarded invokes op, converting a panic into an error so the retry loop
// only ever deals in values.
func guarded[T any](op func() (T, error)) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{val: r}
		}
	}()
	return op()
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	var delay time.Duration
	if base > 0 {
		mult := int64(1) << uint(attempt)
		if int64(base) > math.MaxInt64/mult {
			delay = max
		} else {
			delay = time.Duration(int64(base) * mult)
		}
	}
	delay += time.Duration(rand.Int64N(int64(jitterCeiling)))
	if max > 0 && delay > max {
		delay = max
	}
	return delay
}
