package timex

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Race when the deadline wins. It is distinct from
// any error the racing operation can produce, so callers can tell "the
// operation failed" from "we stopped waiting".
var ErrTimeout = errors.New("timex: operation timed out")

// Race runs fn and waits at most d for it to finish. On the deadline it
// returns ErrTimeout without cancelling the operation: fn keeps running in
// its goroutine unless the caller also cancels the shared ctx. Wiring a
// cancellable ctx through both is how callers compose a real deadline.
func Race[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	return RaceCleanup(ctx, d, fn, nil)
}

// RaceCleanup behaves like Race but hands a successful outcome that arrives
// after the deadline to cleanup, so resources held by the loser (an open
// response body, say) are released instead of leaked. cleanup runs on the
// operation's goroutine and may be nil.
func RaceCleanup[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error), cleanup func(T)) (T, error) {
	type outcome struct {
		value T
		err   error
	}

	done := make(chan outcome)
	abandoned := make(chan struct{})
	go func() {
		v, err := fn(ctx)
		select {
		case done <- outcome{v, err}:
		case <-abandoned:
			if err == nil && cleanup != nil {
				cleanup(v)
			}
		}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.value, o.err
	case <-timer.C:
		close(abandoned)
		var zero T
		return zero, ErrTimeout
	}
}
