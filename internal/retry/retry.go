package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/covault/covault/internal/domain"
)

// DefaultAttempts bounds a mutation to one initial try plus two retries.
const DefaultAttempts = 3

type options struct {
	attempts int
	backoff  backoff.BackOff
}

type Option func(*options)

// WithAttempts caps the total number of tries, the first included.
func WithAttempts(n int) Option {
	return func(o *options) {
		o.attempts = n
	}
}

// WithBackOff swaps the wait strategy. Tests use backoff.ZeroBackOff.
func WithBackOff(b backoff.BackOff) Option {
	return func(o *options) {
		o.backoff = b
	}
}

// Retryable reports whether the error is transient: an optimistic
// concurrency conflict or a storage deadline. Authorization, validation
// and not-found errors are terminal and must surface immediately.
func Retryable(err error) bool {
	return domain.IsConflict(err) || errors.Is(err, context.DeadlineExceeded)
}

// Do runs fn until it succeeds, returns a terminal error, exhausts its
// attempts or the context ends. Only Retryable errors are retried; the
// last error is returned as-is so callers can keep matching on kind.
func Do[T any](ctx context.Context, name string, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	o := options{attempts: DefaultAttempts}
	for _, apply := range opts {
		apply(&o)
	}
	if o.attempts < 1 {
		o.attempts = 1
	}

	bo := o.backoff
	if bo == nil {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = time.Second
		exp.Multiplier = 2
		exp.MaxInterval = 5 * time.Second
		exp.MaxElapsedTime = 0
		bo = exp
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		result, err := fn(ctx)
		if err != nil && !Retryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	notify := func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "retrying after transient failure",
			slog.String("operation", name),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
			slog.Duration("backoff", wait),
			slog.String("module", "retry"),
		)
	}

	result, err := backoff.RetryNotifyWithData(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(o.attempts-1)), ctx),
		notify,
	)
	if err != nil && Retryable(err) {
		slog.ErrorContext(ctx, "retries exhausted",
			slog.String("operation", name),
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()),
			slog.String("module", "retry"),
		)
	}
	return result, err
}
