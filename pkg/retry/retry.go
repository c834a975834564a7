// Package retry runs an operation again when it fails with a retryable error.
//
// A Policy bounds the total number of attempts and the fixed pause between
// them. Failures are sorted into kinds by Classify; only kinds listed in
// Policy.RetryOn are retried. Any other failure is returned immediately,
// unchanged. When every attempt fails with a retryable error the caller
// gets a RetriesExhaustedError wrapping the last one.
package retry

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

type Kind string

const (
	KindTimeout           Kind = "timeout"
	KindConnectionRefused Kind = "connection-refused"
	KindServerError       Kind = "server-error"
	KindHTTPStatus        Kind = "http-status"
	KindValidation        Kind = "validation"
	KindResource          Kind = "resource"
	KindUnknown           Kind = "unknown"
)

// DefaultRetryOn lists the kinds retried when a Policy leaves RetryOn empty.
var DefaultRetryOn = []Kind{KindTimeout, KindConnectionRefused, KindServerError}

type Policy struct {
	// MaxRetries is the total number of attempts. Values below 1 mean one attempt.
	MaxRetries int
	Delay      time.Duration
	RetryOn    []Kind
	// Name labels log lines.
	Name string
	// OnRetry is called before each new attempt.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy matches the request wrapper: three attempts one second apart.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, Delay: time.Second}
}

func (p Policy) attempts() int {
	if p.MaxRetries < 1 {
		return 1
	}
	return p.MaxRetries
}

func (p Policy) retries(k Kind) bool {
	kinds := p.RetryOn
	if len(kinds) == 0 {
		kinds = DefaultRetryOn
	}
	for _, rk := range kinds {
		if rk == k {
			return true
		}
	}
	return false
}

// Classify sorts err into a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var reqErr *srvErrors.RequestFailedError
	switch {
	case srvErrors.IsValidationError(err), srvErrors.IsNotSetError(err):
		return KindValidation
	case errors.As(err, &reqErr):
		if reqErr.ServerSide() {
			return KindServerError
		}
		return KindHTTPStatus
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindConnectionRefused
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindConnectionRefused
	}

	if srvErrors.IsResourceError(err) {
		return KindResource
	}

	return KindUnknown
}

// Do calls op until it succeeds, fails with a non-retryable error, or the
// policy runs out of attempts. Cancelling ctx stops the loop and returns
// the context error.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	log := zap.S().Named("retry")

	maxAttempts := policy.attempts()
	attempt := 0
	var last error

	operation := func() (T, error) {
		attempt++
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		last = err
		kind := Classify(err)
		if !policy.retries(kind) {
			return result, backoff.Permanent(err)
		}

		if attempt < maxAttempts {
			log.Warnw("attempt failed, retrying",
				"name", policy.Name, "attempt", attempt, "max", maxAttempts, "kind", kind, "delay", policy.Delay, "error", err)
			if policy.OnRetry != nil {
				policy.OnRetry(attempt, err)
			}
		}

		return result, err
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Delay)),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
	if err == nil {
		return result, nil
	}

	if last == nil || (ctx.Err() != nil && !errors.Is(err, last)) {
		return result, err
	}

	if !policy.retries(Classify(last)) {
		return result, last
	}

	log.Errorw("retries exhausted", "name", policy.Name, "attempts", attempt, "error", last)

	return result, srvErrors.NewRetriesExhaustedError(attempt, last)
}

// Run is Do for operations without a result.
func Run(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
