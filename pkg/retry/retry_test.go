package retry_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/retry"
)

var _ = Describe("Retry", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Do", func() {
		It("should return the first success without retrying", func() {
			// Arrange
			calls := 0
			policy := retry.Policy{MaxRetries: 3}

			// Act
			result, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
				calls++
				return "ok", nil
			})

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal("ok"))
			Expect(calls).To(Equal(1))
		})

		It("should succeed on the last attempt after timeouts", func() {
			// Given an operation timing out twice then succeeding
			calls := 0
			policy := retry.Policy{MaxRetries: 3}

			// When
			result, err := retry.Do(ctx, policy, func(ctx context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, context.DeadlineExceeded
				}
				return 42, nil
			})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(42))
			Expect(calls).To(Equal(3))
		})

		It("should wrap the last error once attempts are exhausted", func() {
			// Arrange
			calls := 0
			policy := retry.Policy{MaxRetries: 3}
			refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

			// Act
			_, err := retry.Do(ctx, policy, func(ctx context.Context) (int, error) {
				calls++
				return 0, refused
			})

			// Assert
			Expect(calls).To(Equal(3))
			Expect(srvErrors.IsRetriesExhaustedError(err)).To(BeTrue())

			var exhausted *srvErrors.RetriesExhaustedError
			Expect(errors.As(err, &exhausted)).To(BeTrue())
			Expect(exhausted.Attempts).To(Equal(3))
			Expect(errors.Is(err, syscall.ECONNREFUSED)).To(BeTrue())
		})

		It("should not retry a validation error", func() {
			// Arrange
			calls := 0
			validation := srvErrors.NewValidationError("command", "must not be empty")

			// Act
			_, err := retry.Do(ctx, retry.Policy{MaxRetries: 5}, func(ctx context.Context) (int, error) {
				calls++
				return 0, validation
			})

			// Assert
			Expect(calls).To(Equal(1))
			Expect(err).To(Equal(validation))
		})

		It("should not retry an unknown error and return it unchanged", func() {
			// Arrange
			calls := 0
			boom := errors.New("boom")

			// Act
			_, err := retry.Do(ctx, retry.Policy{MaxRetries: 3}, func(ctx context.Context) (int, error) {
				calls++
				return 0, boom
			})

			// Assert
			Expect(calls).To(Equal(1))
			Expect(err).To(Equal(boom))
		})

		It("should not retry a client error status", func() {
			calls := 0
			_, err := retry.Do(ctx, retry.Policy{MaxRetries: 3}, func(ctx context.Context) (int, error) {
				calls++
				return 0, srvErrors.NewRequestFailedError("GET", "http://x/y", 404, "")
			})

			Expect(calls).To(Equal(1))
			Expect(srvErrors.IsRequestFailedError(err)).To(BeTrue())
			Expect(srvErrors.IsRetriesExhaustedError(err)).To(BeFalse())
		})

		It("should retry a server error status", func() {
			calls := 0
			_, err := retry.Do(ctx, retry.Policy{MaxRetries: 3}, func(ctx context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, srvErrors.NewRequestFailedError("GET", "http://x/y", 500, "")
				}
				return 1, nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal(3))
		})

		It("should make a single attempt when MaxRetries is zero", func() {
			calls := 0
			_, err := retry.Do(ctx, retry.Policy{MaxRetries: 0}, func(ctx context.Context) (int, error) {
				calls++
				return 0, context.DeadlineExceeded
			})

			Expect(calls).To(Equal(1))
			Expect(srvErrors.IsRetriesExhaustedError(err)).To(BeTrue())
		})

		It("should only retry the configured kinds", func() {
			calls := 0
			policy := retry.Policy{MaxRetries: 3, RetryOn: []retry.Kind{retry.KindTimeout}}

			_, err := retry.Do(ctx, policy, func(ctx context.Context) (int, error) {
				calls++
				return 0, srvErrors.NewRequestFailedError("GET", "http://x/y", 503, "")
			})

			Expect(calls).To(Equal(1))
			Expect(srvErrors.IsRequestFailedError(err)).To(BeTrue())
		})

		It("should wait the configured delay between attempts", func() {
			// Arrange
			calls := 0
			policy := retry.Policy{MaxRetries: 3, Delay: 20 * time.Millisecond}
			start := time.Now()

			// Act
			_, _ = retry.Do(ctx, policy, func(ctx context.Context) (int, error) {
				calls++
				return 0, context.DeadlineExceeded
			})

			// Assert
			Expect(calls).To(Equal(3))
			Expect(time.Since(start)).To(BeNumerically(">=", 40*time.Millisecond))
		})

		It("should notify before each retry", func() {
			var seen []int
			policy := retry.Policy{
				MaxRetries: 3,
				OnRetry:    func(attempt int, err error) { seen = append(seen, attempt) },
			}

			_, _ = retry.Do(ctx, policy, func(ctx context.Context) (int, error) {
				return 0, context.DeadlineExceeded
			})

			Expect(seen).To(Equal([]int{1, 2}))
		})

		It("should stop when the context is cancelled", func() {
			// Arrange
			cctx, cancel := context.WithCancel(ctx)
			calls := 0
			policy := retry.Policy{MaxRetries: 10, Delay: time.Second}

			// Act
			go func() {
				time.Sleep(50 * time.Millisecond)
				cancel()
			}()
			_, err := retry.Do(cctx, policy, func(ctx context.Context) (int, error) {
				calls++
				return 0, context.DeadlineExceeded
			})

			// Assert
			Expect(calls).To(Equal(1))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("Run", func() {
		It("should propagate the final error", func() {
			err := retry.Run(ctx, retry.Policy{MaxRetries: 2}, func(ctx context.Context) error {
				return fmt.Errorf("dial: %w", syscall.ECONNREFUSED)
			})

			Expect(srvErrors.IsRetriesExhaustedError(err)).To(BeTrue())
		})
	})

	DescribeTable("Classify",
		func(err error, expected retry.Kind) {
			Expect(retry.Classify(err)).To(Equal(expected))
		},
		Entry("deadline", context.DeadlineExceeded, retry.KindTimeout),
		Entry("wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), retry.KindTimeout),
		Entry("refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), retry.KindConnectionRefused),
		Entry("5xx", srvErrors.NewRequestFailedError("GET", "u", 502, ""), retry.KindServerError),
		Entry("4xx", srvErrors.NewRequestFailedError("GET", "u", 401, ""), retry.KindHTTPStatus),
		Entry("validation", srvErrors.NewValidationError("x", "bad"), retry.KindValidation),
		Entry("token not set", srvErrors.NewTokenNotSetError(), retry.KindValidation),
		Entry("resource", srvErrors.NewResourceError("mysql", "connect", errors.New("denied")), retry.KindResource),
		Entry("other", errors.New("other"), retry.KindUnknown),
	)
})
