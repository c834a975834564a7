package scheduler

import (
	"context"
	"time"
)

type Work[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Name     string
	Data     T
	Err      error
	Duration time.Duration
}

type Future[T any] struct {
	input  chan Result[T]
	cancel context.CancelFunc
}

func NewFuture[T any](input chan Result[T], cancel context.CancelFunc) *Future[T] {
	return &Future[T]{
		input:  input,
		cancel: cancel,
	}
}

func (f *Future[T]) C() <-chan Result[T] {
	return f.input
}

// Wait blocks until the result is ready or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) Result[T] {
	select {
	case r := <-f.input:
		return r
	case <-ctx.Done():
		f.cancel()
		return Result[T]{Err: ctx.Err()}
	}
}

func (f *Future[T]) Stop() {
	f.cancel()
}
