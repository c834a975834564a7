package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type queue[T any] []T

func (wq *queue[T]) Len() int { return len(*wq) }

func (wq *queue[T]) Pop() T {
	old := *wq
	x := old[0]
	*wq = old[1:]
	return x
}

func (wq *queue[T]) Push(t T) {
	*wq = append(*wq, t)
}

type workRequest[T any] struct {
	name string
	fn   Work[T]
	c    chan Result[T]
	ctx  context.Context
}

type Scheduler[T any] struct {
	workers   int
	idle      int
	workQueue *queue[workRequest[T]]

	submit  chan workRequest[T]
	freed   chan struct{}
	close   chan struct{}
	stopped chan struct{}

	mainCtx    context.Context
	mainCancel context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

// New starts a pool of nbWorkers workers. Work contexts derive from parent.
func New[T any](parent context.Context, nbWorkers int) *Scheduler[T] {
	if nbWorkers < 1 {
		nbWorkers = 1
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Scheduler[T]{
		workers:    nbWorkers,
		idle:       nbWorkers,
		workQueue:  &queue[workRequest[T]]{},
		submit:     make(chan workRequest[T]),
		freed:      make(chan struct{}, nbWorkers),
		close:      make(chan struct{}),
		stopped:    make(chan struct{}),
		mainCtx:    ctx,
		mainCancel: cancel,
	}

	go s.run()

	return s
}

// Submit queues w and returns a future for its result.
func (s *Scheduler[T]) Submit(name string, w Work[T]) *Future[T] {
	c := make(chan Result[T], 1)
	ctx, cancel := context.WithCancel(s.mainCtx)

	select {
	case <-s.mainCtx.Done():
		// closing: the work never runs
		c <- Result[T]{Name: name, Err: context.Canceled}
	case s.submit <- workRequest[T]{name: name, fn: w, c: c, ctx: ctx}:
	}

	return NewFuture(c, cancel)
}

// Close cancels queued and running work and waits for workers to return.
func (s *Scheduler[T]) Close() {
	s.once.Do(func() {
		s.mainCancel()
		s.close <- struct{}{}
		<-s.stopped
	})
}

func (s *Scheduler[T]) run() {
	defer close(s.stopped)

	for {
		select {
		case r := <-s.submit:
			s.workQueue.Push(r)
			s.dispatch()
		case <-s.freed:
			s.idle++
			s.dispatch()
		case <-s.close:
			for s.workQueue.Len() > 0 {
				r := s.workQueue.Pop()
				r.c <- Result[T]{Name: r.name, Err: context.Canceled}
			}
			s.wg.Wait()
			return
		}
	}
}

// dispatch drains the workQueue as much as possible
// based on available workers
func (s *Scheduler[T]) dispatch() {
	for s.idle > 0 && s.workQueue.Len() > 0 {
		r := s.workQueue.Pop()
		s.idle--
		s.wg.Add(1)
		go s.work(r)
	}
}

func (s *Scheduler[T]) work(r workRequest[T]) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			zap.S().Named("scheduler").Errorw("work panicked", "name", r.name, "panic", rec)
			r.c <- Result[T]{Name: r.name, Err: fmt.Errorf("worker panicked: %v", rec), Duration: time.Since(start)}
		}
		s.freed <- struct{}{}
		s.wg.Done()
	}()

	zap.S().Named("scheduler").Debugw("work started", "name", r.name)

	v, err := r.fn(r.ctx)
	r.c <- Result[T]{Name: r.name, Data: v, Err: err, Duration: time.Since(start)}
}
