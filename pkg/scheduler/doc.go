// Package scheduler implements a worker pool executing named work with futures.
//
// The case runner submits one work item per test case; with a single worker
// cases run strictly in submission order.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                         Scheduler[T]                                │
//	│                                                                     │
//	│   idle workers: N ──dispatch()──► goroutine per running work        │
//	│        ▲                                   │                        │
//	│        └──────────── freed ────────────────┘                        │
//	│                                                                     │
//	│  ┌─────────────────────────────────────────────────────────┐        │
//	│  │                 Work Queue (FIFO)                       │        │
//	│  │  [case1] [case2] [case3] ...                            │        │
//	│  └─────────────────────────────────────────────────────────┘        │
//	│                               ▲                                     │
//	│                        Submit(name, fn)                             │
//	└─────────────────────────────────────────────────────────────────────┘
//
// # Work Execution Flow
//
//  1. Submit(name, fn) creates a request with a buffered result channel and
//     a context derived from the scheduler context, and hands it to run().
//  2. run() queues it and calls dispatch(), which starts queued work while
//     idle workers remain.
//  3. The work function runs; its Result{Name, Data, Err, Duration} is sent
//     on the future channel and the worker is freed.
//  4. run() receives the freed signal and dispatches again.
//
// # Future
//
//	future := s.Submit("login", func(ctx context.Context) (*Outcome, error) {
//	    return run(ctx)
//	})
//	res := future.Wait(ctx)   // or <-future.C()
//
// Stop cancels the work context. Wait cancels it too when its own ctx ends.
//
// # Panic Recovery
//
// A panicking work function is reported as an error result; the worker
// returns to the pool.
//
// # Shutdown
//
// Close cancels the scheduler context, answers every queued request with
// context.Canceled, waits for running work to return and stops the loop.
// Submit after Close returns a future already holding context.Canceled.
package scheduler
