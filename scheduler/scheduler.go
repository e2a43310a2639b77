// Package scheduler guarantees at most one render in flight. Requests that
// arrive while a render runs are dropped, never queued.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/termraster/core"
)

// State is the render state machine position
type State int32

const (
	Idle State = iota
	Rendering
)

func (s State) String() string {
	if s == Rendering {
		return "rendering"
	}
	return "idle"
}

// Job is one render; it may block until its frame is presented
type Job func(ctx context.Context) error

// PrepareFunc runs on the requesting goroutine when a render starts and
// returns the job bound to a snapshot of staged state. Nil skips the render.
type PrepareFunc func() Job

// Stats counts scheduler outcomes
type Stats struct {
	Renders  uint64 // jobs started
	Dropped  uint64 // requests refused while rendering
	Failures uint64 // jobs that returned an error
}

// Scheduler drives Idle -> Rendering -> Idle
type Scheduler struct {
	ctx     context.Context
	prepare PrepareFunc
	onError func(error)
	log     *slog.Logger

	state   atomic.Int32
	pending atomic.Bool // redraw latch, edge-triggered
	wg      sync.WaitGroup

	renders  atomic.Uint64
	dropped  atomic.Uint64
	failures atomic.Uint64
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithErrorHandler receives job failures on the job goroutine
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) { s.onError = fn }
}

// WithLogger sets the logger for render failures
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates an idle scheduler; jobs receive ctx
func New(ctx context.Context, prepare PrepareFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctx:     ctx,
		prepare: prepare,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request starts a render unless one is in flight. It returns false when the
// request was dropped or prepare produced no job.
func (s *Scheduler) Request() bool {
	if !s.state.CompareAndSwap(int32(Idle), int32(Rendering)) {
		s.dropped.Add(1)
		return false
	}

	job := s.runPrepare()
	if job == nil {
		s.state.Store(int32(Idle))
		return false
	}

	s.renders.Add(1)
	s.wg.Add(1)
	core.Go(func() {
		defer s.wg.Done()
		defer s.state.Store(int32(Idle))

		if err := job(s.ctx); err != nil {
			s.failures.Add(1)
			s.log.Debug("render failed", "error", err)
			if s.onError != nil {
				s.onError(err)
			}
		}
	})
	return true
}

// runPrepare releases the state if prepare panics before a job exists
func (s *Scheduler) runPrepare() (job Job) {
	ok := false
	defer func() {
		if !ok {
			s.state.Store(int32(Idle))
		}
	}()
	job = s.prepare()
	ok = true
	return job
}

// RequestRedraw arms the latch; any number of calls before the next Tick
// yield one render
func (s *Scheduler) RequestRedraw() {
	s.pending.Store(true)
}

// Tick consumes the latch and renders once when idle. While rendering the
// latch stays armed for a later tick.
func (s *Scheduler) Tick() {
	if s.State() != Idle {
		return
	}
	if s.pending.Swap(false) {
		s.Request()
	}
}

// State returns the current state
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Stats returns a snapshot of the counters
func (s *Scheduler) Stats() Stats {
	return Stats{
		Renders:  s.renders.Load(),
		Dropped:  s.dropped.Load(),
		Failures: s.failures.Load(),
	}
}

// Wait blocks until the in-flight render, if any, has finished
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
