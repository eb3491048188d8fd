package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"IncomeLens/internal/fetch"
	"IncomeLens/internal/filter"
	"IncomeLens/internal/presenter"
	"IncomeLens/internal/sorting"
	"IncomeLens/internal/view"
)

// ErrNotApplicable is returned when a lifecycle event does not apply to the
// current fetch state, e.g. Start while Loading or Retry while Ready.
var ErrNotApplicable = errors.New("event not applicable in current state")

// Event is a unit of work processed by the session loop.
type Event interface {
	apply(s *Session) error
}

// SetFilter sets one bound from raw user input.
type SetFilter struct {
	Field filter.Field
	Value string
}

// ClearFilters unsets every bound.
type ClearFilters struct{}

// ToggleSort toggles the sort on a column.
type ToggleSort struct{ Key sorting.Key }

// TogglePanel expands or collapses a filter panel.
type TogglePanel struct{ Panel presenter.Panel }

// Start begins the initial load.
type Start struct{}

// Retry reloads after a failure.
type Retry struct{}

type fetchDone struct{ result fetch.Result }

func (e SetFilter) apply(s *Session) error { return s.filter.Set(e.Field, e.Value) }
func (e ToggleSort) apply(s *Session) error { return s.sort.Toggle(e.Key) }
func (e TogglePanel) apply(s *Session) error { return s.panels.Toggle(e.Panel) }
func (Start) apply(s *Session) error { return s.launch(s.ctrl.Start()) }
func (Retry) apply(s *Session) error { return s.launch(s.ctrl.Retry()) }
func (ClearFilters) apply(s *Session) error {
	s.filter.Clear()
	return nil
}

func (e fetchDone) apply(s *Session) error {
	if s.ctrl.Complete(e.result) {
		if st := s.ctrl.State(); st.Status == fetch.StatusReady {
			s.pipeline.SetRecords(st.Records)
		}
	}
	return nil
}

type envelope struct {
	event Event
	done  chan error
}

// Session owns the fetch controller, the filter and sort states, the panels
// and the view pipeline. All of them are touched only by the Run goroutine;
// events are processed one at a time in arrival order.
type Session struct {
	ctrl     *fetch.Controller
	filter   filter.State
	sort     sorting.State
	panels   presenter.Panels
	pipeline *view.Pipeline
	logger   *zap.Logger

	events chan envelope
	runCtx context.Context
	jobs   sync.WaitGroup

	mu          sync.RWMutex
	snapshot    presenter.Snapshot
	subscribers []func(presenter.Snapshot)
}

// New creates a Session around ctrl. Call Run before dispatching events.
func New(ctrl *fetch.Controller, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		ctrl:     ctrl,
		pipeline: view.NewPipeline(),
		logger:   logger,
		events:   make(chan envelope, 16),
	}
	s.publish()
	return s
}

// Run processes events until ctx is cancelled, then waits for in-flight
// fetch jobs to return.
func (s *Session) Run(ctx context.Context) {
	s.runCtx = ctx
	defer s.jobs.Wait()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped")
			return
		case env := <-s.events:
			err := env.event.apply(s)
			if err != nil {
				s.logger.Debug("event rejected", zap.Error(err))
			}
			s.publish()
			if env.done != nil {
				env.done <- err
			}
		}
	}
}

// Dispatch enqueues ev and waits until the loop has processed it.
func (s *Session) Dispatch(ctx context.Context, ev Event) error {
	env := envelope{event: ev, done: make(chan error, 1)}
	select {
	case s.events <- env:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-env.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the most recently published view.
func (s *Session) Snapshot() presenter.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Subscribe registers fn to receive every published snapshot. fn runs on the
// session goroutine and must not call Dispatch.
func (s *Session) Subscribe(fn func(presenter.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Session) launch(job fetch.Job, ok bool) error {
	if !ok {
		return ErrNotApplicable
	}
	ctx := s.runCtx
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		res := job.Run(ctx)
		select {
		case s.events <- envelope{event: fetchDone{result: res}}:
		case <-ctx.Done():
		}
	}()
	return nil
}

func (s *Session) publish() {
	s.pipeline.SetFilter(s.filter)
	s.pipeline.SetSort(s.sort)
	snap := presenter.Build(s.ctrl.State(), s.filter, s.sort, s.panels, s.pipeline.Rows())

	s.mu.Lock()
	s.snapshot = snap
	subs := s.subscribers
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
