package fetch

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"IncomeLens/internal/collector"
	"IncomeLens/internal/model"
)

// MalformedDataMessage is shown for every ParseError.
const MalformedDataMessage = "received malformed data from the financial data service"

// Status is the lifecycle tag of the load.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State is the observable lifecycle state. Records is set only when Ready,
// Message only when Error.
type State struct {
	Status  Status
	Records []model.Record
	Message string
}

// Job is one load attempt handed out by Start or Retry.
type Job struct {
	Attempt string
	fetcher collector.Fetcher
}

// Result is the outcome of running a Job.
type Result struct {
	Attempt string
	Records []model.Record
	Err     error
}

// Run performs the load. It blocks on the network and must not be called
// while holding the session.
func (j Job) Run(ctx context.Context) Result {
	records, err := j.fetcher.Load(ctx)
	return Result{Attempt: j.Attempt, Records: records, Err: err}
}

// Controller is the load state machine:
//
//	Idle  --start-->   Loading
//	Loading --ok-->    Ready
//	Loading --fail-->  Error
//	Error --retry-->   Loading
//
// Ready is terminal. Every other (state, event) pair is ignored.
type Controller struct {
	mu        sync.RWMutex
	fetcher   collector.Fetcher
	logger    *zap.Logger
	state     State
	attempt   string
}

// NewController creates a Controller in Idle.
func NewController(fetcher collector.Fetcher, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{fetcher: fetcher, logger: logger}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Start moves Idle to Loading and returns the job to run. It is a no-op in
// any other state.
func (c *Controller) Start() (Job, bool) {
	return c.begin(StatusIdle, "start")
}

// Retry moves Error to Loading, clearing the previous message first. It is a
// no-op in any other state.
func (c *Controller) Retry() (Job, bool) {
	return c.begin(StatusError, "retry")
}

func (c *Controller) begin(from Status, event string) (Job, bool) {
	c.mu.Lock()
	if c.state.Status != from {
		status := c.state.Status
		c.mu.Unlock()
		c.logger.Debug("fetch event ignored",
			zap.String("event", event),
			zap.Stringer("status", status))
		return Job{}, false
	}
	c.attempt = uuid.NewString()
	c.state = State{Status: StatusLoading}
	job := Job{Attempt: c.attempt, fetcher: c.fetcher}
	c.mu.Unlock()

	c.logger.Info("fetch started", zap.String("event", event), zap.String("attempt", job.Attempt))
	return job, true
}

// Complete applies a job result. Results for attempts other than the current
// in-flight one are discarded and Complete returns false.
func (c *Controller) Complete(res Result) bool {
	c.mu.Lock()
	if c.state.Status != StatusLoading || res.Attempt != c.attempt {
		c.mu.Unlock()
		c.logger.Warn("stale fetch result discarded", zap.String("attempt", res.Attempt))
		return false
	}
	if res.Err != nil {
		c.state = State{Status: StatusError, Message: Message(res.Err)}
	} else {
		records := res.Records
		if records == nil {
			records = []model.Record{}
		}
		c.state = State{Status: StatusReady, Records: records}
	}
	c.attempt = ""
	next := c.state
	c.mu.Unlock()

	if res.Err != nil {
		c.logger.Error("fetch failed", zap.String("attempt", res.Attempt), zap.Error(res.Err))
	} else {
		c.logger.Info("fetch ready", zap.String("attempt", res.Attempt), zap.Int("records", len(next.Records)))
	}
	return true
}

// Message turns a load error into the user-visible text.
func Message(err error) string {
	var pe *collector.ParseError
	if errors.As(err, &pe) {
		return MalformedDataMessage
	}
	return err.Error()
}
