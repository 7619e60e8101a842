// Package session owns the lifecycle of console queries and the view state
// derived from them.
//
// A Controller is not safe for concurrent use. It is meant to live on a
// single event loop (the terminal UI's Update function, or Loop) which
// serializes Submit and Resolve. Network calls run elsewhere and come back
// as Results; the request id check in Resolve is what keeps a slow, stale
// response from overwriting a newer one.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/api"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/graph"
)

var errEmptyAnswer = errors.New("backend returned no answer")

// Controller drives sessions through idle, pending, success and failed.
type Controller struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time

	current Session
	view    ViewState
}

// NewController returns an idle controller.
func NewController(backend Backend, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		backend: backend,
		logger:  logger.Named("session"),
		now:     time.Now,
		current: Session{Status: StatusIdle},
		view: ViewState{
			ActivePane: PaneResults,
			Status:     StatusIdle,
			Sources:    []api.Source{},
			Graph:      graph.Empty(),
		},
	}
}

// Submit starts a new session and returns its network call. A blank query
// is a no-op and returns nil. Whatever session was pending is superseded:
// its call keeps running, but its result will be discarded.
func (c *Controller) Submit(query string, f api.Filters, mode Mode) Call {
	if strings.TrimSpace(query) == "" || !mode.Valid() {
		return nil
	}

	if c.current.Status == StatusPending {
		c.logger.Debug("superseding pending session",
			zap.Uint64("request_id", c.current.RequestID),
			zap.String("mode", string(c.current.Mode)),
		)
	}

	c.current = Session{
		RequestID:     c.current.RequestID + 1,
		Mode:          mode,
		Status:        StatusPending,
		Query:         query,
		Filters:       f,
		CorrelationID: uuid.NewString(),
		StartedAt:     c.now(),
	}
	c.view.ActivePane = mode.Pane()
	c.view.Status = StatusPending
	c.view.Mode = mode
	c.view.RequestID = c.current.RequestID
	c.view.Query = query

	sessionsSubmittedTotal.WithLabelValues(string(mode)).Inc()
	c.logger.Info("session submitted",
		zap.Uint64("request_id", c.current.RequestID),
		zap.String("correlation_id", c.current.CorrelationID),
		zap.String("mode", string(mode)),
	)

	return newCall(c.backend, c.current)
}

func newCall(backend Backend, s Session) Call {
	return func(ctx context.Context) (res Result) {
		res = Result{RequestID: s.RequestID, Mode: s.Mode}
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				res.Answer, res.Plan = nil, nil
				res.Err = fmt.Errorf("backend call panicked: %v", r)
			}
			res.Took = time.Since(start)
		}()

		ctx = api.WithRequestID(ctx, s.CorrelationID)
		switch s.Mode {
		case ModeExecute:
			res.Answer, res.Err = backend.Ask(ctx, s.Query, s.Filters)
		case ModeExplain:
			res.Plan, res.Err = backend.Explain(ctx, s.Query, s.Filters)
		}
		return res
	}
}

// Resolve commits r if it belongs to the pending session and reports
// whether it did. Results of superseded or already resolved sessions are
// dropped without touching the view.
func (c *Controller) Resolve(r Result) bool {
	if r.RequestID != c.current.RequestID || c.current.Status != StatusPending {
		staleResponsesTotal.WithLabelValues(string(r.Mode)).Inc()
		c.logger.Debug("discarding stale response",
			zap.Uint64("request_id", r.RequestID),
			zap.Uint64("current_request_id", c.current.RequestID),
		)
		return false
	}

	err := r.Err
	if err == nil {
		switch {
		case c.current.Mode == ModeExecute && r.Answer == nil:
			err = fmt.Errorf("%w: %w", api.ErrMalformed, errEmptyAnswer)
		case c.current.Mode == ModeExplain && r.Plan == nil:
			err = fmt.Errorf("%w: backend returned no plan", api.ErrMalformed)
		}
	}

	if err != nil {
		c.fail(err)
	} else {
		c.succeed(r)
	}

	sessionsResolvedTotal.WithLabelValues(string(c.current.Mode), string(c.current.Status)).Inc()
	sessionDuration.WithLabelValues(string(c.current.Mode)).Observe(c.now().Sub(c.current.StartedAt).Seconds())
	return true
}

func (c *Controller) succeed(r Result) {
	c.current.Status = StatusSuccess
	c.view.Status = StatusSuccess

	switch c.current.Mode {
	case ModeExecute:
		c.view.Answer = r.Answer.Answer
		c.view.AnswerFailed = false
		c.view.Sources = r.Answer.Sources
		if c.view.Sources == nil {
			c.view.Sources = []api.Source{}
		}
		c.view.Graph = graph.Normalize(r.Answer.Graph)
		if dangling := c.view.Graph.Dangling(); len(dangling) > 0 {
			c.logger.Debug("graph has dangling edges", zap.Int("count", len(dangling)))
		}
	case ModeExplain:
		c.view.Plan = r.Plan
		c.view.PlanError = nil
	}

	c.logger.Info("session succeeded",
		zap.Uint64("request_id", c.current.RequestID),
		zap.String("mode", string(c.current.Mode)),
		zap.Duration("took", r.Took),
	)
}

// fail records the failure in the pane that belongs to the failed mode and
// leaves the other pane alone.
func (c *Controller) fail(err error) {
	c.current.Status = StatusFailed
	c.view.Status = StatusFailed

	switch c.current.Mode {
	case ModeExecute:
		c.view.Answer = AnswerFailedMessage
		c.view.AnswerFailed = true
	case ModeExplain:
		c.view.PlanError = &PlanFailure{Message: PlanFailedMessage}
	}

	c.logger.Warn("session failed",
		zap.Uint64("request_id", c.current.RequestID),
		zap.String("correlation_id", c.current.CorrelationID),
		zap.String("mode", string(c.current.Mode)),
		zap.Error(err),
	)
}

// View returns a copy of the current view state.
func (c *Controller) View() ViewState {
	return c.view.clone()
}

// Current returns the authoritative session.
func (c *Controller) Current() Session {
	return c.current
}
