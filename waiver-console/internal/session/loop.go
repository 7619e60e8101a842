package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/api"
)

// ErrStopped is returned by Loop methods once Run has returned.
var ErrStopped = errors.New("session loop stopped")

// Loop gives a Controller a single owner goroutine so it can be driven from
// many goroutines, such as HTTP handlers. Submit, Resolve and View all run
// on the goroutine executing Run.
type Loop struct {
	ctrl   *Controller
	logger *zap.Logger
	events chan func(context.Context)
	done   chan struct{}
	calls  sync.WaitGroup
}

// NewLoop wraps ctrl. Nothing happens until Run is called.
func NewLoop(ctrl *Controller, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		ctrl:   ctrl,
		logger: logger.Named("loop"),
		events: make(chan func(context.Context)),
		done:   make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled. In-flight calls are
// cancelled with it and Run waits for them before returning.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			l.calls.Wait()
			l.logger.Debug("session loop stopped")
			return nil
		case ev := <-l.events:
			ev(ctx)
		}
	}
}

func (l *Loop) post(ctx context.Context, ev func(context.Context)) error {
	select {
	case l.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Submit starts a session and returns it. ok is false for a blank query,
// in which case the returned session is the unchanged current one.
func (l *Loop) Submit(ctx context.Context, query string, f api.Filters, mode Mode) (s Session, ok bool, err error) {
	type reply struct {
		s  Session
		ok bool
	}
	out := make(chan reply, 1)

	err = l.post(ctx, func(runCtx context.Context) {
		call := l.ctrl.Submit(query, f, mode)
		if call == nil {
			out <- reply{s: l.ctrl.Current()}
			return
		}
		l.calls.Add(1)
		go func() {
			defer l.calls.Done()
			res := call(runCtx)
			if err := l.post(runCtx, func(context.Context) { l.ctrl.Resolve(res) }); err != nil {
				l.logger.Debug("dropping result after shutdown", zap.Uint64("request_id", res.RequestID))
			}
		}()
		out <- reply{s: l.ctrl.Current(), ok: true}
	})
	if err != nil {
		return Session{}, false, err
	}
	r := <-out
	return r.s, r.ok, nil
}

// View returns a snapshot of the view state.
func (l *Loop) View(ctx context.Context) (ViewState, error) {
	out := make(chan ViewState, 1)
	if err := l.post(ctx, func(context.Context) { out <- l.ctrl.View() }); err != nil {
		return ViewState{}, err
	}
	return <-out, nil
}

// Current returns the authoritative session.
func (l *Loop) Current(ctx context.Context) (Session, error) {
	out := make(chan Session, 1)
	if err := l.post(ctx, func(context.Context) { out <- l.ctrl.Current() }); err != nil {
		return Session{}, err
	}
	return <-out, nil
}
