package session

import (
	"context"
	"time"

	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/api"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/graph"
)

// Mode selects which backend flow a session runs.
type Mode string

const (
	ModeExecute Mode = "execute"
	ModeExplain Mode = "explain"
)

// Pane is the pane a mode's results are shown in.
func (m Mode) Pane() Pane {
	if m == ModeExplain {
		return PanePlan
	}
	return PaneResults
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeExecute || m == ModeExplain
}

// Status is the lifecycle state of the authoritative session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Pane is the visible results area.
type Pane string

const (
	PaneResults Pane = "results"
	PanePlan    Pane = "plan"
)

// User-visible placeholders committed on failure. The underlying error is
// logged, never displayed.
const (
	AnswerFailedMessage = "Something went wrong while answering your question. Please try again."
	PlanFailedMessage   = "Could not build an execution plan. Please try again."
)

// Backend is the network side of a session.
type Backend interface {
	Ask(ctx context.Context, query string, f api.Filters) (*api.AskResult, error)
	Explain(ctx context.Context, query string, f api.Filters) (*api.Plan, error)
}

// Session is one user-triggered request.
type Session struct {
	RequestID     uint64      `json:"requestId"`
	Mode          Mode        `json:"mode"`
	Status        Status      `json:"status"`
	Query         string      `json:"query"`
	Filters       api.Filters `json:"filters"`
	CorrelationID string      `json:"correlationId"`
	StartedAt     time.Time   `json:"startedAt"`
}

// Result is the completion of a Call, tagged with the request it belongs to.
type Result struct {
	RequestID uint64
	Mode      Mode
	Answer    *api.AskResult
	Plan      *api.Plan
	Err       error
	Took      time.Duration
}

// Call performs the single network request of a session. It is safe to run
// on any goroutine; its Result must be handed back to Controller.Resolve on
// the goroutine that owns the controller.
type Call func(ctx context.Context) Result

// PlanFailure is what the plan pane shows after a failed explain.
type PlanFailure struct {
	Message string `json:"message"`
}

// ViewState is everything the presentation layer renders.
type ViewState struct {
	ActivePane Pane   `json:"activePane"`
	Status     Status `json:"status"`
	Mode       Mode   `json:"mode,omitempty"`
	RequestID  uint64 `json:"requestId"`
	Query      string `json:"query"`

	Answer       string       `json:"answer"`
	AnswerFailed bool         `json:"answerFailed"`
	Sources      []api.Source `json:"sources"`
	Graph        graph.Model  `json:"graph"`

	Plan      *api.Plan    `json:"plan,omitempty"`
	PlanError *PlanFailure `json:"planError,omitempty"`
}

// Pending reports whether a request is outstanding.
func (v ViewState) Pending() bool {
	return v.Status == StatusPending
}

func (v ViewState) clone() ViewState {
	out := v
	out.Sources = append([]api.Source{}, v.Sources...)
	out.Graph = graph.Model{
		Nodes: append([]graph.Node{}, v.Graph.Nodes...),
		Edges: append([]graph.Edge{}, v.Graph.Edges...),
	}
	if v.Plan != nil {
		p := *v.Plan
		if v.Plan.Steps != nil {
			p.Steps = append([]string{}, v.Plan.Steps...)
		}
		out.Plan = &p
	}
	if v.PlanError != nil {
		pe := *v.PlanError
		out.PlanError = &pe
	}
	return out
}
