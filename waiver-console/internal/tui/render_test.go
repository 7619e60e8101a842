package tui

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/api"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/graph"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/session"
)

func TestRenderAnswer(t *testing.T) {
	assert.Equal(t, "plain **text**", RenderAnswer(nil, "plain **text**", false))
	assert.Contains(t, RenderAnswer(nil, "", false), "No answer yet.")
	assert.Contains(t, RenderAnswer(nil, session.AnswerFailedMessage, true), session.AnswerFailedMessage)
}

func TestRenderSources(t *testing.T) {
	page := 4
	out := RenderSources([]api.Source{
		{Rank: 1, Path: "a.pdf", Page: &page, Score: 0.9},
		{Rank: 2, Path: "b.pdf", Score: 0.25},
	})

	assert.Contains(t, out, " 1. a.pdf p.4")
	assert.Contains(t, out, " 2. b.pdf")
	assert.Contains(t, out, "0.250")
	assert.Contains(t, RenderSources(nil), "No sources.")
}

func TestRenderGraph(t *testing.T) {
	m := graph.Normalize([]byte(`{
		"nodes": [{"id": "CA", "type": "State"}, {"id": "w1", "type": "Waiver", "title": "HCBS", "state": "CA"}],
		"edges": [
			{"from": "w1", "to": "CA", "type": "HAS_STATE"},
			{"from": "w1", "to": "ghost", "type": "HAS_THEME"}
		]
	}`))

	out := RenderGraph(m)

	assert.Contains(t, out, "2 nodes, 1 links")
	assert.Contains(t, out, "1 dangling skipped")
	assert.Contains(t, out, "State: CA")
	assert.Contains(t, out, "HCBS, State: CA")
	assert.Contains(t, out, "HAS_STATE")
	assert.NotContains(t, out, "ghost")
	assert.Contains(t, RenderGraph(graph.Empty()), "No graph.")
}

func TestRenderPlan(t *testing.T) {
	assert.Equal(t, "1. embed\n2. search", RenderPlan(&api.Plan{Steps: []string{"embed", "search"}}, nil))
	assert.Contains(t, RenderPlan(&api.Plan{Raw: json.RawMessage(`{"a":1}`)}, nil), "\"a\": 1")
	assert.Contains(t, RenderPlan(&api.Plan{Steps: []string{}}, nil), "no steps")
	assert.Contains(t, RenderPlan(nil, nil), "No plan yet")
	assert.Contains(t, RenderPlan(&api.Plan{Steps: []string{"kept"}}, &session.PlanFailure{Message: "broken"}), "broken")
}
