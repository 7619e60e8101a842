package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/api"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/graph"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/session"
)

// RenderAnswer renders answer text as markdown when r is set, plain
// otherwise. Failure placeholders are never run through markdown.
func RenderAnswer(r *glamour.TermRenderer, answer string, failed bool) string {
	if failed {
		return errorStyle.Render(answer)
	}
	if strings.TrimSpace(answer) == "" {
		return subtleStyle.Render("No answer yet.")
	}
	if r != nil {
		if out, err := r.Render(answer); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return answer
}

// RenderSources lists sources by rank.
func RenderSources(sources []api.Source) string {
	if len(sources) == 0 {
		return subtleStyle.Render("No sources.")
	}
	var b strings.Builder
	for i, s := range sources {
		if i > 0 {
			b.WriteByte('\n')
		}
		page := ""
		if s.Page != nil {
			page = fmt.Sprintf(" p.%d", *s.Page)
		}
		fmt.Fprintf(&b, "%2d. %s%s %s", s.Rank, s.Path, page, labelStyle.Render(fmt.Sprintf("(%.3f)", s.Score)))
	}
	return b.String()
}

// RenderGraph prints nodes by weight and links colored by relation. Edges
// whose endpoints are missing are counted but not drawn.
func RenderGraph(m graph.Model) string {
	if m.IsEmpty() {
		return subtleStyle.Render("No graph.")
	}
	fg := m.ForceGraph()

	var b strings.Builder
	fmt.Fprintf(&b, "%d nodes, %d links", len(fg.Nodes), len(fg.Links))
	if dangling := len(m.Dangling()); dangling > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf(" (%d dangling skipped)", dangling)))
	}
	for _, n := range fg.Nodes {
		style := lipgloss.NewStyle()
		if c, ok := kindColors[string(n.Kind)]; ok {
			style = style.Foreground(c)
		}
		caption := strings.ReplaceAll(n.Caption, "\n", ", ")
		fmt.Fprintf(&b, "\n  %s %s", style.Render(fmt.Sprintf("● %-8s", n.Kind)), caption)
		b.WriteString(labelStyle.Render(fmt.Sprintf(" [%.0f]", n.Val)))
	}
	// Ascending priority: the most important relations print last.
	for _, l := range fg.Links {
		arrow := lipgloss.NewStyle().Foreground(lipgloss.Color(l.Color)).Render("─" + string(l.Type) + "→")
		fmt.Fprintf(&b, "\n  %s %s %s", l.Source, arrow, l.Target)
	}
	return b.String()
}

// RenderPlan shows a step sequence numbered, any other plan as indented
// JSON, and a failure in place of the plan.
func RenderPlan(p *api.Plan, failure *session.PlanFailure) string {
	if failure != nil {
		return errorStyle.Render(failure.Message)
	}
	if p == nil {
		return subtleStyle.Render("No plan yet. Press ctrl+e to explain a query.")
	}
	if !p.IsSequence() {
		return p.Pretty()
	}
	if len(p.Steps) == 0 {
		return subtleStyle.Render("The plan has no steps.")
	}
	var b strings.Builder
	for i, step := range p.Steps {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, step)
	}
	return b.String()
}

// RenderResults is the results pane: answer, sources and graph.
func RenderResults(r *glamour.TermRenderer, v session.ViewState) string {
	return strings.Join([]string{
		headingStyle.Render("Answer"),
		RenderAnswer(r, v.Answer, v.AnswerFailed),
		"",
		headingStyle.Render("Sources"),
		RenderSources(v.Sources),
		"",
		headingStyle.Render("Graph"),
		RenderGraph(v.Graph),
	}, "\n")
}
