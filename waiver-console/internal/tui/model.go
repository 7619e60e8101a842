// Package tui is the interactive terminal console. The bubbletea Update
// function is the only place the session controller is touched; backend
// calls run as commands and come back as resultMsg.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cast"

	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/api"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/session"
)

const (
	fieldQuery = iota
	fieldYear
	fieldGroup
	fieldState
	fieldCount
)

const helpText = "enter: ask • ctrl+e: explain • tab: next field • pgup/pgdn: scroll • ctrl+c: quit"

// resultMsg carries a finished backend call back to Update.
type resultMsg struct {
	result session.Result
}

// Model is the console's bubbletea model.
type Model struct {
	ctx      context.Context
	ctrl     *session.Controller
	inputs   []textinput.Model
	focus    int
	spinner  spinner.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer
	notice   string
	width    int
	height   int
}

// New builds the console around ctrl. ctx bounds every backend call.
func New(ctx context.Context, ctrl *session.Controller) Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = "│ "
		ti.PromptStyle = labelStyle
		inputs[i] = ti
	}
	inputs[fieldQuery].Placeholder = "Ask about waivers, states, themes..."
	inputs[fieldQuery].CharLimit = 2048
	inputs[fieldQuery].Width = 80
	inputs[fieldYear].Placeholder = "year"
	inputs[fieldYear].CharLimit = 4
	inputs[fieldYear].Width = 6
	inputs[fieldGroup].Placeholder = "group"
	inputs[fieldGroup].CharLimit = 128
	inputs[fieldGroup].Width = 18
	inputs[fieldState].Placeholder = "state"
	inputs[fieldState].CharLimit = 64
	inputs[fieldState].Width = 10
	inputs[fieldQuery].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		inputs:   inputs,
		spinner:  sp,
		viewport: viewport.New(80, 20),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg), nil

	case resultMsg:
		m.ctrl.Resolve(msg.result)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.View().Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab":
			step := 1
			if msg.String() == "shift+tab" {
				step = fieldCount - 1
			}
			return m.focusField((m.focus + step) % fieldCount), nil
		case "enter":
			return m.submit(session.ModeExecute)
		case "ctrl+e":
			return m.submit(session.ModeExplain)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) resize(msg tea.WindowSizeMsg) Model {
	m.width, m.height = max(msg.Width, 0), max(msg.Height, 0)
	m.viewport.Width = max(m.width-4, 20)
	m.viewport.Height = max(m.height-10, 5)
	m.inputs[fieldQuery].Width = max(m.width-8, 20)
	m.renderer, _ = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(m.viewport.Width-4, 20)),
	)
	m.refresh()
	return m
}

func (m Model) focusField(i int) Model {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
	return m
}

// filters reads the filter fields. Only a malformed year is an error.
func (m Model) filters() (api.Filters, bool) {
	var f api.Filters
	if y := strings.TrimSpace(m.inputs[fieldYear].Value()); y != "" {
		year, err := cast.ToIntE(y)
		if err != nil {
			return f, false
		}
		f.Year = &year
	}
	f.Group = strings.TrimSpace(m.inputs[fieldGroup].Value())
	f.State = strings.TrimSpace(m.inputs[fieldState].Value())
	return f, true
}

func (m Model) submit(mode session.Mode) (tea.Model, tea.Cmd) {
	f, ok := m.filters()
	if !ok {
		m.notice = "Year must be a number."
		return m, nil
	}
	m.notice = ""

	call := m.ctrl.Submit(m.inputs[fieldQuery].Value(), f, mode)
	if call == nil {
		return m, nil
	}
	m.refresh()

	ctx := m.ctx
	run := func() tea.Msg {
		return resultMsg{result: call(ctx)}
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

// refresh re-renders the active pane into the viewport.
func (m *Model) refresh() {
	v := m.ctrl.View()
	var content string
	if v.ActivePane == session.PanePlan {
		content = RenderPlan(v.Plan, v.PlanError)
	} else {
		content = RenderResults(m.renderer, v)
	}
	m.viewport.SetContent(content)
}

// View implements tea.Model.
func (m Model) View() string {
	v := m.ctrl.View()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Waiver Console"))
	b.WriteString("\n\n")
	b.WriteString(m.inputs[fieldQuery].View())
	b.WriteByte('\n')
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.inputs[fieldYear].View(), "  ",
		m.inputs[fieldGroup].View(), "  ",
		m.inputs[fieldState].View(),
	))
	b.WriteString("\n\n")

	b.WriteString(tabs(v.ActivePane))
	b.WriteString("  ")
	b.WriteString(statusLine(v, m.spinner.View()))
	if m.notice != "" {
		b.WriteString("  ")
		b.WriteString(errorStyle.Render(m.notice))
	}
	b.WriteByte('\n')
	b.WriteString(paneStyle.Render(m.viewport.View()))
	b.WriteByte('\n')
	b.WriteString(subtleStyle.Render(helpText))
	return b.String()
}

func tabs(active session.Pane) string {
	results, plan := inactiveTabStyle, inactiveTabStyle
	if active == session.PanePlan {
		plan = activeTabStyle
	} else {
		results = activeTabStyle
	}
	return results.Render("Results") + plan.Render("Plan")
}

func statusLine(v session.ViewState, spin string) string {
	switch v.Status {
	case session.StatusPending:
		return spin + " " + subtleStyle.Render("working on "+quote(v.Query))
	case session.StatusFailed:
		return errorStyle.Render("failed")
	case session.StatusSuccess:
		return subtleStyle.Render("done")
	default:
		return subtleStyle.Render("ready")
	}
}

func quote(s string) string {
	const limit = 40
	if r := []rune(s); len(r) > limit {
		s = string(r[:limit]) + "…"
	}
	return "\"" + s + "\""
}
