// Package tui is the interactive terminal front end: a document list, a
// selection field, a question field and a scrollable answer view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/engine"
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/store"
)

// Port is the TUI-facing subset of the engine.
type Port interface {
	Documents() ([]store.Record, error)
	Ask(ctx context.Context, question, selection string, onDelta llm.DeltaFunc) (*engine.Answer, error)
	Delete(ctx context.Context, selection string) (store.DeleteResult, error)
}

type focus int

const (
	focusSelection focus = iota
	focusQuestion
)

type (
	docsMsg struct {
		docs []store.Record
		err  error
	}
	answerMsg struct {
		answer *engine.Answer
		err    error
	}
	deleteMsg struct {
		result store.DeleteResult
		err    error
	}
)

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx       context.Context
	port      Port
	selection textinput.Model
	question  textinput.Model
	viewport  viewport.Model
	focus     focus
	docs      []store.Record
	answer    *engine.Answer
	status    string
	busy      bool
	ready     bool
	width     int
}

// New creates a new TUI model instance.
func New(ctx context.Context, port Port) Model {
	sel := textinput.New()
	sel.Prompt = "docs> "
	sel.Placeholder = "document numbers, e.g. 1 3 (empty = all)"

	q := textinput.New()
	q.Prompt = "ask> "
	q.Placeholder = "type a question and press Enter"
	q.Focus()

	return Model{
		ctx:       ctx,
		port:      port,
		selection: sel,
		question:  q,
		focus:     focusQuestion,
		viewport:  viewport.New(0, 0),
		status:    "tab: switch field  enter: ask  ctrl+x: delete selected  ctrl+r: reload  esc: quit",
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, port Port) error {
	_, err := tea.NewProgram(New(ctx, port), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// Init loads the document list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadDocs())
}

func (m Model) loadDocs() tea.Cmd {
	return func() tea.Msg {
		docs, err := m.port.Documents()
		return docsMsg{docs: docs, err: err}
	}
}

func (m Model) ask(question, selection string) tea.Cmd {
	return func() tea.Msg {
		ans, err := m.port.Ask(m.ctx, question, selection, nil)
		return answerMsg{answer: ans, err: err}
	}
}

func (m Model) remove(selection string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.port.Delete(m.ctx, selection)
		return deleteMsg{result: res, err: err}
	}
}

// Update handles key, window and result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, fh := answerBoxStyle.GetFrameSize()
		reserved := 1 + m.docsHeight() + 2 + 1 // header, docs, inputs, status
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-fh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case docsMsg:
		if msg.err != nil {
			m.status = "Error: " + apperr.Message(msg.err)
		}
		m.docs = msg.docs
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + apperr.Message(msg.err)
			return m, nil
		}
		m.answer = msg.answer
		m.status = fmt.Sprintf("Answered in %s by %s", msg.answer.Duration.Round(10*time.Millisecond), msg.answer.Model)
		if msg.answer.FellBack {
			m.status = "No documents matched the selection; searched all documents."
		}
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil

	case deleteMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + apperr.Message(msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted %d document(s).", len(msg.result.Deleted))
		m.selection.SetValue("")
		return m, m.loadDocs()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab:
			m.toggleFocus()
			return m, nil
		case tea.KeyCtrlR:
			return m, m.loadDocs()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyCtrlX:
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Deleting..."
			return m, m.remove(m.selection.Value())
		case tea.KeyEnter:
			if m.focus == focusSelection {
				m.toggleFocus()
				return m, nil
			}
			q := strings.TrimSpace(m.question.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			return m, m.ask(q, m.selection.Value())
		}
	}

	var cmd tea.Cmd
	if m.focus == focusSelection {
		m.selection, cmd = m.selection.Update(msg)
	} else {
		m.question, cmd = m.question.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == focusQuestion {
		m.focus = focusSelection
		m.question.Blur()
		m.selection.Focus()
		return
	}
	m.focus = focusQuestion
	m.selection.Blur()
	m.question.Focus()
}

func (m Model) docsHeight() int {
	return max(1, len(m.docs))
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("docqa") + "\n")
	b.WriteString(m.renderDocs() + "\n")
	b.WriteString(answerBoxStyle.Render(m.viewport.View()) + "\n")
	b.WriteString(m.selection.View() + "\n")
	b.WriteString(m.question.View() + "\n")
	b.WriteString(statusStyle.Render(m.status))
	return b.String()
}

func (m Model) renderDocs() string {
	if len(m.docs) == 0 {
		return mutedStyle.Render("No documents uploaded. Use `docqa upload <files>`.")
	}
	lines := make([]string, len(m.docs))
	for i, d := range m.docs {
		lines[i] = fmt.Sprintf("%s %s", numberStyle.Render(fmt.Sprintf("%3d", d.Number)), d.Name)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return mutedStyle.Render("No answer yet.")
	}
	width := max(20, m.viewport.Width-2)
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(width).Render(m.answer.Answer))
	b.WriteString("\n\n" + headerStyle.Render("Sources") + "\n")
	for _, s := range m.answer.Sources {
		b.WriteString(numberStyle.Render(fmt.Sprintf("%s #%d (%.3f)", s.Document, s.Position, s.Similarity)) + "\n")
		b.WriteString(mutedStyle.Width(width).Render(s.Text) + "\n")
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	numberStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
