// Package tui is the terminal chat front end: a transcript viewport, a question box and
// slash commands for picking the case under discussion.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hyperjump/lexilaw/internal/casemeta"
	"github.com/hyperjump/lexilaw/internal/rag"
)

// ChatPort is the TUI-facing subset of the RAG service.
type ChatPort interface {
	Ask(ctx context.Context, sess *rag.Session, question string) (*rag.Answer, error)
}

// CaseCatalog provides the case listing shown by /cases and /issues.
type CaseCatalog interface {
	Catalog() *casemeta.Catalog
}

type role int

const (
	roleUser role = iota
	roleAssistant
	roleSystem
)

type entry struct {
	role    role
	text    string
	sources []rag.Source
}

type answerMsg struct {
	answer *rag.Answer
	err    error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	ctx     context.Context
	chat    ChatPort
	cases   CaseCatalog
	caseDir string
	session *rag.Session

	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript []entry
	status     string
	pending    bool
	ready      bool
}

// New creates a chat model. caseDir is where /case looks for case files.
func New(ctx context.Context, chat ChatPort, cases CaseCatalog, caseDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about company law, or /help"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		chat:     chat,
		cases:    cases,
		caseDir:  caseDir,
		session:  rag.NewSession(""),
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "General mode. Type /case <file> to discuss one case.",
	}
}

// Session returns the conversation state.
func (m Model) Session() *rag.Session { return m.session }

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + mode, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil
	case answerMsg:
		m.pending = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.transcript = append(m.transcript, entry{role: roleAssistant, text: msg.answer.Text, sources: msg.answer.Sources})
			m.status = fmt.Sprintf("%d sources", len(msg.answer.Sources))
		}
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.pending {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if name, arg, ok := parseCommand(line); ok {
				return m.runCommand(name, arg)
			}
			return m.ask(line)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) (tea.Model, tea.Cmd) {
	m.transcript = append(m.transcript, entry{role: roleUser, text: question})
	m.pending = true
	m.status = "Thinking..."
	m.refresh()
	ctx, chat, sess := m.ctx, m.chat, m.session
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ans, err := chat.Ask(ctx, sess, question)
		return answerMsg{answer: ans, err: err}
	})
}

// parseCommand splits "/name arg..." into its parts. ok is false for ordinary questions.
func parseCommand(line string) (name, arg string, ok bool) {
	if !strings.HasPrefix(line, "/") {
		return "", "", false
	}
	name, arg, _ = strings.Cut(line[1:], " ")
	return strings.ToLower(name), strings.TrimSpace(arg), true
}

func (m Model) runCommand(name, arg string) (tea.Model, tea.Cmd) {
	switch name {
	case "quit", "exit":
		return m, tea.Quit
	case "clear":
		m.session.Clear()
		m.transcript = nil
		m.status = "History cleared."
	case "case":
		m.selectCase(arg)
	case "cases":
		m.note(m.caseListing(arg))
	case "issues":
		issues := m.cases.Catalog().Issues()
		if len(issues) == 0 {
			m.note("No issues recorded. Run `lexilaw metadata` first.")
		} else {
			m.note("Issues: " + strings.Join(issues, ", "))
		}
	case "help":
		m.note(helpText)
	default:
		m.status = fmt.Sprintf("Unknown command /%s. Try /help.", name)
	}
	m.refresh()
	return m, nil
}

func (m *Model) selectCase(arg string) {
	name := rag.NormalizeCase(arg)
	if name != "" {
		if filepath.Base(name) != name {
			m.status = "Case must be a file name."
			return
		}
		if _, err := os.Stat(filepath.Join(m.caseDir, name)); err != nil {
			m.status = fmt.Sprintf("Case %s not found in %s.", name, m.caseDir)
			return
		}
	}
	if !m.session.SelectCase(name) {
		m.status = "Case unchanged."
		return
	}
	m.transcript = nil
	if name == "" {
		m.status = "General mode. History cleared."
		return
	}
	m.status = "Discussing " + name + ". History cleared."
}

func (m Model) caseListing(issue string) string {
	cases := m.cases.Catalog().Filter(issue)
	if len(cases) == 0 {
		return "No cases found."
	}
	var b strings.Builder
	for i := range cases {
		fmt.Fprintf(&b, "%s\n  %s\n", cases[i].DisplayTitle(), cases[i].Filename)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) note(text string) {
	m.transcript = append(m.transcript, entry{role: roleSystem, text: text})
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

const helpText = `/case <file>   discuss one case (history is cleared)
/case none     back to general mode
/cases [issue] list cases, optionally by issue
/issues        list issue keywords
/clear         clear the conversation
/quit          exit`
