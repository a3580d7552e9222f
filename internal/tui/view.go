package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	systemStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// View renders the header, transcript, input box and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("LexiLaw")
	mode := "General: Companies Act and case law"
	if m.session.HasCase() {
		mode = "Case: " + m.session.SelectedCase
	}
	modeLine := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(mode)
	status := m.status
	if m.pending {
		status = m.spinner.View() + " " + status
	}
	statusLine := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(status)
	return header + "\n" + modeLine + "\n" +
		transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		queryBoxStyle.Render(m.input.View()) + "\n" + statusLine
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "Ask a question to begin."
	}
	width := m.viewport.Width - 4
	var parts []string
	for _, e := range m.transcript {
		switch e.role {
		case roleUser:
			parts = append(parts, userStyle.Render("You: ")+wrap(e.text, width))
		case roleAssistant:
			parts = append(parts, assistantStyle.Render(wrap(e.text, width))+renderSources(e))
		default:
			parts = append(parts, systemStyle.Render(e.text))
		}
	}
	return strings.Join(parts, "\n\n")
}

func renderSources(e entry) string {
	if len(e.sources) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range e.sources {
		if s.Page > 0 {
			fmt.Fprintf(&b, "\n  [%d] %s p.%d", i+1, s.Source, s.Page)
		} else {
			fmt.Fprintf(&b, "\n  [%d] %s", i+1, s.Source)
		}
	}
	return sourceStyle.Render(b.String())
}

func wrap(s string, width int) string {
	if width < 10 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
