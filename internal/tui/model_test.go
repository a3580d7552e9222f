package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hyperjump/lexilaw/internal/casemeta"
	"github.com/hyperjump/lexilaw/internal/models"
	"github.com/hyperjump/lexilaw/internal/rag"
)

type fakeChat struct {
	answer *rag.Answer
	err    error
	asked  []string
}

func (f *fakeChat) Ask(_ context.Context, sess *rag.Session, q string) (*rag.Answer, error) {
	f.asked = append(f.asked, sess.SelectedCase+"|"+q)
	return f.answer, f.err
}

type fixedCatalog struct{ c *casemeta.Catalog }

func (f fixedCatalog) Catalog() *casemeta.Catalog { return f.c }

const caseFile = "SC_India_2016_Tata_vs_Mistry.pdf"

func newModel(t *testing.T, chat ChatPort) Model {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, caseFile), []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}
	cat := casemeta.NewCatalog([]models.CaseMetadata{{
		Filename: caseFile, Court: "SC India", Year: "2016", Title: "Tata_vs_Mistry", Issues: []string{"oppression"},
	}})
	m := New(context.Background(), chat, fixedCatalog{cat}, dir)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func submit(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

// runAsk executes the batched ask command and feeds its answer back into the model.
func runAsk(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("ask returned no command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatal("ask should return a batch")
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(answerMsg); ok {
			next, _ := m.Update(msg)
			return next.(Model)
		}
	}
	t.Fatal("no answer message in batch")
	return m
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line      string
		name      string
		arg       string
		isCommand bool
	}{
		{"/case foo.pdf", "case", "foo.pdf", true},
		{"/CASES  oppression ", "cases", "oppression", true},
		{"/quit", "quit", "", true},
		{"what is section 241?", "", "", false},
	}
	for _, tt := range tests {
		name, arg, ok := parseCommand(tt.line)
		if ok != tt.isCommand || name != tt.name || arg != tt.arg {
			t.Errorf("parseCommand(%q) = %q, %q, %v; want %q, %q, %v", tt.line, name, arg, ok, tt.name, tt.arg, tt.isCommand)
		}
	}
}

func TestAsk_appendsAnswer(t *testing.T) {
	chat := &fakeChat{answer: &rag.Answer{Text: "Section 241 applies.", Sources: []rag.Source{{Source: "act.pdf", Page: 3}}}}
	m := newModel(t, chat)

	m, cmd := submit(t, m, "What is oppression?")
	if !m.pending {
		t.Error("model not pending while the answer is outstanding")
	}
	m = runAsk(t, m, cmd)

	if m.pending {
		t.Error("model still pending after the answer")
	}
	if len(chat.asked) != 1 || chat.asked[0] != "|What is oppression?" {
		t.Errorf("asked = %v", chat.asked)
	}
	if len(m.transcript) != 2 {
		t.Fatalf("transcript has %d entries, want 2", len(m.transcript))
	}
	if m.transcript[1].role != roleAssistant {
		t.Errorf("second entry role = %v, want assistant", m.transcript[1].role)
	}
	out := m.renderTranscript()
	for _, want := range []string{"Section 241 applies.", "act.pdf p.3"} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q:\n%s", want, out)
		}
	}
}

func TestAsk_errorShownInStatus(t *testing.T) {
	chat := &fakeChat{err: errors.New("error generating response (generate): quota")}
	m := newModel(t, chat)
	m, cmd := submit(t, m, "q")
	m = runAsk(t, m, cmd)
	if !strings.HasPrefix(m.status, "Error: ") {
		t.Errorf("status = %q", m.status)
	}
	if len(m.transcript) != 1 {
		t.Errorf("transcript has %d entries, want only the question", len(m.transcript))
	}
}

func TestCaseCommand(t *testing.T) {
	chat := &fakeChat{answer: &rag.Answer{Text: "ok"}}
	m := newModel(t, chat)
	m.session.History = []models.Turn{{Role: models.RoleUser, Content: "earlier"}}

	m, _ = submit(t, m, "/case missing.pdf")
	if m.session.SelectedCase != "" {
		t.Errorf("missing case selected: %q", m.session.SelectedCase)
	}
	if !strings.Contains(m.status, "not found") {
		t.Errorf("status = %q", m.status)
	}

	m, _ = submit(t, m, "/case "+caseFile)
	if m.session.SelectedCase != caseFile {
		t.Errorf("SelectedCase = %q", m.session.SelectedCase)
	}
	if len(m.session.History) != 0 {
		t.Errorf("history not cleared on case change: %d turns", len(m.session.History))
	}
	if !strings.Contains(m.View(), "Case: "+caseFile) {
		t.Error("view does not show the selected case")
	}

	m, cmd := submit(t, m, "Who was removed?")
	runAsk(t, m, cmd)
	if chat.asked[0] != caseFile+"|Who was removed?" {
		t.Errorf("asked = %v", chat.asked)
	}

	m, _ = submit(t, m, "/case none")
	if m.session.HasCase() {
		t.Error("/case none did not return to general mode")
	}
}

func TestListingCommands(t *testing.T) {
	m := newModel(t, &fakeChat{})
	m, _ = submit(t, m, "/cases")
	if out := m.renderTranscript(); !strings.Contains(out, "2016 - Tata vs Mistry (SC India)") {
		t.Errorf("/cases output:\n%s", out)
	}

	m, _ = submit(t, m, "/issues")
	if out := m.renderTranscript(); !strings.Contains(out, "Issues: oppression") {
		t.Errorf("/issues output:\n%s", out)
	}

	m, _ = submit(t, m, "/clear")
	if len(m.transcript) != 0 {
		t.Errorf("transcript has %d entries after /clear", len(m.transcript))
	}

	_, cmd := submit(t, m, "/quit")
	if cmd == nil {
		t.Fatal("/quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("/quit did not quit")
	}
}
