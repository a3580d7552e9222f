package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/hyperjump/lexilaw/internal/analytics"
	"github.com/hyperjump/lexilaw/internal/evaluation"
	"github.com/hyperjump/lexilaw/internal/models"
	"github.com/hyperjump/lexilaw/internal/rag"
)

func sampleAnswer() *rag.Answer {
	return &rag.Answer{
		Text:       "Section 241 covers **oppression**.",
		SpeechText: "Section 241 covers oppression.",
		Sources: []rag.Source{
			{ID: "a", Source: "companies_act.pdf", Page: 12, Snippet: "Any member who complains", Score: 0.91},
			{ID: "b", Source: "Tata_vs_Mistry.pdf", Snippet: "The tribunal held", Score: 0.5},
		},
	}
}

func TestWriteAnswer_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleAnswer(), OutputJSON); err != nil {
		t.Fatalf("WriteAnswer(json): %v", err)
	}
	var decoded rag.Answer
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Text != "Section 241 covers **oppression**." || len(decoded.Sources) != 2 {
		t.Errorf("decoded answer: %+v", decoded)
	}
}

func TestWriteAnswer_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleAnswer(), OutputText); err != nil {
		t.Fatalf("WriteAnswer(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"covers **oppression**", "Sources", "companies_act.pdf, page 12", "Score: 0.9100", "[2] Tata_vs_Mistry.pdf | Score"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteAnswer_noSources(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteAnswer(&buf, &rag.Answer{Text: "I don't know.", UsedCase: "x.pdf"}, OutputText)
	out := buf.String()
	if strings.Contains(out, "Sources") {
		t.Errorf("no sources section expected:\n%s", out)
	}
	if !strings.Contains(out, "Case: x.pdf") {
		t.Errorf("used case missing:\n%s", out)
	}
}

func TestWriteCases(t *testing.T) {
	cases := []models.CaseMetadata{{
		Filename: "SC_India_2016_Tata_vs_Mistry.pdf", Court: "SC India", Year: "2016",
		Title: "Tata_vs_Mistry", Issues: []string{"oppression", "mismanagement"}, Summary: "Removal of chairman.",
	}}
	var buf bytes.Buffer
	if err := WriteCases(&buf, cases, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"1 cases", "2016 - Tata vs Mistry (SC India)", "oppression, mismanagement", "Removal of chairman."} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteCases(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON listing = %q, want []", buf.String())
	}
}

func TestWriteInsights_text(t *testing.T) {
	ins := &analytics.Insights{
		Total:    3,
		TopTerms: []analytics.TermCount{{Term: "oppression", Count: 2}},
		PerDay:   []analytics.DayCount{{Date: "2025-05-01", Count: 3}},
		PerCase:  []analytics.CaseCount{{Case: "Tata_vs_Mistry.pdf", Count: 1}},
	}
	var buf bytes.Buffer
	if err := WriteInsights(&buf, ins, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Total interactions: 3", "oppression", "2025-05-01", "Tata_vs_Mistry.pdf"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteAnswerScores(t *testing.T) {
	rows := []evaluation.AnswerRow{{Pair: "Pair 1", Rouge1: 0.5, RougeL: 0.25, Cosine: 0.75}}
	var buf bytes.Buffer
	if err := WriteAnswerScores(&buf, rows, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "0.5000") || !strings.Contains(buf.String(), "Pair 1") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
}

func TestWriteSimilarityScores_undefinedCorrelation(t *testing.T) {
	rep := &evaluation.EmbeddingReport{Rows: []evaluation.SimilarityRow{{Sentence1: "a", Sentence2: "b", HumanScore: 0.8, Cosine: 0.7}}}
	var buf bytes.Buffer
	if err := WriteSimilarityScores(&buf, rep, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Pearson:  undefined") {
		t.Errorf("expected undefined correlation:\n%s", buf.String())
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
		{"single long", "word", 1, "word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}

func TestPrintAnswer(t *testing.T) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
		_ = w.Close()
	}()
	PrintAnswer(&rag.Answer{Text: "printed"})
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	if !strings.Contains(buf.String(), "printed") {
		t.Errorf("PrintAnswer should write to stdout; got %q", buf.String())
	}
}
