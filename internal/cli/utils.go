// Package cli formats LexiLaw results for terminal output.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/lexilaw/internal/analytics"
	"github.com/hyperjump/lexilaw/internal/evaluation"
	"github.com/hyperjump/lexilaw/internal/models"
	"github.com/hyperjump/lexilaw/internal/rag"
	"github.com/hyperjump/lexilaw/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const rule = "─────────────────────────────────────────────────────────"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes an answer and its sources to w in the given format.
func WriteAnswer(w io.Writer, ans *rag.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, ans)
	}
	fmt.Fprintf(w, "\n%s\n\n", ans.Text)
	if ans.UsedCase != "" {
		fmt.Fprintf(w, "Case: %s\n", ans.UsedCase)
	}
	if len(ans.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(w, "--- Sources ---")
	for i, src := range ans.Sources {
		writeOneSource(w, i+1, src)
	}
	return nil
}

func writeOneSource(w io.Writer, n int, src rag.Source) {
	fmt.Fprintln(w, rule)
	if src.Page > 0 {
		fmt.Fprintf(w, "[%d] %s, page %d | Score: %.4f\n", n, src.Source, src.Page, src.Score)
	} else {
		fmt.Fprintf(w, "[%d] %s | Score: %.4f\n", n, src.Source, src.Score)
	}
	fmt.Fprintf(w, "%s\n\n", TruncateWords(src.Snippet, 40))
}

// PrintAnswer prints an answer to stdout in text format.
func PrintAnswer(ans *rag.Answer) {
	_ = WriteAnswer(os.Stdout, ans, OutputText)
}

// WriteCases writes a case listing: one display title per case followed by its issues.
func WriteCases(w io.Writer, cases []models.CaseMetadata, format OutputFormat) error {
	if format == OutputJSON {
		if cases == nil {
			cases = []models.CaseMetadata{}
		}
		return writeJSON(w, cases)
	}
	fmt.Fprintf(w, "\n%d cases\n\n", len(cases))
	for i := range cases {
		c := &cases[i]
		fmt.Fprintf(w, "%s\n  file: %s\n", c.DisplayTitle(), c.Filename)
		if len(c.Issues) > 0 {
			fmt.Fprintf(w, "  issues: %s\n", strings.Join(c.Issues, ", "))
		}
		if c.Summary != "" {
			fmt.Fprintf(w, "  %s\n", utils.Truncate(c.Summary, 160))
		}
	}
	return nil
}

// WriteInsights writes interaction log insights.
func WriteInsights(w io.Writer, ins *analytics.Insights, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, ins)
	}
	fmt.Fprintf(w, "\nTotal interactions: %d\n", ins.Total)
	if len(ins.TopTerms) > 0 {
		fmt.Fprintln(w, "\n--- Top question terms ---")
		for _, t := range ins.TopTerms {
			fmt.Fprintf(w, "%-24s %d\n", t.Term, t.Count)
		}
	}
	if len(ins.PerDay) > 0 {
		fmt.Fprintln(w, "\n--- Questions per day ---")
		for _, d := range ins.PerDay {
			fmt.Fprintf(w, "%s %5d\n", d.Date, d.Count)
		}
	}
	if len(ins.PerCase) > 0 {
		fmt.Fprintln(w, "\n--- Questions per case ---")
		for _, c := range ins.PerCase {
			fmt.Fprintf(w, "%-40s %d\n", c.Case, c.Count)
		}
	}
	return nil
}

// WriteAnswerScores writes answer evaluation rows as an aligned table.
func WriteAnswerScores(w io.Writer, rows []evaluation.AnswerRow, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, rows)
	}
	fmt.Fprintf(w, "%-10s %8s %8s %10s\n", "Pair", "ROUGE-1", "ROUGE-L", "Cosine")
	for _, r := range rows {
		fmt.Fprintf(w, "%-10s %8.4f %8.4f %10.4f\n", r.Pair, r.Rouge1, r.RougeL, r.Cosine)
	}
	return nil
}

// WriteSimilarityScores writes embedding evaluation results and the correlations.
func WriteSimilarityScores(w io.Writer, rep *evaluation.EmbeddingReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, rep)
	}
	for _, r := range rep.Rows {
		fmt.Fprintf(w, "%.2f  %.4f  %s | %s\n", r.HumanScore, r.Cosine,
			TruncateWords(r.Sentence1, 8), TruncateWords(r.Sentence2, 8))
	}
	fmt.Fprintf(w, "\nPearson:  %s\nSpearman: %s\n", correlation(rep.Pearson), correlation(rep.Spearman))
	return nil
}

func correlation(v *float64) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", *v)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
