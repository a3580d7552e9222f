// Package analytics summarizes the interaction log.
package analytics

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/lexilaw/internal/models"
	"github.com/hyperjump/lexilaw/internal/storage"
)

const (
	// RecentQuestions is how many of the newest questions feed TopTerms.
	RecentQuestions = 100
	// DefaultTopTerms is the number of terms reported.
	DefaultTopTerms = 10
	minTermRunes    = 4
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// TermCount is a word and how often it was asked about.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// DayCount is the number of questions asked on a UTC day (YYYY-MM-DD).
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CaseCount is the number of questions asked about one case.
type CaseCount struct {
	Case  string `json:"case"`
	Count int    `json:"count"`
}

// Insights is the full dashboard summary.
type Insights struct {
	Total    int         `json:"total"`
	TopTerms []TermCount `json:"top_terms"`
	PerDay   []DayCount  `json:"per_day"`
	PerCase  []CaseCount `json:"per_case"`
}

// TopTerms counts lowercase words of 4+ word characters across questions and returns the
// n most frequent, ties broken alphabetically.
func TopTerms(questions []string, n int) []TermCount {
	counts := make(map[string]int)
	for _, q := range questions {
		for _, w := range wordRe.FindAllString(strings.ToLower(q), -1) {
			if utf8.RuneCountInString(w) >= minTermRunes {
				counts[w]++
			}
		}
	}
	out := make([]TermCount, 0, len(counts))
	for term, c := range counts {
		out = append(out, TermCount{Term: term, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// PerDay counts records per UTC date, oldest first.
func PerDay(records []*models.InteractionRecord) []DayCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Timestamp.UTC().Format("2006-01-02")]++
	}
	out := make([]DayCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, DayCount{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// PerCase counts records per non-empty used case, most queried first.
func PerCase(records []*models.InteractionRecord) []CaseCount {
	counts := make(map[string]int)
	for _, r := range records {
		if name := r.CaseName(); name != "" {
			counts[name]++
		}
	}
	out := make([]CaseCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, CaseCount{Case: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Case < out[j].Case
	})
	return out
}

// Compute reads the whole log and builds Insights.
func Compute(ctx context.Context, r storage.Reader) (*Insights, error) {
	records, err := r.ListInteractions(ctx, storage.ListOptions{Newest: true})
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return Summarize(records), nil
}

// Summarize builds Insights from records ordered newest first.
func Summarize(records []*models.InteractionRecord) *Insights {
	recent := records
	if len(recent) > RecentQuestions {
		recent = recent[:RecentQuestions]
	}
	questions := make([]string, len(recent))
	for i, r := range recent {
		questions[i] = r.Question
	}
	return &Insights{
		Total:    len(records),
		TopTerms: TopTerms(questions, DefaultTopTerms),
		PerDay:   PerDay(records),
		PerCase:  PerCase(records),
	}
}
