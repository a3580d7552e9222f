package analytics

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hyperjump/lexilaw/internal/models"
	"github.com/hyperjump/lexilaw/internal/storage"
)

func rec(ts time.Time, q, usedCase string) *models.InteractionRecord {
	r := &models.InteractionRecord{Timestamp: ts, Question: q, Answer: "a", SessionID: "s"}
	if usedCase != "" {
		r.UsedCase = &usedCase
	}
	return r
}

func TestTopTerms(t *testing.T) {
	got := TopTerms([]string{
		"What is oppression under Section 241?",
		"Oppression and mismanagement remedies",
		"Is the award enforceable? award award",
	}, 3)
	if len(got) != 3 {
		t.Fatalf("got %d terms, want 3: %v", len(got), got)
	}
	if got[0] != (TermCount{Term: "award", Count: 3}) {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1] != (TermCount{Term: "oppression", Count: 2}) {
		t.Errorf("got[1] = %+v", got[1])
	}
	// ties broken alphabetically; three-letter words are ignored
	if got[2].Term != "enforceable" {
		t.Errorf("got[2] = %+v, want enforceable", got[2])
	}
	for _, tc := range TopTerms([]string{"the act is old"}, 10) {
		if len(tc.Term) < 4 {
			t.Errorf("short term %q counted", tc.Term)
		}
	}
}

func TestPerDayAndPerCase(t *testing.T) {
	d1 := time.Date(2025, 4, 1, 23, 30, 0, 0, time.UTC)
	d2 := time.Date(2025, 4, 3, 9, 0, 0, 0, time.UTC)
	records := []*models.InteractionRecord{
		rec(d2, "q", "b.pdf"),
		rec(d1, "q", ""),
		rec(d1.Add(time.Minute), "q", "a.pdf"),
		rec(d2, "q", "a.pdf"),
	}

	wantDays := []DayCount{{Date: "2025-04-01", Count: 2}, {Date: "2025-04-03", Count: 2}}
	if got := PerDay(records); !reflect.DeepEqual(got, wantDays) {
		t.Errorf("PerDay = %v, want %v", got, wantDays)
	}
	wantCases := []CaseCount{{Case: "a.pdf", Count: 2}, {Case: "b.pdf", Count: 1}}
	if got := PerCase(records); !reflect.DeepEqual(got, wantCases) {
		t.Errorf("PerCase = %v, want %v", got, wantCases)
	}
}

func TestSummarize_usesNewestQuestions(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []*models.InteractionRecord
	for i := 0; i < RecentQuestions; i++ {
		records = append(records, rec(base, "recent question", ""))
	}
	records = append(records, rec(base, "ancient", ""))

	ins := Summarize(records)
	if ins.Total != RecentQuestions+1 {
		t.Errorf("Total = %d, want %d", ins.Total, RecentQuestions+1)
	}
	for _, tc := range ins.TopTerms {
		if tc.Term == "ancient" {
			t.Error("term from a question outside the recent window was counted")
		}
	}
}

func TestCompute(t *testing.T) {
	log, err := storage.NewSQLiteLog(filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()
	ctx := context.Background()
	ts := time.Date(2025, 2, 2, 10, 0, 0, 0, time.UTC)
	if err := log.Append(ctx, rec(ts, "winding petition", "x.pdf")); err != nil {
		t.Fatal(err)
	}
	if err := log.Append(ctx, rec(ts, "winding order", "")); err != nil {
		t.Fatal(err)
	}

	ins, err := Compute(ctx, log)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if ins.Total != 2 {
		t.Errorf("Total = %d, want 2", ins.Total)
	}
	if len(ins.TopTerms) == 0 || ins.TopTerms[0] != (TermCount{Term: "winding", Count: 2}) {
		t.Errorf("TopTerms = %v", ins.TopTerms)
	}
	if want := []CaseCount{{Case: "x.pdf", Count: 1}}; !reflect.DeepEqual(ins.PerCase, want) {
		t.Errorf("PerCase = %v, want %v", ins.PerCase, want)
	}
}
