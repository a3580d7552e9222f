package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/lexilaw/internal/models"
)

func strPtr(s string) *string { return &s }

func openSQLite(t *testing.T) *SQLiteLog {
	t.Helper()
	log, err := NewSQLiteLog(filepath.Join(t.TempDir(), "db", "interactions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestSQLiteLog_AppendAndList(t *testing.T) {
	log := openSQLite(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first := &models.InteractionRecord{
		Timestamp:         base,
		Question:          "What is oppression?",
		Answer:            "Section 241 ...",
		SourceDocumentIDs: []string{"companies_act.pdf"},
		SessionID:         "s1",
	}
	second := &models.InteractionRecord{
		Timestamp: base.Add(time.Hour),
		Question:  "Who won?",
		Answer:    "Tata.",
		UsedCase:  strPtr("SC_India_2016_Tata_vs_Mistry.pdf"),
		SessionID: "s1",
	}
	for _, rec := range []*models.InteractionRecord{first, second} {
		if err := log.Append(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := log.ListInteractions(ctx, ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].Question != first.Question || all[0].UsedCase != nil {
		t.Errorf("first record: %+v", all[0])
	}
	if len(all[0].SourceDocumentIDs) != 1 || all[0].SourceDocumentIDs[0] != "companies_act.pdf" {
		t.Errorf("sources: %v", all[0].SourceDocumentIDs)
	}
	if all[1].CaseName() != "SC_India_2016_Tata_vs_Mistry.pdf" {
		t.Errorf("used_case: %q", all[1].CaseName())
	}
	if len(all[1].SourceDocumentIDs) != 0 {
		t.Errorf("nil sources should round trip as empty, got %v", all[1].SourceDocumentIDs)
	}

	newest, err := log.ListInteractions(ctx, ListOptions{Limit: 1, Newest: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(newest) != 1 || newest[0].Question != "Who won?" {
		t.Errorf("newest: %+v", newest)
	}

	n, err := log.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("Count = %d, %v", n, err)
	}
}

func TestSQLiteLog_setsTimestamp(t *testing.T) {
	log := openSQLite(t)
	rec := &models.InteractionRecord{Question: "q", Answer: "a", SessionID: "s"}
	if err := log.Append(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if rec.Timestamp.IsZero() {
		t.Error("Timestamp should be set on append")
	}
}

func TestSQLiteLog_corruptSourceIDs(t *testing.T) {
	log := openSQLite(t)
	ctx := context.Background()
	_, err := log.db.ExecContext(ctx,
		`INSERT INTO interactions (timestamp, question, answer, used_case, source_document_ids, session_id)
		 VALUES (?, 'q', 'a', NULL, '["act.pdf"', 's')`,
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := log.ListInteractions(ctx, ListOptions{}); err == nil {
		t.Fatal("expected error for corrupt source_document_ids")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log, err := Open(ctx, Options{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatal(err)
	}
	_ = log.Close()

	nop, err := Open(ctx, Options{Driver: DriverNone})
	if err != nil {
		t.Fatal(err)
	}
	if err := nop.Append(ctx, &models.InteractionRecord{}); err != nil {
		t.Error(err)
	}

	if _, err := Open(ctx, Options{Driver: "cassandra"}); !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestMongoRecordFieldNames(t *testing.T) {
	rec := &models.InteractionRecord{
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Question:  "q",
		Answer:    "a",
		SessionID: "chat-1",
	}
	doc := toMongo(rec)
	if doc.UserQuestion != "q" || doc.AssistantResponse != "a" || doc.ChatID != "chat-1" {
		t.Errorf("unexpected mongo doc: %+v", doc)
	}
	if doc.UsedCase != nil {
		t.Error("used_case should be null without a case")
	}
	if doc.SourceDocuments == nil {
		t.Error("source_documents should be an empty array, not null")
	}
	back := doc.record()
	if back.Question != rec.Question || back.SessionID != rec.SessionID || !back.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("round trip: %+v", back)
	}
}
