package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hyperjump/lexilaw/internal/embedding"
	"github.com/hyperjump/lexilaw/internal/llm"
	"github.com/hyperjump/lexilaw/internal/models"
	"github.com/hyperjump/lexilaw/internal/vector"
)

type recordingLog struct {
	mu      sync.Mutex
	records []*models.InteractionRecord
	err     error
}

func (r *recordingLog) Append(_ context.Context, rec *models.InteractionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *recordingLog) Close() error { return nil }

type fakeTexts map[string]string

func (f fakeTexts) Extract(path string) (string, error) {
	text, ok := f[filepath.Base(path)]
	if !ok {
		return "", errors.New("unreadable")
	}
	return text, nil
}

const tataCase = "SC_India_2016_Tata_vs_Mistry.pdf"

type fixture struct {
	svc *Service
	gen *llm.Mock
	log *recordingLog
	emb *embedding.MockEmbedder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	emb := embedding.NewMockEmbedder(16)
	general, err := vector.Embed(ctx, emb, []models.Chunk{
		{ID: "c1", Text: "Section 241 covers oppression and mismanagement.", Metadata: models.ChunkMetadata{Source: "companies_act.pdf", Page: 120}},
		{ID: "c2", Text: "Section 271 covers winding up by the tribunal.", Metadata: models.ChunkMetadata{Source: "companies_act.pdf", Page: 150}},
		{ID: "c3", Text: "Arbitration agreements must be in writing.", Metadata: models.ChunkMetadata{Source: "arbitration_act.pdf", Page: 7}},
		{ID: "c4", Text: "Insolvency resolution begins on admission.", Metadata: models.ChunkMetadata{Source: "ibc.pdf", Page: 3}},
	})
	if err != nil {
		t.Fatal(err)
	}

	caseDir := t.TempDir()
	for _, name := range []string{tataCase, "blank.pdf"} {
		if err := os.WriteFile(filepath.Join(caseDir, name), []byte("%PDF"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	texts := fakeTexts{tataCase: "The appellant was removed as executive chairman.", "blank.pdf": "  \n"}

	gen := &llm.Mock{Reply: func(req llm.Request) (string, error) {
		last := req.Messages[len(req.Messages)-1].Content
		if strings.Contains(last, "Standalone question:") {
			return "What did the tribunal decide about Section 241?", nil
		}
		return "**Answer**: see Section 241", nil
	}}
	log := &recordingLog{}
	all := append([]Option{WithGeneralStore(general), WithCaseDir(caseDir)}, opts...)
	return &fixture{
		svc: NewService(emb, gen, log, texts, all...),
		gen: gen,
		log: log,
		emb: emb,
	}
}

func TestAsk_generalStore(t *testing.T) {
	f := newFixture(t)
	sess := NewSession("s1")

	ans, err := f.svc.Ask(context.Background(), sess, "  What is oppression?  ")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if ans.Text != "**Answer**: see Section 241" {
		t.Errorf("Text = %q", ans.Text)
	}
	if ans.SpeechText != "Answer: see Section 241" {
		t.Errorf("SpeechText = %q", ans.SpeechText)
	}
	if len(ans.Sources) != DefaultTopK {
		t.Errorf("got %d sources, want %d", len(ans.Sources), DefaultTopK)
	}
	if ans.UsedCase != "" || ans.Condensed != "" {
		t.Errorf("UsedCase = %q, Condensed = %q; want both empty", ans.UsedCase, ans.Condensed)
	}

	if len(f.log.records) != 1 {
		t.Fatalf("logged %d records, want 1", len(f.log.records))
	}
	rec := f.log.records[0]
	if rec.UsedCase != nil {
		t.Errorf("UsedCase = %q, want nil", *rec.UsedCase)
	}
	if rec.Question != "What is oppression?" || rec.SessionID != "s1" {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.SourceDocumentIDs) != DefaultTopK {
		t.Errorf("logged %d sources, want %d", len(rec.SourceDocumentIDs), DefaultTopK)
	}

	if len(sess.History) != 2 {
		t.Fatalf("history has %d turns, want 2", len(sess.History))
	}
	if sess.History[0].Role != models.RoleUser || sess.History[1].Role != models.RoleAssistant {
		t.Errorf("history roles = %s, %s", sess.History[0].Role, sess.History[1].Role)
	}

	reqs := f.gen.Requests()
	if len(reqs) != 1 {
		t.Fatalf("generator called %d times, want 1", len(reqs))
	}
	if reqs[0].Temperature == nil || *reqs[0].Temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want %v", reqs[0].Temperature, DefaultTemperature)
	}
}

func TestAsk_noneCaseRoutesToGeneral(t *testing.T) {
	f := newFixture(t)
	sess := NewSession("s1")
	sess.SelectedCase = "None"

	ans, err := f.svc.Ask(context.Background(), sess, "What is oppression?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.UsedCase != "" {
		t.Errorf("UsedCase = %q, want empty", ans.UsedCase)
	}
	if len(f.log.records) != 1 || f.log.records[0].UsedCase != nil {
		t.Errorf("used_case must be logged as null: %+v", f.log.records)
	}
}

func TestAsk_selectedCaseSingleUnit(t *testing.T) {
	f := newFixture(t)
	sess := NewSession("s1")
	sess.SelectCase(tataCase)

	ans, err := f.svc.Ask(context.Background(), sess, "Who was removed?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(ans.Sources) != 1 {
		t.Fatalf("got %d sources; a case store holds exactly one unit", len(ans.Sources))
	}
	if ans.Sources[0].Source != tataCase || ans.UsedCase != tataCase {
		t.Errorf("source %q, used case %q", ans.Sources[0].Source, ans.UsedCase)
	}

	if len(f.log.records) != 1 {
		t.Fatalf("logged %d records, want 1", len(f.log.records))
	}
	rec := f.log.records[0]
	if rec.CaseName() != tataCase {
		t.Errorf("logged case = %q", rec.CaseName())
	}
	if len(rec.SourceDocumentIDs) != 1 || rec.SourceDocumentIDs[0] != tataCase {
		t.Errorf("logged sources = %v", rec.SourceDocumentIDs)
	}
}

func TestAsk_condensesFollowUp(t *testing.T) {
	f := newFixture(t)
	sess := NewSession("s1")
	ctx := context.Background()

	if _, err := f.svc.Ask(ctx, sess, "What is Section 241?"); err != nil {
		t.Fatal(err)
	}
	ans, err := f.svc.Ask(ctx, sess, "And what did the tribunal decide?")
	if err != nil {
		t.Fatal(err)
	}

	if ans.Condensed != "What did the tribunal decide about Section 241?" {
		t.Errorf("Condensed = %q", ans.Condensed)
	}
	reqs := f.gen.Requests()
	if len(reqs) != 3 {
		t.Fatalf("generator called %d times, want 3", len(reqs))
	}
	if !strings.Contains(reqs[1].Messages[0].Content, "Human: What is Section 241?") {
		t.Errorf("condense prompt lacks history: %q", reqs[1].Messages[0].Content)
	}
	// answer request carries the prior turns before the new question
	if len(reqs[2].Messages) != 3 {
		t.Errorf("answer request has %d messages, want 3", len(reqs[2].Messages))
	}
	if len(sess.History) != 4 {
		t.Errorf("history has %d turns, want 4", len(sess.History))
	}
}

func TestAsk_condenseDisabled(t *testing.T) {
	f := newFixture(t, WithCondense(false))
	sess := NewSession("s1")
	ctx := context.Background()
	_, _ = f.svc.Ask(ctx, sess, "first")
	ans, err := f.svc.Ask(ctx, sess, "second")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Condensed != "" {
		t.Errorf("Condensed = %q, want empty", ans.Condensed)
	}
	if n := len(f.gen.Requests()); n != 2 {
		t.Errorf("generator called %d times, want 2", n)
	}
}

func TestAsk_failedTurnLeavesStateUnchanged(t *testing.T) {
	cases := []struct {
		name  string
		setup func(f *fixture, sess *Session)
		stage Stage
		is    error
	}{
		{
			name:  "missing case",
			setup: func(_ *fixture, sess *Session) { sess.SelectCase("nope.pdf") },
			stage: StageRoute,
			is:    ErrCaseNotFound,
		},
		{
			name:  "blank case text",
			setup: func(_ *fixture, sess *Session) { sess.SelectCase("blank.pdf") },
			stage: StageRoute,
		},
		{
			name: "generation failure",
			setup: func(f *fixture, _ *Session) {
				f.gen.Reply = func(llm.Request) (string, error) { return "", errors.New("quota exceeded") }
			},
			stage: StageGenerate,
		},
		{
			name: "embedding failure",
			setup: func(f *fixture, _ *Session) {
				f.emb.FailWhen(func(string) bool { return true })
			},
			stage: StageRetrieve,
			is:    embedding.ErrMockFailure,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			sess := NewSession("s1")
			tc.setup(f, sess)
			before := len(sess.History)

			_, err := f.svc.Ask(context.Background(), sess, "question")
			var turnErr *TurnError
			if !errors.As(err, &turnErr) {
				t.Fatalf("expected *TurnError, got %v", err)
			}
			if turnErr.Stage != tc.stage {
				t.Errorf("stage = %s, want %s", turnErr.Stage, tc.stage)
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Errorf("error %v does not wrap %v", err, tc.is)
			}
			if len(sess.History) != before {
				t.Errorf("history changed from %d to %d turns", before, len(sess.History))
			}
			if len(f.log.records) != 0 {
				t.Errorf("failed turn logged %d records", len(f.log.records))
			}
		})
	}
}

func TestAsk_logFailureDoesNotFailTurn(t *testing.T) {
	f := newFixture(t)
	f.log.err = errors.New("mongo down")
	sess := NewSession("s1")
	if _, err := f.svc.Ask(context.Background(), sess, "What is oppression?"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(sess.History) != 2 {
		t.Errorf("history has %d turns, want 2", len(sess.History))
	}
}

func TestAsk_emptyQuestion(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Ask(context.Background(), NewSession(""), "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
}

func TestAsk_sessionTemperature(t *testing.T) {
	f := newFixture(t)
	sess := NewSession("s1")
	zero := 0.0
	sess.Temperature = &zero
	if _, err := f.svc.Ask(context.Background(), sess, "q"); err != nil {
		t.Fatal(err)
	}
	if got := *f.gen.Requests()[0].Temperature; got != 0 {
		t.Errorf("temperature = %v, want 0", got)
	}
}

func TestGeneral_loadsFromDirOnce(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewMockEmbedder(8)
	store, err := vector.Embed(ctx, emb, []models.Chunk{{ID: "a", Text: "alpha", Metadata: models.ChunkMetadata{Source: "a.pdf", Page: 1}}})
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "acts")
	if err := store.Save(dir); err != nil {
		t.Fatal(err)
	}

	svc := NewService(emb, &llm.Mock{}, nil, nil, WithGeneralStoreDir(dir))
	if n := svc.GeneralChunks(); n != -1 {
		t.Errorf("GeneralChunks before load = %d, want -1", n)
	}
	first, err := svc.General()
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.General()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("General reloaded the store on the second call")
	}
	if n := svc.GeneralChunks(); n != 1 {
		t.Errorf("GeneralChunks = %d, want 1", n)
	}

	svc.Reload()
	if n := svc.GeneralChunks(); n != -1 {
		t.Errorf("GeneralChunks after Reload = %d, want -1", n)
	}
}

func TestGeneral_missing(t *testing.T) {
	svc := NewService(embedding.NewMockEmbedder(8), &llm.Mock{}, nil, nil, WithGeneralStoreDir(filepath.Join(t.TempDir(), "none")))
	if _, err := svc.Ask(context.Background(), NewSession(""), "q"); !errors.Is(err, ErrStoreNotLoaded) {
		t.Errorf("expected ErrStoreNotLoaded, got %v", err)
	}
}
