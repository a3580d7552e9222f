// Package rag answers questions with retrieval-augmented generation over the general
// store or a single selected case.
package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/lexilaw/internal/embedding"
	"github.com/hyperjump/lexilaw/internal/fileid"
	"github.com/hyperjump/lexilaw/internal/llm"
	"github.com/hyperjump/lexilaw/internal/models"
	"github.com/hyperjump/lexilaw/internal/storage"
	"github.com/hyperjump/lexilaw/internal/vector"
	"github.com/hyperjump/lexilaw/pkg/utils"
)

const (
	DefaultTopK        = 3
	DefaultTemperature = 0.7
	snippetRunes       = 300
)

// TextSource extracts the full text of a case file. *extract.Extractor implements it.
type TextSource interface {
	Extract(path string) (string, error)
}

// Source is a retrieved section that grounded an answer.
type Source struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Answer is the result of a successful turn.
type Answer struct {
	Text     string   `json:"answer"`
	Sources  []Source `json:"sources"`
	UsedCase string   `json:"used_case,omitempty"`
	// SpeechText is Text without markdown markers, for text-to-speech clients.
	SpeechText string `json:"speech_text"`
	// Condensed is the standalone question used for retrieval when history was present.
	Condensed string `json:"condensed_question,omitempty"`
}

// Service routes questions to a store, retrieves, generates and logs.
type Service struct {
	emb   embedding.Embedder
	gen   llm.Generator
	log   storage.Sink
	texts TextSource

	generalDir  string
	caseDir     string
	topK        int
	temperature float64
	condense    bool
	logger      *zap.Logger

	mu      sync.RWMutex
	general *vector.Store
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithGeneralStoreDir sets the directory the general store is loaded from on first use.
func WithGeneralStoreDir(dir string) Option {
	return func(s *Service) {
		s.generalDir = dir
	}
}

// WithGeneralStore uses an already loaded general store.
func WithGeneralStore(store *vector.Store) Option {
	return func(s *Service) {
		s.general = store
	}
}

// WithCaseDir sets the directory holding case PDFs.
func WithCaseDir(dir string) Option {
	return func(s *Service) {
		s.caseDir = dir
	}
}

// WithTopK sets the number of sections retrieved per question.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithTemperature sets the default generation temperature.
func WithTemperature(t float64) Option {
	return func(s *Service) {
		s.temperature = t
	}
}

// WithCondense enables or disables rewriting follow-up questions before retrieval.
func WithCondense(on bool) Option {
	return func(s *Service) {
		s.condense = on
	}
}

// NewService returns a query service. log may be nil to skip interaction logging.
func NewService(emb embedding.Embedder, gen llm.Generator, log storage.Sink, texts TextSource, opts ...Option) *Service {
	s := &Service{
		emb:         emb,
		gen:         gen,
		log:         log,
		texts:       texts,
		topK:        DefaultTopK,
		temperature: DefaultTemperature,
		condense:    true,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = storage.NopLog{}
	}
	return s
}

// General returns the general store, loading it on first use.
func (s *Service) General() (*vector.Store, error) {
	s.mu.RLock()
	store := s.general
	s.mu.RUnlock()
	if store != nil {
		return store, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.general != nil {
		return s.general, nil
	}
	if s.generalDir == "" {
		return nil, ErrStoreNotLoaded
	}
	loaded, err := vector.Load(s.generalDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreNotLoaded, err)
	}
	s.logger.Info("Loaded general store", zap.String("dir", s.generalDir), zap.Int("chunks", loaded.Len()))
	s.general = loaded
	return loaded, nil
}

// Reload drops the cached general store so the next turn reads it from disk again.
func (s *Service) Reload() {
	s.mu.Lock()
	s.general = nil
	s.mu.Unlock()
}

// GeneralChunks returns the chunk count of the cached general store, or -1 when not loaded.
func (s *Service) GeneralChunks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.general == nil {
		return -1
	}
	return s.general.Len()
}

// CaseStore builds the single-unit store for one case: the whole case text is one document.
func (s *Service) CaseStore(ctx context.Context, filename string) (*vector.Store, error) {
	name := filepath.Base(filename)
	path := filepath.Join(s.caseDir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, name)
		}
		return nil, err
	}
	if s.texts == nil {
		return nil, errors.New("no text source configured for cases")
	}
	text, err := s.texts.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract case %s: %w", name, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("case %s has no extractable text", name)
	}
	doc := models.Chunk{
		ID:       fileid.ChunkID(name, 1, 0, text),
		Text:     text,
		Metadata: models.ChunkMetadata{Source: name, Page: 1},
	}
	return vector.Embed(ctx, s.emb, []models.Chunk{doc})
}

func (s *Service) route(ctx context.Context, sess *Session) (*vector.Store, error) {
	if sess.HasCase() {
		return s.CaseStore(ctx, sess.SelectedCase)
	}
	return s.General()
}

// Ask answers question within sess. On success the exchange is logged and appended to the
// session history. On failure a *TurnError is returned and neither happens.
func (s *Service) Ask(ctx context.Context, sess *Session, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	sess.SelectedCase = NormalizeCase(sess.SelectedCase)
	temperature := s.temperature
	if sess.Temperature != nil {
		temperature = *sess.Temperature
	}
	start := time.Now()

	store, err := s.route(ctx, sess)
	if err != nil {
		return nil, &TurnError{Stage: StageRoute, Err: err}
	}

	retrievalQ := question
	if len(sess.History) > 0 && s.condense {
		condensed, err := s.gen.Generate(ctx, llm.Request{
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: condensePrompt(sess.History, question)}},
			Temperature: &temperature,
		})
		if err != nil {
			return nil, &TurnError{Stage: StageCondense, Err: err}
		}
		if c := strings.TrimSpace(condensed); c != "" {
			retrievalQ = c
		}
	}

	hits, err := store.SearchText(ctx, s.emb, retrievalQ, s.topK)
	if err != nil {
		return nil, &TurnError{Stage: StageRetrieve, Err: err}
	}

	messages := make([]llm.Message, 0, len(sess.History)+1)
	for _, t := range sess.History {
		messages = append(messages, llm.Message{Role: string(t.Role), Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: answerPrompt(question, hits)})
	text, err := s.gen.Generate(ctx, llm.Request{
		System:      answerSystem,
		Messages:    messages,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, &TurnError{Stage: StageGenerate, Err: err}
	}

	answer := &Answer{
		Text:       text,
		Sources:    make([]Source, 0, len(hits)),
		UsedCase:   sess.SelectedCase,
		SpeechText: utils.SpeechText(text),
	}
	if retrievalQ != question {
		answer.Condensed = retrievalQ
	}
	sourceNames := make([]string, 0, len(hits))
	for _, h := range hits {
		answer.Sources = append(answer.Sources, Source{
			ID:      h.Chunk.ID,
			Source:  h.Chunk.Metadata.Source,
			Page:    h.Chunk.Metadata.Page,
			Snippet: utils.Truncate(h.Chunk.Text, snippetRunes),
			Score:   utils.Round(h.Score, 4),
		})
		sourceNames = append(sourceNames, h.Chunk.Metadata.Source)
	}

	rec := &models.InteractionRecord{
		Timestamp:         time.Now().UTC(),
		Question:          question,
		Answer:            text,
		SourceDocumentIDs: sourceNames,
		SessionID:         sess.ID,
	}
	if sess.HasCase() {
		used := sess.SelectedCase
		rec.UsedCase = &used
	}
	if err := s.log.Append(ctx, rec); err != nil {
		s.logger.Warn("Failed to log interaction", zap.String("session", sess.ID), zap.Error(err))
	}

	sess.appendTurns(question, text)
	s.logger.Debug("Answered question",
		zap.String("session", sess.ID),
		zap.String("case", sess.SelectedCase),
		zap.Int("sources", len(hits)),
		zap.Duration("took", time.Since(start)),
	)
	return answer, nil
}
