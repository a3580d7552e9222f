package rag

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/lexilaw/internal/models"
)

// NoCase is the literal some clients send to mean "no case selected".
const NoCase = "None"

// Session is the explicit per-conversation context: selected case and ordered history.
type Session struct {
	ID           string        `json:"id"`
	SelectedCase string        `json:"selected_case"`
	History      []models.Turn `json:"history"`
	Temperature  *float64      `json:"temperature,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewSession returns an empty session. An empty id gets a random UUID.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	return &Session{ID: id, History: []models.Turn{}, CreatedAt: now, UpdatedAt: now}
}

// NormalizeCase maps "", whitespace and "None" (any case) to no case.
func NormalizeCase(name string) string {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, NoCase) {
		return ""
	}
	return name
}

// SelectCase switches the case under discussion. History is cleared when the case changes.
// Returns true if the selection changed.
func (s *Session) SelectCase(name string) bool {
	name = NormalizeCase(name)
	if name == s.SelectedCase {
		return false
	}
	s.SelectedCase = name
	s.History = []models.Turn{}
	s.UpdatedAt = time.Now().UTC()
	return true
}

// Clear drops the history and keeps the selected case.
func (s *Session) Clear() {
	s.History = []models.Turn{}
	s.UpdatedAt = time.Now().UTC()
}

// HasCase reports whether a case is selected.
func (s *Session) HasCase() bool {
	return s.SelectedCase != ""
}

func (s *Session) appendTurns(question, answer string) {
	s.History = append(s.History,
		models.Turn{Role: models.RoleUser, Content: question},
		models.Turn{Role: models.RoleAssistant, Content: answer},
	)
	s.UpdatedAt = time.Now().UTC()
}
