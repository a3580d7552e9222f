package models

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// InteractionRecord is one completed question/answer exchange. Records are append-only.
type InteractionRecord struct {
	Timestamp         time.Time `json:"timestamp"`
	Question          string    `json:"question"`
	Answer            string    `json:"answer"`
	UsedCase          *string   `json:"used_case"` // nil when the general store answered
	SourceDocumentIDs []string  `json:"source_document_ids"`
	SessionID         string    `json:"session_id"`
}

// CaseName returns the used case or "" when none.
func (r *InteractionRecord) CaseName() string {
	if r.UsedCase == nil {
		return ""
	}
	return *r.UsedCase
}

// AskRequest is a user question addressed to a session.
type AskRequest struct {
	Question    string   `json:"question"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Validate trims the question and rejects empty questions and out-of-range temperatures.
func (a *AskRequest) Validate() error {
	a.Question = strings.TrimSpace(a.Question)
	if a.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if a.Temperature != nil && (*a.Temperature < 0 || *a.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1")
	}
	return nil
}
