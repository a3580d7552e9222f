// Package llm provides text generation through hosted language models.
package llm

import (
	"context"
	"errors"
)

// Role values for Message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty model response")

// Message is one conversation message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema is a provider-neutral JSON schema for structured responses.
type Schema struct {
	Type        string             `json:"type"` // object, array, string, number, integer, boolean
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Request is a generation request. Messages end with the user message to answer.
type Request struct {
	System      string
	Messages    []Message
	Temperature *float64
	// ResponseSchema requests a JSON response of this shape when set.
	ResponseSchema *Schema
}

// Prompt builds a single-message request.
func Prompt(text string) Request {
	return Request{Messages: []Message{{Role: RoleUser, Content: text}}}
}

// Generator produces text from a conversation.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}
