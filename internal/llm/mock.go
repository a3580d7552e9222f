package llm

import (
	"context"
	"sync"
)

// Mock is a scripted Generator for tests. Reply computes each answer; when nil, the
// last message content is echoed back.
type Mock struct {
	Reply func(req Request) (string, error)

	mu       sync.Mutex
	requests []Request
}

// Generate records req and returns the scripted reply.
func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.Reply != nil {
		return m.Reply(req)
	}
	if len(req.Messages) == 0 {
		return "", ErrEmptyResponse
	}
	return req.Messages[len(req.Messages)-1].Content, nil
}

// Requests returns a copy of every request received so far.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}
