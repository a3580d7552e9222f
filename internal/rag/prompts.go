package rag

import (
	"fmt"
	"strings"

	"github.com/hyperjump/lexilaw/internal/models"
	"github.com/hyperjump/lexilaw/internal/vector"
)

const answerSystem = `You are LexiLaw, a corporate legal assistant. Answer using the context sections provided with the question.
If the context does not contain the answer, say that you don't know instead of making one up.`

const condenseTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
%s
Follow Up Input: %s
Standalone question:`

func condensePrompt(history []models.Turn, question string) string {
	var b strings.Builder
	for _, t := range history {
		role := "Human"
		if t.Role == models.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}
	return fmt.Sprintf(condenseTemplate, strings.TrimRight(b.String(), "\n"), question)
}

func answerPrompt(question string, hits []vector.Hit) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] (%s, page %d)\n%s\n\n", i+1, h.Chunk.Metadata.Source, h.Chunk.Metadata.Page, h.Chunk.Text)
	}
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
