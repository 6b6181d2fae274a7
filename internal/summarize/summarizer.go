// Package summarize turns a user issue plus retrieved records into suggested
// fix text using a local language model. The model's output is treated as
// opaque prose: no parsing, no validation, one attempt.
package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"deskmate/internal/ollama"
	"deskmate/internal/storage"
)

// ErrUnavailable wraps any failure to reach the summarization model. Callers
// use it to distinguish "no guidance available" from other run failures.
var ErrUnavailable = errors.New("summarization unavailable")

// LLM is the chat capability the Summarizer depends on.
type LLM interface {
	Chat(ctx context.Context, model string, messages []ollama.Message) (string, error)
}

// Summarizer builds the fixed guidance prompt and performs a single chat call.
type Summarizer struct {
	llm   LLM
	model string
}

// New creates a Summarizer using the given LLM and model name.
func New(llm LLM, model string) *Summarizer {
	return &Summarizer{llm: llm, model: model}
}

// Summarize asks the model for suggested-fix guidance given the user's issue
// and the retrieved knowledge articles and incidents. The retrieved records
// are listed verbatim in the prompt.
func (s *Summarizer) Summarize(ctx context.Context, query string, articles []storage.KnowledgeArticle, incidents []storage.Incident) (string, error) {
	prompt := BuildPrompt(query, articles, incidents)

	text, err := s.llm.Chat(ctx, s.model, []ollama.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

// BuildPrompt renders the fixed prompt template: restate the issue, list the
// retrieved data, and instruct the model to surface topically related KB
// entries and concrete next steps.
func BuildPrompt(query string, articles []storage.KnowledgeArticle, incidents []storage.Incident) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "User issue: %q\n\n", query)

	sb.WriteString("Related Knowledge Base entries:\n")
	sb.WriteString(renderRecords(articles))
	sb.WriteString("\n\nRelated Incidents:\n")
	sb.WriteString(renderRecords(incidents))
	sb.WriteString("\n\n")
	sb.WriteString("- Include KB numbers that mention the topic even if not exact matches.\n")
	sb.WriteString("- Suggest clear next steps or escalation guidance.\n")

	return sb.String()
}

// renderRecords lists records as indented JSON so the model sees every field
// exactly as retrieved.
func renderRecords(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}
