// Package workflow drives one support interaction from free-text issue to
// final response: retrieve matching records, summarize a suggested fix,
// confirm with the user, and conditionally escalate to a new incident.
package workflow

import (
	"context"

	"deskmate/internal/notify"
	"deskmate/internal/storage"
)

// Answer is a recorded yes/no user decision. The zero value means the
// decision has not been made yet.
type Answer string

const (
	AnswerYes Answer = "yes"
	AnswerNo  Answer = "no"
)

// RunState is the mutable record threaded through one workflow run. It is
// created fresh per run, owned exclusively by that run, and discarded once
// the final response has been delivered.
type RunState struct {
	UserQuery       string
	KBResults       []storage.KnowledgeArticle
	IncidentResults []storage.Incident
	Feedback        Answer
	CreateIncident  Answer
	IncidentNumber  string
	FinalResponse   string
}

// Toolset is what the engine needs from the tool-invocation boundary.
type Toolset interface {
	SearchKnowledgeBase(ctx context.Context, text string, limit int) ([]storage.KnowledgeArticle, error)
	SearchIncidents(ctx context.Context, text string, limit int) ([]storage.Incident, error)
	CreateIncident(ctx context.Context, inc storage.Incident) error
	SendNotification(ctx context.Context, msg notify.Message) (notify.Receipt, error)
}

// Summarizer produces suggested-fix text from a query and retrieved records.
type Summarizer interface {
	Summarize(ctx context.Context, query string, articles []storage.KnowledgeArticle, incidents []storage.Incident) (string, error)
}

// Prompter collects input from the human collaborator. Both calls block
// until the user responds; the workflow imposes no timeout.
type Prompter interface {
	Ask(prompt string) (string, error)
	AskYesNo(prompt string, defaultYes bool) (bool, error)
}

// Presenter renders run output to the user.
type Presenter interface {
	// ShowResolved is called once retrieval and summarization complete,
	// before the user is asked to confirm.
	ShowResolved(state *RunState)
	ShowFinal(response string)
	ShowError(err error)
}
