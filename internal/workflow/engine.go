package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"deskmate/internal/notify"
	"deskmate/internal/storage"
)

// searchLimit is how many records each store is asked for during resolve.
const searchLimit = 5

// createAttempts bounds incident-number regeneration on duplicate keys.
const createAttempts = 3

// incidentNumberFormat is the timestamp layout inside generated numbers.
const incidentNumberFormat = "20060102150405"

// Engine runs the three-step interaction workflow:
// resolve → confirm → escalate. Steps are strictly ordered; a failure in
// resolve aborts the run before any user decision or escalation happens.
type Engine struct {
	tools          Toolset
	summarizer     Summarizer
	prompter       Prompter
	presenter      Presenter
	supportAddress string
	logger         *slog.Logger

	// Injected for tests.
	now     func() time.Time
	randInt func(n int) int
}

// NewEngine wires an Engine to its collaborators. supportAddress is where
// escalation notifications are sent.
func NewEngine(tools Toolset, summarizer Summarizer, prompter Prompter, presenter Presenter, supportAddress string) *Engine {
	return &Engine{
		tools:          tools,
		summarizer:     summarizer,
		prompter:       prompter,
		presenter:      presenter,
		supportAddress: supportAddress,
		logger:         slog.Default(),
		now:            time.Now,
		randInt:        rand.IntN,
	}
}

// Run drives one workflow run to completion and returns its final state.
// The returned state is only valid when err is nil; on error no final
// response exists and nothing has been escalated beyond what the error
// reports.
func (e *Engine) Run(ctx context.Context, query string) (*RunState, error) {
	state := &RunState{UserQuery: query}

	if err := e.resolve(ctx, state); err != nil {
		return nil, err
	}
	e.presenter.ShowResolved(state)

	if err := e.confirm(state); err != nil {
		return nil, err
	}

	if err := e.escalate(ctx, state); err != nil {
		return nil, err
	}

	return state, nil
}

// resolve searches both stores concurrently, joins the results, and asks
// the summarizer for suggested-fix text. Any failure aborts the run.
func (e *Engine) resolve(ctx context.Context, state *RunState) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		articles, err := e.tools.SearchKnowledgeBase(gctx, state.UserQuery, searchLimit)
		if err != nil {
			return fmt.Errorf("knowledge base search: %w", err)
		}
		state.KBResults = articles
		return nil
	})
	g.Go(func() error {
		incidents, err := e.tools.SearchIncidents(gctx, state.UserQuery, searchLimit)
		if err != nil {
			return fmt.Errorf("incident search: %w", err)
		}
		state.IncidentResults = incidents
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	summary, err := e.summarizer.Summarize(ctx, state.UserQuery, state.KBResults, state.IncidentResults)
	if err != nil {
		// Retrieval results are discarded rather than shown unsummarized.
		return err
	}
	state.FinalResponse = summary
	return nil
}

// confirm collects the resolution decision, and, when unresolved, whether
// to open an incident. Resolution defaults to no, incident creation to yes.
func (e *Engine) confirm(state *RunState) error {
	resolved, err := e.prompter.AskYesNo("Did this solution resolve your issue?", false)
	if err != nil {
		return fmt.Errorf("reading confirmation: %w", err)
	}

	if resolved {
		state.Feedback = AnswerYes
		state.CreateIncident = AnswerNo
		return nil
	}

	state.Feedback = AnswerNo
	create, err := e.prompter.AskYesNo("Would you like to create an incident?", true)
	if err != nil {
		return fmt.Errorf("reading incident decision: %w", err)
	}
	if create {
		state.CreateIncident = AnswerYes
	} else {
		state.CreateIncident = AnswerNo
	}
	return nil
}

// escalate picks one of three outcomes from (Feedback, CreateIncident):
// create an incident and notify support, acknowledge the unresolved issue,
// or close out a resolved one.
func (e *Engine) escalate(ctx context.Context, state *RunState) error {
	switch {
	case state.Feedback == AnswerNo && state.CreateIncident == AnswerYes:
		return e.createIncident(ctx, state)
	case state.Feedback == AnswerNo:
		state.FinalResponse = "No incident created. Issue remains unresolved."
		return nil
	default:
		state.FinalResponse = "Glad it helped! No escalation needed."
		return nil
	}
}

func (e *Engine) createIncident(ctx context.Context, state *RunState) error {
	shortDescription, err := e.prompter.Ask("Short description of the issue")
	if err != nil {
		return fmt.Errorf("reading short description: %w", err)
	}
	description, err := e.prompter.Ask("Detailed description of what happened")
	if err != nil {
		return fmt.Errorf("reading description: %w", err)
	}
	assignedTo, err := e.prompter.Ask("Assign to (optional)")
	if err != nil {
		return fmt.Errorf("reading assignee: %w", err)
	}

	// One clock read: the number and opened_at must agree.
	opened := e.now().UTC()
	number := "INC" + opened.Format(incidentNumberFormat)
	suffix := e.randInt(100)

	for attempt := 1; ; attempt++ {
		err := e.tools.CreateIncident(ctx, storage.Incident{
			Number:           number,
			OpenedAt:         opened,
			ShortDescription: shortDescription,
			Description:      description,
			State:            storage.StateNew,
			AssignedTo:       assignedTo,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrDuplicate) || attempt >= createAttempts {
			return fmt.Errorf("creating incident: %w", err)
		}
		// Second-granularity timestamps collide under rapid creation. The
		// disambiguator advances with the attempt counter, so a number that
		// just failed is never re-submitted.
		number = fmt.Sprintf("INC%s%02d", opened.Format(incidentNumberFormat), (suffix+attempt)%100)
		e.logger.Warn("incident number collision, retrying", "attempt", attempt, "number", number)
	}
	state.IncidentNumber = number

	_, err = e.tools.SendNotification(ctx, notify.Message{
		To:      []string{e.supportAddress},
		Subject: "New Incident " + number,
		Body:    fmt.Sprintf("Issue reported: %s\n\n%s", shortDescription, description),
	})
	if err != nil {
		// The store write is authoritative; the incident exists even though
		// support was not notified.
		e.logger.Warn("support notification failed", "incident", number, "error", err)
		state.FinalResponse = fmt.Sprintf("Incident %s created, but support could not be notified.", number)
		return nil
	}

	state.FinalResponse = fmt.Sprintf("Incident %s created.", number)
	return nil
}
