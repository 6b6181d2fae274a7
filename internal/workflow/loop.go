package workflow

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Loop repeatedly collects an issue description, drives one engine run to
// completion, and presents the outcome. It holds no state across iterations.
type Loop struct {
	engine    *Engine
	prompter  Prompter
	presenter Presenter
}

// NewLoop creates an interaction loop around the given engine. The prompter
// and presenter are normally the same ones the engine uses.
func NewLoop(engine *Engine, prompter Prompter, presenter Presenter) *Loop {
	return &Loop{engine: engine, prompter: prompter, presenter: presenter}
}

// Run prompts until the user enters an exit keyword or input ends. A failed
// run is reported and the loop continues; one bad run never ends the session.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		query, err := l.prompter.Ask("Describe your IT issue")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if isExitKeyword(query) {
			return nil
		}

		state, err := l.engine.Run(ctx, strings.TrimSpace(query))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.presenter.ShowError(err)
			continue
		}

		l.presenter.ShowFinal(state.FinalResponse)
	}
}

func isExitKeyword(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exit", "quit":
		return true
	}
	return false
}
