package workflow

import (
	"context"
	"errors"
	"testing"
)

func newTestLoop(t *testing.T, tools *mockToolset, sum *mockSummarizer, prompter *scriptPrompter) (*Loop, *recordingPresenter) {
	t.Helper()
	e, presenter := newTestEngine(t, tools, sum, prompter)
	return NewLoop(e, prompter, presenter), presenter
}

func TestLoopExitsOnKeyword(t *testing.T) {
	for _, keyword := range []string{"exit", "quit", "EXIT", "  Quit  "} {
		t.Run(keyword, func(t *testing.T) {
			tools := &mockToolset{}
			prompter := &scriptPrompter{t: t, lines: []string{keyword}}
			loop, _ := newTestLoop(t, tools, &mockSummarizer{text: "unused"}, prompter)

			if err := loop.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(tools.searchedQueries) != 0 {
				t.Errorf("exit keyword triggered a search: %v", tools.searchedQueries)
			}
		})
	}
}

func TestLoopExitsOnEOF(t *testing.T) {
	tools := &mockToolset{}
	prompter := &scriptPrompter{t: t} // no lines: Ask returns io.EOF
	loop, _ := newTestLoop(t, tools, &mockSummarizer{text: "unused"}, prompter)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestLoopRunsQueriesUntilExit(t *testing.T) {
	tools := &mockToolset{}
	prompter := &scriptPrompter{
		t:       t,
		lines:   []string{"vpn drops", "printer jammed", "exit"},
		answers: []bool{true, true},
	}
	loop, presenter := newTestLoop(t, tools, &mockSummarizer{text: "try this"}, prompter)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(tools.searchedQueries) != 2 {
		t.Fatalf("searched %d queries, want 2: %v", len(tools.searchedQueries), tools.searchedQueries)
	}
	if len(presenter.finals) != 2 {
		t.Errorf("ShowFinal called %d times, want 2", len(presenter.finals))
	}
	for _, final := range presenter.finals {
		if final != "Glad it helped! No escalation needed." {
			t.Errorf("final = %q", final)
		}
	}
}

func TestLoopContinuesAfterFailedRun(t *testing.T) {
	tools := &mockToolset{kbErr: errors.New("store offline")}
	prompter := &scriptPrompter{t: t, lines: []string{"first query", "exit"}}
	loop, presenter := newTestLoop(t, tools, &mockSummarizer{text: "unused"}, prompter)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(presenter.errs) != 1 {
		t.Fatalf("ShowError called %d times, want 1", len(presenter.errs))
	}
	if len(presenter.finals) != 0 {
		t.Errorf("ShowFinal called after a failed run")
	}
}

func TestLoopStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tools := &mockToolset{}
	prompter := &scriptPrompter{t: t, lines: []string{"never read"}}
	loop, _ := newTestLoop(t, tools, &mockSummarizer{text: "unused"}, prompter)

	if err := loop.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
