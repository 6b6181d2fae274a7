package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"deskmate/internal/api"
	"deskmate/internal/config"
	"deskmate/internal/ollama"
	"deskmate/internal/summarize"
	"deskmate/internal/tools"
	"deskmate/internal/workflow"
)

var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "Start an interactive support session",
	Long: `Start an interactive support session.

Describe your IT issue in free text; deskmate searches the knowledge base
and past incidents, suggests a fix, and offers to open an incident when
the suggestion does not resolve the issue. Type "exit" or "quit" to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssist(cmd.Context())
	},
}

func runAssist(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The summarization model must be ready before the first query.
	llm := ollama.New(cfg.Ollama.BaseURL)
	if err := ollama.EnsureReady(ctx, llm, cfg.Ollama.Model, os.Stderr); err != nil {
		return err
	}

	toolURL := fmt.Sprintf("http://%s:%d%s", cfg.Server.Host, cfg.Server.Port, api.MCPPath)
	toolset, err := tools.Dial(ctx, toolURL)
	if err != nil {
		printError("could not reach the tool server at %s", toolURL)
		fmt.Fprintln(os.Stderr, "  start it first with: deskmate serve")
		return err
	}
	defer toolset.Close()

	prompter := &consolePrompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	presenter := &consolePresenter{out: os.Stdout}

	engine := workflow.NewEngine(
		toolset,
		summarize.New(llm, cfg.Ollama.Model),
		prompter,
		presenter,
		cfg.Notify.SupportAddress,
	)

	fmt.Println("deskmate IT support assistant. Type \"exit\" or \"quit\" to leave.")
	return workflow.NewLoop(engine, prompter, presenter).Run(ctx)
}

// consolePrompter reads answers line by line from standard input.
type consolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *consolePrompter) Ask(prompt string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", colorize(colorBold, prompt))
	line, err := p.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *consolePrompter) AskYesNo(prompt string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	answer, err := p.Ask(fmt.Sprintf("%s %s", prompt, hint))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	case "":
		return defaultYes, nil
	default:
		return defaultYes, nil
	}
}

// consolePresenter renders retrieved records as tables and the suggested fix
// as plain prose.
type consolePresenter struct {
	out io.Writer
}

func (p *consolePresenter) ShowResolved(state *workflow.RunState) {
	if len(state.KBResults) > 0 {
		fmt.Fprintf(p.out, "\n%s\n", colorize(colorBold, "Knowledge base matches"))
		tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  NUMBER\tUPDATED\tDESCRIPTION")
		for _, a := range state.KBResults {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", a.Number, a.UpdatedAt.Format("2006-01-02"), clip(a.ShortDescription, 60))
		}
		tw.Flush()
	}

	if len(state.IncidentResults) > 0 {
		fmt.Fprintf(p.out, "\n%s\n", colorize(colorBold, "Similar past incidents"))
		tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  NUMBER\tSTATE\tOPENED\tDESCRIPTION")
		for _, inc := range state.IncidentResults {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", inc.Number, inc.State, inc.OpenedAt.Format("2006-01-02"), clip(inc.ShortDescription, 50))
		}
		tw.Flush()
	}

	fmt.Fprintf(p.out, "\n%s\n%s\n\n", colorize(colorBold, "Suggested fix"), state.FinalResponse)
}

func (p *consolePresenter) ShowFinal(response string) {
	fmt.Fprintf(p.out, "\n%s\n\n", response)
}

func (p *consolePresenter) ShowError(err error) {
	printError("%v", err)
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
