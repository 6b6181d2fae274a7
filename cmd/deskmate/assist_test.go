package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"deskmate/internal/storage"
	"deskmate/internal/workflow"
)

func newPrompter(input string) (*consolePrompter, *bytes.Buffer) {
	var out bytes.Buffer
	return &consolePrompter{in: bufio.NewReader(strings.NewReader(input)), out: &out}, &out
}

func TestConsolePrompterAsk(t *testing.T) {
	p, out := newPrompter("  my vpn is down  \n")

	answer, err := p.Ask("Describe your IT issue")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "my vpn is down" {
		t.Errorf("answer = %q", answer)
	}
	if !strings.Contains(out.String(), "Describe your IT issue") {
		t.Errorf("prompt not written: %q", out.String())
	}
}

func TestConsolePrompterAskYesNo(t *testing.T) {
	tests := []struct {
		input      string
		defaultYes bool
		want       bool
	}{
		{"y\n", false, true},
		{"yes\n", false, true},
		{"n\n", true, false},
		{"no\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"maybe\n", true, true},
		{"maybe\n", false, false},
		{"YES\n", false, true},
	}
	for _, tt := range tests {
		p, out := newPrompter(tt.input)
		got, err := p.AskYesNo("Did this solution resolve your issue?", tt.defaultYes)
		if err != nil {
			t.Fatalf("AskYesNo(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("AskYesNo(%q, default %v) = %v, want %v", tt.input, tt.defaultYes, got, tt.want)
		}
		wantHint := "[y/N]"
		if tt.defaultYes {
			wantHint = "[Y/n]"
		}
		if !strings.Contains(out.String(), wantHint) {
			t.Errorf("prompt %q missing hint %s", out.String(), wantHint)
		}
	}
}

func TestConsolePresenterShowResolved(t *testing.T) {
	noColor = true
	t.Cleanup(func() { noColor = false })

	var out bytes.Buffer
	p := &consolePresenter{out: &out}

	p.ShowResolved(&workflow.RunState{
		KBResults: []storage.KnowledgeArticle{
			{Number: "KB0001001", ShortDescription: "VPN connection troubleshooting"},
		},
		IncidentResults: []storage.Incident{
			{Number: "INC20240401100000", State: storage.StateNew, ShortDescription: "VPN drops"},
		},
		FinalResponse: "Reinstall the VPN client.",
	})

	text := out.String()
	for _, want := range []string{
		"Knowledge base matches",
		"KB0001001",
		"Similar past incidents",
		"INC20240401100000",
		"Suggested fix",
		"Reinstall the VPN client.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestConsolePresenterSkipsEmptyTables(t *testing.T) {
	noColor = true
	t.Cleanup(func() { noColor = false })

	var out bytes.Buffer
	p := &consolePresenter{out: &out}
	p.ShowResolved(&workflow.RunState{FinalResponse: "No matches, try restarting."})

	text := out.String()
	if strings.Contains(text, "Knowledge base matches") || strings.Contains(text, "Similar past incidents") {
		t.Errorf("empty tables rendered:\n%s", text)
	}
	if !strings.Contains(text, "No matches, try restarting.") {
		t.Errorf("suggested fix missing:\n%s", text)
	}
}

func TestClip(t *testing.T) {
	if got := clip("short", 10); got != "short" {
		t.Errorf("clip = %q", got)
	}
	if got := clip("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("clip = %q", got)
	}
}
