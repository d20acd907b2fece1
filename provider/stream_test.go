package provider

import (
	"testing"

	"github.com/linanwx/suichan/slackapi"
	"github.com/linanwx/suichan/thread"
)

func sampleTurn() thread.Turn {
	return thread.Turn{
		Channel:  "C1",
		ThreadTS: "100.1",
		History: []slackapi.Message{
			{User: "U1", Text: "first question"},
			{Bot: true, Text: "first answer"},
		},
		Trigger: slackapi.Message{User: "U1", Text: "current question"},
	}
}

func TestParseProviderModelSplitsOnSlash(t *testing.T) {
	p, m := ParseProviderModel("anthropic/claude-sonnet-4-5")
	if p != "anthropic" || m != "claude-sonnet-4-5" {
		t.Fatalf("got (%q, %q)", p, m)
	}
}

func TestParseProviderModelWithoutSlash(t *testing.T) {
	p, m := ParseProviderModel("anthropic")
	if p != "anthropic" || m != "" {
		t.Fatalf("got (%q, %q)", p, m)
	}
}

func TestTurnMessagesAppendsTriggerLast(t *testing.T) {
	got := turnMessages(sampleTurn())
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	if got[len(got)-1].text != "current question" {
		t.Fatalf("trigger must be last, got %q", got[len(got)-1].text)
	}
}
