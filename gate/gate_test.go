package gate

import (
	"testing"

	"github.com/linanwx/suichan/slackapi"
)

func TestDecideDropsBotAuthoredEvents(t *testing.T) {
	d, err := Decide(nil, Event{User: "UBOT", BotUserID: "UBOT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Proceed {
		t.Fatalf("expected drop, got proceed")
	}
	if d.Reason != "bot_author" {
		t.Fatalf("got reason %q", d.Reason)
	}
}

func TestDecideDropsEditsAndDeletes(t *testing.T) {
	for _, subtype := range []string{"message_changed", "message_deleted"} {
		d, err := Decide(nil, Event{User: "U1", BotUserID: "UBOT", Subtype: subtype})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Proceed {
			t.Fatalf("subtype %s: expected drop", subtype)
		}
	}
}

func TestDecideDropsEmptyMention(t *testing.T) {
	d, err := Decide(nil, Event{
		User: "U1", BotUserID: "UBOT", IsMention: true,
		MentionToken: "<@UBOT>", Text: "<@UBOT>   ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Proceed {
		t.Fatalf("expected drop for empty mention body")
	}
}

func TestDecideProceedsOnNonEmptyMention(t *testing.T) {
	d, err := Decide(nil, Event{
		User: "U1", BotUserID: "UBOT", IsMention: true,
		MentionToken: "<@UBOT>", Text: "<@UBOT> hello there",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Proceed {
		t.Fatalf("expected proceed, got reason %q", d.Reason)
	}
}

func TestDecideDropsPlainMessageOutsideThread(t *testing.T) {
	d, err := Decide(nil, Event{
		User: "U1", BotUserID: "UBOT", Text: "just chatting",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Proceed || d.Reason != "not_in_thread" {
		t.Fatalf("got proceed=%v reason=%q", d.Proceed, d.Reason)
	}
}

func TestDecideDropsPlainMessageRepeatingMention(t *testing.T) {
	d, err := Decide(nil, Event{
		User: "U1", BotUserID: "UBOT", ThreadTs: "100.1",
		MentionToken: "<@UBOT>", Text: "did you see <@UBOT> say that?",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Proceed {
		t.Fatalf("expected drop for embedded mention text")
	}
}

func TestIsAbortMetadataDetectsMarker(t *testing.T) {
	if isAbortMetadata(nil) {
		t.Fatalf("nil metadata must not be abort")
	}
	if isAbortMetadata(&slackapi.EventMetadata{EventPayload: map[string]any{"other": "x"}}) {
		t.Fatalf("unrelated payload key must not be abort")
	}
	marker := &slackapi.EventMetadata{EventPayload: map[string]any{MetaKeyType: MetaValueAbort}}
	if !isAbortMetadata(marker) {
		t.Fatalf("expected abort marker to be detected")
	}
}
