// Package gate is the C4 component: it decides whether an inbound Slack
// event should trigger generation and, when it should, assembles the
// prior thread history into an ordered input sequence for the LLM driver.
package gate

import (
	"fmt"
	"strings"

	"github.com/linanwx/suichan/slackapi"
)

// AbortText is the exact user message that cancels a thread's further
// generation.
const AbortText = "abort"

// MetaKeyType and MetaValueAbort identify the metadata marker a bot
// message carries when it represents an aborted turn.
const (
	MetaKeyType    = "suichan_type"
	MetaValueAbort = "abort"
)

// Event is an inbound chat event, already normalized by the channel
// adapter that received it.
type Event struct {
	Channel      string
	Ts           string
	ThreadTs     string
	User         string
	Text         string
	Subtype      string
	IsMention    bool
	BotUserID    string
	MentionToken string // e.g. "<@U0BOTID>"
}

// Decision is the gate's verdict.
type Decision struct {
	Proceed bool
	Reason  string
	History []slackapi.Message
	Trigger Event
}

// Decide applies the drop rules in order and, on the passing path, fetches
// and filters thread history.
func Decide(client *slackapi.Client, ev Event) (Decision, error) {
	if ev.User != "" && ev.User == ev.BotUserID {
		return Decision{Reason: "bot_author"}, nil
	}
	if ev.Subtype == "message_changed" || ev.Subtype == "message_deleted" {
		return Decision{Reason: "subtype_" + ev.Subtype}, nil
	}

	if ev.IsMention {
		stripped := strings.TrimSpace(strings.Replace(ev.Text, ev.MentionToken, "", 1))
		if stripped == "" {
			return Decision{Reason: "empty_mention"}, nil
		}
		return Decision{Proceed: true, Trigger: ev}, nil
	}

	if ev.MentionToken != "" && strings.Contains(ev.Text, ev.MentionToken) {
		return Decision{Reason: "mention_handled_separately"}, nil
	}
	if ev.ThreadTs == "" {
		return Decision{Reason: "not_in_thread"}, nil
	}

	messages, hasMore, err := client.ConversationsReplies(ev.Channel, ev.ThreadTs)
	if err != nil {
		return Decision{}, fmt.Errorf("gate: fetch thread history: %w", err)
	}
	if hasMore {
		_, _ = client.PostMessage(ev.Channel, ev.ThreadTs,
			"This thread has too much history for me to read in full.", nil, nil)
		return Decision{Reason: "thread_too_long"}, nil
	}

	var (
		sawBotOrMention bool
		aborted         bool
		history         []slackapi.Message
	)
	for _, m := range messages {
		if m.Ts == ev.Ts {
			continue // exclude the trigger message itself
		}
		if m.User == ev.BotUserID || (ev.MentionToken != "" && strings.Contains(m.Text, ev.MentionToken)) {
			sawBotOrMention = true
		}
		if m.User != ev.BotUserID && strings.TrimSpace(m.Text) == AbortText {
			aborted = true
		}
		if m.User == ev.BotUserID && isAbortMetadata(m.Metadata) {
			aborted = true
		}
		history = append(history, m)
	}

	if !sawBotOrMention {
		return Decision{Reason: "no_prior_bot_history"}, nil
	}
	if aborted {
		return Decision{Reason: "aborted"}, nil
	}

	return Decision{Proceed: true, History: history, Trigger: ev}, nil
}

func isAbortMetadata(meta *slackapi.EventMetadata) bool {
	if meta == nil || meta.EventPayload == nil {
		return false
	}
	v, ok := meta.EventPayload[MetaKeyType]
	if !ok {
		return false
	}
	return fmt.Sprint(v) == MetaValueAbort
}
