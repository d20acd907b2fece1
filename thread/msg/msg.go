// Package msg defines the inbound turn payload shared between thread and
// the channel/bus layers that feed it.
package msg

import "github.com/linanwx/suichan/slackapi"

// Turn is one generation trigger delivered to a thread: the gate's verdict
// already resolved, carrying the ordered prior history and the message that
// triggered this turn.
type Turn struct {
	Channel  string
	ThreadTS string
	History  []slackapi.Message
	Trigger  slackapi.Message
}
