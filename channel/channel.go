// Package channel provides messaging channel interfaces and implementations.
package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linanwx/suichan/logger"
)

// Message represents an incoming message from a channel.
type Message struct {
	ID        string            // Unique message ID
	ChannelID string            // Channel identifier (e.g., "telegram:123456")
	UserID    string            // User identifier
	Username  string            // Human-readable username
	Text      string            // Message text
	ReplyTo   string            // ID of message being replied to (if any)
	Metadata  map[string]string // Channel-specific metadata
}

// Response represents a response to send back.
type Response struct {
	Text     string            // Response text
	ReplyTo  string            // Message ID to reply to
	Metadata map[string]string // Channel-specific options
}

// Channel is the interface for messaging channels.
type Channel interface {
	// Name returns the channel name (e.g., "telegram", "cli", "webhook").
	Name() string

	// Start begins listening for messages.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the channel.
	Stop() error

	// Send sends a response message.
	Send(ctx context.Context, resp *Response) error

	// Messages returns a channel for receiving incoming messages.
	Messages() <-chan *Message
}

// Manager manages multiple channels as a pure registry.
type Manager struct {
	channels map[string]Channel
}

// NewManager creates a new channel manager.
func NewManager() *Manager {
	return &Manager{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel to the manager and logs it. Nil is silently ignored.
func (m *Manager) Register(ch Channel) {
	if ch == nil {
		return
	}
	m.channels[ch.Name()] = ch
	logger.Info("channel registered", "channel", ch.Name())
}

// Get returns a channel by name.
func (m *Manager) Get(name string) (Channel, bool) {
	ch, ok := m.channels[name]
	return ch, ok
}

// SendTo sends a text message to a named channel.
func (m *Manager) SendTo(ctx context.Context, channelName, text, replyTo string) error {
	ch, ok := m.channels[channelName]
	if !ok {
		return fmt.Errorf("channel not found: %s", channelName)
	}
	return ch.Send(ctx, &Response{Text: text, ReplyTo: replyTo})
}

// StartAll starts all registered channels.
func (m *Manager) StartAll(ctx context.Context) error {
	if webCh, ok := m.channels["web"]; ok {
		if err := webCh.Start(ctx); err != nil {
			return err
		}
	}

	telegramCh, hasTelegram := m.channels["telegram"]
	if hasTelegram {
		if err := telegramCh.Start(ctx); err != nil {
			return err
		}
	}

	if cliCh, ok := m.channels["cli"]; ok {
		if hasTelegram {
			time.Sleep(1 * time.Second)
		}
		if err := cliCh.Start(ctx); err != nil {
			return err
		}
	}

	// Start any remaining channels not handled above.
	for name, ch := range m.channels {
		if name == "web" || name == "telegram" || name == "cli" {
			continue
		}
		if err := ch.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// StopAll stops all registered channels.
func (m *Manager) StopAll() error {
	for _, ch := range m.channels {
		if err := ch.Stop(); err != nil {
			return err
		}
	}
	return nil
}

// Each iterates over all registered channels.
func (m *Manager) Each(fn func(Channel)) {
	for _, ch := range m.channels {
		fn(ch)
	}
}

// MediaSummary renders a one-line human-readable description of a received
// attachment/media item, used to fold inline media metadata into a
// channel's plain-text Message.Metadata["media_summary"] field. kv is a
// flat key/value list (key1, value1, key2, value2, ...); empty values are
// omitted.
func MediaSummary(kind string, kv ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s received", kind)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		fmt.Fprintf(&b, "; %s=%s", kv[i], kv[i+1])
	}
	b.WriteString("]")
	return b.String()
}

// SplitMessage breaks text into chunks no longer than max runes, preferring
// to break on a blank line, then a single newline, so a platform's own
// per-message length limit does not truncate the text. When the window
// holds no newline (a single line longer than max), the line is cut at
// the max-rune boundary.
func SplitMessage(text string, max int) []string {
	if max <= 0 || len([]rune(text)) <= max {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len([]rune(remaining)) > max {
		cut := bestSplitPoint(remaining, max)
		chunks = append(chunks, strings.TrimRight(remaining[:cut], "\n"))
		remaining = strings.TrimLeft(remaining[cut:], "\n")
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}

// bestSplitPoint returns a byte offset at or before the max-rune boundary,
// preferring the last blank-line break, then the last newline, within the
// candidate window.
func bestSplitPoint(s string, maxRunes int) int {
	limit := runeOffset(s, maxRunes)
	window := s[:limit]
	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return i + 2
	}
	if i := strings.LastIndex(window, "\n"); i > 0 {
		return i + 1
	}
	return limit
}

func runeOffset(s string, n int) int {
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}
