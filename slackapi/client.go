// Package slackapi is a minimal hand-rolled client over Slack's Web API
// HTTP surface, covering only the four operations the core depends on
// (§6 of the bridge spec): posting a message, uploading a file, fetching
// thread replies, and looking up a user's locale. It follows the same
// thin-JSON-wrapper shape as other hand-rolled Slack clients in the
// ecosystem rather than pulling in an official SDK — no example in this
// codebase's lineage imports one.
package slackapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client is a thin wrapper around the Slack Web API.
type Client struct {
	BotToken   string
	APIBaseURL string
	HTTPClient *http.Client
}

// New constructs a Client for the given bot token.
func New(botToken string) *Client {
	return &Client{BotToken: botToken, APIBaseURL: "https://slack.com/api"}
}

func (c *Client) apiBase() string {
	if b := strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/"); b != "" {
		return b
	}
	return "https://slack.com/api"
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (c *Client) postJSON(path string, payload any, out any) error {
	if c.BotToken == "" {
		return errors.New("slackapi: missing bot token")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slackapi: marshal request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.apiBase()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slackapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.BotToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("slackapi: %s: %w", path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("slackapi: %s: read response: %w", path, err)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("slackapi: %s: decode response: %w", path, err)
		}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && !env.OK {
		return fmt.Errorf("slackapi: %s: %s", path, env.Error)
	}
	return nil
}

// Metadata is the structured envelope attached to a posted message,
// carrying the raw reference Markdown for later retrieval.
type Metadata struct {
	EventType    string         `json:"event_type"`
	EventPayload map[string]any `json:"event_payload"`
}

type postMessageRequest struct {
	Channel  string    `json:"channel"`
	ThreadTs string    `json:"thread_ts,omitempty"`
	Text     string    `json:"text,omitempty"`
	Blocks   []any     `json:"blocks,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

type PostMessageResult struct {
	Channel string `json:"channel"`
	Ts      string `json:"ts"`
}

// PostMessage posts a message to a channel or thread. Blocks/metadata may
// be nil for a plain-text fallback post.
func (c *Client) PostMessage(channel, threadTs, text string, blocks []any, metadata *Metadata) (PostMessageResult, error) {
	var out struct {
		envelope
		PostMessageResult
	}
	err := c.postJSON("/chat.postMessage", postMessageRequest{
		Channel:  channel,
		ThreadTs: threadTs,
		Text:     text,
		Blocks:   blocks,
		Metadata: metadata,
	}, &out)
	return out.PostMessageResult, err
}

// FilesUpload uploads a small file (a CSV table embed, in this bridge) to
// a channel/thread using the single-shot files.upload endpoint.
func (c *Client) FilesUpload(channel, threadTs, filename string, content []byte) error {
	if c.BotToken == "" {
		return errors.New("slackapi: missing bot token")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("channels", channel)
	if threadTs != "" {
		_ = w.WriteField("thread_ts", threadTs)
	}
	_ = w.WriteField("filename", filename)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("slackapi: files.upload: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("slackapi: files.upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("slackapi: files.upload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.apiBase()+"/files.upload", &buf)
	if err != nil {
		return fmt.Errorf("slackapi: files.upload: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.BotToken)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("slackapi: files.upload: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && !env.OK {
		return fmt.Errorf("slackapi: files.upload: %s", env.Error)
	}
	return nil
}

// Message is one element of conversations.replies' messages array.
type Message struct {
	User     string         `json:"user"`
	Bot      bool           `json:"bot_id,omitempty"`
	Text     string         `json:"text"`
	Ts       string         `json:"ts"`
	ThreadTs string         `json:"thread_ts,omitempty"`
	Subtype  string         `json:"subtype,omitempty"`
	Metadata *EventMetadata `json:"metadata,omitempty"`
}

// EventMetadata mirrors the metadata envelope a bot message may carry.
type EventMetadata struct {
	EventType    string         `json:"event_type"`
	EventPayload map[string]any `json:"event_payload"`
}

// ConversationsReplies fetches a thread's full reply list.
func (c *Client) ConversationsReplies(channel, ts string) (messages []Message, hasMore bool, err error) {
	var out struct {
		envelope
		Messages []Message `json:"messages"`
		HasMore  bool      `json:"has_more"`
	}
	body, marshalErr := json.Marshal(struct {
		Channel string `json:"channel"`
		Ts      string `json:"ts"`
	}{Channel: channel, Ts: ts})
	if marshalErr != nil {
		return nil, false, fmt.Errorf("slackapi: conversations.replies: %w", marshalErr)
	}
	req, reqErr := http.NewRequest(http.MethodGet, c.apiBase()+"/conversations.replies?"+queryFromJSON(body), nil)
	if reqErr != nil {
		return nil, false, fmt.Errorf("slackapi: conversations.replies: %w", reqErr)
	}
	req.Header.Set("Authorization", "Bearer "+c.BotToken)
	resp, doErr := c.httpClient().Do(req)
	if doErr != nil {
		return nil, false, fmt.Errorf("slackapi: conversations.replies: %w", doErr)
	}
	defer resp.Body.Close()
	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, false, fmt.Errorf("slackapi: conversations.replies: %w", readErr)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("slackapi: conversations.replies: decode: %w", err)
	}
	if !out.OK {
		return nil, false, fmt.Errorf("slackapi: conversations.replies: %s", out.Error)
	}
	return out.Messages, out.HasMore, nil
}

// UserInfo is the subset of users.info this bridge needs.
type UserInfo struct {
	ID     string `json:"id"`
	Locale string `json:"locale"`
}

// UsersInfo looks up a user's locale.
func (c *Client) UsersInfo(user string) (UserInfo, error) {
	var out struct {
		envelope
		User UserInfo `json:"user"`
	}
	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("%s/users.info?user=%s&include_locale=true", c.apiBase(), user), nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("slackapi: users.info: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.BotToken)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("slackapi: users.info: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return UserInfo{}, fmt.Errorf("slackapi: users.info: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return UserInfo{}, fmt.Errorf("slackapi: users.info: decode: %w", err)
	}
	if !out.OK {
		return UserInfo{}, fmt.Errorf("slackapi: users.info: %s", out.Error)
	}
	return out.User, nil
}

// queryFromJSON is a tiny helper turning a flat JSON object into a query
// string for the GET-based conversations.replies endpoint.
func queryFromJSON(body []byte) string {
	var fields map[string]string
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, "&")
}
