package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/v3"
	openaioption "github.com/openai/openai-go/v3/option"

	"github.com/linanwx/suichan/logger"
	"github.com/linanwx/suichan/thread"
)

const defaultSystemPrompt = "You are a helpful assistant participating in a Slack thread. Reply in Markdown."

// turnMessages flattens a thread.Turn's prior history and trigger message
// into a simple (role, text) sequence shared by both SDK drivers below.
func turnMessages(t thread.Turn) []struct{ role, text string } {
	out := make([]struct{ role, text string }, 0, len(t.History)+1)
	for _, m := range t.History {
		role := "user"
		if m.User == "" && m.Bot {
			role = "assistant"
		}
		out = append(out, struct{ role, text string }{role, m.Text})
	}
	out = append(out, struct{ role, text string }{"user", t.Trigger.Text})
	return out
}

// AnthropicGenerator drives a turn's reply through the Messages streaming
// API, emitting each text delta as it arrives.
type AnthropicGenerator struct {
	Client       anthropic.Client
	Model        anthropic.Model
	MaxTokens    int64
	SystemPrompt string
}

// NewAnthropicGenerator builds a generator bound to apiKey.
func NewAnthropicGenerator(apiKey, model string) *AnthropicGenerator {
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaudeSonnet4_5
	}
	return &AnthropicGenerator{
		Client:    anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
		Model:     m,
		MaxTokens: 4096,
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, t thread.Turn, emit func(string)) error {
	start := time.Now()
	sys := g.SystemPrompt
	if sys == "" {
		sys = defaultSystemPrompt
	}

	var messages []anthropic.MessageParam
	for _, m := range turnMessages(t) {
		block := anthropic.NewTextBlock(m.text)
		if m.role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	stream := g.Client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     g.Model,
		MaxTokens: g.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: sys}},
		Messages:  messages,
	})

	var acc anthropic.Message
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return fmt.Errorf("provider: anthropic accumulate: %w", err)
		}
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok {
				emit(text.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("provider: anthropic stream: %w", err)
	}
	logger.Debug("anthropic turn complete", "model", string(g.Model), "elapsedMs", time.Since(start).Milliseconds())
	return nil
}

// OpenAIGenerator drives a turn's reply through the Chat Completions
// streaming API.
type OpenAIGenerator struct {
	Client       openai.Client
	Model        string
	SystemPrompt string
}

// NewOpenAIGenerator builds a generator bound to apiKey.
func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return &OpenAIGenerator{
		Client: openai.NewClient(openaioption.WithAPIKey(apiKey)),
		Model:  model,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, t thread.Turn, emit func(string)) error {
	start := time.Now()
	sys := g.SystemPrompt
	if sys == "" {
		sys = defaultSystemPrompt
	}

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(sys)}
	for _, m := range turnMessages(t) {
		if m.role == "assistant" {
			messages = append(messages, openai.AssistantMessage(m.text))
		} else {
			messages = append(messages, openai.UserMessage(m.text))
		}
	}

	stream := g.Client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    g.Model,
		Messages: messages,
	})
	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				emit(choice.Delta.Content)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("provider: openai stream: %w", err)
	}
	logger.Debug("openai turn complete", "model", g.Model, "elapsedMs", time.Since(start).Milliseconds())
	return nil
}

// ParseProviderModel splits a "provider/model" routing string used by
// config, e.g. "anthropic/claude-sonnet-4-5" or "openai/gpt-4o".
func ParseProviderModel(s string) (providerName, model string) {
	s = strings.TrimSpace(s)
	i := strings.IndexByte(s, '/')
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}
