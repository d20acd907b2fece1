// Package config handles configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linanwx/suichan/logger"
)

const (
	configDirName  = ".suichan"
	configFileName = "config.yaml"
)

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// ConfigDir returns the directory holding config.yaml and the bridge's
// working data (~/.suichan by default).
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Config is the root configuration structure.
type Config struct {
	Slack     SlackConfig     `json:"slack" yaml:"slack"`
	Chunker   ChunkerConfig   `json:"chunker,omitempty" yaml:"chunker,omitempty"`
	Providers ProvidersConfig `json:"providers" yaml:"providers"`
	Channels  *ChannelsConfig `json:"channels,omitempty" yaml:"channels,omitempty"`
	Logging   LoggingConfig   `json:"logging,omitempty" yaml:"logging,omitempty"`
	Sweep     SweepConfig     `json:"sweep,omitempty" yaml:"sweep,omitempty"`
}

// SlackConfig holds the credentials the bridge authenticates to Slack with.
// BotToken and SigningSecret fall back to the SUICHAN_SLACK_BOT_TOKEN and
// SUICHAN_SLACK_SIGNING_SECRET environment variables when blank; BotUserID
// has no environment fallback.
type SlackConfig struct {
	BotToken      string `json:"botToken,omitempty" yaml:"botToken,omitempty"`
	SigningSecret string `json:"signingSecret,omitempty" yaml:"signingSecret,omitempty"`
	BotUserID     string `json:"botUserId,omitempty" yaml:"botUserId,omitempty"`
}

// ChunkerConfig tunes the streaming chunker's release policy. MaxChunkSize
// is passed to every chunker. PostDelaySeconds is loaded and defaulted but
// not passed on: posters always space posts by poster.DefaultPostDelay.
type ChunkerConfig struct {
	MaxChunkSize     int `json:"maxChunkSize,omitempty" yaml:"maxChunkSize,omitempty"`
	PostDelaySeconds int `json:"postDelaySeconds,omitempty" yaml:"postDelaySeconds,omitempty"`
}

// SweepConfig tunes the idle-thread reaper.
type SweepConfig struct {
	ThreadTTLMinutes int    `json:"threadTtlMinutes,omitempty" yaml:"threadTtlMinutes,omitempty"`
	CronExpr         string `json:"cronExpr,omitempty" yaml:"cronExpr,omitempty"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

func applyDefaults(c *Config) {
	if c.Slack.BotToken == "" {
		c.Slack.BotToken = os.Getenv("SUICHAN_SLACK_BOT_TOKEN")
	}
	if c.Slack.SigningSecret == "" {
		c.Slack.SigningSecret = os.Getenv("SUICHAN_SLACK_SIGNING_SECRET")
	}
	if c.Chunker.MaxChunkSize <= 0 {
		c.Chunker.MaxChunkSize = 1024
	}
	if c.Chunker.PostDelaySeconds <= 0 {
		c.Chunker.PostDelaySeconds = 1
	}
	if c.Sweep.ThreadTTLMinutes <= 0 {
		c.Sweep.ThreadTTLMinutes = 30
	}
	if c.Sweep.CronExpr == "" {
		c.Sweep.CronExpr = "@every 5m"
	}
	if c.Providers.Anthropic == nil {
		c.Providers.Anthropic = &ProviderConfig{}
	}
	if c.Providers.Anthropic.APIKey == "" {
		c.Providers.Anthropic.APIKey = os.Getenv("SUICHAN_ANTHROPIC_API_KEY")
	}
	if c.Providers.OpenAI == nil {
		c.Providers.OpenAI = &ProviderConfig{}
	}
	if c.Providers.OpenAI.APIKey == "" {
		c.Providers.OpenAI.APIKey = os.Getenv("SUICHAN_OPENAI_API_KEY")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Load reads config.yaml from the config directory, applying defaults over
// any fields left unset. Returns DefaultConfig() if no file exists.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyDefaults(&c)
	return &c, nil
}

// BuildLoggerConfig derives the logger's Config from this Config's Logging
// section.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := c.Logging.Enabled == nil || *c.Logging.Enabled
	return logger.Config{
		Enabled: enabled,
		Level:   c.Logging.Level,
		Stdout:  c.Logging.Stdout,
		File:    c.Logging.File,
	}
}

// WorkspacePath returns the bridge's working directory (used for scratch
// files such as downloaded attachments before an upload).
func (c *Config) WorkspacePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	ws := filepath.Join(dir, "workspace")
	if err := os.MkdirAll(ws, 0o755); err != nil {
		return "", fmt.Errorf("config: create workspace: %w", err)
	}
	return ws, nil
}

// ProvidersConfig contains LLM provider API configurations.
type ProvidersConfig struct {
	Anthropic *ProviderConfig `json:"anthropic,omitempty" yaml:"anthropic,omitempty"`
	OpenAI    *ProviderConfig `json:"openai,omitempty" yaml:"openai,omitempty"`
	Model     string          `json:"model,omitempty" yaml:"model,omitempty"` // "provider/model", e.g. "anthropic/claude-sonnet-4-5"
}

// ProviderConfig contains API credentials for a provider.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APIBase string `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`
	Stdout  bool   `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
}

// ChannelsConfig contains the alternate (non-Slack) channel configurations,
// each of which relays the same reply's Markdown through its own Send
// (platform text or markup) instead of Slack rich_text blocks.
type ChannelsConfig struct {
	Telegram *TelegramChannelConfig `json:"telegram,omitempty" yaml:"telegram,omitempty"`
	Feishu   *FeishuChannelConfig   `json:"feishu,omitempty" yaml:"feishu,omitempty"`
	Discord  *DiscordChannelConfig  `json:"discord,omitempty" yaml:"discord,omitempty"`
}

// TelegramChannelConfig contains Telegram bot configuration.
type TelegramChannelConfig struct {
	Token      string  `json:"token" yaml:"token"`
	AllowedIDs []int64 `json:"allowedIds,omitempty" yaml:"allowedIds,omitempty"`
}

// FeishuChannelConfig contains Feishu (Lark) bot configuration.
type FeishuChannelConfig struct {
	AppID             string   `json:"appId" yaml:"appId"`
	AppSecret         string   `json:"appSecret" yaml:"appSecret"`
	VerificationToken string   `json:"verificationToken,omitempty" yaml:"verificationToken,omitempty"`
	EncryptKey        string   `json:"encryptKey,omitempty" yaml:"encryptKey,omitempty"`
	WebhookAddr       string   `json:"webhookAddr,omitempty" yaml:"webhookAddr,omitempty"`
	AllowedOpenIDs    []string `json:"allowedOpenIds,omitempty" yaml:"allowedOpenIds,omitempty"`
}

// DiscordChannelConfig contains Discord bot configuration.
type DiscordChannelConfig struct {
	Token           string   `json:"token" yaml:"token"`
	AllowedGuildIDs []string `json:"allowedGuildIds,omitempty" yaml:"allowedGuildIds,omitempty"`
	AllowedUserIDs  []string `json:"allowedUserIds,omitempty" yaml:"allowedUserIds,omitempty"`
}

// --- channel config accessors, used by channel.NewXChannel constructors ---

func (c *Config) GetDiscordToken() string {
	if c == nil || c.Channels == nil || c.Channels.Discord == nil {
		return ""
	}
	return c.Channels.Discord.Token
}

func (c *Config) GetDiscordAllowedGuildIDs() []string {
	if c == nil || c.Channels == nil || c.Channels.Discord == nil {
		return nil
	}
	return c.Channels.Discord.AllowedGuildIDs
}

func (c *Config) GetDiscordAllowedUserIDs() []string {
	if c == nil || c.Channels == nil || c.Channels.Discord == nil {
		return nil
	}
	return c.Channels.Discord.AllowedUserIDs
}

func (c *Config) GetTelegramToken() string {
	if c == nil || c.Channels == nil || c.Channels.Telegram == nil {
		return ""
	}
	return c.Channels.Telegram.Token
}

func (c *Config) GetTelegramAllowedIDs() []int64 {
	if c == nil || c.Channels == nil || c.Channels.Telegram == nil {
		return nil
	}
	return c.Channels.Telegram.AllowedIDs
}

func (c *Config) GetFeishuAppID() string {
	if c == nil || c.Channels == nil || c.Channels.Feishu == nil {
		return ""
	}
	return c.Channels.Feishu.AppID
}

func (c *Config) GetFeishuAppSecret() string {
	if c == nil || c.Channels == nil || c.Channels.Feishu == nil {
		return ""
	}
	return c.Channels.Feishu.AppSecret
}

func (c *Config) GetFeishuVerificationToken() string {
	if c == nil || c.Channels == nil || c.Channels.Feishu == nil {
		return ""
	}
	return c.Channels.Feishu.VerificationToken
}

func (c *Config) GetFeishuEncryptKey() string {
	if c == nil || c.Channels == nil || c.Channels.Feishu == nil {
		return ""
	}
	return c.Channels.Feishu.EncryptKey
}

func (c *Config) GetFeishuWebhookAddr() string {
	if c == nil || c.Channels == nil || c.Channels.Feishu == nil || c.Channels.Feishu.WebhookAddr == "" {
		return "127.0.0.1:9090"
	}
	return c.Channels.Feishu.WebhookAddr
}
