package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/linanwx/suichan/bus"
	"github.com/linanwx/suichan/channel"
	"github.com/linanwx/suichan/config"
	"github.com/linanwx/suichan/gate"
	"github.com/linanwx/suichan/logger"
	"github.com/linanwx/suichan/provider"
	"github.com/linanwx/suichan/slackapi"
	"github.com/linanwx/suichan/thread"
	"github.com/linanwx/suichan/thread/msg"
)

var serveAddr string

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run suichan as a long-lived Slack bridge, plus any configured alternate channels",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":3000", "address the Slack Events API webhook listens on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("serve: load config: %w", err)
	}

	client := slackapi.New(cfg.Slack.BotToken)
	gen, err := buildGenerator(cfg)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	threadMgr := thread.NewManager(thread.Config{
		Client:       client,
		Generator:    gen,
		MaxChunkSize: cfg.Chunker.MaxChunkSize,
		ThreadTTL:    time.Duration(cfg.Sweep.ThreadTTLMinutes) * time.Minute,
	})
	stopSweep, err := threadMgr.StartSweeper(cfg.Sweep.CronExpr)
	if err != nil {
		return fmt.Errorf("serve: start idle-thread sweeper: %w", err)
	}
	defer stopSweep()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mentionToken := ""
	if cfg.Slack.BotUserID != "" {
		mentionToken = "<@" + cfg.Slack.BotUserID + ">"
	}

	eventBus := bus.NewBus(256)
	handleSlackEvent := func(c context.Context, ev *bus.Event) {
		payload, err := ev.ParsePayload()
		if err != nil {
			logger.Error("serve: bad slack event payload", "err", err)
			return
		}
		gev := gate.Event{
			Channel:      payload.Channel,
			Ts:           payload.Ts,
			ThreadTs:     payload.ThreadTs,
			User:         payload.User,
			Text:         payload.Text,
			Subtype:      payload.Subtype,
			IsMention:    ev.Type == bus.EventAppMention,
			BotUserID:    cfg.Slack.BotUserID,
			MentionToken: mentionToken,
		}
		decision, err := gate.Decide(client, gev)
		if err != nil {
			logger.Error("serve: gate decide failed", "err", err)
			return
		}
		if !decision.Proceed {
			logger.Debug("serve: turn dropped", "reason", decision.Reason)
			return
		}
		threadTS := decision.Trigger.ThreadTs
		if threadTS == "" {
			threadTS = decision.Trigger.Ts
		}
		threadMgr.Dispatch(c, msg.Turn{
			Channel:  decision.Trigger.Channel,
			ThreadTS: threadTS,
			History:  decision.History,
			Trigger: slackapi.Message{
				User: decision.Trigger.User,
				Text: decision.Trigger.Text,
				Ts:   decision.Trigger.Ts,
			},
		})
	}
	eventBus.Subscribe(bus.EventAppMention, handleSlackEvent)
	eventBus.Subscribe(bus.EventMessage, handleSlackEvent)

	mux := http.NewServeMux()
	mux.Handle("/slack/events", eventBus)
	httpServer := &http.Server{Addr: serveAddr, Handler: mux}

	altManager := registerAltChannels(cfg)
	if err := altManager.StartAll(ctx); err != nil {
		return fmt.Errorf("serve: start alternate channels: %w", err)
	}
	go runAltChannelBridge(ctx, altManager, gen, cfg.Chunker.MaxChunkSize)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("serve: shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = altManager.StopAll()
		eventBus.Close()
		cancel()
	}()

	logger.Info("suichan serve starting", "addr", serveAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: http server: %w", err)
	}
	return nil
}

// buildGenerator picks the streaming LLM driver named in
// cfg.Providers.Model ("anthropic/..." or "openai/..."), defaulting to
// Anthropic when unset.
func buildGenerator(cfg *config.Config) (thread.Generator, error) {
	providerName, model := provider.ParseProviderModel(cfg.Providers.Model)
	switch providerName {
	case "", "anthropic":
		if cfg.Providers.Anthropic == nil || cfg.Providers.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider selected but no API key configured")
		}
		return provider.NewAnthropicGenerator(cfg.Providers.Anthropic.APIKey, model), nil
	case "openai":
		if cfg.Providers.OpenAI == nil || cfg.Providers.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai provider selected but no API key configured")
		}
		return provider.NewOpenAIGenerator(cfg.Providers.OpenAI.APIKey, model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", providerName)
	}
}

// registerAltChannels builds a channel.Manager carrying whichever of
// Discord/Telegram/Feishu have credentials configured; each relays the
// same Generator's replies through its own Send (platform text or markup),
// demonstrating
// that the streaming-to-chunks pipeline is not Slack-specific (only the
// rich-block rendering in markdown/poster is).
func registerAltChannels(cfg *config.Config) *channel.Manager {
	m := channel.NewManager()
	m.Register(channel.NewDiscordChannel(cfg))
	m.Register(channel.NewTelegramChannel(cfg))
	m.Register(channel.NewFeishuChannel(cfg))
	return m
}
