package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linanwx/suichan/config"
	"github.com/linanwx/suichan/slackapi"
)

var (
	sendChannel  string
	sendThreadTs string
	sendText     string
)

func init() {
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Post a one-off plain-text message to a Slack channel or thread",
		RunE:  runSend,
	}
	sendCmd.Flags().StringVar(&sendChannel, "channel", "", "Slack channel ID (required)")
	sendCmd.Flags().StringVar(&sendThreadTs, "thread-ts", "", "Thread timestamp to reply into (optional)")
	sendCmd.Flags().StringVar(&sendText, "text", "", "Message text (required)")
	_ = sendCmd.MarkFlagRequired("channel")
	_ = sendCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("send: load config: %w", err)
	}
	if cfg.Slack.BotToken == "" {
		return fmt.Errorf("send: no Slack bot token configured")
	}

	client := slackapi.New(cfg.Slack.BotToken)
	text := strings.TrimSpace(sendText)
	if _, err := client.PostMessage(sendChannel, sendThreadTs, text, nil, nil); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	fmt.Printf("message posted to %s\n", sendChannel)
	return nil
}
