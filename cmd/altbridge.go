package cmd

import (
	"context"
	"strings"

	"github.com/linanwx/suichan/channel"
	"github.com/linanwx/suichan/chunker"
	"github.com/linanwx/suichan/logger"
	"github.com/linanwx/suichan/slackapi"
	"github.com/linanwx/suichan/thread"
	"github.com/linanwx/suichan/thread/msg"
)

// runAltChannelBridge drives every registered non-Slack channel's inbound
// Messages() queue through the same Generator Slack turns use. It reuses
// chunker.Chunker purely for its Markdown-aware grouping (ReferenceMD),
// discarding the Slack rich-block tree that markdown.Render would also
// produce, since these channels render reference_md through their own
// platform markup in Send instead.
func runAltChannelBridge(ctx context.Context, manager *channel.Manager, gen thread.Generator, maxChunkSize int) {
	manager.Each(func(ch channel.Channel) {
		go bridgeOneChannel(ctx, ch, gen, maxChunkSize)
	})
}

func bridgeOneChannel(ctx context.Context, ch channel.Channel, gen thread.Generator, maxChunkSize int) {
	for {
		select {
		case <-ctx.Done():
			return
		case inbound, ok := <-ch.Messages():
			if !ok {
				return
			}
			handleAltMessage(ctx, ch, gen, maxChunkSize, inbound)
		}
	}
}

func handleAltMessage(ctx context.Context, ch channel.Channel, gen thread.Generator, maxChunkSize int, inbound *channel.Message) {
	if strings.TrimSpace(inbound.Text) == "" {
		return
	}

	c := chunker.New(maxChunkSize)
	// The block tree is discarded here, so a table's _embed_file sentinel
	// needs no upload: drop the tree and keep the group's ReferenceMD.
	c.FixRendered = func([]any) []any { return nil }
	turn := msg.Turn{
		Channel:  inbound.ChannelID,
		ThreadTS: inbound.ID,
		Trigger:  slackapi.Message{User: inbound.UserID, Text: inbound.Text},
	}

	first := true
	genErr := gen.Generate(ctx, turn, func(delta string) {
		if first {
			delta = chunker.PreClean(delta)
			first = false
		}
		c.Feed(delta)
		drainReferenceGroups(ctx, ch, inbound, c)
	})
	c.Finish()
	drainReferenceGroups(ctx, ch, inbound, c)

	if genErr != nil {
		logger.Error("altbridge: generation failed", "channel", ch.Name(), "err", genErr)
	}
}

func drainReferenceGroups(ctx context.Context, ch channel.Channel, inbound *channel.Message, c *chunker.Chunker) {
	for {
		res, ok, err := c.Consume()
		if err != nil {
			logger.Error("altbridge: chunker error", "channel", ch.Name(), "err", err)
			return
		}
		if !ok {
			return
		}
		replyTo := inbound.Metadata["chat_id"]
		if replyTo == "" {
			replyTo = inbound.UserID
		}
		if err := ch.Send(ctx, &channel.Response{Text: res.ReferenceMD, ReplyTo: replyTo}); err != nil {
			logger.Error("altbridge: send failed", "channel", ch.Name(), "err", err)
		}
	}
}
