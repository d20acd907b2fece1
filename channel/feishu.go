package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkevent "github.com/larksuite/oapi-sdk-go/v3/event"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"

	"github.com/linanwx/suichan/config"
	"github.com/linanwx/suichan/logger"
)

const feishuMaxMessageLength = 4000

// FeishuChannel implements the Channel interface for Feishu (Lark), acting
// as an alternate poster alongside the primary Slack bridge.
type FeishuChannel struct {
	appID, appSecret  string
	verificationToken string
	encryptKey        string
	webhookAddr       string

	client   *lark.Client
	server   *http.Server
	messages chan *Message
	wg       sync.WaitGroup

	msgCounter int
	mu         sync.Mutex
}

// NewFeishuChannel creates a new Feishu channel from config. Returns nil if
// AppID or AppSecret is not configured.
func NewFeishuChannel(cfg *config.Config) Channel {
	appID := cfg.GetFeishuAppID()
	appSecret := cfg.GetFeishuAppSecret()
	if appID == "" || appSecret == "" {
		logger.Warn("Feishu appId/appSecret not configured, skipping Feishu channel")
		return nil
	}

	return &FeishuChannel{
		appID:             appID,
		appSecret:         appSecret,
		verificationToken: cfg.GetFeishuVerificationToken(),
		encryptKey:        cfg.GetFeishuEncryptKey(),
		webhookAddr:       cfg.GetFeishuWebhookAddr(),
		messages:          make(chan *Message, 100),
		client:            lark.NewClient(appID, appSecret),
	}
}

func (f *FeishuChannel) Name() string { return "feishu" }

// Start registers the webhook event dispatcher and begins listening.
func (f *FeishuChannel) Start(ctx context.Context) error {
	handler := dispatcher.NewEventDispatcher(f.verificationToken, f.encryptKey).
		OnP2MessageReceiveV1(func(c context.Context, event *larkim.P2MessageReceiveV1) error {
			f.onMessageReceive(event)
			return nil
		})

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/event", larkevent.NewEventHandlerFunc(handler))
	f.server = &http.Server{Addr: f.webhookAddr, Handler: mux}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		logger.Info("feishu webhook listening", "addr", f.webhookAddr)
		if err := f.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("feishu webhook server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = f.Stop()
	}()

	logger.Info("feishu channel started", "appID", f.appID)
	return nil
}

func (f *FeishuChannel) Stop() error {
	if f.server != nil {
		_ = f.server.Shutdown(context.Background())
	}
	f.wg.Wait()
	close(f.messages)
	logger.Info("feishu channel stopped")
	return nil
}

// Send posts a text message. resp.ReplyTo is "p2p:{openID}" or "group:{chatID}".
func (f *FeishuChannel) Send(ctx context.Context, resp *Response) error {
	receiveIDType, receiveID, err := splitFeishuTarget(resp.ReplyTo)
	if err != nil {
		return err
	}

	for _, chunk := range SplitMessage(resp.Text, feishuMaxMessageLength) {
		content, err := json.Marshal(map[string]string{"text": chunk})
		if err != nil {
			return fmt.Errorf("feishu: encode content: %w", err)
		}
		req := larkim.NewCreateMessageReqBuilder().
			ReceiveIdType(receiveIDType).
			Body(larkim.NewCreateMessageReqBodyBuilder().
				ReceiveId(receiveID).
				MsgType("text").
				Content(string(content)).
				Build()).
			Build()

		resp, err := f.client.Im.Message.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("feishu send error: %w", err)
		}
		if !resp.Success() {
			return fmt.Errorf("feishu send error: %s", resp.Msg)
		}
	}
	return nil
}

func (f *FeishuChannel) Messages() <-chan *Message { return f.messages }

func splitFeishuTarget(replyTo string) (idType, id string, err error) {
	switch {
	case strings.HasPrefix(replyTo, "p2p:"):
		return "open_id", strings.TrimPrefix(replyTo, "p2p:"), nil
	case strings.HasPrefix(replyTo, "group:"):
		return "chat_id", strings.TrimPrefix(replyTo, "group:"), nil
	case replyTo != "":
		return "open_id", replyTo, nil
	default:
		return "", "", fmt.Errorf("feishu: empty reply target")
	}
}

func (f *FeishuChannel) onMessageReceive(event *larkim.P2MessageReceiveV1) {
	msg := event.Event.Message
	if msg == nil || msg.MessageType == nil {
		return
	}

	var text string
	metadata := map[string]string{}

	switch *msg.MessageType {
	case "text":
		var content struct {
			Text string `json:"text"`
		}
		if msg.Content == nil {
			return
		}
		if err := json.Unmarshal([]byte(*msg.Content), &content); err != nil {
			logger.Error("feishu content parse error", "err", err)
			return
		}
		text = strings.TrimSpace(content.Text)
	case "image":
		text = "[Image received]"
		metadata["media_type"] = "image"
	case "file":
		text = "[File received]"
		metadata["media_type"] = "file"
	default:
		logger.Debug("feishu ignoring unsupported message type", "type", *msg.MessageType)
		return
	}
	if text == "" {
		return
	}

	var openID string
	if event.Event.Sender != nil && event.Event.Sender.SenderId != nil && event.Event.Sender.SenderId.OpenId != nil {
		openID = *event.Event.Sender.SenderId.OpenId
	}

	chatType := ""
	if msg.ChatType != nil {
		chatType = *msg.ChatType
	}
	var replyTarget string
	if chatType == "group" && msg.ChatId != nil {
		replyTarget = "group:" + *msg.ChatId
	} else {
		replyTarget = "p2p:" + openID
	}
	metadata["chat_id"] = replyTarget
	metadata["chat_type"] = chatType

	f.mu.Lock()
	f.msgCounter++
	n := f.msgCounter
	f.mu.Unlock()

	out := &Message{
		ID:        fmt.Sprintf("feishu-%d", n),
		ChannelID: "feishu:" + openID,
		UserID:    openID,
		Text:      text,
		Metadata:  metadata,
	}
	select {
	case f.messages <- out:
	default:
		logger.Warn("feishu message buffer full, dropping message")
	}
}
