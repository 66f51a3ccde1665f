// Package telegram adapts the Telegram Bot API to the router's domain types.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dskvich/whitecat-bot/pkg/domain"
)

const updatesTimeout = 60

type options struct {
	endpoint string
	hc       tgbotapi.HTTPClient
}

type Option func(*options)

// WithEndpoint overrides the Bot API endpoint, formatted like tgbotapi.APIEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

func WithHTTPClient(hc tgbotapi.HTTPClient) Option {
	return func(o *options) { o.hc = hc }
}

type Client struct {
	bot *tgbotapi.BotAPI
}

func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}

	o := options{endpoint: tgbotapi.APIEndpoint, hc: &http.Client{}}
	for _, opt := range opts {
		opt(&o)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.hc)
	if err != nil {
		return nil, fmt.Errorf("creating bot api instance: %v", err)
	}

	slog.Info("authorized on telegram", "account", bot.Self.UserName)

	return &Client{bot: bot}, nil
}

// Updates starts long polling. Only message-like updates are requested.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updatesTimeout
	u.AllowedUpdates = []string{"message"}

	return c.bot.GetUpdatesChan(u)
}

func (c *Client) StopUpdates() {
	c.bot.StopReceivingUpdates()
}

func (c *Client) Identity(context.Context) (domain.BotIdentity, error) {
	self := c.bot.Self
	if self.ID == 0 {
		return domain.BotIdentity{}, fmt.Errorf("bot identity unknown")
	}
	return domain.BotIdentity{ID: self.ID, Username: self.UserName}, nil
}

func (c *Client) SendText(ctx context.Context, chatID int64, replyTo int, text string, mode domain.ParseMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	msg.ParseMode = string(mode)
	msg.DisableWebPagePreview = true

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("sending message: %v", err)
	}
	return nil
}

func (c *Client) SendVideo(ctx context.Context, chatID int64, replyTo int, video domain.File, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v := tgbotapi.NewVideo(chatID, tgbotapi.FileBytes{Name: video.Name, Bytes: video.Data})
	v.Caption = caption
	v.ReplyToMessageID = replyTo
	v.SupportsStreaming = true

	if _, err := c.bot.Send(v); err != nil {
		return fmt.Errorf("sending video: %v", err)
	}
	return nil
}

func (c *Client) SendChatAction(ctx context.Context, chatID int64, action domain.ChatAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.bot.Request(tgbotapi.NewChatAction(chatID, string(action))); err != nil {
		return fmt.Errorf("sending chat action: %v", err)
	}
	return nil
}
