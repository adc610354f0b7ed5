// Package telegram delivers notifications as Telegram chat messages.
package telegram

import (
	"context"
	"errors"
	"fmt"

	"splitter/internal/gateway"
	"splitter/internal/log"

	tgapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgapi.BotAPI the gateway needs.
type Sender interface {
	Send(c tgapi.Chattable) (tgapi.Message, error)
}

// Client posts "title\n\nbody" to a single chat.
type Client struct {
	api    Sender
	chatID int64
	logger *log.Logger
}

var _ gateway.Gateway = (*Client)(nil)

// New authenticates the bot token against the Bot API.
func New(token string, chatID int64, logger *log.Logger) (*Client, error) {
	if token == "" {
		return nil, errors.New("missing telegram bot token")
	}
	api, err := tgapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	c := NewWithSender(api, chatID, logger)
	c.logger.Info("Telegram bot authorized", "bot", api.Self.UserName, "chat_id", chatID)
	return c, nil
}

func NewWithSender(api Sender, chatID int64, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		api:    api,
		chatID: chatID,
		logger: logger.WithComponent(log.ComponentTelegram),
	}
}

func (c *Client) Deliver(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgapi.NewMessage(c.chatID, title+"\n\n"+body)
	sent, err := c.api.Send(msg)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	c.logger.DebugContext(ctx, "Telegram message sent", "message_id", sent.MessageID)
	return nil
}
