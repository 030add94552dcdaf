// Package telegram is the outbound delivery channel for digests.
package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client sends digest messages to Telegram chats. Messages use Telegram's
// HTML parse mode; the composer only emits the inline subset Telegram
// accepts. No retries and no chunking: a message is either accepted in full
// or reported as failed.
type Client struct {
	bot *tgbotapi.BotAPI
}

// New authenticates against the Bot API with the given token.
func New(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	return &Client{bot: bot}, nil
}

// Send delivers one message to the given chat. Any non-2xx response or
// API-level rejection surfaces as the returned error.
func (c *Client) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := c.bot.Send(msg)
	return err
}

// BotName returns the authenticated bot's username, for startup logging.
func (c *Client) BotName() string {
	return c.bot.Self.UserName
}
