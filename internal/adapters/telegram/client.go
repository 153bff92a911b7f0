package telegram

import (
	"context"

	"github.com/easyfinance/accounts/internal/core/ports"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var _ ports.NotifierPort = (*tgClient)(nil) // Ensure compliance

// Sender is the part of *tgbotapi.BotAPI the client needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// tgClient implements ports.NotifierPort.
type tgClient struct {
	api Sender
	log zerolog.Logger
}

// NewClient creates a new Telegram client adapter.
func NewClient(api Sender, baseLogger *zerolog.Logger) ports.NotifierPort {
	log := baseLogger.With().Str("component", "tg_client").Logger()
	return &tgClient{api: api, log: log}
}

// NewBotAPI connects to Telegram with the given bot token.
func NewBotAPI(token string, baseLogger *zerolog.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		baseLogger.Error().Err(err).Msg("Failed to connect to Telegram")
		return nil, err
	}
	baseLogger.Info().Str("bot", api.Self.UserName).Msg("Telegram bot authorized")
	return api, nil
}

// SendMessage translates our params into a tgbotapi message.
func (c *tgClient) SendMessage(ctx context.Context, params ports.SendMessageParams) error {
	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	msg.ParseMode = params.ParseMode
	if len(params.Buttons) > 0 {
		msg.ReplyMarkup = buildInlineKeyboard(params.Buttons)
	}

	if _, err := c.api.Send(msg); err != nil {
		c.log.Error().Err(err).Int64("chat_id", params.ChatID).Msg("Failed to send message")
		return err
	}
	return nil
}

// buildInlineKeyboard is a helper to create the inline keyboard.
func buildInlineKeyboard(buttons [][]ports.Button) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, buttonRow := range buttons {
		var row []tgbotapi.InlineKeyboardButton
		for _, btn := range buttonRow {
			row = append(row, tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.URL))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
