package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// chattableSender is the part of *tgbotapi.BotAPI used to send messages.
type chattableSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink sends notifications to a Telegram chat.
type TelegramSink struct {
	bot    chattableSender
	chatID int64
	log    zerolog.Logger
}

// NewTelegramSink authenticates the bot token and targets chatID.
func NewTelegramSink(token string, chatID int64, log zerolog.Logger) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("NewTelegramSink: creating bot: %w", err)
	}
	return &TelegramSink{bot: bot, chatID: chatID, log: log}, nil
}

var severityEmoji = map[Severity]string{
	SeverityInfo:    "ℹ️",
	SeveritySuccess: "✅",
	SeverityWarning: "⚠️",
	SeverityError:   "❌",
}

// Trigger implements Sink. Delivery failures are logged, never returned.
func (s *TelegramSink) Trigger(message string, severity Severity) {
	msg := tgbotapi.NewMessage(s.chatID, fmt.Sprintf("%s %s", severityEmoji[severity], message))
	if _, err := s.bot.Send(msg); err != nil {
		s.log.Error().Err(err).Int64("chat_id", s.chatID).Msg("Failed to send Telegram notification")
	}
}

// Close implements Sink.
func (s *TelegramSink) Close() {}
