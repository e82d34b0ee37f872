package notify

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// channelMessenger is the part of *discordgo.Session used to post messages.
type channelMessenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordSink posts notifications to a Discord channel.
type DiscordSink struct {
	session   channelMessenger
	closer    func() error
	channelID string
	log       zerolog.Logger
}

// NewDiscordSink opens a bot session for token and posts to channelID.
func NewDiscordSink(token, channelID string, log zerolog.Logger) (*DiscordSink, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("NewDiscordSink: creating session: %w", err)
	}
	return &DiscordSink{
		session:   session,
		closer:    session.Close,
		channelID: channelID,
		log:       log,
	}, nil
}

// Trigger implements Sink. Delivery failures are logged, never returned.
func (s *DiscordSink) Trigger(message string, severity Severity) {
	content := fmt.Sprintf("**%s** %s", strings.ToUpper(string(severity)), message)
	if _, err := s.session.ChannelMessageSend(s.channelID, content); err != nil {
		s.log.Error().Err(err).Str("channel_id", s.channelID).Msg("Failed to post Discord notification")
	}
}

// Close implements Sink.
func (s *DiscordSink) Close() {
	if s.closer == nil {
		return
	}
	if err := s.closer(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to close Discord session")
	}
}
