// Package discord forwards realtime engine events to a Discord channel.
package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/waybridge/internal/realtime"
)

// sender abstracts the discordgo.Session method we use, enabling test mocks.
type sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Publisher posts one-line event summaries to a Discord channel via the REST
// API. Delivery is best-effort: errors are logged and dropped.
type Publisher struct {
	sess      sender
	channelID string
}

// Opts holds parameters for creating a Discord Publisher.
type Opts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post events to
	// For testing: inject a mock session instead of the real Discord API.
	Session sender
}

// New creates a Discord Publisher.
func New(opts Opts) (*Publisher, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel ID is required")
	}
	sess := opts.Session
	if sess == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("discord: bot token is required")
		}
		s, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		sess = s
	}
	return &Publisher{sess: sess, channelID: opts.ChannelID}, nil
}

// Publish implements realtime.Publisher.
func (p *Publisher) Publish(eventType string, payload any) {
	if _, err := p.sess.ChannelMessageSend(p.channelID, formatEvent(eventType, payload)); err != nil {
		log.Printf("discord: publish %s: %v", eventType, err)
	}
}

// formatEvent renders an event as a single chat line.
func formatEvent(eventType string, payload any) string {
	switch pl := payload.(type) {
	case realtime.BridgeUpdatedPayload:
		return fmt.Sprintf("**%s** thread `%s` message `%s`", eventType, pl.ThreadID, pl.MessageID)
	case realtime.SessionPromptedPayload:
		return fmt.Sprintf("**%s** session `%s` interaction `%s`", eventType, pl.SessionID, pl.InteractionID)
	default:
		return fmt.Sprintf("**%s** %+v", eventType, payload)
	}
}
