// Package slack forwards realtime engine events to a Slack channel.
package slack

import (
	"fmt"
	"log"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/waybridge/internal/realtime"
)

// client abstracts the Slack API method we use, enabling test mocks.
type client interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Publisher posts one-line event summaries to a Slack channel. Delivery is
// best-effort: errors are logged and dropped.
type Publisher struct {
	client    client
	channelID string
}

// Opts holds parameters for creating a Slack Publisher.
type Opts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post events to
	// For testing: inject a mock client instead of the real Slack API.
	Client client
}

// New creates a Slack Publisher.
func New(opts Opts) (*Publisher, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel ID is required")
	}
	cl := opts.Client
	if cl == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("slack: bot token is required")
		}
		cl = slackapi.New(opts.BotToken)
	}
	return &Publisher{client: cl, channelID: opts.ChannelID}, nil
}

// Publish implements realtime.Publisher.
func (p *Publisher) Publish(eventType string, payload any) {
	text := formatEvent(eventType, payload)
	if _, _, err := p.client.PostMessage(p.channelID, slackapi.MsgOptionText(text, false)); err != nil {
		log.Printf("slack: publish %s: %v", eventType, err)
	}
}

// formatEvent renders an event as a single chat line.
func formatEvent(eventType string, payload any) string {
	switch pl := payload.(type) {
	case realtime.BridgeUpdatedPayload:
		return fmt.Sprintf("*%s* thread `%s` message `%s`", eventType, pl.ThreadID, pl.MessageID)
	case realtime.SessionPromptedPayload:
		return fmt.Sprintf("*%s* session `%s` interaction `%s`", eventType, pl.SessionID, pl.InteractionID)
	default:
		return fmt.Sprintf("*%s* %+v", eventType, payload)
	}
}
