package discord

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/waybridge/internal/realtime"
)

type mockSession struct {
	sent []string
	err  error
}

func (m *mockSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, content)
	return &discordgo.Message{}, nil
}

func TestNew_MissingChannel(t *testing.T) {
	_, err := New(Opts{BotToken: "tok"})
	if err == nil {
		t.Fatal("expected error for missing channel ID")
	}
}

func TestNew_MissingToken(t *testing.T) {
	_, err := New(Opts{ChannelID: "C1"})
	if err == nil {
		t.Fatal("expected error for missing bot token")
	}
}

func TestPublish_BridgeUpdated(t *testing.T) {
	mock := &mockSession{}
	p, err := New(Opts{ChannelID: "C1", Session: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p.Publish(realtime.EventBridgeUpdated, realtime.BridgeUpdatedPayload{ThreadID: "bt-9", MessageID: "bm-3"})

	if len(mock.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mock.sent))
	}
	if !strings.Contains(mock.sent[0], "bridge.updated") || !strings.Contains(mock.sent[0], "bt-9") {
		t.Errorf("sent = %q", mock.sent[0])
	}
}

func TestPublish_ErrorIsSwallowed(t *testing.T) {
	mock := &mockSession{err: fmt.Errorf("rate limited")}
	p, _ := New(Opts{ChannelID: "C1", Session: mock})

	// Must not panic or propagate.
	p.Publish(realtime.EventSessionPrompted, realtime.SessionPromptedPayload{SessionID: "s-1"})
}
