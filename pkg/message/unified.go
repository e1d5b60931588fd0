package message

import (
	"fmt"
	"strings"
)

// UnifiedMessage is the channel-agnostic message contract exchanged with
// channel adapters. Adapters map their native payloads (WeChat MP XML,
// web chat JSON, ...) into this shape before hitting the gateway.
type UnifiedMessage struct {
	Sender      string                 `json:"sender"`
	Receiver    string                 `json:"receiver"`
	Channel     string                 `json:"channel"`
	MessageType string                 `json:"message_type"`
	Content     string                 `json:"content"`
	Timestamp   int64                  `json:"timestamp,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	MessageID   string                 `json:"message_id,omitempty"`
	MediaURL    string                 `json:"media_url,omitempty"`
}

// Validate enforces the minimal contract every adapter must satisfy.
// Event messages (message_type "event.*") carry no content by design;
// news messages may carry articles in metadata instead of content.
func (m *UnifiedMessage) Validate() error {
	if m.Sender == "" {
		return fmt.Errorf("unified message: sender is required")
	}
	if m.Receiver == "" {
		return fmt.Errorf("unified message: receiver is required")
	}
	if m.Channel == "" {
		return fmt.Errorf("unified message: channel is required")
	}
	if m.MessageType == "" {
		return fmt.Errorf("unified message: message_type is required")
	}
	if strings.HasPrefix(m.MessageType, "event.") {
		return nil
	}
	hasArticles := false
	if m.Metadata != nil {
		if v, ok := m.Metadata["articles"]; ok && v != nil {
			hasArticles = true
		}
	}
	if m.MessageType == "news" && m.Content == "" && !hasArticles {
		return fmt.Errorf("unified message: news message requires content or articles metadata")
	}
	if m.MessageType != "news" && m.Content == "" && m.MediaURL == "" {
		return fmt.Errorf("unified message: content or media_url required for message_type=%s", m.MessageType)
	}
	return nil
}

// Text returns the textual content, or empty when the message is not text-like.
func (m *UnifiedMessage) Text() string {
	return m.Content
}
