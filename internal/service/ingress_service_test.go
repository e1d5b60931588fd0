package service

import (
	"context"
	"testing"
	"time"

	"smart-gateway-be/pkg/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	replies []map[string]interface{}
}

func (r *recordingPublisher) ChatCompleted(sessionID, channel, fallbackReason string, kbHit bool, totalMs int64) {
}
func (r *recordingPublisher) TaskExpired(sessionID string, startedAt time.Time) {}
func (r *recordingPublisher) KBIngested(docID string, chunks int)               {}
func (r *recordingPublisher) OutboundReply(receiver, channel, text string, interim bool) {
	r.replies = append(r.replies, map[string]interface{}{
		"receiver": receiver,
		"channel":  channel,
		"text":     text,
		"interim":  interim,
	})
}

func TestIngressHandleTextMessage(t *testing.T) {
	svc, _, _ := newTestGateway(t, GatewayOptions{})
	pub := &recordingPublisher{}
	ingress := NewIngressService(nil, svc, pub, nopLogger{})

	err := ingress.Handle(context.Background(), message.UnifiedMessage{
		Sender:      "user-42",
		Receiver:    "gateway",
		Channel:     "wechat_mp",
		MessageType: "text",
		Content:     "退款多久能到账",
	})
	require.NoError(t, err)

	require.Len(t, pub.replies, 1)
	assert.Equal(t, "user-42", pub.replies[0]["receiver"])
	assert.Equal(t, "wechat_mp", pub.replies[0]["channel"])
	assert.NotEmpty(t, pub.replies[0]["text"])
}

func TestIngressSkipsEventsAndMedia(t *testing.T) {
	svc, _, _ := newTestGateway(t, GatewayOptions{})
	pub := &recordingPublisher{}
	ingress := NewIngressService(nil, svc, pub, nopLogger{})

	err := ingress.Handle(context.Background(), message.UnifiedMessage{
		Sender:      "user-42",
		Receiver:    "gateway",
		Channel:     "wechat_mp",
		MessageType: "event.subscribe",
	})
	require.NoError(t, err)

	err = ingress.Handle(context.Background(), message.UnifiedMessage{
		Sender:      "user-42",
		Receiver:    "gateway",
		Channel:     "wechat_mp",
		MessageType: "image",
		MediaURL:    "https://example.com/pic.jpg",
	})
	require.NoError(t, err)

	assert.Empty(t, pub.replies)
}

func TestIngressRunWithoutSubscriber(t *testing.T) {
	svc, _, _ := newTestGateway(t, GatewayOptions{})
	ingress := NewIngressService(nil, svc, &recordingPublisher{}, nopLogger{})
	assert.NoError(t, ingress.Run())
}
