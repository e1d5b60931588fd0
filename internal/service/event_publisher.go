package service

import (
	"context"
	"time"

	"smart-gateway-be/internal/pkg/logger"
	"smart-gateway-be/internal/websocket"
	"smart-gateway-be/pkg/events"
	"smart-gateway-be/pkg/nats"
)

// IEventPublisher emits operational events. Implementations are best
// effort: a down event bus never blocks or fails the chat path.
type IEventPublisher interface {
	ChatCompleted(sessionID, channel, fallbackReason string, kbHit bool, totalMs int64)
	TaskExpired(sessionID string, startedAt time.Time)
	KBIngested(docID string, chunks int)
	OutboundReply(receiver, channel, text string, interim bool)
}

type eventPublisher struct {
	publisher *nats.Publisher
	hub       *websocket.Hub
	logger    logger.ILogger
}

// NewEventPublisher wraps the NATS publisher and the dashboard stream
// hub. Either may be nil; a missing sink just drops its copy.
func NewEventPublisher(publisher *nats.Publisher, hub *websocket.Hub, appLogger logger.ILogger) IEventPublisher {
	return &eventPublisher{
		publisher: publisher,
		hub:       hub,
		logger:    appLogger,
	}
}

func (p *eventPublisher) publish(event events.Event) {
	if p.hub != nil {
		p.hub.Broadcast(event)
	}
	if p.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("events", "Failed to publish event", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}

func (p *eventPublisher) ChatCompleted(sessionID, channel, fallbackReason string, kbHit bool, totalMs int64) {
	p.publish(events.New(events.TypeChatCompleted, map[string]interface{}{
		"session_id":      sessionID,
		"channel":         channel,
		"fallback_reason": fallbackReason,
		"kb_hit":          kbHit,
		"total_ms":        totalMs,
	}))
}

func (p *eventPublisher) TaskExpired(sessionID string, startedAt time.Time) {
	p.publish(events.New(events.TypeTaskExpired, map[string]interface{}{
		"session_id": sessionID,
		"started_at": startedAt.Format(time.RFC3339),
	}))
}

func (p *eventPublisher) OutboundReply(receiver, channel, text string, interim bool) {
	p.publish(events.New(events.TypeOutboundReply, map[string]interface{}{
		"receiver": receiver,
		"channel":  channel,
		"text":     text,
		"interim":  interim,
	}))
}

func (p *eventPublisher) KBIngested(docID string, chunks int) {
	p.publish(events.New(events.TypeKBIngested, map[string]interface{}{
		"doc_id": docID,
		"chunks": chunks,
	}))
}
