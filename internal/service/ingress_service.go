package service

import (
	"context"
	"fmt"
	"strings"

	"smart-gateway-be/internal/dto"
	"smart-gateway-be/internal/pkg/logger"
	"smart-gateway-be/pkg/message"
	"smart-gateway-be/pkg/nats"
)

// IIngressService bridges bus-connected channel adapters to the gateway.
// Adapters publish UnifiedMessage payloads to messages.inbound.<channel>;
// replies go back out as outbound events.
type IIngressService interface {
	Run() error
	Handle(ctx context.Context, msg message.UnifiedMessage) error
}

type ingressService struct {
	subscriber *nats.Subscriber
	gateway    IGatewayService
	events     IEventPublisher
	logger     logger.ILogger
}

func NewIngressService(
	subscriber *nats.Subscriber,
	gateway IGatewayService,
	events IEventPublisher,
	appLogger logger.ILogger,
) IIngressService {
	return &ingressService{
		subscriber: subscriber,
		gateway:    gateway,
		events:     events,
		logger:     appLogger,
	}
}

func (s *ingressService) Run() error {
	if s.subscriber == nil {
		s.logger.Warn("ingress", "NATS not configured, bus ingress disabled", nil)
		return nil
	}
	return s.subscriber.Subscribe("messages.inbound.>", "gateway-ingress", s.Handle)
}

func (s *ingressService) Handle(ctx context.Context, msg message.UnifiedMessage) error {
	// Channel events (subscribe, scan, ...) carry no question to answer.
	if strings.HasPrefix(msg.MessageType, "event.") {
		s.logger.Debug("ingress", "Skipping channel event", map[string]interface{}{
			"channel":      msg.Channel,
			"message_type": msg.MessageType,
		})
		return nil
	}
	if msg.MessageType != "text" || msg.Text() == "" {
		s.logger.Info("ingress", "Skipping non-text message", map[string]interface{}{
			"channel":      msg.Channel,
			"message_type": msg.MessageType,
		})
		return nil
	}

	req := &dto.ChatRequest{
		SessionId: fmt.Sprintf("%s:%s", msg.Channel, msg.Sender),
		Message:   msg.Text(),
		Channel:   msg.Channel,
		Metadata:  msg.Metadata,
	}

	resp, err := s.gateway.Chat(ctx, req)
	if err != nil {
		s.logger.Warn("ingress", "Gateway rejected bus message", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
		// A malformed message will never succeed; do not requeue.
		return nil
	}

	s.events.OutboundReply(msg.Sender, msg.Channel, resp.ReplyText, resp.Interim)
	return nil
}
