package service

import (
	"context"
	"encoding/json"
	"fmt"

	"smart-gateway-be/internal/dto"
	"smart-gateway-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-playground/validator/v10"
)

// IKBService accepts knowledge-base documents and hands them to the
// ingest consumer through the message bus.
type IKBService interface {
	Ingest(ctx context.Context, req *dto.KBDocumentRequest) error
}

type kbService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	validate  *validator.Validate
	logger    logger.ILogger
}

func NewKBService(pubSub *gochannel.GoChannel, topicName string, appLogger logger.ILogger) IKBService {
	return &kbService{
		pubSub:    pubSub,
		topicName: topicName,
		validate:  validator.New(),
		logger:    appLogger,
	}
}

func (s *kbService) Ingest(ctx context.Context, req *dto.KBDocumentRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid kb document: %w", err)
	}

	payload, err := json.Marshal(dto.PublishKBDocumentMessage{
		DocId:    req.DocId,
		Text:     req.Text,
		Metadata: req.Metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to encode kb document: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		return fmt.Errorf("failed to publish kb document: %w", err)
	}

	s.logger.Info("kb", "Queued document for ingestion", map[string]interface{}{
		"doc_id": req.DocId,
		"length": len(req.Text),
	})
	return nil
}
