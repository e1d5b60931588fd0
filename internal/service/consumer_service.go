package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"smart-gateway-be/internal/dto"
	"smart-gateway-be/internal/entity"
	"smart-gateway-be/internal/repository/contract"
	"smart-gateway-be/pkg/embedding"
	"smart-gateway-be/pkg/retrieval"
	"smart-gateway-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService ingests knowledge-base documents off the bus: every
// document lands in the in-memory fallback index, and additionally in
// the pgvector chunk store when a database is configured.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	index             *retrieval.Index
	chunkRepo         contract.KBChunkRepository // nil without a database
	embeddingProvider embedding.EmbeddingProvider
	events            IEventPublisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	index *retrieval.Index,
	chunkRepo contract.KBChunkRepository,
	embeddingProvider embedding.EmbeddingProvider,
	events IEventPublisher,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		index:             index,
		chunkRepo:         chunkRepo,
		embeddingProvider: embeddingProvider,
		events:            events,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishKBDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal kb message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Ingesting kb document %s (length: %d)", payload.DocId, len(payload.Text))

	// The fallback index serves queries even when everything else is down.
	cs.index.Add(payload.DocId, payload.Text)

	chunks := utils.SplitText(payload.Text, 1500, 200)

	if cs.chunkRepo == nil || cs.embeddingProvider == nil {
		log.Printf("[INFO] No vector store configured, document %s kept in memory only", payload.DocId)
		cs.events.KBIngested(payload.DocId, len(chunks))
		msg.Ack()
		return
	}

	newChunks := make([]*entity.KBChunk, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("[ERROR] Failed to embed chunk %d of document %s: %v", i, payload.DocId, err)
			msg.Nack() // Retriable: the model server may be back shortly
			return
		}
		newChunks = append(newChunks, &entity.KBChunk{
			Id:             uuid.New(),
			DocId:          payload.DocId,
			ChunkIndex:     i,
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			CreatedAt:      time.Now(),
		})
	}

	if err := cs.chunkRepo.DeleteByDocId(ctx, payload.DocId); err != nil {
		log.Printf("[ERROR] Failed to delete old chunks for document %s: %v", payload.DocId, err)
		msg.Nack()
		return
	}
	if err := cs.chunkRepo.CreateBulk(ctx, newChunks); err != nil {
		log.Printf("[ERROR] Failed to store %d chunks for document %s: %v", len(newChunks), payload.DocId, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Document %s ingested: %d chunks", payload.DocId, len(newChunks))
	cs.events.KBIngested(payload.DocId, len(newChunks))
	msg.Ack()
}
