package entity

import (
	"time"

	"github.com/google/uuid"
)

type KBChunk struct {
	Id             uuid.UUID
	DocId          string
	ChunkIndex     int
	Document       string
	EmbeddingValue []float32
	CreatedAt      time.Time
}
