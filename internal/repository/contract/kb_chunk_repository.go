package contract

import (
	"context"

	"smart-gateway-be/internal/entity"
)

type ScoredKBChunk struct {
	Chunk      *entity.KBChunk
	Similarity float64
}

type KBChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.KBChunk) error
	DeleteByDocId(ctx context.Context, docId string) error
	Count(ctx context.Context) (int64, error)
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*ScoredKBChunk, error)
}
