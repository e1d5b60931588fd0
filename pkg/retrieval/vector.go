package retrieval

import (
	"context"
	"fmt"

	"smart-gateway-be/internal/repository/contract"
	"smart-gateway-be/pkg/embedding"
)

// VectorBackend searches the Postgres knowledge-base chunk store by
// embedding similarity. Used as the primary local backend when a database
// is configured; the in-memory index remains the last-resort fallback.
type VectorBackend struct {
	repo     contract.KBChunkRepository
	embedder embedding.EmbeddingProvider
}

func NewVectorBackend(repo contract.KBChunkRepository, embedder embedding.EmbeddingProvider) *VectorBackend {
	return &VectorBackend{
		repo:     repo,
		embedder: embedder,
	}
}

func (b *VectorBackend) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	res, err := b.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored, err := b.repo.SearchSimilarWithScore(ctx, res.Embedding.Values, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	hits := make([]Hit, 0, len(scored))
	for _, s := range scored {
		hits = append(hits, Hit{
			Text:  s.Chunk.Document,
			Score: s.Similarity,
			DocID: s.Chunk.DocId,
			Metadata: map[string]interface{}{
				"chunk_index": s.Chunk.ChunkIndex,
			},
		})
	}
	return hits, nil
}
