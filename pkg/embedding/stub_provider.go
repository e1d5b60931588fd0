package embedding

import "hash/fnv"

// StubProvider produces deterministic pseudo-embeddings from a text hash.
// It exists for offline runs and tests where no model server is available;
// similar texts do NOT get similar vectors.
type StubProvider struct {
	Dimensions int
}

func NewStubProvider(dimensions int) EmbeddingProvider {
	if dimensions <= 0 {
		dimensions = 768
	}
	return &StubProvider{Dimensions: dimensions}
}

func (p *StubProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	values := make([]float32, p.Dimensions)
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	for i := range values {
		seed = seed*6364136223846793005 + 1442695040888963407
		values[i] = float32(int64(seed>>32)) / float32(1<<31)
	}
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: normalizeVector(values),
		},
	}, nil
}
