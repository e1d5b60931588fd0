package mapper

import (
	"smart-gateway-be/internal/entity"
	"smart-gateway-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type KBChunkMapper struct{}

func NewKBChunkMapper() *KBChunkMapper {
	return &KBChunkMapper{}
}

func (m *KBChunkMapper) ToEntity(c *model.KBChunk) *entity.KBChunk {
	if c == nil {
		return nil
	}
	return &entity.KBChunk{
		Id:             c.Id,
		DocId:          c.DocId,
		ChunkIndex:     c.ChunkIndex,
		Document:       c.Document,
		EmbeddingValue: c.EmbeddingValue.Slice(),
		CreatedAt:      c.CreatedAt,
	}
}

func (m *KBChunkMapper) ToModel(c *entity.KBChunk) *model.KBChunk {
	if c == nil {
		return nil
	}
	return &model.KBChunk{
		Id:             c.Id,
		DocId:          c.DocId,
		ChunkIndex:     c.ChunkIndex,
		Document:       c.Document,
		EmbeddingValue: pgvector.NewVector(c.EmbeddingValue),
		CreatedAt:      c.CreatedAt,
	}
}
