package implementation

import (
	"context"

	"smart-gateway-be/internal/entity"
	"smart-gateway-be/internal/mapper"
	"smart-gateway-be/internal/model"
	"smart-gateway-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KBChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KBChunkMapper
}

func NewKBChunkRepository(db *gorm.DB) contract.KBChunkRepository {
	return &KBChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewKBChunkMapper(),
	}
}

func (r *KBChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.KBChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.KBChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *KBChunkRepositoryImpl) DeleteByDocId(ctx context.Context, docId string) error {
	return r.db.WithContext(ctx).Where("doc_id = ?", docId).Delete(&model.KBChunk{}).Error
}

func (r *KBChunkRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.KBChunk{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore ranks chunks by cosine similarity. pgvector's
// <=> operator is cosine distance, so similarity is 1 - distance.
func (r *KBChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredKBChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.KBChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("kb_chunks").
		Select("kb_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredKBChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredKBChunk{
			Chunk:      r.mapper.ToEntity(&res.KBChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
