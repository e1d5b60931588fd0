package implementation

import (
	"context"

	"smart-gateway-be/internal/entity"
	"smart-gateway-be/internal/mapper"
	"smart-gateway-be/internal/model"
	"smart-gateway-be/internal/repository/contract"

	"gorm.io/gorm"
)

type ChatLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatLogMapper
}

func NewChatLogRepository(db *gorm.DB) contract.ChatLogRepository {
	return &ChatLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatLogMapper(),
	}
}

func (r *ChatLogRepositoryImpl) Create(ctx context.Context, log *entity.ChatLog) error {
	m := r.mapper.ToModel(log)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*log = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChatLogRepositoryImpl) FindRecent(ctx context.Context, limit int) ([]*entity.ChatLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var models []*model.ChatLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatLog, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *ChatLogRepositoryImpl) FindBySessionId(ctx context.Context, sessionId string, limit int) ([]*entity.ChatLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var models []*model.ChatLog
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatLog, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
