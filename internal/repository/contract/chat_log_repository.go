package contract

import (
	"context"

	"smart-gateway-be/internal/entity"
)

type ChatLogRepository interface {
	Create(ctx context.Context, log *entity.ChatLog) error
	FindRecent(ctx context.Context, limit int) ([]*entity.ChatLog, error)
	FindBySessionId(ctx context.Context, sessionId string, limit int) ([]*entity.ChatLog, error)
}
