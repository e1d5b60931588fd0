package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatLog struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId     string         `gorm:"type:varchar(255);not null;index"`
	Channel       string         `gorm:"type:varchar(64);index"`
	UserMessage   string         `gorm:"type:text"`
	ModelResponse string         `gorm:"type:text"`
	KBHit         bool           `gorm:"default:false"`
	Confidence    float64        `gorm:"default:0"`
	ToolCalls     datatypes.JSON `gorm:"type:jsonb"`
	Retrieved     datatypes.JSON `gorm:"type:jsonb"`
	Latency       datatypes.JSON `gorm:"type:jsonb"`
	TraceId       string         `gorm:"type:varchar(64);index"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index"`
}

func (ChatLog) TableName() string {
	return "chat_logs"
}
