package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatLog struct {
	Id            uuid.UUID
	SessionId     string
	Channel       string
	UserMessage   string
	ModelResponse string
	KBHit         bool
	Confidence    float64
	ToolCalls     []map[string]interface{}
	Retrieved     []map[string]interface{}
	Latency       map[string]interface{}
	TraceId       string
	CreatedAt     time.Time
}
