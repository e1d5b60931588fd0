package mapper

import (
	"encoding/json"

	"smart-gateway-be/internal/entity"
	"smart-gateway-be/internal/model"

	"gorm.io/datatypes"
)

type ChatLogMapper struct{}

func NewChatLogMapper() *ChatLogMapper {
	return &ChatLogMapper{}
}

func (m *ChatLogMapper) ToEntity(c *model.ChatLog) *entity.ChatLog {
	if c == nil {
		return nil
	}
	e := &entity.ChatLog{
		Id:            c.Id,
		SessionId:     c.SessionId,
		Channel:       c.Channel,
		UserMessage:   c.UserMessage,
		ModelResponse: c.ModelResponse,
		KBHit:         c.KBHit,
		Confidence:    c.Confidence,
		TraceId:       c.TraceId,
		CreatedAt:     c.CreatedAt,
	}
	// Decode failures leave the field nil; a malformed log row must not
	// break the read path.
	_ = json.Unmarshal(c.ToolCalls, &e.ToolCalls)
	_ = json.Unmarshal(c.Retrieved, &e.Retrieved)
	_ = json.Unmarshal(c.Latency, &e.Latency)
	return e
}

func (m *ChatLogMapper) ToModel(c *entity.ChatLog) *model.ChatLog {
	if c == nil {
		return nil
	}
	return &model.ChatLog{
		Id:            c.Id,
		SessionId:     c.SessionId,
		Channel:       c.Channel,
		UserMessage:   c.UserMessage,
		ModelResponse: c.ModelResponse,
		KBHit:         c.KBHit,
		Confidence:    c.Confidence,
		ToolCalls:     toJSON(c.ToolCalls),
		Retrieved:     toJSON(c.Retrieved),
		Latency:       toJSON(c.Latency),
		TraceId:       c.TraceId,
		CreatedAt:     c.CreatedAt,
	}
}

func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
