package dto

import (
	"smart-gateway-be/pkg/retrieval"
	"smart-gateway-be/pkg/tools"
)

type RagConfig struct {
	TopK      int     `json:"top_k" validate:"omitempty,min=1,max=20"`
	Threshold float64 `json:"threshold" validate:"omitempty,min=0,max=1"`
}

type ChatRequest struct {
	SessionId    string                 `json:"session_id" validate:"required"`
	Message      string                 `json:"message" validate:"required"`
	Channel      string                 `json:"channel"`
	ToolsAllowed []string               `json:"tools_allowed"`
	Rag          *RagConfig             `json:"rag"`
	DeadlineMs   int                    `json:"deadline_ms" validate:"omitempty,min=0,max=600000"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// MetaBool reads a boolean routing flag from the request metadata.
func (r *ChatRequest) MetaBool(key string, def bool) bool {
	if r.Metadata == nil {
		return def
	}
	if v, ok := r.Metadata[key].(bool); ok {
		return v
	}
	return def
}

// MetaString reads a string routing flag from the request metadata.
func (r *ChatRequest) MetaString(key string, def string) string {
	if r.Metadata == nil {
		return def
	}
	if v, ok := r.Metadata[key].(string); ok && v != "" {
		return v
	}
	return def
}

type ChatResponse struct {
	SessionId      string                 `json:"session_id"`
	ReplyText      string                 `json:"reply_text"`
	KBHit          bool                   `json:"kb_hit"`
	Confidence     float64                `json:"confidence"`
	Retrieved      []retrieval.Hit        `json:"retrieved"`
	ToolCalls      []string               `json:"tool_calls"`
	ToolTraces     []tools.CallResult     `json:"tool_traces"`
	SourceRefs     []string               `json:"source_refs"`
	Latency        map[string]interface{} `json:"latency"`
	FallbackReason string                 `json:"fallback_reason,omitempty"`
	Interim        bool                   `json:"interim,omitempty"`
	TraceId        string                 `json:"trace_id,omitempty"`
}

type KBDocumentRequest struct {
	DocId    string                 `json:"doc_id" validate:"required"`
	Text     string                 `json:"text" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type PublishKBDocumentMessage struct {
	DocId    string                 `json:"doc_id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

type ChatLogDTO struct {
	Id            string                   `json:"id"`
	SessionId     string                   `json:"session_id"`
	Channel       string                   `json:"channel"`
	UserMessage   string                   `json:"user_message"`
	ModelResponse string                   `json:"model_response"`
	KBHit         bool                     `json:"kb_hit"`
	Confidence    float64                  `json:"confidence"`
	ToolCalls     []map[string]interface{} `json:"tool_calls,omitempty"`
	Retrieved     []map[string]interface{} `json:"retrieved,omitempty"`
	Latency       map[string]interface{}   `json:"latency,omitempty"`
	TraceId       string                   `json:"trace_id,omitempty"`
	CreatedAt     string                   `json:"created_at"`
}

type HealthCheckDTO struct {
	Healthy   bool   `json:"healthy"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status string                    `json:"status"`
	Checks map[string]HealthCheckDTO `json:"checks"`
}
