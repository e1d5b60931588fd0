package compose

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"smart-gateway-be/pkg/llm"
	"smart-gateway-be/pkg/retrieval"
	"smart-gateway-be/pkg/tools"
)

type fakeLLM struct {
	reply string
	err   error
	delay time.Duration
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return f.Generate(ctx, "", opts...)
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func confidentHit(conf float64) retrieval.Result {
	return retrieval.Result{
		Hits:       []retrieval.Hit{{Text: "退款政策：7 天无理由退款。", Score: conf}},
		KBHit:      true,
		Confidence: conf,
		Source:     retrieval.SourceLocal,
	}
}

func TestComposeRetrievalWinsOverTool(t *testing.T) {
	c := NewComposer(&fakeLLM{reply: "llm"}, time.Second, 0.7)

	reply := c.Compose(context.Background(), Input{
		Query:       "退款政策",
		RagFirst:    true,
		Retrieval:   confidentHit(0.9),
		ToolMatched: true,
		ToolResults: []tools.CallResult{{
			Name:    "lookup_order",
			Status:  tools.StatusSuccess,
			Payload: map[string]interface{}{"order_id": "ORD-1", "status": "shipped"},
		}},
	})

	assert.Equal(t, SourceRetrieval, reply.Source)
	assert.Contains(t, reply.Text, "退款政策")
	assert.Empty(t, reply.FallbackReason)
}

func TestComposeToolWinsWhenNoKBHit(t *testing.T) {
	c := NewComposer(&fakeLLM{reply: "llm"}, time.Second, 0.7)

	reply := c.Compose(context.Background(), Input{
		Query:         "订单 ORD-202401001",
		RagFirst:      true,
		Retrieval:     retrieval.Result{FallbackReason: retrieval.ReasonNoHits},
		ToolAttempted: true,
		ToolMatched:   true,
		ToolResults: []tools.CallResult{{
			Name:   "lookup_order",
			Status: tools.StatusSuccess,
			Payload: map[string]interface{}{
				"order_id": "ORD-202401001", "status": "shipped", "tracking_no": "SF1234567890",
			},
		}},
	})

	assert.Equal(t, SourceTool, reply.Source)
	assert.Contains(t, reply.Text, "ORD-202401001")
	assert.Contains(t, reply.Text, "shipped")
	assert.Contains(t, reply.Text, "[tool:lookup_order]")
}

func TestComposeLLMFallbackOnToolTimeout(t *testing.T) {
	c := NewComposer(&fakeLLM{reply: "请稍后再查询物流。"}, time.Second, 0.7)

	reply := c.Compose(context.Background(), Input{
		Query:         "物流到哪了",
		RagFirst:      true,
		Retrieval:     retrieval.Result{FallbackReason: retrieval.ReasonNoHits},
		ToolAttempted: true,
		ToolMatched:   true,
		ToolResults: []tools.CallResult{{
			Name:   "check_logistics",
			Status: tools.StatusTimeout,
			Error:  "tool check_logistics timed out after 500ms",
		}},
	})

	assert.Equal(t, SourceLLM, reply.Source)
	assert.Equal(t, ReasonToolTimeout, reply.FallbackReason)
	assert.Equal(t, "请稍后再查询物流。", reply.Text)
}

func TestComposeToolErrorReason(t *testing.T) {
	c := NewComposer(&fakeLLM{reply: "fallback"}, time.Second, 0.7)

	reply := c.Compose(context.Background(), Input{
		Query:         "订单呢",
		ToolAttempted: true,
		ToolMatched:   true,
		ToolResults: []tools.CallResult{
			{Name: "lookup_order", Status: tools.StatusError, Error: "order not found"},
			{Name: "check_logistics", Status: tools.StatusTimeout},
		},
	})

	assert.Equal(t, ReasonToolError, reply.FallbackReason)
}

func TestComposeNoToolMatchedReason(t *testing.T) {
	c := NewComposer(&fakeLLM{reply: "fallback"}, time.Second, 0.7)

	reply := c.Compose(context.Background(), Input{
		Query:         "随便聊聊",
		ToolAttempted: true,
		ToolMatched:   false,
	})

	assert.Equal(t, ReasonNoToolMatched, reply.FallbackReason)
}

func TestComposeLowConfidenceFallsThrough(t *testing.T) {
	c := NewComposer(&fakeLLM{reply: "基于有限资料的回答"}, time.Second, 0.7)

	reply := c.Compose(context.Background(), Input{
		Query:     "退款政策",
		RagFirst:  true,
		Retrieval: confidentHit(0.4),
	})

	assert.Equal(t, SourceLLM, reply.Source)
	assert.True(t, reply.LowConfidence)
	assert.Equal(t, ReasonLowConfidence, reply.FallbackReason)
}

func TestComposeLLMTimeoutYieldsApology(t *testing.T) {
	c := NewComposer(&fakeLLM{reply: "never", delay: time.Second}, 30*time.Millisecond, 0.7)

	reply := c.Compose(context.Background(), Input{
		Query:     "冷门问题",
		RagFirst:  true,
		Retrieval: retrieval.Result{FallbackReason: retrieval.ReasonNoHits},
	})

	assert.Equal(t, ApologyText, reply.Text)
	assert.Equal(t, ReasonLLMTimeout, reply.FallbackReason)
}

func TestComposeLLMErrorKeepsInfraReason(t *testing.T) {
	c := NewComposer(&fakeLLM{err: fmt.Errorf("model offline")}, time.Second, 0.7)

	reply := c.Compose(context.Background(), Input{
		Query:     "冷门问题",
		RagFirst:  true,
		Retrieval: retrieval.Result{FallbackReason: retrieval.ReasonRagUnready},
	})

	assert.Equal(t, ApologyText, reply.Text)
	assert.Equal(t, retrieval.ReasonRagUnready, reply.FallbackReason)
}

func TestComposeEmptyRetrievalCollapsesToNoKBHit(t *testing.T) {
	c := NewComposer(&fakeLLM{reply: "fallback"}, time.Second, 0.7)

	reply := c.Compose(context.Background(), Input{
		Query:     "冷门问题",
		RagFirst:  true,
		Retrieval: retrieval.Result{FallbackReason: retrieval.ReasonBelowThreshold},
	})

	assert.Equal(t, SourceLLM, reply.Source)
	assert.Equal(t, ReasonNoKBHit, reply.FallbackReason)
}

func TestComposeNoProviderStillAnswers(t *testing.T) {
	c := NewComposer(nil, time.Second, 0.7)

	reply := c.Compose(context.Background(), Input{Query: "你好"})

	assert.Equal(t, ApologyText, reply.Text)
	assert.Equal(t, ReasonNoKBHit, reply.FallbackReason)
}
