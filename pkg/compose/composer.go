package compose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"smart-gateway-be/pkg/llm"
	"smart-gateway-be/pkg/retrieval"
	"smart-gateway-be/pkg/tools"
)

// Reply sources.
const (
	SourceRetrieval = "retrieval"
	SourceTool      = "tool"
	SourceLLM       = "llm"
)

// Fallback reasons owned by the composer. Retrieval and routing reasons
// are carried through from upstream stages.
const (
	ReasonNoKBHit       = "no_kb_hit"
	ReasonNoToolMatched = "no_tool_matched"
	ReasonToolError     = "tool_error"
	ReasonToolTimeout   = "tool_timeout"
	ReasonLLMTimeout    = "llm_timeout"
	ReasonLowConfidence = "low_confidence"
	ReasonInternalError = "internal_error"
)

// ApologyText is the terminal fallback when even the LLM cannot answer.
const ApologyText = "抱歉，暂时无法找到相关信息，请稍后再试或联系人工客服。"

// Input is everything the composer needs to produce one reply.
type Input struct {
	Query         string
	RagFirst      bool
	Retrieval     retrieval.Result
	ToolAttempted bool
	ToolMatched   bool
	ToolResults   []tools.CallResult
}

// Reply is the composed answer plus the metadata the caller folds into
// the response envelope.
type Reply struct {
	Text           string
	Source         string
	FallbackReason string
	LowConfidence  bool
	LLMLatencyMS   int64
}

// Composer applies the answer precedence: confident retrieval hit first,
// then the first successful tool, then the LLM fallback.
type Composer struct {
	provider      llm.LLMProvider
	llmTimeout    time.Duration
	confThreshold float64
}

func NewComposer(provider llm.LLMProvider, llmTimeout time.Duration, confThreshold float64) *Composer {
	if llmTimeout <= 0 {
		llmTimeout = 8 * time.Second
	}
	if confThreshold <= 0 {
		confThreshold = 0.7
	}
	return &Composer{
		provider:      provider,
		llmTimeout:    llmTimeout,
		confThreshold: confThreshold,
	}
}

func (c *Composer) Compose(ctx context.Context, in Input) Reply {
	lowConfidence := false

	if in.RagFirst && in.Retrieval.KBHit {
		if in.Retrieval.Confidence >= c.confThreshold {
			return Reply{
				Text:   retrievalText(in.Retrieval),
				Source: SourceRetrieval,
			}
		}
		// A hit below the confidence bar is kept only as a last resort.
		lowConfidence = true
	}

	if r, ok := firstSuccess(in.ToolResults); ok {
		return Reply{
			Text:          formatToolText(r),
			Source:        SourceTool,
			LowConfidence: lowConfidence,
		}
	}

	reason := c.fallbackReason(in, lowConfidence)
	text, llmMS, err := c.generateFallback(ctx, in)
	if err != nil {
		text = ApologyText
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonLLMTimeout
		}
	}
	return Reply{
		Text:           text,
		Source:         SourceLLM,
		FallbackReason: reason,
		LowConfidence:  lowConfidence,
		LLMLatencyMS:   llmMS,
	}
}

func (c *Composer) fallbackReason(in Input, lowConfidence bool) string {
	if in.ToolAttempted {
		if !in.ToolMatched {
			return ReasonNoToolMatched
		}
		allTimeout := len(in.ToolResults) > 0
		for _, r := range in.ToolResults {
			if r.Status != tools.StatusTimeout {
				allTimeout = false
				break
			}
		}
		if allTimeout {
			return ReasonToolTimeout
		}
		return ReasonToolError
	}
	if lowConfidence {
		return ReasonLowConfidence
	}
	switch in.Retrieval.FallbackReason {
	case retrieval.ReasonRagUnready, retrieval.ReasonRetrievalTimeout:
		// Infrastructure failures stay visible; empty-result reasons
		// collapse into the generic no-knowledge answer.
		return in.Retrieval.FallbackReason
	}
	return ReasonNoKBHit
}

func (c *Composer) generateFallback(ctx context.Context, in Input) (string, int64, error) {
	if c.provider == nil {
		return ApologyText, 0, fmt.Errorf("no llm provider configured")
	}
	llmCtx, cancel := context.WithTimeout(ctx, c.llmTimeout)
	defer cancel()

	start := time.Now()
	text, err := c.provider.Generate(llmCtx, buildPrompt(in), llm.WithTemperature(0.3))
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return "", elapsed, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ApologyText, elapsed, nil
	}
	return text, elapsed, nil
}

func buildPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("你是一个客服助手。请基于下面的资料简洁地回答用户问题；如果资料不足，请礼貌地说明并给出建议。\n\n")
	if len(in.Retrieval.Hits) > 0 {
		b.WriteString("参考资料：\n")
		for i, h := range in.Retrieval.Hits {
			fmt.Fprintf(&b, "%d. %s\n", i+1, h.Text)
		}
		b.WriteString("\n")
	}
	b.WriteString("用户问题：")
	b.WriteString(in.Query)
	return b.String()
}

func retrievalText(res retrieval.Result) string {
	if res.Answer != "" {
		return res.Answer
	}
	if len(res.Hits) > 0 {
		return res.Hits[0].Text
	}
	return ApologyText
}

func firstSuccess(results []tools.CallResult) (tools.CallResult, bool) {
	for _, r := range results {
		if r.Status == tools.StatusSuccess {
			return r, true
		}
	}
	return tools.CallResult{}, false
}

func formatToolText(r tools.CallResult) string {
	text := ""
	p := r.Payload
	switch r.Name {
	case "lookup_order":
		text = fmt.Sprintf("订单 %v 当前状态：%v", p["order_id"], p["status"])
		if tn, ok := p["tracking_no"]; ok && tn != "" {
			text += fmt.Sprintf("，运单号 %v", tn)
		}
	case "check_logistics":
		text = fmt.Sprintf("运单 %v（%v）状态：%v", p["tracking_no"], p["carrier"], p["status"])
		if cps, ok := p["checkpoints"].([]interface{}); ok && len(cps) > 0 {
			if last, ok := cps[len(cps)-1].(map[string]interface{}); ok {
				text += fmt.Sprintf("，最新进度：%v", last["desc"])
			}
		}
	case "product_info":
		text = fmt.Sprintf("%v（%v）售价 %v 元。%v", p["name"], p["sku"], p["price"], p["description"])
	case "check_inventory":
		if inStock, _ := p["in_stock"].(bool); inStock {
			text = fmt.Sprintf("%v 目前有货，库存 %v 件", p["name"], p["stock"])
		} else {
			text = fmt.Sprintf("%v 暂时缺货，到货后会第一时间补充", p["name"])
		}
	case "get_product_recommendations":
		if items, ok := p["recommendations"].([]interface{}); ok {
			names := make([]string, 0, len(items))
			for _, it := range items {
				if m, ok := it.(map[string]interface{}); ok {
					names = append(names, fmt.Sprintf("%v", m["name"]))
				}
			}
			text = "为您推荐：" + strings.Join(names, "、")
		}
	}
	if text == "" {
		raw, err := json.Marshal(p)
		if err != nil {
			raw = []byte("{}")
		}
		text = string(raw)
	}
	return fmt.Sprintf("%s [tool:%s]", text, r.Name)
}
