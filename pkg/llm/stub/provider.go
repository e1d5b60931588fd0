package stub

import (
	"context"
	"strings"

	"smart-gateway-be/pkg/llm"
)

// StubProvider is the offline fallback model. It answers instantly with a
// polite canned reply so the gateway keeps functioning with no model
// server configured.
type StubProvider struct{}

var _ llm.LLMProvider = &StubProvider{}

func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

func (s *StubProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	last := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			last = history[i].Content
			break
		}
	}
	var b strings.Builder
	b.WriteString("感谢您的咨询。我暂时没有找到确切的资料")
	if last != "" {
		b.WriteString("来回答“")
		b.WriteString(truncate(last, 40))
		b.WriteString("”")
	}
	b.WriteString("，建议您换个说法再试一次，或联系人工客服获得帮助。")
	return b.String(), nil
}

func (s *StubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
