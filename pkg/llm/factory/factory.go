package factory

import (
	"fmt"

	"smart-gateway-be/pkg/llm"
	"smart-gateway-be/pkg/llm/ollama"
	"smart-gateway-be/pkg/llm/stub"
)

func NewLLMProvider(providerType, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "stub", "":
		return stub.NewStubProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
