package generator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Request is one prompt-completion call.
type Request struct {
	Prompt    string
	MaxTokens int
}

// LLMClient 抽象大模型客户端，便于替换/Mock。
// Implementations report provider failures as *TransientProviderError.
type LLMClient interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// NewLLM builds the client for the configured provider.
func NewLLM(ctx context.Context, s *LLMSettings) (LLMClient, error) {
	if s == nil || s.Provider == "" {
		return nil, errors.New("llm config missing; please set llm.provider/model/api_key in config")
	}
	switch s.Provider {
	case "openai":
		return NewOpenAILLMFromConfig(s)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url。
		if s.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return NewOpenAILLMFromConfig(s)
	case "anthropic":
		return NewAnthropicLLM(s)
	case "gemini":
		return NewGeminiLLM(ctx, s)
	case "mock":
		return MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", s.Provider)
	}
}
