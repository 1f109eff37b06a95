package llm

import (
	"errors"
	"strings"
)

// Provider identifies an upstream LLM vendor
type Provider string

const (
	// ProviderOpenAI routes requests to the OpenAI chat completions API
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic routes requests to the Anthropic messages API
	ProviderAnthropic Provider = "anthropic"
)

// ErrUnknownProvider is returned when an API key matches no known vendor
var ErrUnknownProvider = errors.New("chave de API não reconhecida")

// Generation parameters fixed across providers
const (
	// MaxOutputTokens is the generation ceiling for every chat turn
	MaxOutputTokens = 4096
	// OpenAITemperature is the sampling temperature for OpenAI calls
	OpenAITemperature = 0.7
)

// DetectProvider classifies an API key by its literal prefix.
// Keys starting with "sk-ant-" belong to Anthropic; other "sk-" keys belong
// to OpenAI. This is a pure classification, no network call.
func DetectProvider(apiKey string) (Provider, error) {
	key := strings.TrimSpace(apiKey)
	switch {
	case strings.HasPrefix(key, "sk-ant-"):
		return ProviderAnthropic, nil
	case strings.HasPrefix(key, "sk-"):
		return ProviderOpenAI, nil
	default:
		return "", ErrUnknownProvider
	}
}

// Message is a provider-neutral chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
