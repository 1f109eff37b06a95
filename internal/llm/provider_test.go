package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		provider Provider
		wantErr  bool
	}{
		{"anthropic key", "sk-ant-api03-abc123", ProviderAnthropic, false},
		{"openai key", "sk-proj-abc123", ProviderOpenAI, false},
		{"openai legacy key", "sk-abc123", ProviderOpenAI, false},
		{"anthropic with surrounding spaces", "  sk-ant-xyz  ", ProviderAnthropic, false},
		{"empty key", "", "", true},
		{"random token", "pk-live-abc", "", true},
		{"prefix embedded mid-string", "key-sk-ant-123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := DetectProvider(tt.apiKey)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownProvider)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.provider, provider)
		})
	}
}

func TestSplitSystem(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "Você é um atendente."},
		{Role: "user", Content: "Oi"},
		{Role: "assistant", Content: "Olá!"},
		{Role: "user", Content: "Preciso de ajuda"},
	}

	system, turns := splitSystem(messages)

	assert.Equal(t, "Você é um atendente.", system)
	assert.Len(t, turns, 3)
	for _, m := range turns {
		assert.NotEqual(t, "system", m.Role)
	}
}

func TestSplitSystemJoinsMultipleSystemMessages(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "Regra um."},
		{Role: "system", Content: "Regra dois."},
		{Role: "user", Content: "Oi"},
	}

	system, turns := splitSystem(messages)

	assert.Equal(t, "Regra um.\n\nRegra dois.", system)
	assert.Len(t, turns, 1)
}
