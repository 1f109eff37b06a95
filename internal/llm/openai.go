package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// openAIEndpoint is a var so tests can point the client at a local server.
var openAIEndpoint = "https://api.openai.com/v1/chat/completions"

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// openAIChunk is the subset of the streaming chunk shape we care about;
// structural and metadata fields are discarded.
type openAIChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *Client) streamOpenAI(ctx context.Context, apiKey string, messages []Message, onDelta DeltaFunc) error {
	payload := openAIRequest{
		Model:       c.cfg.OpenAIModel,
		Messages:    messages,
		Stream:      true,
		Temperature: OpenAITemperature,
		MaxTokens:   MaxOutputTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &UpstreamError{Provider: ProviderOpenAI, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, bytes.NewReader(body))
	if err != nil {
		return &UpstreamError{Provider: ProviderOpenAI, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Provider: ProviderOpenAI, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return drainError(ProviderOpenAI, resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}

		var chunk openAIChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.WithError(err).Debug("skipping malformed OpenAI chunk")
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := onDelta(delta); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return &UpstreamError{Provider: ProviderOpenAI, Err: err}
	}
	return nil
}
