package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// anthropicEndpoint is a var so tests can point the client at a local server.
var anthropicEndpoint = "https://api.anthropic.com/v1/messages"

// anthropicVersion is the API version header required by Anthropic
const anthropicVersion = "2023-06-01"

type anthropicRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream"`
	MaxTokens int       `json:"max_tokens"`
}

// anthropicEvent is the subset of the streaming event shape we care about
type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// splitSystem extracts system-role messages into Anthropic's top-level
// system field; the messages array may only carry user/assistant turns.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(system, "\n\n"), turns
}

func (c *Client) streamAnthropic(ctx context.Context, apiKey string, messages []Message, onDelta DeltaFunc) error {
	system, turns := splitSystem(messages)

	payload := anthropicRequest{
		Model:     c.cfg.AnthropicModel,
		System:    system,
		Messages:  turns,
		Stream:    true,
		MaxTokens: MaxOutputTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &UpstreamError{Provider: ProviderAnthropic, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicEndpoint, bytes.NewReader(body))
	if err != nil {
		return &UpstreamError{Provider: ProviderAnthropic, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Provider: ProviderAnthropic, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return drainError(ProviderAnthropic, resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		var event anthropicEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			c.logger.WithError(err).Debug("skipping malformed Anthropic event")
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				if err := onDelta(event.Delta.Text); err != nil {
					return err
				}
			}
		case "message_stop":
			return nil
		case "error":
			return &UpstreamError{
				Provider: ProviderAnthropic,
				Body:     event.Error.Message,
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return &UpstreamError{Provider: ProviderAnthropic, Err: err}
	}
	return nil
}
