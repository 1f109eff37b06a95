package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewClient(Config{}, logger)
}

func TestStreamOpenAICollectsDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Olá\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\", \"}}]}\n\n")
		fmt.Fprint(w, ": keepalive comment ignored\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"mundo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	oldEndpoint := openAIEndpoint
	openAIEndpoint = server.URL
	defer func() { openAIEndpoint = oldEndpoint }()

	var got strings.Builder
	err := testClient().StreamChat(context.Background(), "sk-test", []Message{{Role: "user", Content: "oi"}}, func(delta string) error {
		got.WriteString(delta)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Olá, mundo", got.String())
}

func TestStreamOpenAIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key"}}`)
	}))
	defer server.Close()

	oldEndpoint := openAIEndpoint
	openAIEndpoint = server.URL
	defer func() { openAIEndpoint = oldEndpoint }()

	err := testClient().StreamChat(context.Background(), "sk-bad", []Message{{Role: "user", Content: "oi"}}, func(string) error {
		t.Fatal("no delta expected on error response")
		return nil
	})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, ProviderOpenAI, upstream.Provider)
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
}

func TestStreamAnthropicCollectsDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\n")
		fmt.Fprint(w, "data: {\"type\":\"message_start\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Bom \"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"dia\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	oldEndpoint := anthropicEndpoint
	anthropicEndpoint = server.URL
	defer func() { anthropicEndpoint = oldEndpoint }()

	var got strings.Builder
	err := testClient().StreamChat(context.Background(), "sk-ant-test", []Message{
		{Role: "system", Content: "seja breve"},
		{Role: "user", Content: "oi"},
	}, func(delta string) error {
		got.WriteString(delta)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Bom dia", got.String())
}

func TestStreamAnthropicInBandError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	}))
	defer server.Close()

	oldEndpoint := anthropicEndpoint
	anthropicEndpoint = server.URL
	defer func() { anthropicEndpoint = oldEndpoint }()

	err := testClient().StreamChat(context.Background(), "sk-ant-test", []Message{{Role: "user", Content: "oi"}}, func(string) error {
		return nil
	})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, ProviderAnthropic, upstream.Provider)
	assert.Contains(t, upstream.Body, "Overloaded")
}

func TestStreamChatRejectsUnknownKey(t *testing.T) {
	err := testClient().StreamChat(context.Background(), "not-a-key", nil, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestStreamAbortsWhenDeltaFuncFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	oldEndpoint := openAIEndpoint
	openAIEndpoint = server.URL
	defer func() { openAIEndpoint = oldEndpoint }()

	abort := fmt.Errorf("client went away")
	calls := 0
	err := testClient().StreamChat(context.Background(), "sk-test", []Message{{Role: "user", Content: "oi"}}, func(string) error {
		calls++
		return abort
	})

	assert.ErrorIs(t, err, abort)
	assert.Equal(t, 1, calls)
}
