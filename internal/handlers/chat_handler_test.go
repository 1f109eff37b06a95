package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequestBodyFieldNames(t *testing.T) {
	payload := `{
		"message": "Qual o horário de atendimento?",
		"agenteId": "7b0f4d2e-9a41-4de0-8e37-2a1f0c9b5d11",
		"conversationUuid": "c3a1f8d0-52be-4f31-9d70-64f0b8c21a9e"
	}`

	var body chatRequestBody
	require.NoError(t, json.Unmarshal([]byte(payload), &body))

	assert.Equal(t, "Qual o horário de atendimento?", body.Content)
	assert.Equal(t, "7b0f4d2e-9a41-4de0-8e37-2a1f0c9b5d11", body.AgentID)
	require.NotNil(t, body.ConversationUUID)
	assert.Equal(t, "c3a1f8d0-52be-4f31-9d70-64f0b8c21a9e", *body.ConversationUUID)
}
