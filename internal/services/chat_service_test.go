package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controlia/internal/models"
)

func TestBuildPromptOrder(t *testing.T) {
	tenant := &models.Tenant{SystemContext: "Empresa de logística."}
	agent := &models.Agent{BasePrompt: "Você é um atendente de suporte."}
	conversation := &models.Conversation{
		Messages: models.MessageLog{
			models.NewMessage(models.MessageRoleUser, "Oi"),
			models.NewMessage(models.MessageRoleAssistant, "Olá!"),
		},
	}
	userMessage := models.NewMessage(models.MessageRoleUser, "Cadê meu pedido?")

	prompt := buildPrompt(tenant, agent, conversation, userMessage)

	require.Len(t, prompt, 4)
	assert.Equal(t, models.MessageRoleSystem, prompt[0].Role)
	assert.Contains(t, prompt[0].Content, "Você é um atendente de suporte.")
	assert.Contains(t, prompt[0].Content, "Empresa de logística.")

	assert.Equal(t, models.MessageRoleUser, prompt[1].Role)
	assert.Equal(t, "Oi", prompt[1].Content)
	assert.Equal(t, models.MessageRoleAssistant, prompt[2].Role)

	assert.Equal(t, models.MessageRoleUser, prompt[3].Role)
	assert.Equal(t, "Cadê meu pedido?", prompt[3].Content)
}

func TestBuildPromptNewConversation(t *testing.T) {
	tenant := &models.Tenant{}
	agent := &models.Agent{BasePrompt: "Seja objetivo."}
	userMessage := models.NewMessage(models.MessageRoleUser, "Primeira mensagem")

	prompt := buildPrompt(tenant, agent, nil, userMessage)

	require.Len(t, prompt, 2)
	assert.Equal(t, "Seja objetivo.", prompt[0].Content)
	assert.Equal(t, "Primeira mensagem", prompt[1].Content)
}

func TestConversationTitleTruncation(t *testing.T) {
	short := "Qual o horário de atendimento?"
	assert.Equal(t, short, conversationTitle(short))

	long := strings.Repeat("a", 100)
	title := conversationTitle(long)
	assert.Equal(t, 61, len([]rune(title)))
	assert.True(t, strings.HasSuffix(title, "…"))

	// Rune-safe for accented first messages.
	accented := strings.Repeat("ã", 100)
	assert.Equal(t, 61, len([]rune(conversationTitle(accented))))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, int64(0), estimateTokens(""))
	// Anything non-empty costs at least one token.
	assert.Equal(t, int64(1), estimateTokens("oi"))
	assert.Equal(t, int64(25), estimateTokens(strings.Repeat("x", 100)))
	// Counted in runes, not bytes.
	assert.Equal(t, int64(25), estimateTokens(strings.Repeat("ç", 100)))
}

func TestChatTurnAppendsUserThenAssistant(t *testing.T) {
	existing := models.MessageLog{
		models.NewMessage(models.MessageRoleUser, "Oi"),
		models.NewMessage(models.MessageRoleAssistant, "Olá!"),
	}
	userMessage := models.NewMessage(models.MessageRoleUser, "Mais uma")
	assistantMessage := models.NewMessage(models.MessageRoleAssistant, "Claro")

	log := append(existing, userMessage, assistantMessage)

	require.Len(t, log, 4)
	assert.Equal(t, models.MessageRoleUser, log[2].Role)
	assert.Equal(t, models.MessageRoleAssistant, log[3].Role)
	assert.Equal(t, "Mais uma", log[2].Content)
	assert.Equal(t, "Claro", log[3].Content)
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsQuotaError(&QuotaError{Message: "limite"}))
	assert.True(t, IsAuthError(&AuthError{Message: "sessão"}))
	assert.True(t, IsNotFoundError(&NotFoundError{Message: "nada"}))
	assert.False(t, IsQuotaError(&ValidationError{Message: "campo"}))
}
