package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"controlia/internal/llm"
	"controlia/internal/metrics"
	"controlia/internal/middleware"
	"controlia/internal/services"
)

// ChatHandler relays chat turns as Server-Sent Events.
type ChatHandler struct {
	chatService *services.ChatService
	metrics     *metrics.Metrics
	logger      *logrus.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService, m *metrics.Metrics, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, metrics: m, logger: logger}
}

type chatRequestBody struct {
	ConversationUUID *string `json:"conversationUuid"`
	AgentID          string  `json:"agenteId"`
	Content          string  `json:"message"`
}

// Chat runs one chat turn. Pre-flight failures return plain JSON
// errors; once the vendor stream starts, the response is SSE and any
// failure is reported in-band as a data event.
func (h *ChatHandler) Chat(c *gin.Context) {
	tenant := middleware.CurrentTenant(c)
	profile := middleware.CurrentProfile(c)

	var body chatRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidation(c, "Requisição de chat inválida")
		return
	}

	req := services.ChatRequest{Content: body.Content}
	if body.ConversationUUID != nil && *body.ConversationUUID != "" {
		id, err := uuid.Parse(*body.ConversationUUID)
		if err != nil {
			RespondValidation(c, "Identificador de conversa inválido")
			return
		}
		req.ConversationUUID = &id
	} else {
		id, err := uuid.Parse(body.AgentID)
		if err != nil {
			RespondValidation(c, "Identificador de agente inválido")
			return
		}
		req.AgentID = id
	}

	turn, err := h.chatService.StartTurn(c.Request.Context(), tenant, profile, req)
	if err != nil {
		RespondError(c, err)
		return
	}

	provider, _ := llm.DetectProvider(tenant.LLMAPIKey)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Flush()

	start := time.Now()
	result, err := turn.Stream(c.Request.Context(), func(delta string) error {
		return h.writeEvent(c, gin.H{"content": delta})
	})
	h.metrics.ChatStreamDuration.WithLabelValues(string(provider)).Observe(time.Since(start).Seconds())

	if err != nil {
		h.metrics.ChatTurnsTotal.WithLabelValues(string(provider), "error").Inc()
		h.logger.WithError(err).WithFields(logrus.Fields{
			"tenant_id":  tenant.ID,
			"profile_id": profile.ID,
		}).Error("Chat turn failed")
		// Headers are already out; report the failure in-band.
		_ = h.writeEvent(c, gin.H{"error": "Falha ao processar a mensagem"})
		return
	}

	h.metrics.ChatTurnsTotal.WithLabelValues(string(provider), "success").Inc()
	h.metrics.ChatTokensTotal.Add(float64(result.Tokens))

	_ = h.writeEvent(c, gin.H{
		"done":              true,
		"conversationUuid":  result.ConversationUUID,
		"isNewConversation": result.IsNewConversation,
	})
}

func (h *ChatHandler) writeEvent(c *gin.Context, payload gin.H) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
