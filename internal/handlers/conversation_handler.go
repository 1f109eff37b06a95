package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"controlia/internal/middleware"
	"controlia/internal/services"
)

// ConversationHandler exposes the caller's conversation history.
type ConversationHandler struct {
	conversationService *services.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversationService *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// List returns the caller's active conversations
func (h *ConversationHandler) List(c *gin.Context) {
	conversations, err := h.conversationService.List(c.Request.Context(), middleware.CurrentTenant(c), middleware.CurrentProfile(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversas": conversations})
}

// Get returns one conversation with its full message history
func (h *ConversationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		RespondValidation(c, "Identificador de conversa inválido")
		return
	}
	conversation, err := h.conversationService.Get(c.Request.Context(), middleware.CurrentTenant(c), middleware.CurrentProfile(c), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

// Rename changes a conversation's title
func (h *ConversationHandler) Rename(c *gin.Context) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		RespondValidation(c, "Identificador de conversa inválido")
		return
	}
	var body struct {
		Title string `json:"titulo" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidation(c, "Título é obrigatório")
		return
	}
	conversation, err := h.conversationService.Rename(c.Request.Context(), middleware.CurrentTenant(c), middleware.CurrentProfile(c), id, body.Title)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

// Delete soft-deletes a conversation
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		RespondValidation(c, "Identificador de conversa inválido")
		return
	}
	if err := h.conversationService.Delete(c.Request.Context(), middleware.CurrentTenant(c), middleware.CurrentProfile(c), id); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversa removida"})
}
