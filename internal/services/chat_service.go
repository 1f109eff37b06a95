package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"controlia/internal/llm"
	"controlia/internal/models"
	"controlia/internal/nats"
	"controlia/internal/repository"
)

const conversationTitleMax = 60

// ChatRequest starts or continues a conversation with one user
// message. ConversationUUID nil means a new conversation; AgentID is
// required only for new conversations (continuations keep the
// conversation's agent).
type ChatRequest struct {
	ConversationUUID *uuid.UUID
	AgentID          uuid.UUID
	Content          string
}

// TurnResult summarizes a completed chat turn
type TurnResult struct {
	ConversationUUID  uuid.UUID
	IsNewConversation bool
	AssistantReply    string
	Tokens            int64
}

// ChatService runs the chat turn: pre-flight checks, vendor stream
// relay, then persistence and accounting. The turn is the single
// owning writer of its conversation's message log.
type ChatService struct {
	tenantRepo       *repository.TenantRepository
	agentRepo        *repository.AgentRepository
	conversationRepo *repository.ConversationRepository
	usageService     *UsageService
	llmClient        *llm.Client
	events           *nats.Client
	logger           *logrus.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	tenantRepo *repository.TenantRepository,
	agentRepo *repository.AgentRepository,
	conversationRepo *repository.ConversationRepository,
	usageService *UsageService,
	llmClient *llm.Client,
	events *nats.Client,
	logger *logrus.Logger,
) *ChatService {
	return &ChatService{
		tenantRepo:       tenantRepo,
		agentRepo:        agentRepo,
		conversationRepo: conversationRepo,
		usageService:     usageService,
		llmClient:        llmClient,
		events:           events,
		logger:           logger,
	}
}

// ChatTurn is a pre-flighted chat turn ready to stream. All quota and
// ownership checks have passed; Stream performs the vendor call and,
// on success, the persistence and accounting side effects.
type ChatTurn struct {
	service      *ChatService
	tenant       *models.Tenant
	profile      *models.Profile
	agent        *models.Agent
	conversation *models.Conversation
	userMessage  models.Message
	prompt       []llm.Message
}

// StartTurn runs all pre-flight checks and assembles the vendor
// prompt. Nothing is persisted and no quota is consumed until the
// stream completes.
func (s *ChatService) StartTurn(ctx context.Context, tenant *models.Tenant, profile *models.Profile, req ChatRequest) (*ChatTurn, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, &ValidationError{Message: "Mensagem não pode ser vazia"}
	}

	if tenant.LLMAPIKey == "" {
		return nil, &ValidationError{Message: "Chave de API não configurada para a empresa"}
	}
	if _, err := llm.DetectProvider(tenant.LLMAPIKey); err != nil {
		return nil, &ValidationError{Message: "Chave de API não reconhecida"}
	}

	scope := repository.ForTenant(tenant.ID)

	var conversation *models.Conversation
	agentID := req.AgentID
	if req.ConversationUUID != nil {
		var err error
		conversation, err = s.conversationRepo.GetByUUID(ctx, scope, profile.ID, *req.ConversationUUID)
		if err != nil {
			return nil, err
		}
		if conversation == nil {
			return nil, &NotFoundError{Message: "Conversa não encontrada"}
		}
		agentID = conversation.AgentID
	}

	agent, err := s.agentRepo.GetByID(ctx, scope, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, &NotFoundError{Message: "Agente não encontrado"}
	}
	if !agent.Active {
		return nil, &ValidationError{Message: "Agente inativo"}
	}

	limit, err := s.usageService.CheckMessageLimit(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if !limit.Allowed {
		return nil, &QuotaError{Message: "Limite de mensagens do plano atingido"}
	}

	userMessage := models.NewMessage(models.MessageRoleUser, content)
	return &ChatTurn{
		service:      s,
		tenant:       tenant,
		profile:      profile,
		agent:        agent,
		conversation: conversation,
		userMessage:  userMessage,
		prompt:       buildPrompt(tenant, agent, conversation, userMessage),
	}, nil
}

// Stream relays the vendor response through onDelta, then persists the
// turn and accounts usage. If the vendor call fails or the client
// disconnects, nothing is persisted and no quota is consumed.
func (t *ChatTurn) Stream(ctx context.Context, onDelta llm.DeltaFunc) (*TurnResult, error) {
	s := t.service

	var reply strings.Builder
	err := s.llmClient.StreamChat(ctx, t.tenant.LLMAPIKey, t.prompt, func(delta string) error {
		reply.WriteString(delta)
		return onDelta(delta)
	})
	if err != nil {
		var upstream *llm.UpstreamError
		if errors.As(err, &upstream) {
			s.logger.WithFields(logrus.Fields{
				"tenant_id": t.tenant.ID,
				"provider":  upstream.Provider,
				"status":    upstream.StatusCode,
			}).Error("Vendor stream failed")
		}
		return nil, err
	}

	assistantMessage := models.NewMessage(models.MessageRoleAssistant, reply.String())
	scope := repository.ForTenant(t.tenant.ID)

	isNew := t.conversation == nil
	var conversationID uuid.UUID
	if isNew {
		conversation := &models.Conversation{
			ID:        uuid.New(),
			TenantID:  t.tenant.ID,
			ProfileID: t.profile.ID,
			AgentID:   t.agent.ID,
			Title:     conversationTitle(t.userMessage.Content),
			Messages:  models.MessageLog{t.userMessage, assistantMessage},
			Status:    models.ConversationStatusActive,
		}
		if err := s.conversationRepo.Create(ctx, conversation); err != nil {
			return nil, err
		}
		conversationID = conversation.ID
	} else {
		conversationID = t.conversation.ID
		log := append(t.conversation.Messages, t.userMessage, assistantMessage)
		if err := s.conversationRepo.AppendMessages(ctx, scope, t.profile.ID, conversationID, log); err != nil {
			return nil, err
		}
	}

	tokens := estimateTokens(t.userMessage.Content) + estimateTokens(assistantMessage.Content)
	if err := s.usageService.TrackChatTurn(ctx, t.tenant.ID, tokens); err != nil {
		// The turn already happened; surface the accounting failure in
		// logs but do not fail the user's completed stream.
		s.logger.WithError(err).WithField("tenant_id", t.tenant.ID).Error("Failed to account chat turn")
	}

	s.events.Publish(nats.SubjectChatTurnCompleted, map[string]interface{}{
		"empresa_id": t.tenant.ID,
		"perfil_id":  t.profile.ID,
		"conversa":   conversationID,
		"tokens":     tokens,
	})

	return &TurnResult{
		ConversationUUID:  conversationID,
		IsNewConversation: isNew,
		AssistantReply:    reply.String(),
		Tokens:            tokens,
	}, nil
}

// buildPrompt assembles the vendor message list: system context from
// the agent and tenant, then prior history, then the new user message.
func buildPrompt(tenant *models.Tenant, agent *models.Agent, conversation *models.Conversation, userMessage models.Message) []llm.Message {
	var system strings.Builder
	system.WriteString(agent.BasePrompt)
	if tenant.SystemContext != "" {
		system.WriteString("\n\n")
		system.WriteString(tenant.SystemContext)
	}

	messages := []llm.Message{{Role: models.MessageRoleSystem, Content: system.String()}}
	if conversation != nil {
		for _, m := range conversation.Messages {
			messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
		}
	}
	return append(messages, llm.Message{Role: userMessage.Role, Content: userMessage.Content})
}

// conversationTitle derives a title from the first user message
func conversationTitle(content string) string {
	title := strings.TrimSpace(content)
	runes := []rune(title)
	if len(runes) > conversationTitleMax {
		title = string(runes[:conversationTitleMax]) + "…"
	}
	return title
}

// estimateTokens approximates token usage as one token per four
// characters; vendors do not report usage on all stream shapes.
func estimateTokens(content string) int64 {
	n := utf8.RuneCountInString(content)
	tokens := n / 4
	if n > 0 && tokens == 0 {
		tokens = 1
	}
	return int64(tokens)
}
