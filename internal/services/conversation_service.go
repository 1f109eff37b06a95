package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"controlia/internal/models"
	"controlia/internal/repository"
)

// ConversationService manages a user's conversation list. All access
// is scoped to the caller's own tenant and profile.
type ConversationService struct {
	conversationRepo *repository.ConversationRepository
	logger           *logrus.Logger
}

// NewConversationService creates a new conversation service
func NewConversationService(conversationRepo *repository.ConversationRepository, logger *logrus.Logger) *ConversationService {
	return &ConversationService{conversationRepo: conversationRepo, logger: logger}
}

// List returns the caller's active conversations
func (s *ConversationService) List(ctx context.Context, tenant *models.Tenant, profile *models.Profile) ([]models.Conversation, error) {
	return s.conversationRepo.List(ctx, repository.ForTenant(tenant.ID), profile.ID)
}

// Get retrieves one of the caller's conversations with its full
// message history.
func (s *ConversationService) Get(ctx context.Context, tenant *models.Tenant, profile *models.Profile, conversationUUID uuid.UUID) (*models.Conversation, error) {
	conversation, err := s.conversationRepo.GetByUUID(ctx, repository.ForTenant(tenant.ID), profile.ID, conversationUUID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, &NotFoundError{Message: "Conversa não encontrada"}
	}
	return conversation, nil
}

// Rename changes a conversation's title
func (s *ConversationService) Rename(ctx context.Context, tenant *models.Tenant, profile *models.Profile, conversationUUID uuid.UUID, title string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Message: "Título não pode ser vazio"}
	}
	if _, err := s.Get(ctx, tenant, profile, conversationUUID); err != nil {
		return nil, err
	}
	if err := s.conversationRepo.UpdateTitle(ctx, repository.ForTenant(tenant.ID), profile.ID, conversationUUID, title); err != nil {
		return nil, err
	}
	return s.Get(ctx, tenant, profile, conversationUUID)
}

// Delete soft-deletes a conversation; the history row is kept
func (s *ConversationService) Delete(ctx context.Context, tenant *models.Tenant, profile *models.Profile, conversationUUID uuid.UUID) error {
	if _, err := s.Get(ctx, tenant, profile, conversationUUID); err != nil {
		return err
	}
	return s.conversationRepo.SoftDelete(ctx, repository.ForTenant(tenant.ID), profile.ID, conversationUUID)
}
