package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"controlia/internal/models"
)

// ConversationRepository handles conversation (conversa) database
// operations. Conversations are private to the profile that started
// them, so reads filter on both empresa_id and perfil_id.
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetByUUID retrieves a conversation owned by the given profile within
// the scope's tenant. Soft-deleted conversations are not returned.
func (r *ConversationRepository) GetByUUID(ctx context.Context, scope Scope, profileID, conversationUUID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := scope.apply(r.db.WithContext(ctx)).
		Where("perfil_id = ? AND status = ?", profileID, models.ConversationStatusActive).
		First(&conversation, "uuid = ?", conversationUUID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conversation, nil
}

// List returns a profile's active conversations, most recent first
func (r *ConversationRepository) List(ctx context.Context, scope Scope, profileID uuid.UUID) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := scope.apply(r.db.WithContext(ctx)).
		Where("perfil_id = ? AND status = ?", profileID, models.ConversationStatusActive).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// Create inserts a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// AppendMessages writes the full message log back in a single update.
// The chat turn in flight is the only writer of a conversation's log,
// so read-append-write is safe here.
func (r *ConversationRepository) AppendMessages(ctx context.Context, scope Scope, profileID, conversationUUID uuid.UUID, messages models.MessageLog) error {
	result := scope.apply(r.db.WithContext(ctx)).
		Model(&models.Conversation{}).
		Where("uuid = ? AND perfil_id = ? AND status = ?", conversationUUID, profileID, models.ConversationStatusActive).
		Updates(map[string]interface{}{
			"mensagens":  messages,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to append messages: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("conversation not found: %s", conversationUUID)
	}
	return nil
}

// UpdateTitle renames a conversation
func (r *ConversationRepository) UpdateTitle(ctx context.Context, scope Scope, profileID, conversationUUID uuid.UUID, title string) error {
	result := scope.apply(r.db.WithContext(ctx)).
		Model(&models.Conversation{}).
		Where("uuid = ? AND perfil_id = ? AND status = ?", conversationUUID, profileID, models.ConversationStatusActive).
		Updates(map[string]interface{}{
			"titulo":     title,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update conversation title: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("conversation not found: %s", conversationUUID)
	}
	return nil
}

// SoftDelete marks a conversation inactive. The row and its message
// log are kept.
func (r *ConversationRepository) SoftDelete(ctx context.Context, scope Scope, profileID, conversationUUID uuid.UUID) error {
	result := scope.apply(r.db.WithContext(ctx)).
		Model(&models.Conversation{}).
		Where("uuid = ? AND perfil_id = ? AND status = ?", conversationUUID, profileID, models.ConversationStatusActive).
		Updates(map[string]interface{}{
			"status":     models.ConversationStatusInactive,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to delete conversation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("conversation not found: %s", conversationUUID)
	}
	return nil
}

// CountByTenant returns how many active conversations a tenant has
func (r *ConversationRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("empresa_id = ? AND status = ?", tenantID, models.ConversationStatusActive).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}
