package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JSONB is a custom type for PostgreSQL JSONB fields
// It can hold any valid JSON value (objects, arrays, primitives)
type JSONB json.RawMessage

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = JSONB(v)
		return nil
	case string:
		*j = JSONB([]byte(v))
		return nil
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler
func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (j *JSONB) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		*j = nil
		return nil
	}
	*j = JSONB(data)
	return nil
}

// NewJSONB creates a JSONB from any value
func NewJSONB(v interface{}) (JSONB, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSONB(data), nil
}

// Tenant status values. The database keeps the original Portuguese vocabulary
// because the schema is shared with the existing dashboard frontend.
const (
	TenantStatusActive    = "ativa"
	TenantStatusSuspended = "suspensa"
	TenantStatusBanned    = "banida"
	TenantStatusOverdue   = "inadimplente"
)

// Profile status values
const (
	ProfileStatusActive   = "ativo"
	ProfileStatusInactive = "inativo"
)

// Conversation status values
const (
	ConversationStatusActive   = "ativa"
	ConversationStatusInactive = "inativa"
)

// Roles form an ordered hierarchy: user < admin < master.
// A single minimum-role check replaces per-handler allowed-role lists.
const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleMaster = "master"
)

// RoleLevel returns the numeric rank of a role, or -1 for unknown roles.
func RoleLevel(role string) int {
	switch role {
	case RoleUser:
		return 0
	case RoleAdmin:
		return 1
	case RoleMaster:
		return 2
	default:
		return -1
	}
}

// RoleAtLeast reports whether role satisfies the given minimum role.
func RoleAtLeast(role, min string) bool {
	r, m := RoleLevel(role), RoleLevel(min)
	return r >= 0 && m >= 0 && r >= m
}

// Tenant represents a company account, the unit of data isolation
type Tenant struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name                 string     `json:"nome" gorm:"column:nome;not null" validate:"required,min=2,max=255"`
	Email                string     `json:"email" gorm:"column:email;not null;index" validate:"required,email"`
	Phone                string     `json:"telefone" gorm:"column:telefone"`
	Status               string     `json:"status" gorm:"column:status;type:varchar(20);default:'ativa';index" validate:"oneof=ativa suspensa banida inadimplente"`
	PlanID               *uuid.UUID `json:"plano_id" gorm:"column:plano_id;type:uuid;index"`
	LLMAPIKey            string     `json:"-" gorm:"column:api_key_llm"`
	SystemContext        string     `json:"contexto_ia" gorm:"column:contexto_ia;type:text"`
	StripeCustomerID     string     `json:"-" gorm:"column:stripe_customer_id;index"`
	StripeSubscriptionID string     `json:"-" gorm:"column:stripe_subscription_id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	Plan *Plan `json:"plano,omitempty" gorm:"foreignKey:PlanID"`
}

// TableName preserves the original schema's table name
func (Tenant) TableName() string { return "empresas" }

// IsActive reports whether the tenant may use the platform.
// Overdue tenants keep access so they can reach the billing screens.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive || t.Status == TenantStatusOverdue
}

// Profile represents a user identity scoped to one tenant with a role
type Profile struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID     uuid.UUID `json:"empresa_id" gorm:"column:empresa_id;type:uuid;not null;index"`
	Name         string    `json:"nome" gorm:"column:nome;not null" validate:"required,min=2,max=255"`
	Email        string    `json:"email" gorm:"column:email;not null;uniqueIndex" validate:"required,email"`
	PasswordHash string    `json:"-" gorm:"column:senha_hash;not null"`
	Role         string    `json:"role" gorm:"column:role;type:varchar(10);default:'user';index" validate:"oneof=user admin master"`
	Status       string    `json:"status" gorm:"column:status;type:varchar(10);default:'ativo'" validate:"oneof=ativo inativo"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Tenant *Tenant `json:"empresa,omitempty" gorm:"foreignKey:TenantID"`
}

// TableName preserves the original schema's table name
func (Profile) TableName() string { return "perfis" }

// Plan represents a quota/pricing tier assigned to tenants.
// Nil limits mean unlimited.
type Plan struct {
	ID                  uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name                string    `json:"nome" gorm:"column:nome;not null;uniqueIndex" validate:"required,min=2,max=100"`
	MonthlyPrice        float64   `json:"preco_mensal" gorm:"column:preco_mensal;type:decimal(10,2);default:0" validate:"gte=0"`
	MaxUsers            *int      `json:"max_usuarios" gorm:"column:max_usuarios"`
	MaxAgents           *int      `json:"max_agentes" gorm:"column:max_agentes"`
	MonthlyMessageLimit *int      `json:"limite_mensagens_mes" gorm:"column:limite_mensagens_mes"`
	StripeProductID     string    `json:"stripe_product_id,omitempty" gorm:"column:stripe_product_id"`
	StripePriceID       string    `json:"stripe_price_id,omitempty" gorm:"column:stripe_price_id;index"`
	Active              bool      `json:"ativo" gorm:"column:ativo;default:true"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName preserves the original schema's table name
func (Plan) TableName() string { return "planos" }

// Agent is a tenant-owned named system-prompt configuration
type Agent struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID    uuid.UUID `json:"empresa_id" gorm:"column:empresa_id;type:uuid;not null;index"`
	Name        string    `json:"nome" gorm:"column:nome;not null" validate:"required,min=2,max=255"`
	Description string    `json:"descricao" gorm:"column:descricao;type:text"`
	BasePrompt  string    `json:"prompt_base" gorm:"column:prompt_base;type:text;not null" validate:"required"`
	Active      bool      `json:"ativo" gorm:"column:ativo;default:true;index"`
	Popular     bool      `json:"popular" gorm:"column:popular;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName preserves the original schema's table name
func (Agent) TableName() string { return "agentes_ia" }

// MessageRole values inside a conversation log
const (
	MessageRoleSystem    = "system"
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message is one entry of a conversation's embedded message log
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageLog is the embedded ordered message history of a conversation.
// It is an append-only log with a single owning writer: the in-flight chat
// turn. Concurrent turns on one conversation are unsupported.
type MessageLog []Message

// Value implements the driver.Valuer interface for MessageLog
func (m MessageLog) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for MessageLog
func (m *MessageLog) Scan(value interface{}) error {
	if value == nil {
		*m = MessageLog{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type for MessageLog: %T", value)
	}
}

// NewMessage builds a log entry with a fresh id and UTC timestamp
func NewMessage(role, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// Conversation belongs to one user and one tenant and references one agent.
// The entire message history is stored as an embedded ordered list; status
// acts as soft delete.
type Conversation struct {
	ID        uuid.UUID  `json:"uuid" gorm:"column:uuid;type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID  uuid.UUID  `json:"empresa_id" gorm:"column:empresa_id;type:uuid;not null;index:idx_conversas_empresa_perfil"`
	ProfileID uuid.UUID  `json:"perfil_id" gorm:"column:perfil_id;type:uuid;not null;index:idx_conversas_empresa_perfil"`
	AgentID   uuid.UUID  `json:"agente_id" gorm:"column:agente_id;type:uuid;not null;index"`
	Title     string     `json:"titulo" gorm:"column:titulo"`
	Messages  MessageLog `json:"mensagens" gorm:"column:mensagens;type:jsonb;default:'[]'"`
	Status    string     `json:"status" gorm:"column:status;type:varchar(10);default:'ativa';index" validate:"oneof=ativa inativa"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName preserves the original schema's table name
func (Conversation) TableName() string { return "conversas" }

// UsageRecord accumulates per-tenant counters for one calendar month.
// The (empresa_id, mes_referencia) pair is unique; rows are upserted and
// incremented atomically in a single statement.
type UsageRecord struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID     uuid.UUID `json:"empresa_id" gorm:"column:empresa_id;type:uuid;not null;uniqueIndex:idx_uso_empresa_mes"`
	Month        string    `json:"mes_referencia" gorm:"column:mes_referencia;type:varchar(7);not null;uniqueIndex:idx_uso_empresa_mes"`
	MessagesUsed int       `json:"mensagens_usadas" gorm:"column:mensagens_usadas;default:0"`
	TokensUsed   int64     `json:"tokens_usados" gorm:"column:tokens_usados;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName preserves the original schema's table name
func (UsageRecord) TableName() string { return "uso_recursos" }

// CurrentMonth returns the usage bucket key for now, e.g. "2026-08"
func CurrentMonth() string {
	return time.Now().UTC().Format("2006-01")
}

// AuditLog is an append-only record of admin and billing actions
type AuditLog struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID  *uuid.UUID `json:"empresa_id" gorm:"column:empresa_id;type:uuid;index"`
	ActorID   *uuid.UUID `json:"perfil_id" gorm:"column:perfil_id;type:uuid;index"`
	Action    string     `json:"acao" gorm:"column:acao;not null;index" validate:"required"`
	Entity    string     `json:"entidade" gorm:"column:entidade;not null"`
	EntityID  string     `json:"entidade_id" gorm:"column:entidade_id;index"`
	Details   JSONB      `json:"detalhes" gorm:"column:detalhes;type:jsonb;default:'{}'"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName preserves the original schema's table name
func (AuditLog) TableName() string { return "auditoria" }
