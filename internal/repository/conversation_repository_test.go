package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"controlia/internal/models"
)

// statementLog collects the SQL gorm renders in dry-run mode so tests
// can assert on query shape without a database.
type statementLog struct {
	sql  []string
	vars [][]interface{}
}

func (l *statementLog) record(tx *gorm.DB) {
	l.sql = append(l.sql, tx.Statement.SQL.String())
	l.vars = append(l.vars, tx.Statement.Vars)
}

func (l *statementLog) last(t *testing.T) (string, []interface{}) {
	t.Helper()
	require.NotEmpty(t, l.sql)
	return l.sql[len(l.sql)-1], l.vars[len(l.vars)-1]
}

func dryRunDB(t *testing.T) (*gorm.DB, *statementLog) {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)

	log := &statementLog{}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("capture_query", log.record))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("capture_update", log.record))
	return db, log
}

func TestGetByUUIDFiltersTenantProfileAndStatus(t *testing.T) {
	db, log := dryRunDB(t)
	repo := NewConversationRepository(db)

	tenantID, profileID, conversationID := uuid.New(), uuid.New(), uuid.New()
	_, err := repo.GetByUUID(context.Background(), ForTenant(tenantID), profileID, conversationID)
	require.NoError(t, err)

	sql, vars := log.last(t)
	assert.Contains(t, sql, "uuid = ?")
	assert.Contains(t, sql, "empresa_id = ?")
	assert.Contains(t, sql, "perfil_id = ?")
	assert.Contains(t, sql, "status = ?")
	assert.Contains(t, vars, tenantID)
	assert.Contains(t, vars, profileID)
	assert.Contains(t, vars, conversationID)
	assert.Contains(t, vars, models.ConversationStatusActive)
}

func TestListExcludesDeletedConversations(t *testing.T) {
	db, log := dryRunDB(t)
	repo := NewConversationRepository(db)

	_, err := repo.List(context.Background(), ForTenant(uuid.New()), uuid.New())
	require.NoError(t, err)

	sql, vars := log.last(t)
	assert.Contains(t, sql, "status = ?")
	assert.Contains(t, vars, models.ConversationStatusActive)
	assert.Contains(t, sql, "ORDER BY updated_at DESC")
}

func TestSoftDeleteMarksInactiveWithoutRemovingRow(t *testing.T) {
	db, log := dryRunDB(t)
	repo := NewConversationRepository(db)

	// No row is affected in dry-run mode, so the not-found error is
	// expected; only the rendered statement matters here.
	_ = repo.SoftDelete(context.Background(), ForTenant(uuid.New()), uuid.New(), uuid.New())

	sql, vars := log.last(t)
	assert.Contains(t, sql, "UPDATE")
	assert.NotContains(t, sql, "DELETE")
	assert.Contains(t, sql, "uuid = ?")
	assert.Contains(t, vars, models.ConversationStatusInactive)
	// Only active conversations are eligible for deletion.
	assert.Contains(t, vars, models.ConversationStatusActive)
}

func TestAppendMessagesWritesFullLogScoped(t *testing.T) {
	db, log := dryRunDB(t)
	repo := NewConversationRepository(db)

	messages := models.MessageLog{
		models.NewMessage(models.MessageRoleUser, "Oi"),
		models.NewMessage(models.MessageRoleAssistant, "Olá!"),
	}
	_ = repo.AppendMessages(context.Background(), ForTenant(uuid.New()), uuid.New(), uuid.New(), messages)

	sql, vars := log.last(t)
	assert.Contains(t, sql, "UPDATE")
	assert.Contains(t, sql, "mensagens")
	assert.Contains(t, sql, "uuid = ?")
	assert.Contains(t, sql, "perfil_id = ?")
	assert.Contains(t, sql, "empresa_id = ?")
	assert.Contains(t, vars, models.ConversationStatusActive)
}
