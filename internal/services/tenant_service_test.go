package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"controlia/internal/models"
)

// MockTenantStore is a mock implementation of TenantStore
type MockTenantStore struct {
	mock.Mock
}

func (m *MockTenantStore) GetWithPlan(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantStore) List(ctx context.Context, page, pageSize int) ([]models.Tenant, int64, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]models.Tenant), args.Get(1).(int64), args.Error(2)
}

func (m *MockTenantStore) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantStore) Update(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantStore) UpdateStatus(ctx context.Context, tenantID uuid.UUID, status string) error {
	args := m.Called(ctx, tenantID, status)
	return args.Error(0)
}

func (m *MockTenantStore) Delete(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

// MockProfileCounter is a mock implementation of ProfileCounter
type MockProfileCounter struct {
	mock.Mock
}

func (m *MockProfileCounter) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPlanGetter is a mock implementation of PlanGetter
type MockPlanGetter struct {
	mock.Mock
}

func (m *MockPlanGetter) GetByID(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

// MockAuditRecorder is a mock implementation of AuditRecorder
type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Record(ctx context.Context, tenantID, actorID *uuid.UUID, action, entity, entityID string, details map[string]interface{}) {
	m.Called(ctx, tenantID, actorID, action, entity, entityID, details)
}

func newTenantServiceForTest(tenants *MockTenantStore, profiles *MockProfileCounter, plans *MockPlanGetter, audit *MockAuditRecorder) *TenantService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewTenantService(tenants, profiles, plans, audit, nil, logger)
}

func TestDeleteTenantBlockedWhileProfilesRemain(t *testing.T) {
	tenants := new(MockTenantStore)
	profiles := new(MockProfileCounter)
	audit := new(MockAuditRecorder)
	svc := newTenantServiceForTest(tenants, profiles, new(MockPlanGetter), audit)

	tenantID := uuid.New()
	tenants.On("GetWithPlan", mock.Anything, tenantID).Return(&models.Tenant{ID: tenantID, Name: "Acme"}, nil)
	profiles.On("CountByTenant", mock.Anything, tenantID).Return(int64(3), nil)

	err := svc.Delete(context.Background(), uuid.New(), tenantID)

	assert.True(t, IsValidationError(err))
	assert.EqualError(t, err, "Exclua os usuários da empresa antes de removê-la")
	tenants.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteTenantRemovesEmptyCompany(t *testing.T) {
	tenants := new(MockTenantStore)
	profiles := new(MockProfileCounter)
	audit := new(MockAuditRecorder)
	svc := newTenantServiceForTest(tenants, profiles, new(MockPlanGetter), audit)

	tenantID := uuid.New()
	tenants.On("GetWithPlan", mock.Anything, tenantID).Return(&models.Tenant{ID: tenantID, Name: "Acme"}, nil)
	profiles.On("CountByTenant", mock.Anything, tenantID).Return(int64(0), nil)
	tenants.On("Delete", mock.Anything, tenantID).Return(nil)
	audit.On("Record", mock.Anything, mock.Anything, mock.Anything, "empresa.removida", "empresa", tenantID.String(), mock.Anything).Return()

	err := svc.Delete(context.Background(), uuid.New(), tenantID)

	assert.NoError(t, err)
	tenants.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestUpdateTenantRejectsUnknownAPIKey(t *testing.T) {
	tenants := new(MockTenantStore)
	svc := newTenantServiceForTest(tenants, new(MockProfileCounter), new(MockPlanGetter), new(MockAuditRecorder))

	tenantID := uuid.New()
	tenants.On("GetWithPlan", mock.Anything, tenantID).Return(&models.Tenant{ID: tenantID, Name: "Acme"}, nil)

	key := "pk-definitely-not-a-key"
	_, err := svc.Update(context.Background(), uuid.New(), tenantID, TenantUpdateRequest{LLMAPIKey: &key})

	assert.True(t, IsValidationError(err))
	assert.EqualError(t, err, "Chave de API não reconhecida")
	tenants.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateTenantAuditsKeyWithoutLoggingIt(t *testing.T) {
	tenants := new(MockTenantStore)
	audit := new(MockAuditRecorder)
	svc := newTenantServiceForTest(tenants, new(MockProfileCounter), new(MockPlanGetter), audit)

	tenantID := uuid.New()
	tenants.On("GetWithPlan", mock.Anything, tenantID).Return(&models.Tenant{ID: tenantID, Name: "Acme"}, nil)
	tenants.On("Update", mock.Anything, mock.Anything).Return(nil)
	audit.On("Record", mock.Anything, mock.Anything, mock.Anything, "empresa.atualizada", "empresa", tenantID.String(), mock.MatchedBy(func(details map[string]interface{}) bool {
		return details["api_key_llm"] == "atualizada"
	})).Return()

	key := "sk-ant-REDACTED"
	_, err := svc.Update(context.Background(), uuid.New(), tenantID, TenantUpdateRequest{LLMAPIKey: &key})

	assert.NoError(t, err)
	audit.AssertExpectations(t)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	tenants := new(MockTenantStore)
	svc := newTenantServiceForTest(tenants, new(MockProfileCounter), new(MockPlanGetter), new(MockAuditRecorder))

	err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), "congelada")

	assert.True(t, IsValidationError(err))
	tenants.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTenantRequiresName(t *testing.T) {
	tenants := new(MockTenantStore)
	svc := newTenantServiceForTest(tenants, new(MockProfileCounter), new(MockPlanGetter), new(MockAuditRecorder))

	err := svc.Create(context.Background(), uuid.New(), &models.Tenant{Name: "   "})

	assert.True(t, IsValidationError(err))
	tenants.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
