package mocks

import (
	"context"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/dukex/flowdraft/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockWorkflowRepository is a mock implementation of persistence.WorkflowRepository.
type MockWorkflowRepository struct {
	mock.Mock
}

func (m *MockWorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockWorkflowRepository) SaveGraph(ctx context.Context, workflowID string, graph *models.Graph) (map[models.ID]models.ID, error) {
	args := m.Called(ctx, workflowID, graph)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[models.ID]models.ID), args.Error(1)
}

func (m *MockWorkflowRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockRoleRepository is a mock implementation of persistence.RoleRepository.
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) List(ctx context.Context) ([]models.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Role), args.Error(1)
}

func (m *MockRoleRepository) Save(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)

	return args.Error(0)
}

func (m *MockRoleRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockDocumentRepository is a mock implementation of persistence.DocumentRepository.
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) GetAll(ctx context.Context) ([]*models.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) Create(ctx context.Context, document *models.Document, author string) (*models.VersionSnapshot, error) {
	args := m.Called(ctx, document, author)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.VersionSnapshot), args.Error(1)
}

func (m *MockDocumentRepository) AppendSnapshot(ctx context.Context, documentID string, content *string, author string, restoredFrom *int) (*models.Document, *models.VersionSnapshot, error) {
	args := m.Called(ctx, documentID, content, author, restoredFrom)

	var (
		document *models.Document
		snapshot *models.VersionSnapshot
	)

	if v := args.Get(0); v != nil {
		document = v.(*models.Document)
	}

	if v := args.Get(1); v != nil {
		snapshot = v.(*models.VersionSnapshot)
	}

	return document, snapshot, args.Error(2)
}

func (m *MockDocumentRepository) ListSnapshots(ctx context.Context, documentID string) ([]*models.VersionSnapshot, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.VersionSnapshot), args.Error(1)
}

func (m *MockDocumentRepository) GetSnapshot(ctx context.Context, documentID string, version int) (*models.VersionSnapshot, error) {
	args := m.Called(ctx, documentID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.VersionSnapshot), args.Error(1)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	workflowRepo *MockWorkflowRepository
	roleRepo     *MockRoleRepository
	documentRepo *MockDocumentRepository
}

// NewMockPersistence creates a new MockPersistence with all mock repositories.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		workflowRepo: &MockWorkflowRepository{},
		roleRepo:     &MockRoleRepository{},
		documentRepo: &MockDocumentRepository{},
	}
}

// GetMockWorkflowRepository returns the underlying mock workflow repository for setting up expectations.
func (m *MockPersistence) GetMockWorkflowRepository() *MockWorkflowRepository {
	return m.workflowRepo
}

func (m *MockPersistence) GetMockRoleRepository() *MockRoleRepository {
	return m.roleRepo
}

func (m *MockPersistence) GetMockDocumentRepository() *MockDocumentRepository {
	return m.documentRepo
}

func (m *MockPersistence) WorkflowRepository() persistence.WorkflowRepository {
	return m.workflowRepo
}

func (m *MockPersistence) RoleRepository() persistence.RoleRepository {
	return m.roleRepo
}

func (m *MockPersistence) DocumentRepository() persistence.DocumentRepository {
	return m.documentRepo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
