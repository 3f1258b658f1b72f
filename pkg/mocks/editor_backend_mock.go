package mocks

import (
	"context"

	"github.com/dukex/flowdraft/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockGraphBackend is a mock implementation of editor.Backend.
type MockGraphBackend struct {
	mock.Mock
}

func (m *MockGraphBackend) LoadGraph(ctx context.Context, workflowID string) (*models.Graph, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	// Hand out copies so sessions never share the fixture.
	return args.Get(0).(*models.Graph).Clone(), args.Error(1)
}

func (m *MockGraphBackend) SaveGraph(ctx context.Context, workflowID string, graph *models.Graph) (map[models.ID]models.ID, error) {
	args := m.Called(ctx, workflowID, graph)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[models.ID]models.ID), args.Error(1)
}
