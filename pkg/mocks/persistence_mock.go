package mocks

import (
	"context"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Flows   *MockFlowRepository
	Schemas *MockSchemaRepository
}

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Flows:   &MockFlowRepository{},
		Schemas: &MockSchemaRepository{},
	}
}

func (m *MockPersistence) FlowRepository() persistence.FlowRepository {
	return m.Flows
}

func (m *MockPersistence) SchemaRepository() persistence.SchemaRepository {
	return m.Schemas
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// MockFlowRepository is a mock implementation of persistence.FlowRepository interface.
type MockFlowRepository struct {
	mock.Mock
}

func (m *MockFlowRepository) Save(ctx context.Context, flow *models.Flow) error {
	args := m.Called(ctx, flow)

	return args.Error(0)
}

func (m *MockFlowRepository) GetByID(ctx context.Context, id string) (*models.Flow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Flow), args.Error(1)
}

func (m *MockFlowRepository) List(ctx context.Context, opts persistence.ListFlowsOptions) (*persistence.FlowListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.FlowListResult), args.Error(1)
}

func (m *MockFlowRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockSchemaRepository is a mock implementation of persistence.SchemaRepository interface.
type MockSchemaRepository struct {
	mock.Mock
}

func (m *MockSchemaRepository) Save(ctx context.Context, ref, text string) error {
	args := m.Called(ctx, ref, text)

	return args.Error(0)
}

func (m *MockSchemaRepository) GetByRef(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)

	return args.String(0), args.Error(1)
}

func (m *MockSchemaRepository) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)

	return args.Error(0)
}
