package mocks

import (
	"context"

	"github.com/google/uuid"

	"promptforge/internal/models"
)

type ProjectRepositoryMock struct {
	CreateFunc     func(ctx context.Context, p *models.Project) error
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetOwnedFunc   func(ctx context.Context, id, userID uuid.UUID) (*models.Project, error)
	ListByUserFunc func(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	TouchFunc      func(ctx context.Context, id uuid.UUID) error
	UpdateFunc     func(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Project, error)
	DeleteFunc     func(ctx context.Context, id uuid.UUID) error
}

func (m *ProjectRepositoryMock) Create(ctx context.Context, p *models.Project) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *ProjectRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *ProjectRepositoryMock) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Project, error) {
	if m.GetOwnedFunc != nil {
		return m.GetOwnedFunc(ctx, id, userID)
	}
	return nil, nil
}

func (m *ProjectRepositoryMock) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []models.Project{}, nil
}

func (m *ProjectRepositoryMock) Touch(ctx context.Context, id uuid.UUID) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, id)
	}
	return nil
}

func (m *ProjectRepositoryMock) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Project, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, updates)
	}
	return &models.Project{ID: id}, nil
}

func (m *ProjectRepositoryMock) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
