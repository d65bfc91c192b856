package mocks

import (
	"context"

	"github.com/google/uuid"

	"promptforge/internal/models"
)

type GenerationRepositoryMock struct {
	CreateFunc            func(ctx context.Context, g *models.Generation) error
	GetByIDFunc           func(ctx context.Context, id uuid.UUID) (*models.Generation, error)
	UpdateByIDFunc        func(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	CompleteWithFilesFunc func(ctx context.Context, id uuid.UUID, files []models.GeneratedFile, updates map[string]interface{}) error
	ListByProjectFunc     func(ctx context.Context, projectID uuid.UUID, limit int) ([]models.Generation, error)
	FilesByGenerationFunc func(ctx context.Context, generationID uuid.UUID) ([]models.GeneratedFile, error)
	LatestCompleteFunc    func(ctx context.Context, projectID uuid.UUID) (*models.Generation, error)
	StatsByUserFunc       func(ctx context.Context, userID uuid.UUID) (*models.GenerationStats, error)
}

func (m *GenerationRepositoryMock) Create(ctx context.Context, g *models.Generation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, g)
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (m *GenerationRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *GenerationRepositoryMock) UpdateByID(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if m.UpdateByIDFunc != nil {
		return m.UpdateByIDFunc(ctx, id, updates)
	}
	return nil
}

func (m *GenerationRepositoryMock) CompleteWithFiles(ctx context.Context, id uuid.UUID, files []models.GeneratedFile, updates map[string]interface{}) error {
	if m.CompleteWithFilesFunc != nil {
		return m.CompleteWithFilesFunc(ctx, id, files, updates)
	}
	return nil
}

func (m *GenerationRepositoryMock) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]models.Generation, error) {
	if m.ListByProjectFunc != nil {
		return m.ListByProjectFunc(ctx, projectID, limit)
	}
	return []models.Generation{}, nil
}

func (m *GenerationRepositoryMock) FilesByGeneration(ctx context.Context, generationID uuid.UUID) ([]models.GeneratedFile, error) {
	if m.FilesByGenerationFunc != nil {
		return m.FilesByGenerationFunc(ctx, generationID)
	}
	return []models.GeneratedFile{}, nil
}

func (m *GenerationRepositoryMock) LatestComplete(ctx context.Context, projectID uuid.UUID) (*models.Generation, error) {
	if m.LatestCompleteFunc != nil {
		return m.LatestCompleteFunc(ctx, projectID)
	}
	return nil, nil
}

func (m *GenerationRepositoryMock) StatsByUser(ctx context.Context, userID uuid.UUID) (*models.GenerationStats, error) {
	if m.StatsByUserFunc != nil {
		return m.StatsByUserFunc(ctx, userID)
	}
	return &models.GenerationStats{}, nil
}
