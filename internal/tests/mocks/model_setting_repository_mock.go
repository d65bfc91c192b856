package mocks

import (
	"context"

	"promptforge/internal/models"
)

type ModelSettingRepositoryMock struct {
	ListFunc     func(ctx context.Context) ([]models.ModelSetting, error)
	GetByKeyFunc func(ctx context.Context, modelKey string) (*models.ModelSetting, error)
	UpsertFunc   func(ctx context.Context, modelKey, provider string, enabled bool) (*models.ModelSetting, error)
}

func (m *ModelSettingRepositoryMock) List(ctx context.Context) ([]models.ModelSetting, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []models.ModelSetting{}, nil
}

func (m *ModelSettingRepositoryMock) GetByKey(ctx context.Context, modelKey string) (*models.ModelSetting, error) {
	if m.GetByKeyFunc != nil {
		return m.GetByKeyFunc(ctx, modelKey)
	}
	return nil, nil
}

func (m *ModelSettingRepositoryMock) Upsert(ctx context.Context, modelKey, provider string, enabled bool) (*models.ModelSetting, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, modelKey, provider, enabled)
	}
	return &models.ModelSetting{ModelKey: modelKey, Provider: provider, Enabled: enabled}, nil
}
