package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"promptforge/internal/assets"
	apperrors "promptforge/internal/errors"
	"promptforge/internal/llm/client"
	"promptforge/internal/models"
	"promptforge/internal/repositories"
)

type ModelConfigService interface {
	Startup(ctx context.Context) error
	ListModelGroups() ([]models.LLMModelGroup, error)
	SetModelEnabled(ctx context.Context, modelKey string, enabled bool) (*models.LLMModel, error)
	GetModel(modelKey string) (*models.LLMModel, error)
	// Resolve maps a caller's model hint to a concrete, enabled catalog entry.
	Resolve(hint string) (*models.LLMModel, error)
}

type modelConfigService struct {
	repo        repositories.ModelSettingRepository
	defaultHint string
	catalogData []byte

	mu            sync.RWMutex
	providerOrder []string
	providerNames map[string]string
	models        map[string]*catalogModel
	settings      map[string]bool
}

type catalogModel struct {
	Key         string
	ProviderID  string
	Provider    string
	DisplayName string
	APIName     string
	Default     bool
}

type rawModelFile struct {
	Providers []rawProvider `json:"providers"`
}

type rawProvider struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Models      []rawModel `json:"models"`
}

type rawModel struct {
	DisplayName string `json:"displayName"`
	APIName     string `json:"apiName"`
	Default     bool   `json:"default,omitempty"`
}

// NewModelConfigService loads the embedded catalog; defaultHint is used when a request names no model.
func NewModelConfigService(repo repositories.ModelSettingRepository, defaultHint string) ModelConfigService {
	return NewModelConfigServiceFromCatalog(repo, defaultHint, assets.ModelsData)
}

func NewModelConfigServiceFromCatalog(repo repositories.ModelSettingRepository, defaultHint string, catalog []byte) ModelConfigService {
	if strings.TrimSpace(defaultHint) == "" {
		defaultHint = client.ProviderOpenRouter
	}
	return &modelConfigService{
		repo:          repo,
		defaultHint:   strings.TrimSpace(defaultHint),
		catalogData:   catalog,
		models:        make(map[string]*catalogModel),
		settings:      make(map[string]bool),
		providerNames: make(map[string]string),
	}
}

func (s *modelConfigService) Startup(ctx context.Context) error {
	var parsed rawModelFile
	if err := json.Unmarshal(s.catalogData, &parsed); err != nil {
		return fmt.Errorf("parse models asset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.providerOrder = make([]string, 0, len(parsed.Providers))
	for _, provider := range parsed.Providers {
		providerID := strings.TrimSpace(provider.ID)
		if providerID == "" {
			continue
		}
		providerName := strings.TrimSpace(provider.DisplayName)
		s.providerNames[providerID] = providerName
		s.providerOrder = append(s.providerOrder, providerID)
		for _, mdl := range provider.Models {
			key := computeModelKey(providerID, mdl.APIName)
			s.models[key] = &catalogModel{
				Key:         key,
				ProviderID:  providerID,
				Provider:    providerName,
				DisplayName: strings.TrimSpace(mdl.DisplayName),
				APIName:     strings.TrimSpace(mdl.APIName),
				Default:     mdl.Default,
			}
		}
	}

	// Load existing settings and seed defaults
	existing, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load model settings: %w", err)
	}
	for _, setting := range existing {
		s.settings[setting.ModelKey] = setting.Enabled
	}
	for key, def := range s.models {
		if _, ok := s.settings[key]; !ok {
			if _, err := s.repo.Upsert(ctx, key, def.ProviderID, true); err != nil {
				return fmt.Errorf("seed model setting for %s: %w", key, err)
			}
			s.settings[key] = true
		}
	}

	return nil
}

func (s *modelConfigService) ListModelGroups() ([]models.LLMModelGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.LLMModelGroup, 0, len(s.providerOrder))
	for _, providerID := range s.providerOrder {
		group := models.LLMModelGroup{
			ProviderID:   providerID,
			ProviderName: s.providerName(providerID),
			Models:       s.providerModels(providerID),
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *modelConfigService) SetModelEnabled(ctx context.Context, modelKey string, enabled bool) (*models.LLMModel, error) {
	modelKey = strings.TrimSpace(modelKey)
	if modelKey == "" {
		return nil, apperrors.NewInvalidRequest("model key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, ok := s.models[modelKey]
	if !ok {
		return nil, apperrors.NewNotFound("Model")
	}

	if _, err := s.repo.Upsert(ctx, modelKey, catalog.ProviderID, enabled); err != nil {
		return nil, err
	}
	s.settings[modelKey] = enabled
	model := s.toLLMModel(catalog)
	return &model, nil
}

func (s *modelConfigService) GetModel(modelKey string) (*models.LLMModel, error) {
	modelKey = strings.TrimSpace(modelKey)
	if modelKey == "" {
		return nil, apperrors.NewInvalidRequest("model key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	catalog, ok := s.models[modelKey]
	if !ok {
		return nil, apperrors.NewNotFound("Model")
	}
	model := s.toLLMModel(catalog)
	return &model, nil
}

// Resolve accepts, in order: a catalog key, a provider id (its default model),
// an API name from the catalog, or an OpenRouter "vendor/model" slug.
func (s *modelConfigService) Resolve(hint string) (*models.LLMModel, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		hint = s.defaultHint
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.LLMModel
	if mdl, ok := s.models[hint]; ok {
		m := s.toLLMModel(mdl)
		found = &m
	} else if _, ok := s.providerNames[hint]; ok {
		found = s.providerDefault(hint)
	} else if m := s.byAPIName(hint); m != nil {
		found = m
	} else if strings.Contains(hint, "/") {
		found = &models.LLMModel{
			Key:          computeModelKey(client.ProviderOpenRouter, hint),
			DisplayName:  hint,
			APIName:      hint,
			ProviderID:   client.ProviderOpenRouter,
			ProviderName: s.providerName(client.ProviderOpenRouter),
			Enabled:      true,
		}
	}

	if found == nil {
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("unknown model %q", hint))
	}
	if !found.Enabled {
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("model %q is disabled", found.Key))
	}
	return found, nil
}

func (s *modelConfigService) providerDefault(providerID string) *models.LLMModel {
	candidates := s.providerModels(providerID)
	var first *models.LLMModel
	for i := range candidates {
		if !candidates[i].Enabled {
			continue
		}
		if candidates[i].Default {
			return &candidates[i]
		}
		if first == nil {
			first = &candidates[i]
		}
	}
	if first == nil && len(candidates) > 0 {
		// every model is disabled; report the default so the caller sees why
		return &candidates[0]
	}
	return first
}

func (s *modelConfigService) byAPIName(apiName string) *models.LLMModel {
	for _, providerID := range s.providerOrder {
		for _, m := range s.providerModels(providerID) {
			if m.APIName == apiName {
				return &m
			}
		}
	}
	return nil
}

// providerModels returns a provider's models, default first, then by display name.
func (s *modelConfigService) providerModels(providerID string) []models.LLMModel {
	var out []models.LLMModel
	for _, mdl := range s.models {
		if mdl.ProviderID == providerID {
			out = append(out, s.toLLMModel(mdl))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Default != out[j].Default {
			return out[i].Default
		}
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})
	return out
}

func (s *modelConfigService) providerName(providerID string) string {
	if name, ok := s.providerNames[providerID]; ok && strings.TrimSpace(name) != "" {
		return name
	}
	return providerID
}

func (s *modelConfigService) toLLMModel(mdl *catalogModel) models.LLMModel {
	return models.LLMModel{
		Key:          mdl.Key,
		DisplayName:  mdl.DisplayName,
		APIName:      mdl.APIName,
		ProviderID:   mdl.ProviderID,
		ProviderName: mdl.Provider,
		Default:      mdl.Default,
		Enabled:      s.settings[mdl.Key],
	}
}

func computeModelKey(providerID, apiName string) string {
	return strings.TrimSpace(providerID) + "|" + strings.TrimSpace(apiName)
}
