package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "promptforge/internal/errors"
	"promptforge/internal/models"
	"promptforge/internal/repositories"
)

type ProjectService interface {
	Create(ctx context.Context, userID uuid.UUID, name, description string) (*models.Project, error)
	// Get returns the project when userID owns it, NotFound otherwise.
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Project, error)
	// Lookup returns a project regardless of owner.
	Lookup(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	Touch(ctx context.Context, id uuid.UUID) error
	// Update changes the fields set in patch on a project userID owns.
	Update(ctx context.Context, id, userID uuid.UUID, patch ProjectPatch) (*models.Project, error)
	// Delete removes a project userID owns along with its generation history.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// ProjectPatch holds the optional fields of a project update; nil leaves a field unchanged.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
}

type projectService struct {
	repo repositories.ProjectRepository
}

func NewProjectService(repo repositories.ProjectRepository) ProjectService {
	return &projectService{repo: repo}
}

func (s *projectService) Create(ctx context.Context, userID uuid.UUID, name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewInvalidRequest("Project name is required")
	}
	if userID == uuid.Nil {
		return nil, apperrors.NewUnauthorized()
	}
	p := &models.Project{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperrors.NewPersistence("create project", err)
	}
	return p, nil
}

func (s *projectService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Project, error) {
	p, err := s.repo.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NewNotFound("Project")
	}
	return p, nil
}

func (s *projectService) Lookup(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NewNotFound("Project")
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *projectService) Touch(ctx context.Context, id uuid.UUID) error {
	return s.repo.Touch(ctx, id)
}

func (s *projectService) Update(ctx context.Context, id, userID uuid.UUID, patch ProjectPatch) (*models.Project, error) {
	current, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewInvalidRequest("Project name is required")
		}
		updates["name"] = name
	}
	if patch.Description != nil {
		updates["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		switch *patch.Status {
		case models.ProjectActive, models.ProjectArchived:
			updates["status"] = *patch.Status
		default:
			return nil, apperrors.NewInvalidRequest("Project status must be active or archived")
		}
	}
	if len(updates) == 0 {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, apperrors.NewPersistence("update project", err)
	}
	if updated == nil {
		return nil, apperrors.NewNotFound("Project")
	}
	return updated, nil
}

func (s *projectService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.NewPersistence("delete project", err)
	}
	return nil
}
