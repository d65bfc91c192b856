package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"promptforge/internal/models"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Project, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	Touch(ctx context.Context, id uuid.UUID) error
	// Update applies column updates and returns the refreshed row, or nil when id is unknown.
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Project, error)
	// Delete removes the project with its generations and their files.
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, p *models.Project) error {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name is required")
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.take(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetOwned returns the project only when userID owns it.
func (r *projectRepository) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Project, error) {
	return r.take(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

func (r *projectRepository) take(q *gorm.DB) (*models.Project, error) {
	var p models.Project
	if err := q.Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at desc").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Touch bumps updated_at so recently generated projects list first.
func (r *projectRepository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (r *projectRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Project, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, nil
		}
	}
	return r.GetByID(ctx, id)
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		generations := tx.Model(&models.Generation{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("generation_id IN (?)", generations).Delete(&models.GeneratedFile{}).Error; err != nil {
			return fmt.Errorf("delete generation files: %w", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Generation{}).Error; err != nil {
			return fmt.Errorf("delete generations: %w", err)
		}
		return tx.Where("id = ?", id).Delete(&models.Project{}).Error
	})
}
