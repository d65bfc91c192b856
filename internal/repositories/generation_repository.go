package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"promptforge/internal/models"
)

// ErrGenerationClosed is returned when an update targets a missing or terminal generation.
var ErrGenerationClosed = errors.New("generation is missing or already terminal")

var terminalStatuses = []string{string(models.GenerationComplete), string(models.GenerationFailed)}

type GenerationRepository interface {
	Create(ctx context.Context, g *models.Generation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Generation, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	CompleteWithFiles(ctx context.Context, id uuid.UUID, files []models.GeneratedFile, updates map[string]interface{}) error
	ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]models.Generation, error)
	FilesByGeneration(ctx context.Context, generationID uuid.UUID) ([]models.GeneratedFile, error)
	LatestComplete(ctx context.Context, projectID uuid.UUID) (*models.Generation, error)
	StatsByUser(ctx context.Context, userID uuid.UUID) (*models.GenerationStats, error)
}

type generationRepository struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepository{db: db}
}

func (r *generationRepository) Create(ctx context.Context, g *models.Generation) error {
	if g == nil {
		return fmt.Errorf("generation is required")
	}
	if g.ProjectID == uuid.Nil {
		return fmt.Errorf("projectID is required")
	}
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *generationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	var g models.Generation
	res := r.db.WithContext(ctx).Where("id = ?", id).Take(&g)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &g, nil
}

// UpdateByID applies updates only while the generation is still live.
func (r *generationRepository) UpdateByID(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return updateLive(r.db.WithContext(ctx), id, updates)
}

// CompleteWithFiles inserts the files and applies the terminal updates in one transaction.
func (r *generationRepository) CompleteWithFiles(ctx context.Context, id uuid.UUID, files []models.GeneratedFile, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(files) > 0 {
			for i := range files {
				files[i].GenerationID = id
			}
			if err := tx.CreateInBatches(files, 100).Error; err != nil {
				return fmt.Errorf("insert generated files: %w", err)
			}
		}
		return updateLive(tx, id, updates)
	})
}

func updateLive(db *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := db.Model(&models.Generation{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGenerationClosed
	}
	return nil
}

func (r *generationRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]models.Generation, error) {
	var gens []models.Generation
	q := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&gens).Error; err != nil {
		return nil, err
	}
	return gens, nil
}

func (r *generationRepository) FilesByGeneration(ctx context.Context, generationID uuid.UUID) ([]models.GeneratedFile, error) {
	var files []models.GeneratedFile
	res := r.db.WithContext(ctx).Where("generation_id = ?", generationID).Order("file_path asc").Find(&files)
	if res.Error != nil {
		return nil, res.Error
	}
	return files, nil
}

// LatestComplete returns the most recently created complete generation of a project, or nil.
func (r *generationRepository) LatestComplete(ctx context.Context, projectID uuid.UUID) (*models.Generation, error) {
	var g models.Generation
	res := r.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", projectID, models.GenerationComplete).
		Order("created_at desc").
		Take(&g)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &g, nil
}

func (r *generationRepository) StatsByUser(ctx context.Context, userID uuid.UUID) (*models.GenerationStats, error) {
	base := r.db.WithContext(ctx).Model(&models.Generation{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var stats models.GenerationStats
	if err := base.Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Where("status = ?", models.GenerationComplete).Count(&stats.Successful).Error; err != nil {
		return nil, err
	}
	if err := base.Where("status = ?", models.GenerationFailed).Count(&stats.Failed).Error; err != nil {
		return nil, err
	}
	var avg sql.NullFloat64
	if err := base.Where("thinking_duration IS NOT NULL").Select("AVG(thinking_duration)").Row().Scan(&avg); err != nil {
		return nil, err
	}
	if avg.Valid {
		stats.AvgThinkingTime = avg.Float64
	}
	return &stats, nil
}
