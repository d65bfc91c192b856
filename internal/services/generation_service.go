package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "promptforge/internal/errors"
	"promptforge/internal/models"
	"promptforge/internal/repositories"
)

// GenerationPatch carries the optional fields recorded alongside a transition.
// ThinkingDuration and TotalTokens are write-once.
type GenerationPatch struct {
	ThinkingDuration *time.Duration
	TotalTokens      *int
	ErrorMessage     string
}

type GenerationService interface {
	Create(ctx context.Context, projectID, userID uuid.UUID, prompt, model string) (*models.Generation, error)
	Transition(ctx context.Context, gen *models.Generation, next models.GenerationStatus, patch GenerationPatch) error
	Complete(ctx context.Context, gen *models.Generation, files []models.FileRecord) error
	Fail(ctx context.Context, gen *models.Generation, message string) error
	Get(ctx context.Context, id uuid.UUID) (*models.Generation, error)
	Files(ctx context.Context, generationID uuid.UUID) ([]models.FileRecord, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]models.Generation, error)
	LatestProjectFiles(ctx context.Context, projectID uuid.UUID) ([]models.FileRecord, error)
	// LatestComplete returns the newest complete generation and its files; gen is nil when there is none.
	LatestComplete(ctx context.Context, projectID uuid.UUID) (*models.Generation, []models.FileRecord, error)
	Stats(ctx context.Context, userID uuid.UUID) (*models.GenerationStats, error)
}

type generationService struct {
	repo repositories.GenerationRepository
	now  func() time.Time
}

func NewGenerationService(repo repositories.GenerationRepository) GenerationService {
	return &generationService{repo: repo, now: time.Now}
}

// NewGenerationServiceWithClock is NewGenerationService with an injectable clock.
func NewGenerationServiceWithClock(repo repositories.GenerationRepository, now func() time.Time) GenerationService {
	return &generationService{repo: repo, now: now}
}

func (s *generationService) Create(ctx context.Context, projectID, userID uuid.UUID, prompt, model string) (*models.Generation, error) {
	prompt = strings.TrimSpace(prompt)
	if projectID == uuid.Nil {
		return nil, fmt.Errorf("projectID is required")
	}
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	start := s.now()
	gen := &models.Generation{
		ProjectID:           projectID,
		UserID:              userID,
		Prompt:              prompt,
		Status:              models.GenerationPending,
		GenerationStartTime: &start,
	}
	if model = strings.TrimSpace(model); model != "" {
		gen.Model = &model
	}
	if err := s.repo.Create(ctx, gen); err != nil {
		return nil, apperrors.NewPersistence("create generation", err)
	}
	return gen, nil
}

func (s *generationService) Transition(ctx context.Context, gen *models.Generation, next models.GenerationStatus, patch GenerationPatch) error {
	updates, err := s.buildUpdates(gen, next, patch)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateByID(ctx, gen.ID, updates); err != nil {
		return s.persistenceError(gen, next, err)
	}
	applyUpdates(gen, updates)
	return nil
}

// Complete stores the files and the complete status in one write.
func (s *generationService) Complete(ctx context.Context, gen *models.Generation, files []models.FileRecord) error {
	updates, err := s.buildUpdates(gen, models.GenerationComplete, GenerationPatch{})
	if err != nil {
		return err
	}
	rows := make([]models.GeneratedFile, 0, len(files))
	for _, f := range files {
		rows = append(rows, models.NewGeneratedFile(gen.ID, f))
	}
	if err := s.repo.CompleteWithFiles(ctx, gen.ID, rows, updates); err != nil {
		return s.persistenceError(gen, models.GenerationComplete, err)
	}
	applyUpdates(gen, updates)
	return nil
}

func (s *generationService) Fail(ctx context.Context, gen *models.Generation, message string) error {
	if strings.TrimSpace(message) == "" {
		message = "Generation failed"
	}
	return s.Transition(ctx, gen, models.GenerationFailed, GenerationPatch{ErrorMessage: message})
}

func (s *generationService) buildUpdates(gen *models.Generation, next models.GenerationStatus, patch GenerationPatch) (map[string]interface{}, error) {
	if gen == nil {
		return nil, fmt.Errorf("generation is required")
	}
	if !gen.Status.CanTransitionTo(next) {
		return nil, apperrors.NewInvalidTransition(string(gen.Status), string(next))
	}
	updates := map[string]interface{}{"status": next}
	if patch.ThinkingDuration != nil && gen.ThinkingDuration == nil {
		updates["thinking_duration"] = patch.ThinkingDuration.Milliseconds()
	}
	if patch.TotalTokens != nil && gen.TotalTokens == nil {
		updates["total_tokens"] = *patch.TotalTokens
	}
	if next == models.GenerationFailed {
		updates["error_message"] = patch.ErrorMessage
	}
	if next.IsTerminal() {
		updates["generation_end_time"] = s.now()
	}
	return updates, nil
}

func (s *generationService) persistenceError(gen *models.Generation, next models.GenerationStatus, err error) error {
	if errors.Is(err, repositories.ErrGenerationClosed) {
		return apperrors.NewInvalidTransition(string(gen.Status), string(next))
	}
	return apperrors.NewPersistence("update generation "+gen.ID.String(), err)
}

// applyUpdates mirrors a persisted update onto the in-memory record.
func applyUpdates(gen *models.Generation, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "status":
			gen.Status = v.(models.GenerationStatus)
		case "thinking_duration":
			ms := v.(int64)
			gen.ThinkingDuration = &ms
		case "total_tokens":
			n := v.(int)
			gen.TotalTokens = &n
		case "error_message":
			msg := v.(string)
			gen.ErrorMessage = &msg
		case "generation_end_time":
			t := v.(time.Time)
			gen.GenerationEndTime = &t
		}
	}
}

func (s *generationService) Get(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	gen, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, apperrors.NewNotFound("Generation")
	}
	return gen, nil
}

func (s *generationService) Files(ctx context.Context, generationID uuid.UUID) ([]models.FileRecord, error) {
	rows, err := s.repo.FilesByGeneration(ctx, generationID)
	if err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

func (s *generationService) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]models.Generation, error) {
	return s.repo.ListByProject(ctx, projectID, limit)
}

// LatestProjectFiles returns the files of the newest complete generation, ordered by path.
// A project whose attempts all failed yields an empty list.
func (s *generationService) LatestProjectFiles(ctx context.Context, projectID uuid.UUID) ([]models.FileRecord, error) {
	_, files, err := s.LatestComplete(ctx, projectID)
	return files, err
}

func (s *generationService) LatestComplete(ctx context.Context, projectID uuid.UUID) (*models.Generation, []models.FileRecord, error) {
	gen, err := s.repo.LatestComplete(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if gen == nil {
		return nil, []models.FileRecord{}, nil
	}
	files, err := s.Files(ctx, gen.ID)
	if err != nil {
		return nil, nil, err
	}
	return gen, files, nil
}

func (s *generationService) Stats(ctx context.Context, userID uuid.UUID) (*models.GenerationStats, error) {
	return s.repo.StatsByUser(ctx, userID)
}

func toRecords(rows []models.GeneratedFile) []models.FileRecord {
	out := make([]models.FileRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}
