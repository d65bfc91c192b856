package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"promptforge/internal/archive"
	apperrors "promptforge/internal/errors"
	"promptforge/internal/models"
)

// ProjectArchive is a ready-to-send download.
type ProjectArchive struct {
	Filename string
	Data     []byte
	Files    int
}

type ArchiveService interface {
	// BuildProjectArchive zips the latest complete generation of a project owned by userID.
	BuildProjectArchive(ctx context.Context, projectID, userID uuid.UUID) (*ProjectArchive, error)
	// ProjectFiles returns the file set an archive would contain.
	ProjectFiles(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, []models.FileRecord, error)
}

type archiveService struct {
	projects    ProjectService
	generations GenerationService
}

func NewArchiveService(projects ProjectService, generations GenerationService) ArchiveService {
	return &archiveService{projects: projects, generations: generations}
}

func (s *archiveService) ProjectFiles(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, []models.FileRecord, error) {
	project, _, files, err := s.latest(ctx, projectID, userID)
	return project, files, err
}

func (s *archiveService) latest(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, *models.Generation, []models.FileRecord, error) {
	project, err := s.projects.Get(ctx, projectID, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	gen, files, err := s.generations.LatestComplete(ctx, projectID)
	if err != nil {
		return nil, nil, nil, err
	}
	return project, gen, files, nil
}

func (s *archiveService) BuildProjectArchive(ctx context.Context, projectID, userID uuid.UUID) (*ProjectArchive, error) {
	project, gen, files, err := s.latest(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.NewNothingToArchive()
	}
	// entries carry the generation's finish time so repeated downloads are byte-identical
	var modified time.Time
	if gen != nil && gen.GenerationEndTime != nil {
		modified = *gen.GenerationEndTime
	} else if gen != nil {
		modified = gen.CreatedAt
	}
	data, err := archive.BuildZip(files, modified)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return &ProjectArchive{
		Filename: archive.Filename(project.Name),
		Data:     data,
		Files:    len(files),
	}, nil
}
