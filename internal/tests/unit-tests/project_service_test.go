package unit_tests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "promptforge/internal/errors"
	"promptforge/internal/models"
	"promptforge/internal/services"
	"promptforge/internal/tests/mocks"
)

func TestProjectService_Create_Validation(t *testing.T) {
	svc := services.NewProjectService(&mocks.ProjectRepositoryMock{})
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), "  ", "")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRequest))

	_, err = svc.Create(ctx, uuid.Nil, "Todo", "")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestProjectService_Create_TrimsFields(t *testing.T) {
	var stored *models.Project
	repo := &mocks.ProjectRepositoryMock{
		CreateFunc: func(ctx context.Context, p *models.Project) error {
			stored = p
			return nil
		},
	}
	owner := uuid.New()

	p, err := services.NewProjectService(repo).Create(context.Background(), owner, " Todo ", " list app ")
	require.NoError(t, err)
	assert.Same(t, stored, p)
	assert.Equal(t, "Todo", p.Name)
	assert.Equal(t, "list app", p.Description)
	assert.Equal(t, owner, p.UserID)
}

func TestProjectService_Get_ScopedToOwner(t *testing.T) {
	owner := uuid.New()
	projectID := uuid.New()
	repo := &mocks.ProjectRepositoryMock{
		GetOwnedFunc: func(ctx context.Context, id, userID uuid.UUID) (*models.Project, error) {
			if id == projectID && userID == owner {
				return &models.Project{ID: id, UserID: owner, Name: "Todo"}, nil
			}
			return nil, nil
		},
	}
	svc := services.NewProjectService(repo)

	p, err := svc.Get(context.Background(), projectID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Todo", p.Name)

	_, err = svc.Get(context.Background(), projectID, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, 404, apperrors.StatusOf(err))
}

func ownedProjectRepo(owner, projectID uuid.UUID) *mocks.ProjectRepositoryMock {
	return &mocks.ProjectRepositoryMock{
		GetOwnedFunc: func(ctx context.Context, id, userID uuid.UUID) (*models.Project, error) {
			if id == projectID && userID == owner {
				return &models.Project{ID: id, UserID: owner, Name: "Todo", Status: models.ProjectActive}, nil
			}
			return nil, nil
		},
	}
}

func TestProjectService_Update(t *testing.T) {
	owner, projectID := uuid.New(), uuid.New()
	repo := ownedProjectRepo(owner, projectID)
	var applied map[string]interface{}
	repo.UpdateFunc = func(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Project, error) {
		applied = updates
		return &models.Project{ID: id, UserID: owner, Name: "Todo v2", Status: models.ProjectArchived}, nil
	}
	svc := services.NewProjectService(repo)
	ctx := context.Background()

	name := " Todo v2 "
	archived := models.ProjectArchived
	p, err := svc.Update(ctx, projectID, owner, services.ProjectPatch{Name: &name, Status: &archived})
	require.NoError(t, err)
	assert.Equal(t, "Todo v2", p.Name)
	assert.Equal(t, map[string]interface{}{"name": "Todo v2", "status": models.ProjectArchived}, applied)

	applied = nil
	p, err = svc.Update(ctx, projectID, owner, services.ProjectPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Todo", p.Name)
	assert.Nil(t, applied)
}

func TestProjectService_Update_Rejections(t *testing.T) {
	owner, projectID := uuid.New(), uuid.New()
	svc := services.NewProjectService(ownedProjectRepo(owner, projectID))
	ctx := context.Background()

	blank := "  "
	_, err := svc.Update(ctx, projectID, owner, services.ProjectPatch{Name: &blank})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRequest))

	bogus := models.ProjectStatus("deleted")
	_, err = svc.Update(ctx, projectID, owner, services.ProjectPatch{Status: &bogus})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRequest))

	name := "mine now"
	_, err = svc.Update(ctx, projectID, uuid.New(), services.ProjectPatch{Name: &name})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestProjectService_Delete_ChecksOwnership(t *testing.T) {
	owner, projectID := uuid.New(), uuid.New()
	repo := ownedProjectRepo(owner, projectID)
	var deleted []uuid.UUID
	repo.DeleteFunc = func(ctx context.Context, id uuid.UUID) error {
		deleted = append(deleted, id)
		return nil
	}
	svc := services.NewProjectService(repo)

	err := svc.Delete(context.Background(), projectID, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Empty(t, deleted)

	require.NoError(t, svc.Delete(context.Background(), projectID, owner))
	assert.Equal(t, []uuid.UUID{projectID}, deleted)
}
