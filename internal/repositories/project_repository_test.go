package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptforge/internal/models"
)

func TestProjectRepository_OwnershipScopedLookup(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	p := &models.Project{UserID: owner, Name: "My Cool App!"}
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, models.ProjectActive, p.Status)

	got, err := repo.GetOwned(ctx, p.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "My Cool App!", got.Name)

	stranger, err := repo.GetOwned(ctx, p.ID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, stranger)

	byID, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, byID)

	require.NoError(t, repo.Touch(ctx, p.ID))

	list, err := repo.ListByUser(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProjectRepository_Update(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t))
	ctx := context.Background()
	p := &models.Project{UserID: uuid.New(), Name: "Todo"}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.Update(ctx, p.ID, map[string]interface{}{"name": "Todo v2", "status": models.ProjectArchived})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Todo v2", got.Name)
	assert.Equal(t, models.ProjectArchived, got.Status)

	missing, err := repo.Update(ctx, uuid.New(), map[string]interface{}{"name": "x"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProjectRepository_DeleteRemovesHistory(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepository(db)
	generations := NewGenerationRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	doomed := &models.Project{UserID: owner, Name: "Doomed"}
	kept := &models.Project{UserID: owner, Name: "Kept"}
	require.NoError(t, projects.Create(ctx, doomed))
	require.NoError(t, projects.Create(ctx, kept))

	seed := func(projectID uuid.UUID) *models.Generation {
		g := seedGeneration(t, generations, projectID, owner, models.GenerationGenerating, time.Now())
		files := []models.GeneratedFile{models.NewGeneratedFile(g.ID, models.FileRecord{Path: "src/App.tsx", Content: "x"})}
		require.NoError(t, generations.CompleteWithFiles(ctx, g.ID, files, map[string]interface{}{"status": models.GenerationComplete}))
		return g
	}
	gone := seed(doomed.ID)
	stays := seed(kept.ID)

	require.NoError(t, projects.Delete(ctx, doomed.ID))

	p, err := projects.GetByID(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Nil(t, p)
	g, err := generations.GetByID(ctx, gone.ID)
	require.NoError(t, err)
	assert.Nil(t, g)
	files, err := generations.FilesByGeneration(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = generations.FilesByGeneration(ctx, stays.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestProjectRepository_CreateRequiresName(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t))
	err := repo.Create(context.Background(), &models.Project{UserID: uuid.New(), Name: "  "})
	assert.EqualError(t, err, "project name is required")
}

func TestUserRepository_FindByName(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	u := &models.User{Name: "alice"}
	require.NoError(t, repo.Create(ctx, u))

	found, err := repo.FindByName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.ID, found.ID)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Name)

	missing, err := repo.FindByName(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestModelSettingRepository_UpsertTogglesEnabled(t *testing.T) {
	repo := NewModelSettingRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "openrouter|minimax/minimax-m2", "openrouter", true)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "openrouter|minimax/minimax-m2", "openrouter", false)
	require.NoError(t, err)

	setting, err := repo.GetByKey(ctx, "openrouter|minimax/minimax-m2")
	require.NoError(t, err)
	require.NotNil(t, setting)
	assert.False(t, setting.Enabled)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.Upsert(ctx, "", "openrouter", true)
	assert.EqualError(t, err, "model key is required")
}
