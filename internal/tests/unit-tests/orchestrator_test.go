package unit_tests

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptforge/internal/config"
	"promptforge/internal/database"
	apperrors "promptforge/internal/errors"
	"promptforge/internal/events"
	"promptforge/internal/llm/client"
	"promptforge/internal/models"
	"promptforge/internal/parser"
	"promptforge/internal/services"
)

type fakeProvider struct {
	text  string
	err   error
	block bool
	req   client.CompletionRequest
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, req client.CompletionRequest) (*client.Completion, error) {
	p.req = req
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	tokens := 1234
	return &client.Completion{Text: p.text, TotalTokens: &tokens}, nil
}

// stepClock returns a clock that advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := fixedNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(step)
		return cur
	}
}

type pipeline struct {
	svc     *services.Services
	orch    *services.Orchestrator
	project *models.Project
	userID  uuid.UUID
}

func newPipeline(t *testing.T, provider *fakeProvider, step time.Duration) *pipeline {
	t.Helper()
	db, err := database.Init(database.Config{Driver: database.DriverSQLite, Path: filepath.Join(t.TempDir(), "orch.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{DefaultModel: client.ProviderOpenRouter, ProviderKeys: map[string]string{"openrouter": "k"}}
	factory := func(ctx context.Context, pc client.ProviderConfig) (client.Provider, error) {
		assert.Equal(t, "k", pc.APIKey)
		return provider, nil
	}
	svc := services.NewServices(db, services.Options{Config: cfg, Factory: factory})
	ctx := context.Background()
	require.NoError(t, svc.Models.Startup(ctx))

	user, err := svc.Users.Ensure(ctx, "bob")
	require.NoError(t, err)
	project, err := svc.Projects.Create(ctx, user.ID, "Todo", "")
	require.NoError(t, err)

	orch := services.NewOrchestrator(services.OrchestratorDeps{
		Generations: svc.Generations,
		Projects:    svc.Projects,
		Models:      svc.Models,
		Credentials: svc.Credentials,
		NewProvider: factory,
		Now:         stepClock(step),
	})
	return &pipeline{svc: svc, orch: orch, project: project, userID: user.ID}
}

func (p *pipeline) request(prompt string) services.GenerationRequest {
	return services.GenerationRequest{ProjectID: p.project.ID, UserID: p.userID, Prompt: prompt}
}

func TestOrchestrator_HappyPath(t *testing.T) {
	provider := &fakeProvider{text: `<file path="src/App.tsx" type="typescript">X</file><file path="src/index.css" type="css">Y</file>`}
	p := newPipeline(t, provider, 500*time.Millisecond)
	rec := &events.Recorder{}
	ctx := context.Background()

	summary, err := p.orch.Run(ctx, p.request("todo app"), rec)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.EventThinking, events.EventGenerating,
		events.EventFile, events.EventFile, events.EventFile, events.EventFile, events.EventFile,
		events.EventComplete,
	}, rec.Types())
	require.NoError(t, events.ValidateSequence(rec.Events()))
	evts := rec.Events()
	assert.Equal(t, "src/App.tsx", evts[2].File.Path)
	assert.Equal(t, "src/index.css", evts[3].File.Path)
	for _, e := range evts {
		assert.Equal(t, summary.GenerationID.String(), e.GenerationID)
	}

	assert.Equal(t, client.SystemPrompt(), provider.req.SystemPrompt)
	assert.Equal(t, "minimax/minimax-m2", provider.req.ModelHint)
	assert.Equal(t, parser.StrategyTagged, summary.Strategy)
	assert.Equal(t, models.GenerationComplete, summary.Status)
	assert.Len(t, summary.Files, 5)

	gen, err := p.svc.Generations.Get(ctx, summary.GenerationID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationComplete, gen.Status)
	require.NotNil(t, gen.ThinkingDuration)
	assert.Equal(t, int64(500), *gen.ThinkingDuration)
	require.NotNil(t, gen.TotalTokens)
	assert.Equal(t, 1234, *gen.TotalTokens)
	assert.NotNil(t, gen.GenerationEndTime)
	assert.Nil(t, gen.ErrorMessage)
	require.NotNil(t, gen.Model)
	assert.Equal(t, "openrouter|minimax/minimax-m2", *gen.Model)

	files, err := p.svc.Generations.LatestProjectFiles(ctx, p.project.ID)
	require.NoError(t, err)
	assert.Len(t, files, 5)
}

func TestOrchestrator_ThinkingLongerOnlyAboveThreshold(t *testing.T) {
	text := `<file path="src/App.tsx" type="typescript">X</file>`

	slow := newPipeline(t, &fakeProvider{text: text}, 3001*time.Millisecond)
	rec := &events.Recorder{}
	_, err := slow.orch.Run(context.Background(), slow.request("x"), rec)
	require.NoError(t, err)
	types := rec.Types()
	require.GreaterOrEqual(t, len(types), 3)
	assert.Equal(t, []events.EventType{events.EventThinking, events.EventThinkingLonger, events.EventGenerating}, types[:3])
	assert.Equal(t, int64(3001), *rec.Events()[1].ThinkingDuration)

	exact := newPipeline(t, &fakeProvider{text: text}, 3000*time.Millisecond)
	rec = &events.Recorder{}
	_, err = exact.orch.Run(context.Background(), exact.request("x"), rec)
	require.NoError(t, err)
	assert.NotContains(t, rec.Types(), events.EventThinkingLonger)
}

func TestOrchestrator_ProviderFailureLeavesNoFiles(t *testing.T) {
	provider := &fakeProvider{err: &client.ProviderError{Provider: "openrouter", Status: 401, Reason: "bad key"}}
	p := newPipeline(t, provider, time.Second)
	rec := &events.Recorder{}
	ctx := context.Background()

	summary, err := p.orch.Run(ctx, p.request("x"), rec)
	require.Error(t, err)
	assert.True(t, client.IsProviderError(err))

	assert.Equal(t, []events.EventType{events.EventThinking, events.EventError}, rec.Types())
	require.NoError(t, events.ValidateSequence(rec.Events()))
	assert.Contains(t, rec.Events()[1].Message, "bad key")

	gen, err := p.svc.Generations.Get(ctx, summary.GenerationID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationFailed, gen.Status)
	require.NotNil(t, gen.ErrorMessage)
	assert.NotEmpty(t, *gen.ErrorMessage)
	assert.NotNil(t, gen.GenerationEndTime)

	files, err := p.svc.Generations.Files(ctx, gen.ID)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestOrchestrator_NoExtractableFilesCompletesEmpty(t *testing.T) {
	p := newPipeline(t, &fakeProvider{text: "I cannot help with that."}, time.Second)
	rec := &events.Recorder{}

	summary, err := p.orch.Run(context.Background(), p.request("x"), rec)
	require.NoError(t, err)
	assert.Equal(t, []events.EventType{events.EventThinking, events.EventGenerating, events.EventComplete}, rec.Types())
	assert.Equal(t, 0, *rec.Events()[2].TotalFiles)
	assert.Equal(t, parser.StrategyNone, summary.Strategy)
	assert.Equal(t, models.GenerationComplete, summary.Status)
}

func TestOrchestrator_DuplicatePathsCollapse(t *testing.T) {
	text := `<file path="src/App.tsx" type="typescript">old</file>
<file path="package.json" type="json">{}</file>
<file path="src/App.tsx" type="typescript">new</file>`
	p := newPipeline(t, &fakeProvider{text: text}, time.Second)

	summary, err := p.orch.Run(context.Background(), p.request("x"), &events.Recorder{})
	require.NoError(t, err)
	require.Len(t, summary.Files, 4)
	assert.Equal(t, "src/App.tsx", summary.Files[0].Path)
	assert.Equal(t, "new", summary.Files[0].Content)
}

func TestOrchestrator_ClientDisconnectFailsGeneration(t *testing.T) {
	p := newPipeline(t, &fakeProvider{block: true}, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	rec := &events.Recorder{}

	prepared, err := p.orch.Prepare(ctx, p.request("x"))
	require.NoError(t, err)
	cancel()

	summary, err := p.orch.Execute(ctx, prepared, rec)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Generation cancelled: client disconnected", summary.ErrorMessage)

	gen, err := p.svc.Generations.Get(context.Background(), prepared.Generation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationFailed, gen.Status)
}

func TestOrchestrator_PrepareErrorsCreateNothing(t *testing.T) {
	p := newPipeline(t, &fakeProvider{}, time.Second)
	ctx := context.Background()

	_, err := p.orch.Run(ctx, services.GenerationRequest{ProjectID: p.project.ID, UserID: p.userID}, &events.Recorder{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRequest))

	_, err = p.orch.Run(ctx, services.GenerationRequest{ProjectID: p.project.ID, UserID: uuid.New(), Prompt: "x"}, &events.Recorder{})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	req := p.request("x")
	req.Model = "unknown-model"
	_, err = p.orch.Run(ctx, req, &events.Recorder{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRequest))

	gens, err := p.svc.Generations.ListByProject(ctx, p.project.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, gens)
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "Generation failed", services.FailureMessage(nil))
	assert.Equal(t, "Generation timed out waiting for the model", services.FailureMessage(context.DeadlineExceeded))
	assert.Equal(t, "Project not found", services.FailureMessage(apperrors.NewNotFound("Project")))
	assert.Equal(t, "plain", services.FailureMessage(errors.New("plain")))
	assert.Equal(t, "openrouter API error (500): x", services.FailureMessage(&client.ProviderError{Provider: "openrouter", Status: 500, Reason: "x"}))
}
