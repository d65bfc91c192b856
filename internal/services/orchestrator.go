package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "promptforge/internal/errors"
	"promptforge/internal/events"
	"promptforge/internal/llm/client"
	"promptforge/internal/models"
	"promptforge/internal/parser"
)

// GenerationRequest is one prompt submission.
type GenerationRequest struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Prompt    string
	Model     string
}

// PreparedGeneration is a validated request with its provider and pending record.
type PreparedGeneration struct {
	Request    GenerationRequest
	Generation *models.Generation
	Model      models.LLMModel
	Provider   client.Provider
}

// GenerationSummary is the structured outcome of one run.
type GenerationSummary struct {
	GenerationID     uuid.UUID
	Status           models.GenerationStatus
	Files            []models.FileRecord
	Strategy         parser.Strategy
	ThinkingDuration time.Duration
	TotalTokens      *int
	ErrorMessage     string
}

// OrchestratorDeps wires the orchestrator. Publisher may be nil.
type OrchestratorDeps struct {
	Generations GenerationService
	Projects    ProjectService
	Models      ModelConfigService
	Credentials CredentialService
	NewProvider client.Factory
	Provider    client.ProviderConfig
	Publisher   events.Publisher
	Logger      *zerolog.Logger
	Now         func() time.Time
}

// Orchestrator drives one generation from prompt to persisted files.
type Orchestrator struct {
	generations GenerationService
	projects    ProjectService
	models      ModelConfigService
	credentials CredentialService
	newProvider client.Factory
	base        client.ProviderConfig
	publisher   events.Publisher
	logger      *zerolog.Logger
	now         func() time.Time
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		generations: deps.Generations,
		projects:    deps.Projects,
		models:      deps.Models,
		credentials: deps.Credentials,
		newProvider: deps.NewProvider,
		base:        deps.Provider,
		publisher:   deps.Publisher,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if o.newProvider == nil {
		o.newProvider = client.NewProvider
	}
	if o.logger == nil {
		nop := zerolog.Nop()
		o.logger = &nop
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Run prepares and executes a generation. Errors before the first event are
// returned without emitting anything.
func (o *Orchestrator) Run(ctx context.Context, req GenerationRequest, sink events.Sink) (*GenerationSummary, error) {
	prepared, err := o.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.Execute(ctx, prepared, sink)
}

// Prepare validates the request, resolves model and credentials, and creates the pending record.
func (o *Orchestrator) Prepare(ctx context.Context, req GenerationRequest) (*PreparedGeneration, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.ProjectID == uuid.Nil || req.Prompt == "" {
		return nil, apperrors.NewInvalidRequest("Project ID and prompt are required")
	}
	if _, err := o.projects.Get(ctx, req.ProjectID, req.UserID); err != nil {
		return nil, err
	}

	mdl, err := o.models.Resolve(req.Model)
	if err != nil {
		return nil, err
	}
	key, err := o.credentials.APIKey(mdl.ProviderID)
	if err != nil {
		return nil, err
	}

	cfg := o.base
	cfg.Provider = mdl.ProviderID
	cfg.APIName = mdl.APIName
	cfg.APIKey = key
	if mdl.ProviderID != client.ProviderMiniMax {
		cfg.BaseURL = ""
	}
	provider, err := o.newProvider(ctx, cfg)
	if err != nil {
		return nil, apperrors.NewConfiguration(err.Error())
	}

	gen, err := o.generations.Create(ctx, req.ProjectID, req.UserID, req.Prompt, mdl.Key)
	if err != nil {
		return nil, err
	}
	return &PreparedGeneration{Request: req, Generation: gen, Model: *mdl, Provider: provider}, nil
}

// Execute streams lifecycle events to sink while moving the generation to a terminal state.
// The returned error is non-nil exactly when the generation ended in failed.
func (o *Orchestrator) Execute(ctx context.Context, p *PreparedGeneration, sink events.Sink) (*GenerationSummary, error) {
	gen := p.Generation
	log := o.logger.With().
		Str("generation_id", gen.ID.String()).
		Str("project_id", gen.ProjectID.String()).
		Str("provider", p.Model.ProviderID).
		Str("model", p.Model.APIName).
		Logger()

	// Status writes must land even after the client goes away.
	persistCtx := context.WithoutCancel(ctx)
	stream := events.NewGuard(o.fanout(&log, sink, gen.ProjectID))
	emit := func(evt events.Event) {
		evt.GenerationID = gen.ID.String()
		if err := stream.Emit(ctx, evt); err != nil {
			log.Debug().Err(err).Str("event", string(evt.Type)).Msg("event not delivered")
		}
	}
	summary := &GenerationSummary{GenerationID: gen.ID}

	o.advance(persistCtx, &log, gen, models.GenerationThinking, GenerationPatch{})
	emit(events.Thinking())

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if o.base.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, o.base.Timeout)
	}
	start := o.now()
	completion, err := p.Provider.Complete(callCtx, client.CompletionRequest{
		Prompt:       p.Request.Prompt,
		SystemPrompt: client.SystemPrompt(),
		ModelHint:    p.Model.APIName,
	})
	thinking := o.now().Sub(start)
	cancel()
	summary.ThinkingDuration = thinking
	if err != nil {
		return o.fail(persistCtx, &log, gen, summary, emit, err)
	}
	summary.TotalTokens = completion.TotalTokens

	o.advance(persistCtx, &log, gen, models.GenerationGenerating, GenerationPatch{
		ThinkingDuration: &thinking,
		TotalTokens:      completion.TotalTokens,
	})
	if events.ShouldEmitThinkingLonger(thinking) {
		emit(events.ThinkingLonger(thinking))
	}
	emit(events.Generating())

	result, files, err := extractFiles(completion.Text)
	if err != nil {
		return o.fail(persistCtx, &log, gen, summary, emit, err)
	}
	summary.Strategy = result.Strategy
	log.Info().Str("strategy", string(result.Strategy)).Int("files", len(files)).Dur("thinking", thinking).Msg("files extracted")

	for _, f := range files {
		emit(events.FileExtracted(f))
	}

	if err := ctx.Err(); err != nil {
		return o.fail(persistCtx, &log, gen, summary, emit, err)
	}
	if err := o.generations.Complete(persistCtx, gen, files); err != nil {
		return o.fail(persistCtx, &log, gen, summary, emit, err)
	}
	emit(events.Complete(len(files), thinking))

	if o.projects != nil {
		if err := o.projects.Touch(persistCtx, gen.ProjectID); err != nil {
			log.Warn().Err(err).Msg("touch project")
		}
	}

	summary.Status = models.GenerationComplete
	summary.Files = files
	log.Info().Int("total_files", len(files)).Msg("generation complete")
	return summary, nil
}

// extractFiles parses the completion, backfills essentials when anything was
// extracted and collapses repeated paths. A parser panic becomes an error.
func extractFiles(text string) (result parser.Result, files []models.FileRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract files: %v", r)
		}
	}()
	result = parser.Parse(text)
	files = result.Files
	if len(files) > 0 {
		files = parser.EnsureEssentialFiles(files)
	}
	return result, parser.CollapseDuplicates(files), nil
}

// advance records a non-terminal transition. A failed write is logged and the
// in-memory state still moves forward so the run can finish.
func (o *Orchestrator) advance(ctx context.Context, log *zerolog.Logger, gen *models.Generation, next models.GenerationStatus, patch GenerationPatch) {
	if err := o.generations.Transition(ctx, gen, next, patch); err != nil {
		log.Warn().Err(err).Str("status", string(next)).Msg("persist generation status")
		if gen.Status.CanTransitionTo(next) {
			gen.Status = next
		}
	}
}

func (o *Orchestrator) fail(ctx context.Context, log *zerolog.Logger, gen *models.Generation, summary *GenerationSummary, emit func(events.Event), cause error) (*GenerationSummary, error) {
	msg := FailureMessage(cause)
	log.Error().Err(cause).Msg("generation failed")
	if err := o.generations.Fail(ctx, gen, msg); err != nil {
		log.Error().Err(err).Msg("persist failed status")
	}
	emit(events.Failed(msg))

	summary.Status = models.GenerationFailed
	summary.ErrorMessage = msg
	return summary, cause
}

func (o *Orchestrator) fanout(log *zerolog.Logger, primary events.Sink, projectID uuid.UUID) events.Sink {
	observers := []events.Sink{events.LogSink{Logger: log}}
	if o.publisher != nil {
		observers = append(observers, events.NewRedisPublisher(o.publisher, projectID.String()))
	}
	return events.NewFanout(log, primary, observers...)
}

// FailureMessage renders a pipeline error as the text of an error event.
func FailureMessage(err error) string {
	switch {
	case err == nil:
		return "Generation failed"
	case errors.Is(err, context.Canceled):
		return "Generation cancelled: client disconnected"
	case errors.Is(err, context.DeadlineExceeded):
		return "Generation timed out waiting for the model"
	case client.IsProviderError(err):
		return err.Error()
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
