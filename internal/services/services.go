package services

import (
	"github.com/99designs/keyring"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"promptforge/internal/config"
	"promptforge/internal/events"
	"promptforge/internal/llm/client"
	"promptforge/internal/repositories"
)

// Services aggregates all domain services backed by the database.
type Services struct {
	Users        UserService
	Projects     ProjectService
	Generations  GenerationService
	Models       ModelConfigService
	Credentials  CredentialService
	Archives     ArchiveService
	Orchestrator *Orchestrator
}

// Options carries the non-database collaborators. Keyring and Publisher may be nil.
type Options struct {
	Config    *config.Config
	Keyring   keyring.Keyring
	Publisher events.Publisher
	Factory   client.Factory
	Logger    *zerolog.Logger
}

// NewServices constructs the service container using repositories backed by db.
func NewServices(db *gorm.DB, opts Options) *Services {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	users := NewUserService(repositories.NewUserRepository(db))
	projects := NewProjectService(repositories.NewProjectRepository(db))
	generations := NewGenerationService(repositories.NewGenerationRepository(db))
	modelConfigs := NewModelConfigService(repositories.NewModelSettingRepository(db), cfg.DefaultModel)
	credentials := NewCredentialService(cfg.ProviderKeys, opts.Keyring)

	orchestrator := NewOrchestrator(OrchestratorDeps{
		Generations: generations,
		Projects:    projects,
		Models:      modelConfigs,
		Credentials: credentials,
		NewProvider: opts.Factory,
		Provider: client.ProviderConfig{
			BaseURL:  cfg.MinimaxBaseURL,
			AppURL:   cfg.AppURL,
			AppTitle: "promptforge",
			Timeout:  cfg.ProviderTimeout,
		},
		Publisher: opts.Publisher,
		Logger:    opts.Logger,
	})

	return &Services{
		Users:        users,
		Projects:     projects,
		Generations:  generations,
		Models:       modelConfigs,
		Credentials:  credentials,
		Archives:     NewArchiveService(projects, generations),
		Orchestrator: orchestrator,
	}
}
