package main

import (
	"context"
	"fmt"

	"github.com/99designs/keyring"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"promptforge/internal/config"
	"promptforge/internal/database"
	"promptforge/internal/events"
	"promptforge/internal/logging"
	"promptforge/internal/services"
)

// App owns the process-wide resources shared by every command.
type App struct {
	cfg    *config.Config
	logger *zerolog.Logger
	db     *gorm.DB
	redis  *redis.Client
	svc    *services.Services

	dbClose func() error
}

// NewApp creates a new App for cfg
func NewApp(cfg *config.Config) *App {
	return &App{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, cfg.GinMode != gin.ReleaseMode),
	}
}

// startup opens the database, the optional keyring and redis connections,
// and wires the services.
func (a *App) startup(ctx context.Context) error {
	gin.SetMode(a.cfg.GinMode)

	db, err := database.Init(database.Config{
		Driver:   a.cfg.DBDriver,
		Path:     a.cfg.DBPath,
		DSN:      a.cfg.DatabaseURL,
		LogLevel: logger.Warn,
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	if sqlDB, err := db.DB(); err == nil {
		a.dbClose = sqlDB.Close
	}

	var ring keyring.Keyring
	if a.cfg.KeyringEnabled {
		ring, err = services.OpenKeyring()
		if err != nil {
			a.logger.Warn().Err(err).Msg("keyring unavailable, using environment credentials only")
			ring = nil
		}
	}

	var publisher events.Publisher
	if a.cfg.RedisURL != "" {
		rdb, err := events.ConnectRedis(ctx, a.cfg.RedisURL)
		if err != nil {
			a.logger.Warn().Err(err).Msg("redis unavailable, live follow disabled")
		} else {
			a.redis = rdb
			publisher = rdb
		}
	}

	a.svc = services.NewServices(db, services.Options{
		Config:    a.cfg,
		Keyring:   ring,
		Publisher: publisher,
		Logger:    a.logger,
	})
	if err := a.svc.Models.Startup(ctx); err != nil {
		return fmt.Errorf("load model catalog: %w", err)
	}
	return nil
}

// subscriber returns the redis client as an event subscriber, or nil.
func (a *App) subscriber() events.Subscriber {
	if a.redis == nil {
		return nil
	}
	return a.redis
}

// shutdown releases what startup opened.
func (a *App) shutdown() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close redis")
		}
		a.redis = nil
	}
	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			a.logger.Error().Err(err).Msg("failed to close database")
		} else {
			a.logger.Debug().Msg("database closed")
		}
		a.dbClose = nil
	}
}
