// Package server exposes the generation pipeline over HTTP.
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"promptforge/internal/config"
	apperrors "promptforge/internal/errors"
	"promptforge/internal/events"
	"promptforge/internal/logging"
	"promptforge/internal/services"
)

type Server struct {
	cfg        *config.Config
	svc        *services.Services
	logger     *zerolog.Logger
	subscriber events.Subscriber
	upgrader   websocket.Upgrader
}

// New builds the HTTP layer. subscriber may be nil, which disables the follow endpoint.
func New(cfg *config.Config, svc *services.Services, logger *zerolog.Logger, subscriber events.Subscriber) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		cfg:        cfg,
		svc:        svc,
		logger:     logger,
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWSOrigin(cfg.AllowedOrigins),
		},
	}
}

// Router registers every route on a fresh gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinMiddleware(s.logger))
	r.Use(CORS(s.cfg.AllowedOrigins))
	r.Use(SecurityHeaders())

	r.GET("/api/health", s.Health)

	api := r.Group("/api")
	api.Use(AuthRequired(s.cfg.JWTSecret))
	{
		api.POST("/generate", s.Generate)
		api.POST("/generate-code", s.Generate)

		api.GET("/projects", s.ListProjects)
		api.POST("/projects", s.CreateProject)
		api.GET("/projects/:id", s.GetProject)
		api.PATCH("/projects/:id", s.UpdateProject)
		api.DELETE("/projects/:id", s.DeleteProject)
		api.GET("/projects/:id/files", s.ProjectFiles)
		api.GET("/projects/:id/generations", s.ProjectGenerations)
		api.GET("/projects/:id/download", s.DownloadProject)
		api.GET("/projects/:id/events", s.FollowProject)
		api.GET("/download-project/:id", s.DownloadProject)

		api.GET("/generations/stats", s.GenerationStats)
		api.GET("/generations/:id", s.GetGeneration)

		api.GET("/models", s.ListModels)
		api.PUT("/models/*key", s.SetModelEnabled)
	}

	// Browsers cannot set headers on a WebSocket handshake, so the token rides in the query.
	r.GET("/ws/generate", s.GenerateWebSocket)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError renders err as {"error": msg}. Unclassified failures hide their text.
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperrors.StatusOf(err)
	msg := apperrors.MessageOf(err)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled request error")
		msg = "Internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}

// pathUUID parses a route parameter; malformed ids are reported as a missing resource.
func pathUUID(c *gin.Context, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, apperrors.NewNotFound(resource)
	}
	return id, nil
}
