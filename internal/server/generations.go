package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "promptforge/internal/errors"
)

// GetGeneration returns one generation with its persisted files.
func (s *Server) GetGeneration(c *gin.Context) {
	userID, _ := currentUser(c)
	id, err := pathUUID(c, "id", "Generation")
	if err != nil {
		s.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	gen, err := s.svc.Generations.Get(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if gen.UserID != userID {
		s.respondError(c, apperrors.NewNotFound("Generation"))
		return
	}
	files, err := s.svc.Generations.Files(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generation": gen, "files": files})
}

func (s *Server) GenerationStats(c *gin.Context) {
	userID, _ := currentUser(c)
	stats, err := s.svc.Generations.Stats(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
