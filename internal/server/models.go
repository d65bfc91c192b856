package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListModels(c *gin.Context) {
	groups, err := s.svc.Models.ListModelGroups()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

type setModelEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetModelEnabled toggles a catalog model. Keys contain slashes, hence the wildcard route.
func (s *Server) SetModelEnabled(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	var req setModelEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	model, err := s.svc.Models.SetModelEnabled(c.Request.Context(), key, *req.Enabled)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}
