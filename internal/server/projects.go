package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"promptforge/internal/events"
	"promptforge/internal/models"
	"promptforge/internal/services"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateProjectRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status"`
}

func (s *Server) CreateProject(c *gin.Context) {
	userID, _ := currentUser(c)
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	project, err := s.svc.Projects.Create(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (s *Server) ListProjects(c *gin.Context) {
	userID, _ := currentUser(c)
	projects, err := s.svc.Projects.List(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) GetProject(c *gin.Context) {
	userID, _ := currentUser(c)
	id, err := pathUUID(c, "id", "Project")
	if err != nil {
		s.respondError(c, err)
		return
	}
	project, err := s.svc.Projects.Get(c.Request.Context(), id, userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// ProjectFiles returns the file set of the project's latest complete generation.
func (s *Server) ProjectFiles(c *gin.Context) {
	userID, _ := currentUser(c)
	id, err := pathUUID(c, "id", "Project")
	if err != nil {
		s.respondError(c, err)
		return
	}
	_, files, err := s.svc.Archives.ProjectFiles(c.Request.Context(), id, userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (s *Server) ProjectGenerations(c *gin.Context) {
	userID, _ := currentUser(c)
	id, err := pathUUID(c, "id", "Project")
	if err != nil {
		s.respondError(c, err)
		return
	}
	if _, err := s.svc.Projects.Get(c.Request.Context(), id, userID); err != nil {
		s.respondError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	gens, err := s.svc.Generations.ListByProject(c.Request.Context(), id, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if gens == nil {
		gens = []models.Generation{}
	}
	c.JSON(http.StatusOK, gens)
}

func (s *Server) UpdateProject(c *gin.Context) {
	userID, _ := currentUser(c)
	id, err := pathUUID(c, "id", "Project")
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	project, err := s.svc.Projects.Update(c.Request.Context(), id, userID, services.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) DeleteProject(c *gin.Context) {
	userID, _ := currentUser(c)
	id, err := pathUUID(c, "id", "Project")
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.svc.Projects.Delete(c.Request.Context(), id, userID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DownloadProject sends the latest complete file set as a zip attachment.
func (s *Server) DownloadProject(c *gin.Context) {
	userID, _ := currentUser(c)
	id, err := pathUUID(c, "id", "Project")
	if err != nil {
		s.respondError(c, err)
		return
	}
	bundle, err := s.svc.Archives.BuildProjectArchive(c.Request.Context(), id, userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, bundle.Filename))
	c.Data(http.StatusOK, "application/zip", bundle.Data)
}

// FollowProject streams the events of a generation running for the project,
// possibly in another process, until it terminates.
func (s *Server) FollowProject(c *gin.Context) {
	if s.subscriber == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Live updates require REDIS_URL"})
		return
	}
	userID, _ := currentUser(c)
	id, err := pathUUID(c, "id", "Project")
	if err != nil {
		s.respondError(c, err)
		return
	}
	if _, err := s.svc.Projects.Get(c.Request.Context(), id, userID); err != nil {
		s.respondError(c, err)
		return
	}

	sink := events.NewSSEWriter(c.Writer)
	if err := events.Follow(c.Request.Context(), s.subscriber, id.String(), sink); err != nil {
		s.logger.Debug().Err(err).Str("project_id", id.String()).Msg("follow ended")
	}
}
