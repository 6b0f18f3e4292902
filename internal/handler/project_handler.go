package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planboard/internal/model"
	"planboard/internal/repository"
	"planboard/internal/service"
)

type ProjectHandler struct {
	projectRepo *repository.ProjectRepository
	memberRepo  *repository.MemberRepository
	rollup      *service.RollupEngine
}

func NewProjectHandler(projectRepo *repository.ProjectRepository, memberRepo *repository.MemberRepository, rollup *service.RollupEngine) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		memberRepo:  memberRepo,
		rollup:      rollup,
	}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ProjectResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	OwnerID      string `json:"owner_id"`
	BudgetRollup string `json:"budget_rollup"`
	CreatedAt    string `json:"created_at"`
}

func projectResponse(p *model.Project) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Description:  p.Description,
		OwnerID:      p.OwnerID.String(),
		BudgetRollup: p.BudgetRollup.StringFixed(2),
		CreatedAt:    p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Create creates a project together with its level-0 root task
// @Summary      Create a project
// @Tags         Projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body CreateProjectRequest true "Project data"
// @Success      201 {object} ProjectResponse
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project := &model.Project{
		ID:           uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		OwnerID:      ownerID,
		BudgetRollup: decimal.Zero,
	}
	root := &model.Task{
		ID:      uuid.New(),
		Level:   0,
		WBSCode: "1",
		Name:    req.Name,
	}

	if err := h.projectRepo.CreateWithRoot(c.Request.Context(), project, root); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, projectResponse(project))
}

// GetAll lists the authenticated user's own projects
// @Summary      List projects
// @Tags         Projects
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} ProjectResponse
// @Router       /projects [get]
func (h *ProjectHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.projectRepo.GetByOwner(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	responses := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, projectResponse(&projects[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetByID returns a single project
// @Summary      Get a project
// @Tags         Projects
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} ProjectResponse
// @Failure      404 {object} map[string]string
// @Router       /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), projectID, userID, model.RoleViewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this project"})
		return
	}

	c.JSON(http.StatusOK, projectResponse(project))
}

// Update changes a project's name or description
// @Summary      Update a project
// @Tags         Projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body UpdateProjectRequest true "Fields to update"
// @Success      200 {object} ProjectResponse
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), projectID, userID, model.RoleEditor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to update this project"})
		return
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}

	if err := h.projectRepo.Update(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, projectResponse(project))
}

// Delete removes a project and its entire schedule
// @Summary      Delete a project
// @Tags         Projects
// @Security     BearerAuth
// @Param        id path string true "Project ID"
// @Success      204
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	// Only the owner may delete a project.
	if project.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can delete a project"})
		return
	}

	if err := h.projectRepo.Delete(c.Request.Context(), projectID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Recalculate repairs every roll-up total of the project in one pass
// @Summary      Recalculate project totals
// @Tags         Projects
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} ProjectResponse
// @Router       /projects/{id}/recalculate [post]
func (h *ProjectHandler) Recalculate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), projectID, userID, model.RoleEditor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to recalculate this project"})
		return
	}

	if err := h.rollup.RecalculateProject(c.Request.Context(), projectID); err != nil {
		respondServiceError(c, err)
		return
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil || project == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	c.JSON(http.StatusOK, projectResponse(project))
}
