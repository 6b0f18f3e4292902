package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"planboard/internal/model"
	"planboard/internal/repository"
	"planboard/internal/service"
)

type DependencyHandler struct {
	depRepo    *repository.DependencyRepository
	taskRepo   *repository.TaskRepository
	memberRepo *repository.MemberRepository
	checker    *service.DependencyChecker
}

func NewDependencyHandler(depRepo *repository.DependencyRepository, taskRepo *repository.TaskRepository, memberRepo *repository.MemberRepository, checker *service.DependencyChecker) *DependencyHandler {
	return &DependencyHandler{
		depRepo:    depRepo,
		taskRepo:   taskRepo,
		memberRepo: memberRepo,
		checker:    checker,
	}
}

type DependencyRequest struct {
	PredecessorID string `json:"predecessor_id" binding:"required,uuid"`
	SuccessorID   string `json:"successor_id" binding:"required,uuid"`
	Type          string `json:"type"`
	Lag           int    `json:"lag"`
}

type DependencyUpdateRequest struct {
	Type string `json:"type" binding:"required"`
	Lag  int    `json:"lag"`
}

type DependencyResponse struct {
	ID            string `json:"id"`
	ProjectID     string `json:"project_id"`
	PredecessorID string `json:"predecessor_id"`
	SuccessorID   string `json:"successor_id"`
	Type          string `json:"type"`
	Lag           int    `json:"lag"`
}

func dependencyResponse(d *model.TaskDependency) DependencyResponse {
	return DependencyResponse{
		ID:            d.ID.String(),
		ProjectID:     d.ProjectID.String(),
		PredecessorID: d.PredecessorID.String(),
		SuccessorID:   d.SuccessorID.String(),
		Type:          d.Type,
		Lag:           d.Lag,
	}
}

func (h *DependencyHandler) checkAccess(c *gin.Context, projectID, userID uuid.UUID, role string) bool {
	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), projectID, userID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return false
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this project"})
		return false
	}
	return true
}

// Create adds a precedence edge after the full validation chain passes
// @Summary      Create a dependency
// @Tags         Dependencies
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body DependencyRequest true "Dependency data"
// @Success      201 {object} DependencyResponse
// @Failure      409 {object} map[string]string
// @Failure      422 {object} map[string]string
// @Router       /projects/{id}/dependencies [post]
func (h *DependencyHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}
	if !h.checkAccess(c, projectID, userID, model.RoleEditor) {
		return
	}

	var req DependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Type == "" {
		req.Type = model.DepFinishToStart
	}

	predecessorID, err := uuid.Parse(req.PredecessorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid predecessor ID format"})
		return
	}
	successorID, err := uuid.Parse(req.SuccessorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid successor ID format"})
		return
	}

	if err := h.checker.ValidateNewEdge(c.Request.Context(), projectID, predecessorID, successorID, req.Type, req.Lag); err != nil {
		respondServiceError(c, err)
		return
	}

	dep := &model.TaskDependency{
		ID:            uuid.New(),
		ProjectID:     projectID,
		PredecessorID: predecessorID,
		SuccessorID:   successorID,
		Type:          req.Type,
		Lag:           req.Lag,
	}
	if err := h.depRepo.Create(c.Request.Context(), dep); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create dependency"})
		return
	}

	c.JSON(http.StatusCreated, dependencyResponse(dep))
}

// GetByProject lists all precedence edges of a project
// @Summary      List dependencies
// @Tags         Dependencies
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {array} DependencyResponse
// @Router       /projects/{id}/dependencies [get]
func (h *DependencyHandler) GetByProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}
	if !h.checkAccess(c, projectID, userID, model.RoleViewer) {
		return
	}

	deps, err := h.depRepo.GetByProject(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dependencies"})
		return
	}

	responses := make([]DependencyResponse, 0, len(deps))
	for i := range deps {
		responses = append(responses, dependencyResponse(&deps[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetByTask lists the edges incident to a task, in either direction
// @Summary      List task dependencies
// @Tags         Dependencies
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {array} DependencyResponse
// @Router       /tasks/{id}/dependencies [get]
func (h *DependencyHandler) GetByTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	task, err := h.taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if err == repository.ErrTaskNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}
	if !h.checkAccess(c, task.ProjectID, userID, model.RoleViewer) {
		return
	}

	deps, err := h.depRepo.GetByTask(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dependencies"})
		return
	}

	responses := make([]DependencyResponse, 0, len(deps))
	for i := range deps {
		responses = append(responses, dependencyResponse(&deps[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// Update changes the type or lag of an edge; endpoints are immutable
// @Summary      Update a dependency
// @Tags         Dependencies
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Dependency ID"
// @Param        request body DependencyUpdateRequest true "Fields to update"
// @Success      200 {object} DependencyResponse
// @Router       /dependencies/{id} [put]
func (h *DependencyHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	depID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dependency ID format"})
		return
	}

	dep, err := h.depRepo.GetByID(c.Request.Context(), depID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dependency"})
		return
	}
	if dep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dependency not found"})
		return
	}
	if !h.checkAccess(c, dep.ProjectID, userID, model.RoleEditor) {
		return
	}

	var req DependencyUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !model.ValidDependencyType(req.Type) {
		respondServiceError(c, service.Errorf(service.KindValidation, "unknown dependency type %q", req.Type))
		return
	}
	if req.Lag < -service.MaxLag || req.Lag > service.MaxLag {
		respondServiceError(c, service.Errorf(service.KindValidation, "lag %d outside allowed range [%d, %d]", req.Lag, -service.MaxLag, service.MaxLag))
		return
	}

	if err := h.depRepo.UpdateAttrs(c.Request.Context(), depID, req.Type, req.Lag); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update dependency"})
		return
	}

	dep.Type = req.Type
	dep.Lag = req.Lag
	c.JSON(http.StatusOK, dependencyResponse(dep))
}

// Delete removes a precedence edge
// @Summary      Delete a dependency
// @Tags         Dependencies
// @Security     BearerAuth
// @Param        id path string true "Dependency ID"
// @Success      204
// @Router       /dependencies/{id} [delete]
func (h *DependencyHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	depID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dependency ID format"})
		return
	}

	dep, err := h.depRepo.GetByID(c.Request.Context(), depID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dependency"})
		return
	}
	if dep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dependency not found"})
		return
	}
	if !h.checkAccess(c, dep.ProjectID, userID, model.RoleEditor) {
		return
	}

	if err := h.depRepo.Delete(c.Request.Context(), depID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete dependency"})
		return
	}
	c.Status(http.StatusNoContent)
}
