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

type ResourceHandler struct {
	resourceRepo *repository.ResourceRepository
	taskRepo     *repository.TaskRepository
	memberRepo   *repository.MemberRepository
}

func NewResourceHandler(resourceRepo *repository.ResourceRepository, taskRepo *repository.TaskRepository, memberRepo *repository.MemberRepository) *ResourceHandler {
	return &ResourceHandler{
		resourceRepo: resourceRepo,
		taskRepo:     taskRepo,
		memberRepo:   memberRepo,
	}
}

type ResourceRequest struct {
	Name string `json:"name" binding:"required"`
	Unit string `json:"unit"`
	Rate string `json:"rate"`
}

type ResourceResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Rate      string `json:"rate"`
}

func resourceResponse(r *model.Resource) ResourceResponse {
	return ResourceResponse{
		ID:        r.ID.String(),
		ProjectID: r.ProjectID.String(),
		Name:      r.Name,
		Unit:      r.Unit,
		Rate:      r.Rate.StringFixed(2),
	}
}

func (h *ResourceHandler) checkAccess(c *gin.Context, projectID, userID uuid.UUID, role string) bool {
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

func parseRate(field string) (decimal.Decimal, error) {
	if field == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(field)
	if err != nil {
		return decimal.Zero, service.Errorf(service.KindValidation, "malformed rate %q", field)
	}
	if value.IsNegative() {
		return decimal.Zero, service.Errorf(service.KindValidation, "rate cannot be negative")
	}
	return value, nil
}

// Create adds a resource to a project
// @Summary      Create a resource
// @Tags         Resources
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body ResourceRequest true "Resource data"
// @Success      201 {object} ResourceResponse
// @Router       /projects/{id}/resources [post]
func (h *ResourceHandler) Create(c *gin.Context) {
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

	var req ResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Unit == "" {
		req.Unit = "hour"
	}

	rate, err := parseRate(req.Rate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resource := &model.Resource{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      req.Name,
		Unit:      req.Unit,
		Rate:      rate,
	}
	if err := h.resourceRepo.Create(c.Request.Context(), resource); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create resource"})
		return
	}

	c.JSON(http.StatusCreated, resourceResponse(resource))
}

// GetByProject lists a project's resources
// @Summary      List resources
// @Tags         Resources
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {array} ResourceResponse
// @Router       /projects/{id}/resources [get]
func (h *ResourceHandler) GetByProject(c *gin.Context) {
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

	resources, err := h.resourceRepo.GetByProject(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve resources"})
		return
	}

	responses := make([]ResourceResponse, 0, len(resources))
	for i := range resources {
		responses = append(responses, resourceResponse(&resources[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// Delete removes a resource and its task assignments
// @Summary      Delete a resource
// @Tags         Resources
// @Security     BearerAuth
// @Param        id path string true "Resource ID"
// @Success      204
// @Router       /resources/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resource ID format"})
		return
	}

	resource, err := h.resourceRepo.GetByID(c.Request.Context(), resourceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve resource"})
		return
	}
	if resource == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return
	}
	if !h.checkAccess(c, resource.ProjectID, userID, model.RoleEditor) {
		return
	}

	if err := h.resourceRepo.Delete(c.Request.Context(), resourceID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete resource"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Assign attaches a resource to a task of the same project
// @Summary      Assign a resource to a task
// @Tags         Resources
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Param        resource_id path string true "Resource ID"
// @Success      200 {object} map[string]string
// @Router       /tasks/{id}/resources/{resource_id} [post]
func (h *ResourceHandler) Assign(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}
	resourceID, err := uuid.Parse(c.Param("resource_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resource ID format"})
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
	if !h.checkAccess(c, task.ProjectID, userID, model.RoleEditor) {
		return
	}

	resource, err := h.resourceRepo.GetByID(c.Request.Context(), resourceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve resource"})
		return
	}
	if resource == nil || resource.ProjectID != task.ProjectID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found in project"})
		return
	}

	if err := h.resourceRepo.Assign(c.Request.Context(), taskID, resourceID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign resource"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Resource assigned"})
}

// Unassign detaches a resource from a task
// @Summary      Unassign a resource from a task
// @Tags         Resources
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Param        resource_id path string true "Resource ID"
// @Success      204
// @Router       /tasks/{id}/resources/{resource_id} [delete]
func (h *ResourceHandler) Unassign(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}
	resourceID, err := uuid.Parse(c.Param("resource_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resource ID format"})
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
	if !h.checkAccess(c, task.ProjectID, userID, model.RoleEditor) {
		return
	}

	if err := h.resourceRepo.Unassign(c.Request.Context(), taskID, resourceID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign resource"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTaskResources lists the resources assigned to a task
// @Summary      List task resources
// @Tags         Resources
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {array} ResourceResponse
// @Router       /tasks/{id}/resources [get]
func (h *ResourceHandler) GetTaskResources(c *gin.Context) {
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

	resources, err := h.resourceRepo.GetTaskResources(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve resources"})
		return
	}

	responses := make([]ResourceResponse, 0, len(resources))
	for i := range resources {
		responses = append(responses, resourceResponse(&resources[i]))
	}
	c.JSON(http.StatusOK, responses)
}
