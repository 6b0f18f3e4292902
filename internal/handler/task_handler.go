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

type TaskHandler struct {
	taskRepo   *repository.TaskRepository
	memberRepo *repository.MemberRepository
	hierarchy  *service.HierarchyValidator
	rollup     *service.RollupEngine
}

func NewTaskHandler(
	taskRepo *repository.TaskRepository,
	memberRepo *repository.MemberRepository,
	hierarchy *service.HierarchyValidator,
	rollup *service.RollupEngine,
) *TaskHandler {
	return &TaskHandler{
		taskRepo:   taskRepo,
		memberRepo: memberRepo,
		hierarchy:  hierarchy,
		rollup:     rollup,
	}
}

// TaskRequest creates a new WBS task. Costs are decimal strings to keep
// currency exact end to end.
type TaskRequest struct {
	Name         string  `json:"name" binding:"required"`
	ParentID     string  `json:"parent_id" binding:"required,uuid"`
	WBSCode      string  `json:"wbs_code" binding:"required"`
	Level        *int    `json:"level"`
	CostLabor    *string `json:"cost_labor"`
	CostMaterial *string `json:"cost_material"`
	CostOther    *string `json:"cost_other"`
}

// TaskUpdateRequest carries partial updates; nil fields are unchanged.
type TaskUpdateRequest struct {
	Name         *string `json:"name"`
	WBSCode      *string `json:"wbs_code"`
	ParentID     *string `json:"parent_id"`
	CostLabor    *string `json:"cost_labor"`
	CostMaterial *string `json:"cost_material"`
	CostOther    *string `json:"cost_other"`
}

type TaskResponse struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"project_id"`
	ParentID     *string        `json:"parent_id,omitempty"`
	Level        int            `json:"level"`
	WBSCode      string         `json:"wbs_code"`
	Name         string         `json:"name"`
	CostLabor    string         `json:"cost_labor"`
	CostMaterial string         `json:"cost_material"`
	CostOther    string         `json:"cost_other"`
	TotalCost    string         `json:"total_cost"`
	Children     []TaskResponse `json:"children,omitempty"`
}

func taskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:           t.ID.String(),
		ProjectID:    t.ProjectID.String(),
		Level:        t.Level,
		WBSCode:      t.WBSCode,
		Name:         t.Name,
		CostLabor:    t.CostLabor.StringFixed(2),
		CostMaterial: t.CostMaterial.StringFixed(2),
		CostOther:    t.CostOther.StringFixed(2),
		TotalCost:    t.TotalCost.StringFixed(2),
	}
	if t.ParentID != nil {
		parentID := t.ParentID.String()
		resp.ParentID = &parentID
	}
	return resp
}

// parseCost parses an optional decimal string, rejecting negatives.
func parseCost(field *string) (decimal.Decimal, error) {
	if field == nil || *field == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(*field)
	if err != nil {
		return decimal.Zero, service.Errorf(service.KindValidation, "malformed cost %q", *field)
	}
	if value.IsNegative() {
		return decimal.Zero, service.Errorf(service.KindValidation, "cost cannot be negative")
	}
	return value, nil
}

func (h *TaskHandler) checkAccess(c *gin.Context, projectID, userID uuid.UUID, role string) bool {
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

// Create adds a WBS task under an existing parent
// @Summary      Create a task
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body TaskRequest true "Task data"
// @Success      201 {object} TaskResponse
// @Failure      409 {object} map[string]string
// @Failure      422 {object} map[string]string
// @Router       /projects/{id}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
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

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	parentID, err := uuid.Parse(req.ParentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent ID format"})
		return
	}

	labor, err := parseCost(req.CostLabor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	material, err := parseCost(req.CostMaterial)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	other, err := parseCost(req.CostOther)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	level, err := h.hierarchy.ValidateParent(c.Request.Context(), projectID, &parentID, req.Level)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	task := &model.Task{
		ID:           uuid.New(),
		ProjectID:    projectID,
		ParentID:     &parentID,
		Level:        level,
		WBSCode:      req.WBSCode,
		Name:         req.Name,
		CostLabor:    labor,
		CostMaterial: material,
		CostOther:    other,
	}

	if err := h.taskRepo.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	if err := h.rollup.Recompute(c.Request.Context(), projectID, task.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update roll-up totals"})
		return
	}

	created, err := h.taskRepo.GetByID(c.Request.Context(), task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}
	c.JSON(http.StatusCreated, taskResponse(created))
}

// GetByID returns a task with its immediate children
// @Summary      Get a task
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} TaskResponse
// @Failure      404 {object} map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
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

	children, err := h.taskRepo.GetChildren(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve children"})
		return
	}

	resp := taskResponse(task)
	for i := range children {
		resp.Children = append(resp.Children, taskResponse(&children[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetByProjectID lists all tasks of a project in WBS order
// @Summary      List project tasks
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {array} TaskResponse
// @Router       /projects/{id}/tasks [get]
func (h *TaskHandler) GetByProjectID(c *gin.Context) {
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

	tasks, err := h.taskRepo.GetByProject(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	responses := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, taskResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// Update changes task fields; cost changes and re-parenting both trigger
// roll-up recomputation along the affected ancestor chains
// @Summary      Update a task
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body TaskUpdateRequest true "Fields to update"
// @Success      200 {object} TaskResponse
// @Failure      422 {object} map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
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
	if !h.checkAccess(c, task.ProjectID, userID, model.RoleEditor) {
		return
	}

	var req TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.WBSCode != nil {
		task.WBSCode = *req.WBSCode
	}

	costsChanged := false
	if req.CostLabor != nil {
		if task.CostLabor, err = parseCost(req.CostLabor); err != nil {
			respondServiceError(c, err)
			return
		}
		costsChanged = true
	}
	if req.CostMaterial != nil {
		if task.CostMaterial, err = parseCost(req.CostMaterial); err != nil {
			respondServiceError(c, err)
			return
		}
		costsChanged = true
	}
	if req.CostOther != nil {
		if task.CostOther, err = parseCost(req.CostOther); err != nil {
			respondServiceError(c, err)
			return
		}
		costsChanged = true
	}

	oldParentID := task.ParentID
	reparented := false
	var newParentID uuid.UUID
	var newLevel int

	if req.ParentID != nil {
		newParentID, err = uuid.Parse(*req.ParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent ID format"})
			return
		}
		reparented = oldParentID == nil || *oldParentID != newParentID
	}

	if reparented {
		newLevel, err = h.validateReparent(c, task, newParentID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}

	if err := h.taskRepo.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	if reparented {
		delta := newLevel - task.Level
		if err := h.taskRepo.Reparent(c.Request.Context(), task.ID, newParentID, newLevel, delta); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move task"})
			return
		}
		// The subtree left its old chain; repair both chains.
		if oldParentID != nil {
			if err := h.rollup.Recompute(c.Request.Context(), task.ProjectID, *oldParentID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update roll-up totals"})
				return
			}
		}
	}

	if costsChanged || reparented {
		if err := h.rollup.Recompute(c.Request.Context(), task.ProjectID, task.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update roll-up totals"})
			return
		}
	}

	updated, err := h.taskRepo.GetByID(c.Request.Context(), task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}
	c.JSON(http.StatusOK, taskResponse(updated))
}

// validateReparent runs the hierarchy check for a parent change plus the
// structural checks that only apply to moves: the root stays put, a task
// cannot move under itself or its own subtree, and the shifted subtree
// must stay inside the depth ceiling.
func (h *TaskHandler) validateReparent(c *gin.Context, task *model.Task, newParentID uuid.UUID) (int, error) {
	ctx := c.Request.Context()

	if task.IsRoot() {
		return 0, service.Errorf(service.KindStructural, "the root task cannot be re-parented")
	}
	if newParentID == task.ID {
		return 0, service.Errorf(service.KindValidation, "a task cannot be its own parent")
	}

	newLevel, err := h.hierarchy.ValidateParent(ctx, task.ProjectID, &newParentID, nil)
	if err != nil {
		return 0, err
	}

	descendant, err := h.taskRepo.IsDescendant(ctx, task.ID, newParentID)
	if err != nil {
		return 0, err
	}
	if descendant {
		return 0, service.Errorf(service.KindStructural, "cannot move a task under its own descendant")
	}

	deepest, err := h.taskRepo.MaxSubtreeLevel(ctx, task.ID)
	if err != nil {
		return 0, err
	}
	if deepest+(newLevel-task.Level) > model.MaxLevel {
		return 0, service.Errorf(service.KindStructural, "max WBS depth exceeded: move would push the subtree past level %d", model.MaxLevel)
	}
	return newLevel, nil
}

// Delete removes a childless, non-root task and repairs the totals of
// its former ancestor chain
// @Summary      Delete a task
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      204
// @Failure      422 {object} map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
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
	if !h.checkAccess(c, task.ProjectID, userID, model.RoleEditor) {
		return
	}

	if task.IsRoot() {
		respondServiceError(c, service.Errorf(service.KindStructural, "the root task cannot be deleted"))
		return
	}

	count, err := h.taskRepo.CountChildren(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check children"})
		return
	}
	if count > 0 {
		respondServiceError(c, service.Errorf(service.KindStructural, "cannot delete a task that has children"))
		return
	}

	parentID := task.ParentID
	if err := h.taskRepo.Delete(c.Request.Context(), taskID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	// Recompute starting from the deleted task's former parent.
	if parentID != nil {
		if err := h.rollup.Recompute(c.Request.Context(), task.ProjectID, *parentID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update roll-up totals"})
			return
		}
	}

	c.Status(http.StatusNoContent)
}
