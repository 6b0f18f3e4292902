package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"planboard/internal/model"
	"planboard/internal/repository"
)

type MemberHandler struct {
	projectRepo *repository.ProjectRepository
	userRepo    *repository.UserRepository
	memberRepo  *repository.MemberRepository
}

func NewMemberHandler(projectRepo *repository.ProjectRepository, userRepo *repository.UserRepository, memberRepo *repository.MemberRepository) *MemberHandler {
	return &MemberHandler{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		memberRepo:  memberRepo,
	}
}

type ShareRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Role   string `json:"role" binding:"required,oneof=viewer editor"`
}

type MemberResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// loadOwnedProject fetches the project and verifies the caller owns it.
func (h *MemberHandler) loadOwnedProject(c *gin.Context, userID uuid.UUID) (*model.Project, bool) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return nil, false
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return nil, false
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return nil, false
	}
	if project.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can manage project members"})
		return nil, false
	}
	return project, true
}

// Share grants a user access to a project
// @Summary      Share a project
// @Tags         Members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body ShareRequest true "User and role"
// @Success      200 {object} map[string]string
// @Router       /projects/{id}/members [post]
func (h *MemberHandler) Share(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project, ok := h.loadOwnedProject(c, userID)
	if !ok {
		return
	}

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}
	if targetID == project.OwnerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The owner already has full access"})
		return
	}

	target, err := h.userRepo.GetByID(c.Request.Context(), targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.memberRepo.Share(c.Request.Context(), project.ID, targetID, req.Role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to share project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project shared"})
}

// Remove revokes a user's access to a project
// @Summary      Remove a project member
// @Tags         Members
// @Security     BearerAuth
// @Param        id path string true "Project ID"
// @Param        user_id path string true "User ID"
// @Success      204
// @Router       /projects/{id}/members/{user_id} [delete]
func (h *MemberHandler) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project, ok := h.loadOwnedProject(c, userID)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if err := h.memberRepo.Remove(c.Request.Context(), project.ID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMembers lists the users a project is shared with
// @Summary      List project members
// @Tags         Members
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {array} MemberResponse
// @Router       /projects/{id}/members [get]
func (h *MemberHandler) GetMembers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
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

	members, err := h.memberRepo.GetProjectMembers(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	responses := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		responses = append(responses, MemberResponse{
			UserID: m.UserID.String(),
			Email:  m.User.Email,
			Name:   m.User.Name,
			Role:   m.Role,
		})
	}
	c.JSON(http.StatusOK, responses)
}

// GetSharedProjects lists projects shared with the authenticated user
// @Summary      List shared projects
// @Tags         Members
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} ProjectResponse
// @Router       /shared-projects [get]
func (h *MemberHandler) GetSharedProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.memberRepo.GetSharedProjects(c.Request.Context(), userID)
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
