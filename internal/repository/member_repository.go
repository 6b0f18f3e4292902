package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"planboard/internal/model"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Share grants a user access to a project with the given role, updating
// the role if the membership already exists. Runs in a transaction to
// avoid duplicate rows under concurrent calls.
func (r *MemberRepository) Share(ctx context.Context, projectID, userID uuid.UUID, role string) error {
	member := model.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ProjectMember
		err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&existing).Error
		if err == nil {
			existing.Role = role
			return tx.Save(&existing).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&member).Error
	})
}

// Remove revokes a user's access to a project.
func (r *MemberRepository) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectMember{}).Error
}

// GetProjectMembers lists the memberships of a project with their users.
func (r *MemberRepository) GetProjectMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMember, error) {
	var members []model.ProjectMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Find(&members).Error
	return members, err
}

// GetSharedProjects lists the projects a user has been granted access to.
func (r *MemberRepository) GetSharedProjects(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Find(&projects).Error
	return projects, err
}

// CheckAccess reports whether the user may act on the project with at
// least the required role. The owner always has full access.
func (r *MemberRepository) CheckAccess(ctx context.Context, projectID, userID uuid.UUID, requiredRole string) (bool, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", projectID, userID).
		First(&project).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	var member model.ProjectMember
	err = r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Any role satisfies a viewer requirement.
	if requiredRole == model.RoleViewer {
		return true, nil
	}
	return member.Role == model.RoleEditor, nil
}
