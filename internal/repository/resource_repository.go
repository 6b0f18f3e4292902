package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"planboard/internal/model"
)

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *ResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	var resource model.Resource
	if err := r.db.WithContext(ctx).First(&resource, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resource, nil
}

func (r *ResourceRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("name").Find(&resources).Error
	return resources, err
}

func (r *ResourceRepository) Update(ctx context.Context, resource *model.Resource) error {
	result := r.db.WithContext(ctx).Save(resource)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResourceNotFound
	}
	return nil
}

func (r *ResourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_resources WHERE resource_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Resource{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrResourceNotFound
		}
		return nil
	})
}

// Assign attaches a resource to a task
func (r *ResourceRepository) Assign(ctx context.Context, taskID, resourceID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO task_resources (task_id, resource_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		taskID, resourceID,
	).Error
}

// Unassign detaches a resource from a task
func (r *ResourceRepository) Unassign(ctx context.Context, taskID, resourceID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"DELETE FROM task_resources WHERE task_id = ? AND resource_id = ?",
		taskID, resourceID,
	).Error
}

// GetTaskResources retrieves the resources assigned to a task
func (r *ResourceRepository) GetTaskResources(ctx context.Context, taskID uuid.UUID) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.db.WithContext(ctx).
		Joins("JOIN task_resources ON task_resources.resource_id = resources.id").
		Where("task_resources.task_id = ?", taskID).
		Order("resources.name").
		Find(&resources).Error
	return resources, err
}
