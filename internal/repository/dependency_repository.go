package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"planboard/internal/model"
)

type DependencyRepository struct {
	db *gorm.DB
}

func NewDependencyRepository(db *gorm.DB) *DependencyRepository {
	return &DependencyRepository{db: db}
}

func (r *DependencyRepository) Create(ctx context.Context, dep *model.TaskDependency) error {
	return r.db.WithContext(ctx).Create(dep).Error
}

func (r *DependencyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TaskDependency, error) {
	var dep model.TaskDependency
	if err := r.db.WithContext(ctx).First(&dep, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dep, nil
}

// Exists reports whether an edge with the exact ordered pair is present.
func (r *DependencyRepository) Exists(ctx context.Context, projectID, predecessorID, successorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TaskDependency{}).
		Where("project_id = ? AND predecessor_id = ? AND successor_id = ?", projectID, predecessorID, successorID).
		Count(&count).Error
	return count > 0, err
}

func (r *DependencyRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]model.TaskDependency, error) {
	var deps []model.TaskDependency
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&deps).Error
	return deps, err
}

// GetByTask retrieves the edges incident to a task, in either direction.
func (r *DependencyRepository) GetByTask(ctx context.Context, taskID uuid.UUID) ([]model.TaskDependency, error) {
	var deps []model.TaskDependency
	err := r.db.WithContext(ctx).
		Where("predecessor_id = ? OR successor_id = ?", taskID, taskID).
		Find(&deps).Error
	return deps, err
}

// UpdateAttrs changes the type and lag of an edge; the endpoints of an
// edge are immutable.
func (r *DependencyRepository) UpdateAttrs(ctx context.Context, id uuid.UUID, depType string, lag int) error {
	result := r.db.WithContext(ctx).Model(&model.TaskDependency{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"type": depType, "lag": lag})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDependencyNotFound
	}
	return nil
}

func (r *DependencyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.TaskDependency{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDependencyNotFound
	}
	return nil
}

func (r *DependencyRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&model.TaskDependency{}).Error
}
