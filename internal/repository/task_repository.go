package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"planboard/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// GetByIDInProject retrieves a task scoped to a project, or nil when it
// does not exist there.
func (r *TaskRepository) GetByIDInProject(ctx context.Context, projectID, taskID uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", taskID, projectID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// GetRoot retrieves the project's level-0 task, or nil if none exists.
func (r *TaskRepository) GetRoot(ctx context.Context, projectID uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND level = 0", projectID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// GetChildren retrieves the immediate children of a task
func (r *TaskRepository) GetChildren(ctx context.Context, taskID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).Where("parent_id = ?", taskID).Order("wbs_code").Find(&tasks).Error
	return tasks, err
}

// CountChildren returns the number of immediate children of a task
func (r *TaskRepository) CountChildren(ctx context.Context, taskID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).Where("parent_id = ?", taskID).Count(&count).Error
	return count, err
}

// GetByProject retrieves all tasks of a project in WBS order
func (r *TaskRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("level, wbs_code").
		Find(&tasks).Error
	return tasks, err
}

// GetByProjectLevelDesc retrieves all tasks of a project ordered deepest
// level first, for the single-pass project recalculation.
func (r *TaskRepository) GetByProjectLevelDesc(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("level DESC, wbs_code").
		Find(&tasks).Error
	return tasks, err
}

// Update updates an existing task
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// UpdateTotalCost persists a recomputed roll-up total.
func (r *TaskRepository) UpdateTotalCost(ctx context.Context, taskID uuid.UUID, total decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", taskID).
		Update("total_cost", total)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// IsDescendant reports whether candidate lies in the subtree rooted at
// ancestor (the ancestor itself does not count).
func (r *TaskRepository) IsDescendant(ctx context.Context, ancestorID, candidateID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE subtree AS (
			SELECT id FROM tasks WHERE id = ?
			UNION ALL
			SELECT t.id FROM tasks t JOIN subtree s ON t.parent_id = s.id
		)
		SELECT COUNT(*) FROM subtree WHERE id = ? AND id <> ?`,
		ancestorID, candidateID, ancestorID,
	).Scan(&count).Error
	return count > 0, err
}

// MaxSubtreeLevel returns the deepest level found in the subtree rooted
// at the given task (including the task itself).
func (r *TaskRepository) MaxSubtreeLevel(ctx context.Context, taskID uuid.UUID) (int, error) {
	var maxLevel struct {
		Max int
	}
	err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE subtree AS (
			SELECT id, level FROM tasks WHERE id = ?
			UNION ALL
			SELECT t.id, t.level FROM tasks t JOIN subtree s ON t.parent_id = s.id
		)
		SELECT COALESCE(MAX(level), 0) AS max FROM subtree`,
		taskID,
	).Scan(&maxLevel).Error
	return maxLevel.Max, err
}

// Reparent moves a task under a new parent and shifts the levels of its
// whole subtree by the same delta, in one transaction.
func (r *TaskRepository) Reparent(ctx context.Context, taskID, newParentID uuid.UUID, newLevel, delta int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Task{}).
			Where("id = ?", taskID).
			Updates(map[string]interface{}{"parent_id": newParentID, "level": newLevel})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		if delta == 0 {
			return nil
		}
		return tx.Exec(`
			WITH RECURSIVE subtree AS (
				SELECT id FROM tasks WHERE id = ?
				UNION ALL
				SELECT t.id FROM tasks t JOIN subtree s ON t.parent_id = s.id
			)
			UPDATE tasks SET level = level + ? WHERE id IN (SELECT id FROM subtree) AND id <> ?`,
			taskID, delta, taskID,
		).Error
	})
}

// Delete removes a task together with its incident dependency edges and
// resource assignments. Callers must have verified the task has no
// children.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("predecessor_id = ? OR successor_id = ?", id, id).
			Delete(&model.TaskDependency{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM task_resources WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Task{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
}

// DeleteByProject removes every task of a project (bulk import).
func (r *TaskRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM task_resources WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)", projectID,
		).Error; err != nil {
			return err
		}
		return tx.Where("project_id = ?", projectID).Delete(&model.Task{}).Error
	})
}
