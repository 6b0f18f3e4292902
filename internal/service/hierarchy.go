package service

import (
	"context"

	"github.com/google/uuid"

	"planboard/internal/model"
)

// HierarchyValidator checks that a task's level is consistent with its
// parent before the task is persisted. It performs no writes; the caller
// persists level and parent together after validation succeeds.
type HierarchyValidator struct {
	tasks TaskStore
}

func NewHierarchyValidator(tasks TaskStore) *HierarchyValidator {
	return &HierarchyValidator{tasks: tasks}
}

// ValidateParent returns the level the candidate task must occupy under
// the given parent. A nil parentID is a root candidate and is only valid
// while the project has no level-0 task. desiredLevel, when set, must
// match the computed level exactly.
//
// The same check runs on re-parenting, not only on create.
func (v *HierarchyValidator) ValidateParent(ctx context.Context, projectID uuid.UUID, parentID *uuid.UUID, desiredLevel *int) (int, error) {
	if parentID == nil {
		root, err := v.tasks.GetRoot(ctx, projectID)
		if err != nil {
			return 0, err
		}
		if root != nil {
			return 0, Errorf(KindConflict, "project already has a root task")
		}
		if desiredLevel != nil && *desiredLevel != 0 {
			return 0, Errorf(KindStructural, "root task must have level 0, got %d", *desiredLevel)
		}
		return 0, nil
	}

	parent, err := v.tasks.GetByIDInProject(ctx, projectID, *parentID)
	if err != nil {
		return 0, err
	}
	if parent == nil {
		return 0, Errorf(KindNotFound, "parent task %s not found", *parentID)
	}
	if parent.Level >= model.MaxLevel {
		return 0, Errorf(KindStructural, "max WBS depth exceeded: parent is already at level %d", parent.Level)
	}

	childLevel := parent.Level + 1
	if desiredLevel != nil && *desiredLevel != childLevel {
		return 0, Errorf(KindStructural, "level %d does not match parent level %d + 1", *desiredLevel, parent.Level)
	}
	return childLevel, nil
}
