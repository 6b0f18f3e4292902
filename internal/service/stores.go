package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planboard/internal/model"
)

// TaskStore is the slice of the task repository the schedule services
// need. Lookups return (nil, nil) when the row is absent.
type TaskStore interface {
	GetByIDInProject(ctx context.Context, projectID, taskID uuid.UUID) (*model.Task, error)
	GetChildren(ctx context.Context, taskID uuid.UUID) ([]model.Task, error)
	GetRoot(ctx context.Context, projectID uuid.UUID) (*model.Task, error)
	GetByProjectLevelDesc(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	UpdateTotalCost(ctx context.Context, taskID uuid.UUID, total decimal.Decimal) error
}

// ProjectStore persists project-level rollup state.
type ProjectStore interface {
	UpdateBudgetRollup(ctx context.Context, projectID uuid.UUID, total decimal.Decimal) error
}

// DependencyStore reads precedence edges for duplicate and cycle checks.
type DependencyStore interface {
	Exists(ctx context.Context, projectID, predecessorID, successorID uuid.UUID) (bool, error)
	GetByProject(ctx context.Context, projectID uuid.UUID) ([]model.TaskDependency, error)
}
