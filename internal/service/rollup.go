package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planboard/internal/model"
)

// RollupEngine maintains the derived TotalCost of every WBS node: direct
// costs on a leaf, the sum of the children's totals otherwise. The root's
// total is mirrored into the project's BudgetRollup.
type RollupEngine struct {
	tasks    TaskStore
	projects ProjectStore
}

func NewRollupEngine(tasks TaskStore, projects ProjectStore) *RollupEngine {
	return &RollupEngine{tasks: tasks, projects: projects}
}

// Recompute recalculates the total of the given task and walks the
// ancestor chain up to the root, one level at a time. The walk is an
// iterative loop bounded by the WBS depth ceiling. A node deleted by a
// concurrent request ends the walk at the last ancestor that still
// existed.
func (e *RollupEngine) Recompute(ctx context.Context, projectID, taskID uuid.UUID) error {
	next := &taskID
	for hops := 0; next != nil && hops <= model.MaxLevel+1; hops++ {
		task, err := e.tasks.GetByIDInProject(ctx, projectID, *next)
		if err != nil {
			return err
		}
		if task == nil {
			return nil
		}

		total, err := e.subtreeTotal(ctx, task)
		if err != nil {
			return err
		}
		if err := e.tasks.UpdateTotalCost(ctx, task.ID, total); err != nil {
			return err
		}
		if task.IsRoot() {
			if err := e.projects.UpdateBudgetRollup(ctx, projectID, total); err != nil {
				return err
			}
		}
		next = task.ParentID
	}
	return nil
}

// subtreeTotal reads the already-persisted totals of the immediate
// children; correctness relies on every mutation propagating one level
// at a time, or on RecalculateProject processing deepest levels first.
func (e *RollupEngine) subtreeTotal(ctx context.Context, task *model.Task) (decimal.Decimal, error) {
	children, err := e.tasks.GetChildren(ctx, task.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if len(children) == 0 {
		return task.DirectCost(), nil
	}
	total := decimal.Zero
	for _, child := range children {
		total = total.Add(child.TotalCost)
	}
	return total, nil
}

// RecalculateProject repairs every total in the project in a single
// deepest-level-first pass: each leaf is computed from its direct costs
// and each parent from sums accumulated in the same pass, so no node is
// re-queried. Used after bulk import and by the explicit recalculate
// endpoint.
func (e *RollupEngine) RecalculateProject(ctx context.Context, projectID uuid.UUID) error {
	tasks, err := e.tasks.GetByProjectLevelDesc(ctx, projectID)
	if err != nil {
		return err
	}

	childSums := make(map[uuid.UUID]decimal.Decimal, len(tasks))
	hasChildren := make(map[uuid.UUID]bool, len(tasks))

	for _, task := range tasks {
		var total decimal.Decimal
		if hasChildren[task.ID] {
			total = childSums[task.ID]
		} else {
			total = task.DirectCost()
		}

		if !total.Equal(task.TotalCost) {
			if err := e.tasks.UpdateTotalCost(ctx, task.ID, total); err != nil {
				return err
			}
		}
		if task.ParentID != nil {
			childSums[*task.ParentID] = childSums[*task.ParentID].Add(total)
			hasChildren[*task.ParentID] = true
		}
		if task.IsRoot() {
			if err := e.projects.UpdateBudgetRollup(ctx, projectID, total); err != nil {
				return err
			}
		}
	}
	return nil
}
