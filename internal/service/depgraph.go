package service

import (
	"context"

	"github.com/google/uuid"

	"planboard/internal/model"
)

// MaxLag bounds the lag of a precedence edge, in days either direction.
const MaxLag = 3650

// DependencyChecker validates a candidate precedence edge before it is
// persisted. Checks run in a fixed order and short-circuit on the first
// failure, so no lookups are wasted after an earlier check fails.
type DependencyChecker struct {
	tasks TaskStore
	deps  DependencyStore
}

func NewDependencyChecker(tasks TaskStore, deps DependencyStore) *DependencyChecker {
	return &DependencyChecker{tasks: tasks, deps: deps}
}

// ValidateNewEdge runs the full chain: type and lag validation,
// self-link, endpoint existence within the project, duplicate pair,
// reverse pair, and the breadth-first cycle check.
func (c *DependencyChecker) ValidateNewEdge(ctx context.Context, projectID, predecessorID, successorID uuid.UUID, depType string, lag int) error {
	if !model.ValidDependencyType(depType) {
		return Errorf(KindValidation, "unknown dependency type %q", depType)
	}
	if lag < -MaxLag || lag > MaxLag {
		return Errorf(KindValidation, "lag %d outside allowed range [%d, %d]", lag, -MaxLag, MaxLag)
	}
	if predecessorID == successorID {
		return Errorf(KindValidation, "a task cannot depend on itself")
	}

	for _, id := range []uuid.UUID{predecessorID, successorID} {
		task, err := c.tasks.GetByIDInProject(ctx, projectID, id)
		if err != nil {
			return err
		}
		if task == nil {
			return Errorf(KindNotFound, "task %s not found in project", id)
		}
	}

	exists, err := c.deps.Exists(ctx, projectID, predecessorID, successorID)
	if err != nil {
		return err
	}
	if exists {
		return Errorf(KindConflict, "dependency already exists")
	}

	reverse, err := c.deps.Exists(ctx, projectID, successorID, predecessorID)
	if err != nil {
		return err
	}
	if reverse {
		return Errorf(KindConflict, "reverse dependency already exists")
	}

	return c.checkCycle(ctx, projectID, predecessorID, successorID)
}

// checkCycle walks the existing edges breadth-first starting from the
// candidate successor. If the predecessor is reachable, the new edge
// would close a cycle. The visited set bounds the traversal by the
// number of tasks in the project.
func (c *DependencyChecker) checkCycle(ctx context.Context, projectID, predecessorID, successorID uuid.UUID) error {
	edges, err := c.deps.GetByProject(ctx, projectID)
	if err != nil {
		return err
	}

	adjacency := make(map[uuid.UUID][]uuid.UUID, len(edges))
	for _, edge := range edges {
		adjacency[edge.PredecessorID] = append(adjacency[edge.PredecessorID], edge.SuccessorID)
	}

	visited := map[uuid.UUID]bool{successorID: true}
	queue := []uuid.UUID{successorID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == predecessorID {
			return Errorf(KindStructural, "dependency would create a cycle")
		}
		for _, next := range adjacency[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return nil
}
