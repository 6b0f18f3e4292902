package service_test

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planboard/internal/model"
)

// fakeTaskStore is an in-memory TaskStore / ImportTaskStore.
type fakeTaskStore struct {
	tasks map[uuid.UUID]*model.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*model.Task)}
}

func (s *fakeTaskStore) add(t *model.Task) *model.Task {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.tasks[t.ID] = t
	return t
}

func (s *fakeTaskStore) GetByIDInProject(_ context.Context, projectID, taskID uuid.UUID) (*model.Task, error) {
	t, ok := s.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (s *fakeTaskStore) GetChildren(_ context.Context, taskID uuid.UUID) ([]model.Task, error) {
	var children []model.Task
	for _, t := range s.tasks {
		if t.ParentID != nil && *t.ParentID == taskID {
			children = append(children, *t)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].WBSCode < children[j].WBSCode })
	return children, nil
}

func (s *fakeTaskStore) GetRoot(_ context.Context, projectID uuid.UUID) (*model.Task, error) {
	for _, t := range s.tasks {
		if t.ProjectID == projectID && t.Level == 0 {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeTaskStore) GetByProjectLevelDesc(_ context.Context, projectID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			tasks = append(tasks, *t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Level != tasks[j].Level {
			return tasks[i].Level > tasks[j].Level
		}
		return tasks[i].WBSCode < tasks[j].WBSCode
	})
	return tasks, nil
}

func (s *fakeTaskStore) UpdateTotalCost(_ context.Context, taskID uuid.UUID, total decimal.Decimal) error {
	t, ok := s.tasks[taskID]
	if !ok {
		return nil
	}
	t.TotalCost = total
	return nil
}

func (s *fakeTaskStore) Create(_ context.Context, task *model.Task) error {
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) DeleteByProject(_ context.Context, projectID uuid.UUID) error {
	for id, t := range s.tasks {
		if t.ProjectID == projectID {
			delete(s.tasks, id)
		}
	}
	return nil
}

// fakeProjectStore records budget roll-up writes.
type fakeProjectStore struct {
	rollups map[uuid.UUID]decimal.Decimal
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{rollups: make(map[uuid.UUID]decimal.Decimal)}
}

func (s *fakeProjectStore) UpdateBudgetRollup(_ context.Context, projectID uuid.UUID, total decimal.Decimal) error {
	s.rollups[projectID] = total
	return nil
}

// fakeDependencyStore is an in-memory DependencyStore / ImportDependencyStore.
type fakeDependencyStore struct {
	edges []model.TaskDependency
}

func newFakeDependencyStore() *fakeDependencyStore {
	return &fakeDependencyStore{}
}

func (s *fakeDependencyStore) Exists(_ context.Context, projectID, predecessorID, successorID uuid.UUID) (bool, error) {
	for _, e := range s.edges {
		if e.ProjectID == projectID && e.PredecessorID == predecessorID && e.SuccessorID == successorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeDependencyStore) GetByProject(_ context.Context, projectID uuid.UUID) ([]model.TaskDependency, error) {
	var edges []model.TaskDependency
	for _, e := range s.edges {
		if e.ProjectID == projectID {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

func (s *fakeDependencyStore) Create(_ context.Context, dep *model.TaskDependency) error {
	s.edges = append(s.edges, *dep)
	return nil
}

func (s *fakeDependencyStore) DeleteByProject(_ context.Context, projectID uuid.UUID) error {
	kept := s.edges[:0]
	for _, e := range s.edges {
		if e.ProjectID != projectID {
			kept = append(kept, e)
		}
	}
	s.edges = kept
	return nil
}
