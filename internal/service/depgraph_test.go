package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"planboard/internal/model"
	"planboard/internal/service"
)

func depFixture(t *testing.T) (*fakeTaskStore, *fakeDependencyStore, *service.DependencyChecker, uuid.UUID) {
	t.Helper()
	tasks := newFakeTaskStore()
	deps := newFakeDependencyStore()
	return tasks, deps, service.NewDependencyChecker(tasks, deps), uuid.New()
}

func addTask(tasks *fakeTaskStore, projectID uuid.UUID, wbs string) uuid.UUID {
	return tasks.add(&model.Task{ProjectID: projectID, Level: 1, WBSCode: wbs}).ID
}

func addEdge(deps *fakeDependencyStore, projectID, pred, succ uuid.UUID) {
	deps.edges = append(deps.edges, model.TaskDependency{
		ID:            uuid.New(),
		ProjectID:     projectID,
		PredecessorID: pred,
		SuccessorID:   succ,
		Type:          model.DepFinishToStart,
	})
}

func TestValidateNewEdge_Valid(t *testing.T) {
	tasks, _, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")
	b := addTask(tasks, projectID, "1.2")

	err := checker.ValidateNewEdge(context.Background(), projectID, a, b, model.DepFinishToStart, 5)

	assert.NoError(t, err)
}

func TestValidateNewEdge_UnknownType(t *testing.T) {
	tasks, _, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")
	b := addTask(tasks, projectID, "1.2")

	err := checker.ValidateNewEdge(context.Background(), projectID, a, b, "XX", 0)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindValidation, svcErr.Kind)
}

func TestValidateNewEdge_LagOutOfRange(t *testing.T) {
	tasks, _, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")
	b := addTask(tasks, projectID, "1.2")

	for _, lag := range []int{service.MaxLag + 1, -service.MaxLag - 1} {
		err := checker.ValidateNewEdge(context.Background(), projectID, a, b, model.DepStartToStart, lag)

		var svcErr *service.Error
		assert.ErrorAs(t, err, &svcErr)
		assert.Equal(t, service.KindValidation, svcErr.Kind)
	}
}

func TestValidateNewEdge_SelfLink(t *testing.T) {
	tasks, _, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")

	err := checker.ValidateNewEdge(context.Background(), projectID, a, a, model.DepFinishToStart, 0)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindValidation, svcErr.Kind)
}

func TestValidateNewEdge_MissingEndpoint(t *testing.T) {
	tasks, _, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")

	err := checker.ValidateNewEdge(context.Background(), projectID, a, uuid.New(), model.DepFinishToStart, 0)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindNotFound, svcErr.Kind)
}

func TestValidateNewEdge_EndpointInOtherProject(t *testing.T) {
	tasks, _, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")
	foreign := addTask(tasks, uuid.New(), "1.1")

	err := checker.ValidateNewEdge(context.Background(), projectID, a, foreign, model.DepFinishToStart, 0)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindNotFound, svcErr.Kind)
}

func TestValidateNewEdge_Duplicate(t *testing.T) {
	tasks, deps, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")
	b := addTask(tasks, projectID, "1.2")
	addEdge(deps, projectID, a, b)

	err := checker.ValidateNewEdge(context.Background(), projectID, a, b, model.DepFinishToStart, 0)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindConflict, svcErr.Kind)
}

func TestValidateNewEdge_ReversePair(t *testing.T) {
	tasks, deps, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")
	b := addTask(tasks, projectID, "1.2")
	addEdge(deps, projectID, a, b)

	err := checker.ValidateNewEdge(context.Background(), projectID, b, a, model.DepFinishToStart, 0)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindConflict, svcErr.Kind)
}

func TestValidateNewEdge_TransitiveCycle(t *testing.T) {
	tasks, deps, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")
	b := addTask(tasks, projectID, "1.2")
	c := addTask(tasks, projectID, "1.3")
	addEdge(deps, projectID, a, b)
	addEdge(deps, projectID, b, c)

	// c -> a would close a -> b -> c -> a.
	err := checker.ValidateNewEdge(context.Background(), projectID, c, a, model.DepFinishToStart, 0)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindStructural, svcErr.Kind)
}

func TestValidateNewEdge_DiamondIsNotACycle(t *testing.T) {
	tasks, deps, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")
	b := addTask(tasks, projectID, "1.2")
	c := addTask(tasks, projectID, "1.3")
	d := addTask(tasks, projectID, "1.4")
	addEdge(deps, projectID, a, b)
	addEdge(deps, projectID, a, c)
	addEdge(deps, projectID, b, d)

	// c -> d converges with b -> d but closes no cycle.
	err := checker.ValidateNewEdge(context.Background(), projectID, c, d, model.DepStartToStart, -2)

	assert.NoError(t, err)
}

func TestValidateNewEdge_IgnoresEdgesFromOtherProjects(t *testing.T) {
	tasks, deps, checker, projectID := depFixture(t)
	a := addTask(tasks, projectID, "1.1")
	b := addTask(tasks, projectID, "1.2")
	// A same-ID cycle in a different project must not block this edge.
	addEdge(deps, uuid.New(), b, a)

	err := checker.ValidateNewEdge(context.Background(), projectID, a, b, model.DepFinishToFinish, 0)

	assert.NoError(t, err)
}
