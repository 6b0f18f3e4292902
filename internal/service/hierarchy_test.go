package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"planboard/internal/model"
	"planboard/internal/service"
)

func intPtr(v int) *int { return &v }

func TestValidateParent_RootCandidate(t *testing.T) {
	tasks := newFakeTaskStore()
	validator := service.NewHierarchyValidator(tasks)
	projectID := uuid.New()

	level, err := validator.ValidateParent(context.Background(), projectID, nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, 0, level)
}

func TestValidateParent_RootAlreadyExists(t *testing.T) {
	tasks := newFakeTaskStore()
	validator := service.NewHierarchyValidator(tasks)
	projectID := uuid.New()
	tasks.add(&model.Task{ProjectID: projectID, Level: 0, WBSCode: "1"})

	_, err := validator.ValidateParent(context.Background(), projectID, nil, nil)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindConflict, svcErr.Kind)
}

func TestValidateParent_ChildLevel(t *testing.T) {
	tasks := newFakeTaskStore()
	validator := service.NewHierarchyValidator(tasks)
	projectID := uuid.New()
	parent := tasks.add(&model.Task{ProjectID: projectID, Level: 2, WBSCode: "1.1.1"})

	level, err := validator.ValidateParent(context.Background(), projectID, &parent.ID, nil)

	assert.NoError(t, err)
	assert.Equal(t, 3, level)
}

func TestValidateParent_ParentNotFound(t *testing.T) {
	tasks := newFakeTaskStore()
	validator := service.NewHierarchyValidator(tasks)
	missing := uuid.New()

	_, err := validator.ValidateParent(context.Background(), uuid.New(), &missing, nil)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindNotFound, svcErr.Kind)
}

func TestValidateParent_ParentOutsideProject(t *testing.T) {
	tasks := newFakeTaskStore()
	validator := service.NewHierarchyValidator(tasks)
	parent := tasks.add(&model.Task{ProjectID: uuid.New(), Level: 1, WBSCode: "1.1"})

	// Same task ID, different project scope.
	_, err := validator.ValidateParent(context.Background(), uuid.New(), &parent.ID, nil)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindNotFound, svcErr.Kind)
}

func TestValidateParent_LevelMismatch(t *testing.T) {
	tasks := newFakeTaskStore()
	validator := service.NewHierarchyValidator(tasks)
	projectID := uuid.New()
	parent := tasks.add(&model.Task{ProjectID: projectID, Level: 1, WBSCode: "1.2"})

	_, err := validator.ValidateParent(context.Background(), projectID, &parent.ID, intPtr(5))

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindStructural, svcErr.Kind)
	// The error names both the desired and the expected value.
	assert.Contains(t, svcErr.Message, "5")
	assert.Contains(t, svcErr.Message, "1")
}

func TestValidateParent_DesiredLevelMatches(t *testing.T) {
	tasks := newFakeTaskStore()
	validator := service.NewHierarchyValidator(tasks)
	projectID := uuid.New()
	parent := tasks.add(&model.Task{ProjectID: projectID, Level: 1, WBSCode: "1.2"})

	level, err := validator.ValidateParent(context.Background(), projectID, &parent.ID, intPtr(2))

	assert.NoError(t, err)
	assert.Equal(t, 2, level)
}

func TestValidateParent_MaxDepthExceeded(t *testing.T) {
	tasks := newFakeTaskStore()
	validator := service.NewHierarchyValidator(tasks)
	projectID := uuid.New()
	parent := tasks.add(&model.Task{ProjectID: projectID, Level: model.MaxLevel, WBSCode: "deep"})

	_, err := validator.ValidateParent(context.Background(), projectID, &parent.ID, nil)

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindStructural, svcErr.Kind)
}

func TestValidateParent_RootWithNonZeroDesiredLevel(t *testing.T) {
	tasks := newFakeTaskStore()
	validator := service.NewHierarchyValidator(tasks)

	_, err := validator.ValidateParent(context.Background(), uuid.New(), nil, intPtr(3))

	var svcErr *service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindStructural, svcErr.Kind)
}
