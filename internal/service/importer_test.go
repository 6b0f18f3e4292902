package service_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"planboard/internal/model"
	"planboard/internal/service"
)

func newImporterFixture() (*fakeTaskStore, *fakeDependencyStore, *service.Importer) {
	tasks := newFakeTaskStore()
	projects := newFakeProjectStore()
	deps := newFakeDependencyStore()
	rollup := service.NewRollupEngine(tasks, projects)
	checker := service.NewDependencyChecker(tasks, deps)

	log := logrus.New()
	log.SetOutput(io.Discard)

	return tasks, deps, service.NewImporter(tasks, deps, rollup, checker, log)
}

const validCSV = `wbs_code,name,level,parent_wbs,cost_labor,cost_material,cost_other
1,Project root,0,,0,0,0
1.1,Foundation,1,1,100,50,0
1.2,Framing,1,1,200,,
1.1.1,Excavation,2,1.1,25.50,0,4.50
`

func TestImportCSV_HappyPath(t *testing.T) {
	tasks, _, importer := newImporterFixture()
	projectID := uuid.New()

	report, err := importer.ImportCSV(context.Background(), projectID, strings.NewReader(validCSV))

	require.NoError(t, err)
	assert.Equal(t, 4, report.TasksImported)
	assert.Empty(t, report.Skipped)

	root, err := tasks.GetRoot(context.Background(), projectID)
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Equal(t, "1", root.WBSCode)
	// 1.1 has a child, so its direct 150 is ignored: root = 30 + 200.
	assert.Equal(t, "230.00", tasks.tasks[root.ID].TotalCost.StringFixed(2))
}

func TestImportCSV_SkipsBadRowsAndImportsRest(t *testing.T) {
	const csv = `wbs_code,name,level,parent_wbs,cost_labor,cost_material,cost_other
1,Root,0,,0,0,0
1.1,Ok,1,1,10,0,0
1.2,Bad cost,1,1,-5,0,0
1.3,Bad level,oops,1,0,0,0
9.9,Orphan,1,nope,0,0,0
1.1,Duplicate code,1,1,0,0,0
`
	_, _, importer := newImporterFixture()
	projectID := uuid.New()

	report, err := importer.ImportCSV(context.Background(), projectID, strings.NewReader(csv))

	require.NoError(t, err)
	assert.Equal(t, 2, report.TasksImported)
	assert.Len(t, report.Skipped, 4)
}

func TestImportCSV_RejectsWithoutRoot(t *testing.T) {
	const csv = `wbs_code,name,level,parent_wbs,cost_labor,cost_material,cost_other
1.1,No root here,1,1,10,0,0
`
	tasks, _, importer := newImporterFixture()
	projectID := uuid.New()
	existing := tasks.add(&model.Task{ProjectID: projectID, Level: 0, WBSCode: "1"})

	_, err := importer.ImportCSV(context.Background(), projectID, strings.NewReader(csv))

	var svcErr *service.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindValidation, svcErr.Kind)
	// Whole-file validation failed, so nothing was cleared.
	assert.Contains(t, tasks.tasks, existing.ID)
}

func TestImportCSV_RejectsMultipleRoots(t *testing.T) {
	const csv = `wbs_code,name,level,parent_wbs,cost_labor,cost_material,cost_other
1,First root,0,,0,0,0
2,Second root,0,,0,0,0
`
	_, _, importer := newImporterFixture()

	_, err := importer.ImportCSV(context.Background(), uuid.New(), strings.NewReader(csv))

	var svcErr *service.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindValidation, svcErr.Kind)
}

func TestImportCSV_RejectsWrongHeader(t *testing.T) {
	_, _, importer := newImporterFixture()

	_, err := importer.ImportCSV(context.Background(), uuid.New(), strings.NewReader("code,label\n1,Root\n"))

	var svcErr *service.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindValidation, svcErr.Kind)
}

func TestImportCSV_ReplacesExistingSchedule(t *testing.T) {
	tasks, deps, importer := newImporterFixture()
	projectID := uuid.New()

	oldRoot := tasks.add(&model.Task{ProjectID: projectID, Level: 0, WBSCode: "old"})
	oldChild := tasks.add(&model.Task{ProjectID: projectID, ParentID: &oldRoot.ID, Level: 1, WBSCode: "old.1"})
	addEdge(deps, projectID, oldRoot.ID, oldChild.ID)

	report, err := importer.ImportCSV(context.Background(), projectID, strings.NewReader(validCSV))

	require.NoError(t, err)
	assert.Equal(t, 4, report.TasksImported)
	assert.NotContains(t, tasks.tasks, oldRoot.ID)
	assert.NotContains(t, tasks.tasks, oldChild.ID)

	edges, err := deps.GetByProject(context.Background(), projectID)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func buildWorkbook(t *testing.T, taskRows, depRows [][]interface{}) io.Reader {
	t.Helper()
	f := excelize.NewFile()

	sheet := f.GetSheetName(0)
	for i, row := range taskRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	if depRows != nil {
		_, err := f.NewSheet(service.DependencySheet)
		require.NoError(t, err)
		for i, row := range depRows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(service.DependencySheet, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestImportXLSX_TasksAndDependencies(t *testing.T) {
	tasks, deps, importer := newImporterFixture()
	projectID := uuid.New()

	wb := buildWorkbook(t,
		[][]interface{}{
			{"wbs_code", "name", "level", "parent_wbs", "cost_labor", "cost_material", "cost_other"},
			{"1", "Root", 0, "", 0, 0, 0},
			{"1.1", "Design", 1, "1", 100, 0, 0},
			{"1.2", "Build", 1, "1", 200, 50, 0},
		},
		[][]interface{}{
			{"predecessor_wbs", "successor_wbs", "type", "lag"},
			{"1.1", "1.2", "FS", 3},
		},
	)

	report, err := importer.ImportXLSX(context.Background(), projectID, wb)

	require.NoError(t, err)
	assert.Equal(t, 3, report.TasksImported)
	assert.Equal(t, 1, report.DependenciesImported)
	assert.Empty(t, report.Skipped)

	edges, err := deps.GetByProject(context.Background(), projectID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, model.DepFinishToStart, edges[0].Type)
	assert.Equal(t, 3, edges[0].Lag)

	root, err := tasks.GetRoot(context.Background(), projectID)
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Equal(t, "350.00", tasks.tasks[root.ID].TotalCost.StringFixed(2))
}

func TestImportXLSX_SkipsCyclicDependencyRow(t *testing.T) {
	_, deps, importer := newImporterFixture()
	projectID := uuid.New()

	wb := buildWorkbook(t,
		[][]interface{}{
			{"wbs_code", "name", "level", "parent_wbs", "cost_labor", "cost_material", "cost_other"},
			{"1", "Root", 0, "", 0, 0, 0},
			{"1.1", "A", 1, "1", 0, 0, 0},
			{"1.2", "B", 1, "1", 0, 0, 0},
		},
		[][]interface{}{
			{"predecessor_wbs", "successor_wbs", "type", "lag"},
			{"1.1", "1.2", "FS", 0},
			{"1.2", "1.1", "FS", 0},
			{"1.1", "9.9", "FS", 0},
		},
	)

	report, err := importer.ImportXLSX(context.Background(), projectID, wb)

	require.NoError(t, err)
	assert.Equal(t, 1, report.DependenciesImported)
	assert.Len(t, report.Skipped, 2)

	edges, err := deps.GetByProject(context.Background(), projectID)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}
