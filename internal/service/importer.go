package service

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"planboard/internal/model"
)

// ImportTaskStore extends TaskStore with the bulk operations the
// importer needs.
type ImportTaskStore interface {
	TaskStore
	Create(ctx context.Context, task *model.Task) error
	DeleteByProject(ctx context.Context, projectID uuid.UUID) error
}

// ImportDependencyStore extends DependencyStore with bulk operations.
type ImportDependencyStore interface {
	DependencyStore
	Create(ctx context.Context, dep *model.TaskDependency) error
	DeleteByProject(ctx context.Context, projectID uuid.UUID) error
}

// SkippedRow records one import row that was dropped and why.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportReport summarizes a bulk import.
type ImportReport struct {
	TasksImported        int          `json:"tasks_imported"`
	DependenciesImported int          `json:"dependencies_imported"`
	Skipped              []SkippedRow `json:"skipped,omitempty"`
}

// Importer replaces a project's entire schedule from a flat file. Rows
// that fail to parse or insert are logged and skipped so the rest of the
// import proceeds; this best-effort policy applies to bulk import only.
// The caller is assumed to have exclusive access to the project for the
// duration of the call.
type Importer struct {
	tasks  ImportTaskStore
	deps   ImportDependencyStore
	rollup *RollupEngine
	check  *DependencyChecker
	log    *logrus.Logger
}

func NewImporter(tasks ImportTaskStore, deps ImportDependencyStore, rollup *RollupEngine, check *DependencyChecker, log *logrus.Logger) *Importer {
	return &Importer{tasks: tasks, deps: deps, rollup: rollup, check: check, log: log}
}

// Expected column layouts. Import accepts this fixed layout only; there
// is no column-name sniffing.
const (
	taskHeader = "wbs_code,name,level,parent_wbs,cost_labor,cost_material,cost_other"
	depHeader  = "predecessor_wbs,successor_wbs,type,lag"

	// DependencySheet is the optional second sheet of an XLSX import.
	DependencySheet = "Dependencies"
)

type taskRow struct {
	line      int
	wbsCode   string
	name      string
	level     int
	parentWBS string
	labor     decimal.Decimal
	material  decimal.Decimal
	other     decimal.Decimal
}

type depRow struct {
	line    int
	pred    string
	succ    string
	depType string
	lag     int
}

// ImportCSV imports a task schedule from CSV. CSV carries tasks only;
// use XLSX for dependencies.
func (im *Importer) ImportCSV(ctx context.Context, projectID uuid.UUID, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, Errorf(KindValidation, "malformed CSV: %v", err)
	}
	if len(records) == 0 {
		return nil, Errorf(KindValidation, "empty file")
	}
	if strings.Join(records[0], ",") != taskHeader {
		return nil, Errorf(KindValidation, "unexpected header, want %q", taskHeader)
	}

	rows, skipped := im.parseTaskRows(records[1:], 2)
	return im.run(ctx, projectID, rows, nil, skipped)
}

// ImportXLSX imports tasks from the first sheet of a workbook and,
// when present, dependencies from the Dependencies sheet.
func (im *Importer) ImportXLSX(ctx context.Context, projectID uuid.UUID, r io.Reader) (*ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, Errorf(KindValidation, "malformed workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, Errorf(KindValidation, "workbook has no sheets")
	}

	taskRecords, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, Errorf(KindValidation, "cannot read sheet %q: %v", sheets[0], err)
	}
	if len(taskRecords) == 0 || strings.Join(taskRecords[0], ",") != taskHeader {
		return nil, Errorf(KindValidation, "unexpected header on sheet %q, want %q", sheets[0], taskHeader)
	}
	rows, skipped := im.parseTaskRows(taskRecords[1:], 2)

	var depRows []depRow
	for _, sheet := range sheets {
		if sheet != DependencySheet {
			continue
		}
		depRecords, err := f.GetRows(sheet)
		if err != nil {
			return nil, Errorf(KindValidation, "cannot read sheet %q: %v", sheet, err)
		}
		if len(depRecords) == 0 || strings.Join(depRecords[0], ",") != depHeader {
			return nil, Errorf(KindValidation, "unexpected header on sheet %q, want %q", sheet, depHeader)
		}
		parsed, depSkipped := im.parseDepRows(depRecords[1:], 2)
		depRows = parsed
		skipped = append(skipped, depSkipped...)
	}

	return im.run(ctx, projectID, rows, depRows, skipped)
}

func (im *Importer) parseTaskRows(records [][]string, firstLine int) ([]taskRow, []SkippedRow) {
	var rows []taskRow
	var skipped []SkippedRow

	for i, record := range records {
		line := firstLine + i
		if len(record) < 7 {
			skipped = im.skip(skipped, line, "expected 7 columns")
			continue
		}

		level, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil || level < 0 {
			skipped = im.skip(skipped, line, "malformed level")
			continue
		}

		row := taskRow{
			line:      line,
			wbsCode:   strings.TrimSpace(record[0]),
			name:      strings.TrimSpace(record[1]),
			level:     level,
			parentWBS: strings.TrimSpace(record[3]),
		}
		if row.wbsCode == "" || row.name == "" {
			skipped = im.skip(skipped, line, "missing wbs_code or name")
			continue
		}

		costs := [3]*decimal.Decimal{&row.labor, &row.material, &row.other}
		bad := false
		for j, dst := range costs {
			*dst, err = parseCost(record[4+j])
			if err != nil {
				skipped = im.skip(skipped, line, err.Error())
				bad = true
				break
			}
		}
		if bad {
			continue
		}

		rows = append(rows, row)
	}
	return rows, skipped
}

func (im *Importer) parseDepRows(records [][]string, firstLine int) ([]depRow, []SkippedRow) {
	var rows []depRow
	var skipped []SkippedRow

	for i, record := range records {
		line := firstLine + i
		if len(record) < 4 {
			skipped = im.skip(skipped, line, "expected 4 columns")
			continue
		}
		lag, err := strconv.Atoi(strings.TrimSpace(record[3]))
		if err != nil {
			skipped = im.skip(skipped, line, "malformed lag")
			continue
		}
		rows = append(rows, depRow{
			line:    line,
			pred:    strings.TrimSpace(record[0]),
			succ:    strings.TrimSpace(record[1]),
			depType: strings.ToUpper(strings.TrimSpace(record[2])),
			lag:     lag,
		})
	}
	return rows, skipped
}

func parseCost(field string) (decimal.Decimal, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(field)
	if err != nil {
		return decimal.Zero, Errorf(KindValidation, "malformed cost %q", field)
	}
	if value.IsNegative() {
		return decimal.Zero, Errorf(KindValidation, "negative cost %q", field)
	}
	return value, nil
}

// run clears the project's schedule and recreates it from the parsed
// rows. The whole-file shape is validated before anything is deleted;
// past that point failures are per-row and non-fatal.
func (im *Importer) run(ctx context.Context, projectID uuid.UUID, rows []taskRow, depRows []depRow, skipped []SkippedRow) (*ImportReport, error) {
	roots := 0
	for _, row := range rows {
		if row.level == 0 {
			roots++
		}
	}
	if roots != 1 {
		return nil, Errorf(KindValidation, "import needs exactly one level-0 row, found %d", roots)
	}

	if err := im.deps.DeleteByProject(ctx, projectID); err != nil {
		return nil, err
	}
	if err := im.tasks.DeleteByProject(ctx, projectID); err != nil {
		return nil, err
	}

	// Parents must exist before their children.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].level < rows[j].level })

	report := &ImportReport{Skipped: skipped}
	idByCode := make(map[string]uuid.UUID, len(rows))
	levelByCode := make(map[string]int, len(rows))

	for _, row := range rows {
		var parentID *uuid.UUID
		if row.level > 0 {
			if row.level > model.MaxLevel {
				report.Skipped = im.skip(report.Skipped, row.line, "level exceeds max WBS depth")
				continue
			}
			id, ok := idByCode[row.parentWBS]
			if !ok {
				report.Skipped = im.skip(report.Skipped, row.line, "parent "+row.parentWBS+" was not imported")
				continue
			}
			if levelByCode[row.parentWBS]+1 != row.level {
				report.Skipped = im.skip(report.Skipped, row.line, "level does not match parent level + 1")
				continue
			}
			parentID = &id
		}
		if _, dup := idByCode[row.wbsCode]; dup {
			report.Skipped = im.skip(report.Skipped, row.line, "duplicate wbs_code "+row.wbsCode)
			continue
		}

		task := &model.Task{
			ID:           uuid.New(),
			ProjectID:    projectID,
			ParentID:     parentID,
			Level:        row.level,
			WBSCode:      row.wbsCode,
			Name:         row.name,
			CostLabor:    row.labor,
			CostMaterial: row.material,
			CostOther:    row.other,
		}
		if err := im.tasks.Create(ctx, task); err != nil {
			im.log.WithError(err).Warnf("import: insert failed for row %d", row.line)
			report.Skipped = im.skip(report.Skipped, row.line, "insert failed")
			continue
		}
		idByCode[row.wbsCode] = task.ID
		levelByCode[row.wbsCode] = row.level
		report.TasksImported++
	}

	for _, row := range depRows {
		predID, okPred := idByCode[row.pred]
		succID, okSucc := idByCode[row.succ]
		if !okPred || !okSucc {
			report.Skipped = im.skip(report.Skipped, row.line, "dependency references a task that was not imported")
			continue
		}
		if err := im.check.ValidateNewEdge(ctx, projectID, predID, succID, row.depType, row.lag); err != nil {
			var svcErr *Error
			if !errors.As(err, &svcErr) {
				return nil, err
			}
			report.Skipped = im.skip(report.Skipped, row.line, svcErr.Message)
			continue
		}
		dep := &model.TaskDependency{
			ID:            uuid.New(),
			ProjectID:     projectID,
			PredecessorID: predID,
			SuccessorID:   succID,
			Type:          row.depType,
			Lag:           row.lag,
		}
		if err := im.deps.Create(ctx, dep); err != nil {
			im.log.WithError(err).Warnf("import: dependency insert failed for row %d", row.line)
			report.Skipped = im.skip(report.Skipped, row.line, "insert failed")
			continue
		}
		report.DependenciesImported++
	}

	if err := im.rollup.RecalculateProject(ctx, projectID); err != nil {
		return nil, err
	}
	return report, nil
}

func (im *Importer) skip(skipped []SkippedRow, line int, reason string) []SkippedRow {
	im.log.Warnf("import: skipping row %d: %s", line, reason)
	return append(skipped, SkippedRow{Line: line, Reason: reason})
}
