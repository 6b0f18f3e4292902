package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLevel is the deepest WBS level a task may occupy (levels 0..10).
const MaxLevel = 10

// Task is a single WBS node. Exactly one task per project sits at level 0
// (the project root); every other task has a parent one level above it.
type Task struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index"`
	Level     int        `gorm:"not null"`
	WBSCode   string     `gorm:"column:wbs_code;not null"`
	Name      string     `gorm:"not null"`

	// Direct costs; meaningful only on leaf tasks.
	CostLabor    decimal.Decimal `gorm:"type:decimal(14,2);default:0"`
	CostMaterial decimal.Decimal `gorm:"type:decimal(14,2);default:0"`
	CostOther    decimal.Decimal `gorm:"type:decimal(14,2);default:0"`
	// TotalCost is derived: direct costs on a leaf, sum of children's
	// TotalCost otherwise.
	TotalCost decimal.Decimal `gorm:"type:decimal(14,2);default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Project  Project `gorm:"foreignKey:ProjectID"`
	Parent   *Task   `gorm:"foreignKey:ParentID;references:ID"`
	Children []Task  `gorm:"foreignKey:ParentID;references:ID"`

	Resources []Resource `gorm:"many2many:task_resources"`
}

// IsRoot reports whether the task is the project's level-0 root.
func (t *Task) IsRoot() bool {
	return t.Level == 0
}

// DirectCost is the sum of the task's own cost fields.
func (t *Task) DirectCost() decimal.Decimal {
	return t.CostLabor.Add(t.CostMaterial).Add(t.CostOther)
}
