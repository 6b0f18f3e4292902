package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Resource is a named person, crew or piece of equipment that can be
// assigned to tasks of its project.
type Resource struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"not null"`
	Unit      string          `gorm:"not null;default:'hour'"`
	Rate      decimal.Decimal `gorm:"type:decimal(14,2);default:0"`

	Project Project `gorm:"foreignKey:ProjectID"`
	Tasks   []Task  `gorm:"many2many:task_resources"`
}
