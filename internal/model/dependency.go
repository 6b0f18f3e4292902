package model

import (
	"time"

	"github.com/google/uuid"
)

// Precedence semantics for a dependency edge.
const (
	DepFinishToStart  = "FS"
	DepStartToStart   = "SS"
	DepFinishToFinish = "FF"
	DepStartToFinish  = "SF"
)

// ValidDependencyType reports whether t is one of FS/SS/FF/SF.
func ValidDependencyType(t string) bool {
	switch t {
	case DepFinishToStart, DepStartToStart, DepFinishToFinish, DepStartToFinish:
		return true
	}
	return false
}

// TaskDependency is a directed precedence edge between two tasks of the
// same project. Lag is in days; negative values are leads.
type TaskDependency struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index"`
	PredecessorID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_dep_pair,priority:1"`
	SuccessorID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_dep_pair,priority:2"`
	Type          string    `gorm:"not null;default:'FS';check:type IN ('FS', 'SS', 'FF', 'SF')"`
	Lag           int       `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`

	Project     Project `gorm:"foreignKey:ProjectID"`
	Predecessor Task    `gorm:"foreignKey:PredecessorID"`
	Successor   Task    `gorm:"foreignKey:SuccessorID"`
}
