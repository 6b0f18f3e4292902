package model

import (
	"time"

	"github.com/google/uuid"
)

// ProjectMember links a user to a project with a role.
type ProjectMember struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Role      string    `gorm:"not null;check:role IN ('viewer', 'editor')"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Project Project `gorm:"foreignKey:ProjectID"`
	User    User    `gorm:"foreignKey:UserID"`
}

// Project roles
const (
	RoleViewer = "viewer" // read-only access to the schedule
	RoleEditor = "editor" // may mutate tasks and dependencies
)
