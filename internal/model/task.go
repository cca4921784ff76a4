package model

import (
	"time"

	"github.com/google/uuid"
)

// Task belongs to a project and, once a matching board exists, to the
// board whose status equals its own. BoardID is a single nullable
// column, so a task can never sit on two boards at once; status and
// board are always written together in one transaction.
type Task struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index"`
	BoardID   *uuid.UUID `gorm:"type:uuid;index"`
	Title     string     `gorm:"not null"`
	Status    Status     `gorm:"not null"`
	DueDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	Project Project `gorm:"foreignKey:ProjectID"`
	Board   *Board  `gorm:"foreignKey:BoardID"`
}
