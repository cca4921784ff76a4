package model

import (
	"time"

	"github.com/google/uuid"
)

// Board is a status lane inside a project. The unique index on
// (project_id, status) is what keeps one board per status even when
// two requests provision defaults at the same time.
type Board struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_board_project_status"`
	Name        string    `gorm:"not null"`
	Status      Status    `gorm:"not null;uniqueIndex:idx_board_project_status"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Project Project `gorm:"foreignKey:ProjectID"`
	Tasks   []Task  `gorm:"foreignKey:BoardID"`
}
