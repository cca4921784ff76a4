package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an append-only per-user ledger entry. It starts
// unread and can only move to read; it is never reopened or deleted
// directly. Deleting a project removes its notifications via FK
// cascade; the task/board references are display context only and are
// nulled out when their target goes away.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProjectID *uuid.UUID `gorm:"type:uuid"`
	TaskID    *uuid.UUID `gorm:"type:uuid"`
	BoardID   *uuid.UUID `gorm:"type:uuid"`
	Message   string     `gorm:"not null"`
	IsRead    bool       `gorm:"not null;default:false"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`

	User  User   `gorm:"foreignKey:UserID"`
	Task  *Task  `gorm:"foreignKey:TaskID;constraint:OnDelete:SET NULL"`
	Board *Board `gorm:"foreignKey:BoardID;constraint:OnDelete:SET NULL"`
}
