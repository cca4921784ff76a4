package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string    `gorm:"not null"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Memberships   []ProjectMembership `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Boards        []Board             `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Tasks         []Task              `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Notifications []Notification      `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}
