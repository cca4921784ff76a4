package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. Users join projects through
// ProjectMembership and own the notifications addressed to them;
// membership is looked up by email, so email is unique.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	Name           string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`

	Memberships   []ProjectMembership `gorm:"foreignKey:UserID"`
	Notifications []Notification      `gorm:"foreignKey:UserID"`
}
