package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
)

// SystemUser is a staff account allowed to operate the point of sale.
type SystemUser struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Username       string     `gorm:"size:100;unique;not null" json:"username"`
	PasswordHash   string     `gorm:"size:255;not null" json:"-"`
	FullName       string     `gorm:"size:255;not null" json:"full_name"`
	Role           enum.Role  `gorm:"size:20;not null;default:'user'" json:"role"`
	Active         bool       `gorm:"not null;default:true" json:"active"`
	FailedAttempts int        `gorm:"not null;default:0" json:"-"`
	FirstFailedAt  *time.Time `json:"-"` // start of the current failure window
	LastFailedAt   *time.Time `json:"-"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new user
func (u *SystemUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SystemUser model
func (SystemUser) TableName() string {
	return "usuarios_sistema"
}

// IsLocked reports whether the account is locked at now.
func (u *SystemUser) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// IsAdmin checks if the user has the admin role
func (u *SystemUser) IsAdmin() bool {
	return u.Role.IsAdmin()
}
