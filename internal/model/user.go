package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Role checks downstream are plain set membership, so a new role
// only needs a constant here and a place in the route group presets.
const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleOperator  = "operator"
	RoleInventory = "inventory"
)

// ValidRole reports whether the given role is one of the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator, RoleInventory:
		return true
	}
	return false
}

// User represents the user model stored in the database
type User struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"type:varchar(100)"`
	Email         string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password      string         `json:"-" gorm:"type:varchar(255)"`
	Role          string         `json:"role" gorm:"type:varchar(50);not null;default:'operator'"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`
	EmailVerified bool           `json:"email_verified" gorm:"default:false"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}
