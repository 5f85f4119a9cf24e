package model

import (
	"time"

	"gorm.io/gorm"
)

// Maintenance request statuses
const (
	MaintenanceOpen       = "open"
	MaintenanceInProgress = "in_progress"
	MaintenanceResolved   = "resolved"
	MaintenanceClosed     = "closed"
)

// ValidMaintenanceStatus reports whether the given status is a known maintenance status
func ValidMaintenanceStatus(status string) bool {
	switch status {
	case MaintenanceOpen, MaintenanceInProgress, MaintenanceResolved, MaintenanceClosed:
		return true
	}
	return false
}

// MaintenanceRequest represents a maintenance ticket raised against a work center
type MaintenanceRequest struct {
	ID            uint           `json:"id" gorm:"primarykey"`
	WorkCenterID  uint           `json:"work_center_id" gorm:"index;not null"`
	Subject       string         `json:"subject" gorm:"type:varchar(255);not null"`
	Description   string         `json:"description" gorm:"type:text"`
	Priority      string         `json:"priority" gorm:"type:varchar(20);default:'normal'"`
	Status        string         `json:"status" gorm:"type:varchar(50);not null;default:'open'"`
	RequestedByID uint           `json:"requested_by_id" gorm:"index"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	WorkCenter WorkCenter `json:"work_center,omitempty" gorm:"foreignKey:WorkCenterID"`
}
