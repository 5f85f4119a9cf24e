package model

import (
	"time"

	"gorm.io/gorm"
)

// Work center statuses
const (
	WorkCenterActive      = "active"
	WorkCenterMaintenance = "maintenance"
	WorkCenterInactive    = "inactive"
)

// ValidWorkCenterStatus reports whether the given status is a known work center status
func ValidWorkCenterStatus(status string) bool {
	switch status {
	case WorkCenterActive, WorkCenterMaintenance, WorkCenterInactive:
		return true
	}
	return false
}

// WorkCenter represents a production resource (machine, line or station)
type WorkCenter struct {
	ID              uint           `json:"id" gorm:"primarykey"`
	Code            string         `json:"code" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name            string         `json:"name" gorm:"type:varchar(255);not null"`
	Description     string         `json:"description" gorm:"type:text"`
	CapacityPerHour float64        `json:"capacity_per_hour"`
	CostPerHour     float64        `json:"cost_per_hour"`
	Status          string         `json:"status" gorm:"type:varchar(50);not null;default:'active'"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
