package model

import (
	"time"

	"gorm.io/gorm"
)

// Quality check results
const (
	QualityPending = "pending"
	QualityPass    = "pass"
	QualityFail    = "fail"
)

// ValidQualityResult reports whether the given result is a known quality result
func ValidQualityResult(result string) bool {
	switch result {
	case QualityPending, QualityPass, QualityFail:
		return true
	}
	return false
}

// QualityCheck records an inspection performed on a work order
type QualityCheck struct {
	ID            uint           `json:"id" gorm:"primarykey"`
	WorkOrderID   uint           `json:"work_order_id" gorm:"index;not null"`
	CheckType     string         `json:"check_type" gorm:"type:varchar(100);not null"`
	Result        string         `json:"result" gorm:"type:varchar(20);not null;default:'pending'"`
	Notes         string         `json:"notes" gorm:"type:text"`
	InspectedByID uint           `json:"inspected_by_id" gorm:"index"`
	InspectedAt   *time.Time     `json:"inspected_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	WorkOrder WorkOrder `json:"work_order,omitempty" gorm:"foreignKey:WorkOrderID"`
}
