package model

import (
	"time"

	"gorm.io/gorm"
)

// Work order statuses
const (
	WorkOrderPending    = "pending"
	WorkOrderInProgress = "in_progress"
	WorkOrderPaused     = "paused"
	WorkOrderCompleted  = "completed"
)

// ValidWorkOrderStatus reports whether the given status is a known work order status
func ValidWorkOrderStatus(status string) bool {
	switch status {
	case WorkOrderPending, WorkOrderInProgress, WorkOrderPaused, WorkOrderCompleted:
		return true
	}
	return false
}

// WorkOrder represents a single operation of a manufacturing order executed
// at a work center
type WorkOrder struct {
	ID                   uint           `json:"id" gorm:"primarykey"`
	ManufacturingOrderID uint           `json:"manufacturing_order_id" gorm:"index;not null"`
	WorkCenterID         uint           `json:"work_center_id" gorm:"index;not null"`
	Operation            string         `json:"operation" gorm:"type:varchar(255);not null"`
	Status               string         `json:"status" gorm:"type:varchar(50);not null;default:'pending'"`
	AssignedToID         *uint          `json:"assigned_to_id,omitempty" gorm:"index"`
	PlannedHours         float64        `json:"planned_hours"`
	ActualHours          float64        `json:"actual_hours"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	ManufacturingOrder ManufacturingOrder `json:"manufacturing_order,omitempty" gorm:"foreignKey:ManufacturingOrderID"`
	WorkCenter         WorkCenter         `json:"work_center,omitempty" gorm:"foreignKey:WorkCenterID"`
	AssignedTo         *User              `json:"assigned_to,omitempty" gorm:"foreignKey:AssignedToID"`
}
