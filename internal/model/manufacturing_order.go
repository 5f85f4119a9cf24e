package model

import (
	"time"

	"gorm.io/gorm"
)

// Manufacturing order statuses
const (
	OrderDraft      = "draft"
	OrderConfirmed  = "confirmed"
	OrderInProgress = "in_progress"
	OrderDone       = "done"
	OrderCancelled  = "cancelled"
)

// ValidOrderStatus reports whether the given status is a known order status
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderDraft, OrderConfirmed, OrderInProgress, OrderDone, OrderCancelled:
		return true
	}
	return false
}

// ManufacturingOrder represents an order to produce a quantity of a product
type ManufacturingOrder struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	OrderNumber string         `json:"order_number" gorm:"type:varchar(100);uniqueIndex;not null"`
	ProductName string         `json:"product_name" gorm:"type:varchar(255);not null"`
	BOMID       *uint          `json:"bom_id,omitempty" gorm:"index"`
	Quantity    float64        `json:"quantity" gorm:"not null"`
	Status      string         `json:"status" gorm:"type:varchar(50);not null;default:'draft'"`
	Priority    string         `json:"priority" gorm:"type:varchar(20);default:'normal'"`
	StartDate   *time.Time     `json:"start_date,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	CreatedByID uint           `json:"created_by_id" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	BOM        *BillOfMaterials `json:"bom,omitempty" gorm:"foreignKey:BOMID"`
	WorkOrders []WorkOrder      `json:"work_orders,omitempty" gorm:"foreignKey:ManufacturingOrderID"`
}
