package model

import (
	"time"

	"gorm.io/gorm"
)

// Material represents a raw material or component tracked in inventory.
// StockQuantity is a denormalized cache of the stock ledger; it is mutated
// only through the ledger package, never written directly by handlers.
type Material struct {
	ID            uint           `json:"id" gorm:"primarykey"`
	Code          string         `json:"code" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name          string         `json:"name" gorm:"type:varchar(255);not null"`
	Category      string         `json:"category" gorm:"type:varchar(100)"`
	Unit          string         `json:"unit" gorm:"type:varchar(50);not null"`
	StockQuantity float64        `json:"stock_quantity" gorm:"default:0"`
	UnitCost      float64        `json:"unit_cost"`
	ReorderLevel  float64        `json:"reorder_level" gorm:"default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
