package model

import "time"

// Stock movement types
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
	MovementTransfer   = "transfer"
)

// StockLedgerEntry records one movement against a material, including the
// resulting balance snapshot. Entries are immutable once created: there is no
// UpdatedAt and no soft delete, a reversal removes the row outright.
type StockLedgerEntry struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	MaterialID   uint      `json:"material_id" gorm:"index;not null"`
	MovementType string    `json:"movement_type" gorm:"type:varchar(20);not null"`
	Quantity     float64   `json:"quantity" gorm:"not null"`
	BalanceAfter float64   `json:"balance_after" gorm:"not null"`
	Reason       string    `json:"reason" gorm:"type:varchar(255)"`
	Reference    string    `json:"reference" gorm:"type:varchar(100)"`
	Notes        string    `json:"notes" gorm:"type:text"`
	CreatedByID  uint      `json:"created_by_id" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Material  Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
	CreatedBy User     `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
}
