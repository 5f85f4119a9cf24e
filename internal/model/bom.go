package model

import (
	"time"

	"gorm.io/gorm"
)

// BillOfMaterials lists the materials required to produce one unit of a product
type BillOfMaterials struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	Reference   string         `json:"reference" gorm:"type:varchar(100);uniqueIndex;not null"`
	ProductName string         `json:"product_name" gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	Components []BOMComponent `json:"components,omitempty" gorm:"foreignKey:BillOfMaterialsID"`
}

// BOMComponent is one material line of a bill of materials
type BOMComponent struct {
	ID                uint    `json:"id" gorm:"primarykey"`
	BillOfMaterialsID uint    `json:"bill_of_materials_id" gorm:"index;not null"`
	MaterialID        uint    `json:"material_id" gorm:"index;not null"`
	Quantity          float64 `json:"quantity" gorm:"not null"`
	Unit              string  `json:"unit" gorm:"type:varchar(50)"`

	// Relations
	Material Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}
