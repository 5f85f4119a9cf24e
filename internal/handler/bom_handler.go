package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"erp-service/internal/model"
	"erp-service/pkg/database"
	"erp-service/pkg/logger"
	"erp-service/prometheus"
)

// BOMComponentRequest is one material line of a BOM request
type BOMComponentRequest struct {
	MaterialID uint    `json:"material_id"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
}

// BOMRequest defines the structure for bill of materials creation/update requests
type BOMRequest struct {
	Reference   string                `json:"reference"`
	ProductName string                `json:"product_name"`
	Description string                `json:"description"`
	Components  []BOMComponentRequest `json:"components"`
}

// ListBOMs handles retrieving all bills of materials
func ListBOMs(c echo.Context) error {
	log := logger.FromContext(c)

	var boms []model.BillOfMaterials
	defer prometheus.TrackDBOperation("query")(time.Now())
	result := database.GetDB().Preload("Components").Preload("Components.Material").Find(&boms)
	if result.Error != nil {
		log.Error("Failed to list BOMs", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve bills of materials"})
	}

	return c.JSON(http.StatusOK, boms)
}

// GetBOM handles retrieving a single bill of materials by ID
func GetBOM(c echo.Context) error {
	id := c.Param("id")

	var bom model.BillOfMaterials
	result := database.GetDB().Preload("Components").Preload("Components.Material").First(&bom, id)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bill of materials not found"})
	}

	return c.JSON(http.StatusOK, bom)
}

// CreateBOM handles creating a bill of materials with its component lines
func CreateBOM(c echo.Context) error {
	log := logger.FromContext(c)

	var req BOMRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Reference == "" || req.ProductName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference and product_name are required"})
	}
	for _, comp := range req.Components {
		if comp.MaterialID == 0 || comp.Quantity <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each component needs a material_id and a positive quantity"})
		}
	}

	var count int64
	database.GetDB().Model(&model.BillOfMaterials{}).Where("reference = ?", req.Reference).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "bill of materials with this reference already exists"})
	}

	// Header and lines are one unit, create them in a single transaction
	bom := model.BillOfMaterials{
		Reference:   req.Reference,
		ProductName: req.ProductName,
		Description: req.Description,
		IsActive:    true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&bom).Error; err != nil {
			return err
		}
		for _, comp := range req.Components {
			var material model.Material
			if err := tx.First(&material, comp.MaterialID).Error; err != nil {
				return err
			}
			unit := comp.Unit
			if unit == "" {
				unit = material.Unit
			}
			line := model.BOMComponent{
				BillOfMaterialsID: bom.ID,
				MaterialID:        comp.MaterialID,
				Quantity:          comp.Quantity,
				Unit:              unit,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to create BOM", zap.String("reference", req.Reference), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to create bill of materials, check component materials exist"})
	}

	database.GetDB().Preload("Components").Preload("Components.Material").First(&bom, bom.ID)

	log.Info("BOM created",
		zap.Uint("bom_id", bom.ID),
		zap.String("reference", bom.Reference),
		zap.Int("components", len(req.Components)))
	return c.JSON(http.StatusCreated, bom)
}

// UpdateBOM handles updating a bill of materials header and replacing its components
func UpdateBOM(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req BOMRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var bom model.BillOfMaterials
	if result := database.GetDB().First(&bom, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bill of materials not found"})
	}

	if req.ProductName != "" {
		bom.ProductName = req.ProductName
	}
	if req.Description != "" {
		bom.Description = req.Description
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&bom).Error; err != nil {
			return err
		}
		if req.Components == nil {
			return nil
		}
		// Components are replaced wholesale, not merged
		if err := tx.Where("bill_of_materials_id = ?", bom.ID).Delete(&model.BOMComponent{}).Error; err != nil {
			return err
		}
		for _, comp := range req.Components {
			line := model.BOMComponent{
				BillOfMaterialsID: bom.ID,
				MaterialID:        comp.MaterialID,
				Quantity:          comp.Quantity,
				Unit:              comp.Unit,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to update BOM", zap.String("bom_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update bill of materials"})
	}

	database.GetDB().Preload("Components").Preload("Components.Material").First(&bom, bom.ID)
	return c.JSON(http.StatusOK, bom)
}

// DeleteBOM handles deleting a bill of materials (soft delete)
func DeleteBOM(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.BillOfMaterials{}, id)
	if result.Error != nil {
		log.Error("Failed to delete BOM", zap.String("bom_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete bill of materials"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bill of materials not found"})
	}

	log.Info("BOM deleted", zap.String("bom_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Bill of materials deleted successfully"})
}
