package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"erp-service/internal/ledger"
	"erp-service/internal/model"
	"erp-service/pkg/database"
	"erp-service/pkg/logger"
	"erp-service/prometheus"
)

// MaterialRequest defines the structure for material creation/update requests
type MaterialRequest struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit"`
	UnitCost     float64 `json:"unit_cost"`
	ReorderLevel float64 `json:"reorder_level"`
	OpeningStock float64 `json:"opening_stock,omitempty"`
}

// ListMaterials handles retrieving all materials with optional filtering
func ListMaterials(c echo.Context) error {
	log := logger.FromContext(c)

	db := database.GetDB()
	var materials []model.Material

	query := db

	category := c.QueryParam("category")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	result := query.Find(&materials)
	if result.Error != nil {
		log.Error("Failed to list materials", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve materials"})
	}

	return c.JSON(http.StatusOK, materials)
}

// GetMaterial handles retrieving a single material by ID
func GetMaterial(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var material model.Material
	result := database.GetDB().First(&material, id)
	if result.Error != nil {
		log.Error("Material not found", zap.String("material_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
	}

	return c.JSON(http.StatusOK, material)
}

// CreateMaterial handles creating a new material. An opening stock, when
// given, goes through the ledger so the balance starts with an entry behind
// it rather than a bare number.
func CreateMaterial(c echo.Context) error {
	log := logger.FromContext(c)

	var req MaterialRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Code == "" || req.Name == "" || req.Unit == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code, name and unit are required"})
	}
	if req.OpeningStock < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "opening_stock cannot be negative"})
	}

	// Check if material with this code already exists
	var count int64
	database.GetDB().Model(&model.Material{}).Where("code = ?", req.Code).Count(&count)
	if count > 0 {
		log.Warn("Material with this code already exists", zap.String("code", req.Code))
		return c.JSON(http.StatusConflict, echo.Map{"error": "material with this code already exists"})
	}

	material := model.Material{
		Code:         req.Code,
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		UnitCost:     req.UnitCost,
		ReorderLevel: req.ReorderLevel,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&material); result.Error != nil {
		log.Error("Failed to create material",
			zap.String("code", req.Code),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create material"})
	}

	if req.OpeningStock > 0 {
		actorID, _ := c.Get("user_id").(uint)
		if _, err := ledger.Apply(database.GetDB(), ledger.Movement{
			MaterialID:   material.ID,
			MovementType: model.MovementIn,
			Quantity:     req.OpeningStock,
			Reason:       "opening balance",
			CreatedByID:  actorID,
		}); err != nil {
			log.Error("Failed to record opening balance",
				zap.Uint("material_id", material.ID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record opening balance"})
		}
		prometheus.RecordMovement(model.MovementIn)
		material.StockQuantity = req.OpeningStock
	}

	log.Info("Material created",
		zap.Uint("material_id", material.ID),
		zap.String("code", material.Code),
		zap.String("name", material.Name))
	return c.JSON(http.StatusCreated, material)
}

// UpdateMaterial handles updating an existing material. The cached stock
// quantity is never written here, the ledger owns it.
func UpdateMaterial(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req MaterialRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("material_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var material model.Material
	result := database.GetDB().First(&material, id)
	if result.Error != nil {
		log.Error("Material not found for update", zap.String("material_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
	}

	// Check if code is changed and if new code already exists
	if req.Code != "" && req.Code != material.Code {
		var count int64
		database.GetDB().Model(&model.Material{}).Where("code = ? AND id != ?", req.Code, id).Count(&count)
		if count > 0 {
			log.Warn("Material with this code already exists", zap.String("code", req.Code))
			return c.JSON(http.StatusConflict, echo.Map{"error": "material with this code already exists"})
		}
		material.Code = req.Code
	}

	if req.Name != "" {
		material.Name = req.Name
	}
	if req.Category != "" {
		material.Category = req.Category
	}
	if req.Unit != "" {
		material.Unit = req.Unit
	}
	material.UnitCost = req.UnitCost
	material.ReorderLevel = req.ReorderLevel

	defer prometheus.TrackDBOperation("update")(time.Now())
	result = database.GetDB().Save(&material)
	if result.Error != nil {
		log.Error("Failed to update material", zap.String("material_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update material"})
	}

	log.Info("Material updated",
		zap.String("material_id", id),
		zap.String("code", material.Code))
	return c.JSON(http.StatusOK, material)
}

// DeleteMaterial handles deleting a material (soft delete)
func DeleteMaterial(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.Material{}, id)
	if result.Error != nil {
		log.Error("Failed to delete material", zap.String("material_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete material"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
	}

	log.Info("Material deleted", zap.String("material_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Material deleted successfully"})
}

// ListLowStockMaterials returns materials at or below their reorder level
func ListLowStockMaterials(c echo.Context) error {
	log := logger.FromContext(c)

	var materials []model.Material
	defer prometheus.TrackDBOperation("query")(time.Now())
	result := database.GetDB().
		Where("reorder_level > 0 AND stock_quantity <= reorder_level").
		Order("stock_quantity asc").
		Find(&materials)
	if result.Error != nil {
		log.Error("Failed to list low stock materials", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve materials"})
	}

	log.Info("Low stock materials retrieved", zap.Int("count", len(materials)))
	return c.JSON(http.StatusOK, materials)
}

// parseLimit reads a limit query parameter with a default and upper bound
func parseLimit(c echo.Context, def, max int) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
