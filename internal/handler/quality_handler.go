package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"erp-service/internal/model"
	"erp-service/pkg/database"
	"erp-service/pkg/logger"
	"erp-service/prometheus"
)

// QualityCheckRequest defines the structure for quality check requests
type QualityCheckRequest struct {
	WorkOrderID uint   `json:"work_order_id"`
	CheckType   string `json:"check_type"`
	Result      string `json:"result"`
	Notes       string `json:"notes"`
}

// ListQualityChecks handles retrieving quality checks with optional filtering
func ListQualityChecks(c echo.Context) error {
	log := logger.FromContext(c)

	var checks []model.QualityCheck
	query := database.GetDB().Preload("WorkOrder")

	if result := c.QueryParam("result"); result != "" {
		query = query.Where("result = ?", result)
	}
	if woID := c.QueryParam("work_order_id"); woID != "" {
		query = query.Where("work_order_id = ?", woID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := query.Order("created_at desc").Find(&checks); result.Error != nil {
		log.Error("Failed to list quality checks", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve quality checks"})
	}

	return c.JSON(http.StatusOK, checks)
}

// GetQualityCheck handles retrieving a single quality check by ID
func GetQualityCheck(c echo.Context) error {
	id := c.Param("id")

	var check model.QualityCheck
	if result := database.GetDB().Preload("WorkOrder").First(&check, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "quality check not found"})
	}

	return c.JSON(http.StatusOK, check)
}

// CreateQualityCheck handles recording a quality inspection against a work order
func CreateQualityCheck(c echo.Context) error {
	log := logger.FromContext(c)

	var req QualityCheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.WorkOrderID == 0 || req.CheckType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "work_order_id and check_type are required"})
	}
	if req.Result == "" {
		req.Result = model.QualityPending
	}
	if !model.ValidQualityResult(req.Result) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown quality result"})
	}

	var wo model.WorkOrder
	if result := database.GetDB().First(&wo, req.WorkOrderID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work order not found"})
	}

	actorID, _ := c.Get("user_id").(uint)
	check := model.QualityCheck{
		WorkOrderID:   req.WorkOrderID,
		CheckType:     req.CheckType,
		Result:        req.Result,
		Notes:         req.Notes,
		InspectedByID: actorID,
	}
	if req.Result != model.QualityPending {
		now := time.Now()
		check.InspectedAt = &now
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&check); result.Error != nil {
		log.Error("Failed to create quality check", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create quality check"})
	}

	log.Info("Quality check recorded",
		zap.Uint("check_id", check.ID),
		zap.Uint("work_order_id", check.WorkOrderID),
		zap.String("result", check.Result))
	return c.JSON(http.StatusCreated, check)
}

// UpdateQualityCheck handles recording the outcome of a pending inspection
func UpdateQualityCheck(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req QualityCheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var check model.QualityCheck
	if result := database.GetDB().First(&check, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "quality check not found"})
	}

	if req.Result != "" {
		if !model.ValidQualityResult(req.Result) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown quality result"})
		}
		if req.Result != model.QualityPending && check.InspectedAt == nil {
			now := time.Now()
			check.InspectedAt = &now
		}
		check.Result = req.Result
	}
	if req.Notes != "" {
		check.Notes = req.Notes
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&check); result.Error != nil {
		log.Error("Failed to update quality check", zap.String("check_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update quality check"})
	}

	log.Info("Quality check updated", zap.String("check_id", id), zap.String("result", check.Result))
	return c.JSON(http.StatusOK, check)
}

// DeleteQualityCheck handles deleting a quality check (soft delete)
func DeleteQualityCheck(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.QualityCheck{}, id)
	if result.Error != nil {
		log.Error("Failed to delete quality check", zap.String("check_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete quality check"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "quality check not found"})
	}

	log.Info("Quality check deleted", zap.String("check_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Quality check deleted successfully"})
}
