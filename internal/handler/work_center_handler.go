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

// WorkCenterRequest defines the structure for work center creation/update requests
type WorkCenterRequest struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	CapacityPerHour float64 `json:"capacity_per_hour"`
	CostPerHour     float64 `json:"cost_per_hour"`
	Status          string  `json:"status"`
}

// ListWorkCenters handles retrieving all work centers with optional filtering
func ListWorkCenters(c echo.Context) error {
	log := logger.FromContext(c)

	var centers []model.WorkCenter
	query := database.GetDB()

	status := c.QueryParam("status")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := query.Find(&centers); result.Error != nil {
		log.Error("Failed to list work centers", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve work centers"})
	}

	return c.JSON(http.StatusOK, centers)
}

// GetWorkCenter handles retrieving a single work center by ID
func GetWorkCenter(c echo.Context) error {
	id := c.Param("id")

	var center model.WorkCenter
	if result := database.GetDB().First(&center, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work center not found"})
	}

	return c.JSON(http.StatusOK, center)
}

// CreateWorkCenter handles creating a new work center
func CreateWorkCenter(c echo.Context) error {
	log := logger.FromContext(c)

	var req WorkCenterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Code == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and name are required"})
	}
	if req.Status == "" {
		req.Status = model.WorkCenterActive
	}
	if !model.ValidWorkCenterStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown work center status"})
	}

	var count int64
	database.GetDB().Model(&model.WorkCenter{}).Where("code = ?", req.Code).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "work center with this code already exists"})
	}

	center := model.WorkCenter{
		Code:            req.Code,
		Name:            req.Name,
		Description:     req.Description,
		CapacityPerHour: req.CapacityPerHour,
		CostPerHour:     req.CostPerHour,
		Status:          req.Status,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&center); result.Error != nil {
		log.Error("Failed to create work center", zap.String("code", req.Code), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create work center"})
	}

	log.Info("Work center created", zap.Uint("work_center_id", center.ID), zap.String("code", center.Code))
	return c.JSON(http.StatusCreated, center)
}

// UpdateWorkCenter handles updating an existing work center
func UpdateWorkCenter(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req WorkCenterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var center model.WorkCenter
	if result := database.GetDB().First(&center, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work center not found"})
	}

	if req.Status != "" {
		if !model.ValidWorkCenterStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown work center status"})
		}
		center.Status = req.Status
	}
	if req.Name != "" {
		center.Name = req.Name
	}
	if req.Description != "" {
		center.Description = req.Description
	}
	center.CapacityPerHour = req.CapacityPerHour
	center.CostPerHour = req.CostPerHour

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&center); result.Error != nil {
		log.Error("Failed to update work center", zap.String("work_center_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update work center"})
	}

	return c.JSON(http.StatusOK, center)
}

// DeleteWorkCenter handles deleting a work center (soft delete)
func DeleteWorkCenter(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.WorkCenter{}, id)
	if result.Error != nil {
		log.Error("Failed to delete work center", zap.String("work_center_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete work center"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work center not found"})
	}

	log.Info("Work center deleted", zap.String("work_center_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Work center deleted successfully"})
}
