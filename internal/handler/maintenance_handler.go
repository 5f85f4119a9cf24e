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

// MaintenanceRequestBody defines the structure for maintenance ticket requests
type MaintenanceRequestBody struct {
	WorkCenterID uint   `json:"work_center_id"`
	Subject      string `json:"subject"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	Status       string `json:"status"`
}

// ListMaintenanceRequests handles retrieving maintenance tickets with optional filtering
func ListMaintenanceRequests(c echo.Context) error {
	log := logger.FromContext(c)

	var requests []model.MaintenanceRequest
	query := database.GetDB().Preload("WorkCenter")

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if wcID := c.QueryParam("work_center_id"); wcID != "" {
		query = query.Where("work_center_id = ?", wcID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := query.Order("created_at desc").Find(&requests); result.Error != nil {
		log.Error("Failed to list maintenance requests", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve maintenance requests"})
	}

	return c.JSON(http.StatusOK, requests)
}

// GetMaintenanceRequest handles retrieving a single ticket by ID
func GetMaintenanceRequest(c echo.Context) error {
	id := c.Param("id")

	var request model.MaintenanceRequest
	if result := database.GetDB().Preload("WorkCenter").First(&request, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "maintenance request not found"})
	}

	return c.JSON(http.StatusOK, request)
}

// CreateMaintenanceRequest handles raising a maintenance ticket
func CreateMaintenanceRequest(c echo.Context) error {
	log := logger.FromContext(c)

	var req MaintenanceRequestBody
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.WorkCenterID == 0 || req.Subject == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "work_center_id and subject are required"})
	}

	var wc model.WorkCenter
	if result := database.GetDB().First(&wc, req.WorkCenterID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work center not found"})
	}

	actorID, _ := c.Get("user_id").(uint)
	request := model.MaintenanceRequest{
		WorkCenterID:  req.WorkCenterID,
		Subject:       req.Subject,
		Description:   req.Description,
		Priority:      req.Priority,
		Status:        model.MaintenanceOpen,
		RequestedByID: actorID,
	}
	if request.Priority == "" {
		request.Priority = "normal"
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&request); result.Error != nil {
		log.Error("Failed to create maintenance request", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create maintenance request"})
	}

	log.Info("Maintenance request created",
		zap.Uint("request_id", request.ID),
		zap.Uint("work_center_id", request.WorkCenterID))
	return c.JSON(http.StatusCreated, request)
}

// UpdateMaintenanceRequest handles updating a ticket, stamping ResolvedAt on resolution
func UpdateMaintenanceRequest(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req MaintenanceRequestBody
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var request model.MaintenanceRequest
	if result := database.GetDB().First(&request, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "maintenance request not found"})
	}

	if req.Status != "" {
		if !model.ValidMaintenanceStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown maintenance status"})
		}
		if req.Status == model.MaintenanceResolved && request.Status != model.MaintenanceResolved {
			now := time.Now()
			request.ResolvedAt = &now
		}
		request.Status = req.Status
	}
	if req.Subject != "" {
		request.Subject = req.Subject
	}
	if req.Description != "" {
		request.Description = req.Description
	}
	if req.Priority != "" {
		request.Priority = req.Priority
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&request); result.Error != nil {
		log.Error("Failed to update maintenance request", zap.String("request_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update maintenance request"})
	}

	log.Info("Maintenance request updated", zap.String("request_id", id), zap.String("status", request.Status))
	return c.JSON(http.StatusOK, request)
}

// DeleteMaintenanceRequest handles deleting a ticket (soft delete)
func DeleteMaintenanceRequest(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.MaintenanceRequest{}, id)
	if result.Error != nil {
		log.Error("Failed to delete maintenance request", zap.String("request_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete maintenance request"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "maintenance request not found"})
	}

	log.Info("Maintenance request deleted", zap.String("request_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Maintenance request deleted successfully"})
}
