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

// WorkOrderRequest defines the structure for work order creation/update requests
type WorkOrderRequest struct {
	ManufacturingOrderID uint    `json:"manufacturing_order_id"`
	WorkCenterID         uint    `json:"work_center_id"`
	Operation            string  `json:"operation"`
	Status               string  `json:"status"`
	AssignedToID         *uint   `json:"assigned_to_id,omitempty"`
	PlannedHours         float64 `json:"planned_hours"`
	ActualHours          float64 `json:"actual_hours"`
}

// ListWorkOrders handles retrieving work orders with optional filtering
func ListWorkOrders(c echo.Context) error {
	log := logger.FromContext(c)

	var orders []model.WorkOrder
	query := database.GetDB().Preload("WorkCenter")

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if moID := c.QueryParam("manufacturing_order_id"); moID != "" {
		query = query.Where("manufacturing_order_id = ?", moID)
	}
	if wcID := c.QueryParam("work_center_id"); wcID != "" {
		query = query.Where("work_center_id = ?", wcID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := query.Find(&orders); result.Error != nil {
		log.Error("Failed to list work orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve work orders"})
	}

	return c.JSON(http.StatusOK, orders)
}

// GetWorkOrder handles retrieving a single work order by ID
func GetWorkOrder(c echo.Context) error {
	id := c.Param("id")

	var order model.WorkOrder
	result := database.GetDB().Preload("WorkCenter").Preload("ManufacturingOrder").First(&order, id)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work order not found"})
	}

	return c.JSON(http.StatusOK, order)
}

// CreateWorkOrder handles creating a new work order
func CreateWorkOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var req WorkOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.ManufacturingOrderID == 0 || req.WorkCenterID == 0 || req.Operation == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "manufacturing_order_id, work_center_id and operation are required"})
	}
	if req.Status == "" {
		req.Status = model.WorkOrderPending
	}
	if !model.ValidWorkOrderStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown work order status"})
	}

	var mo model.ManufacturingOrder
	if result := database.GetDB().First(&mo, req.ManufacturingOrderID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "manufacturing order not found"})
	}
	var wc model.WorkCenter
	if result := database.GetDB().First(&wc, req.WorkCenterID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work center not found"})
	}

	order := model.WorkOrder{
		ManufacturingOrderID: req.ManufacturingOrderID,
		WorkCenterID:         req.WorkCenterID,
		Operation:            req.Operation,
		Status:               req.Status,
		AssignedToID:         req.AssignedToID,
		PlannedHours:         req.PlannedHours,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&order); result.Error != nil {
		log.Error("Failed to create work order", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create work order"})
	}

	log.Info("Work order created",
		zap.Uint("work_order_id", order.ID),
		zap.Uint("manufacturing_order_id", order.ManufacturingOrderID),
		zap.String("operation", order.Operation))
	return c.JSON(http.StatusCreated, order)
}

// UpdateWorkOrder handles updating an existing work order
func UpdateWorkOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req WorkOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var order model.WorkOrder
	if result := database.GetDB().First(&order, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work order not found"})
	}

	if req.Status != "" {
		if !model.ValidWorkOrderStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown work order status"})
		}
		order.Status = req.Status
	}
	if req.Operation != "" {
		order.Operation = req.Operation
	}
	if req.AssignedToID != nil {
		order.AssignedToID = req.AssignedToID
	}
	if req.PlannedHours > 0 {
		order.PlannedHours = req.PlannedHours
	}
	if req.ActualHours > 0 {
		order.ActualHours = req.ActualHours
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&order); result.Error != nil {
		log.Error("Failed to update work order", zap.String("work_order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update work order"})
	}

	log.Info("Work order updated", zap.String("work_order_id", id), zap.String("status", order.Status))
	return c.JSON(http.StatusOK, order)
}

// DeleteWorkOrder handles deleting a work order (soft delete)
func DeleteWorkOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.WorkOrder{}, id)
	if result.Error != nil {
		log.Error("Failed to delete work order", zap.String("work_order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete work order"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "work order not found"})
	}

	log.Info("Work order deleted", zap.String("work_order_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Work order deleted successfully"})
}
