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

// ManufacturingOrderRequest defines the structure for order creation/update requests
type ManufacturingOrderRequest struct {
	OrderNumber string     `json:"order_number"`
	ProductName string     `json:"product_name"`
	BOMID       *uint      `json:"bom_id,omitempty"`
	Quantity    float64    `json:"quantity"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// ListManufacturingOrders handles retrieving orders with optional filtering
func ListManufacturingOrders(c echo.Context) error {
	log := logger.FromContext(c)

	var orders []model.ManufacturingOrder
	query := database.GetDB().Preload("WorkOrders")

	status := c.QueryParam("status")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := query.Order("created_at desc").Find(&orders); result.Error != nil {
		log.Error("Failed to list manufacturing orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, orders)
}

// GetManufacturingOrder handles retrieving a single order by ID
func GetManufacturingOrder(c echo.Context) error {
	id := c.Param("id")

	var order model.ManufacturingOrder
	result := database.GetDB().Preload("WorkOrders").Preload("BOM").First(&order, id)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "manufacturing order not found"})
	}

	return c.JSON(http.StatusOK, order)
}

// CreateManufacturingOrder handles creating a new order
func CreateManufacturingOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var req ManufacturingOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.OrderNumber == "" || req.ProductName == "" || req.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_number, product_name and a positive quantity are required"})
	}
	if req.Status == "" {
		req.Status = model.OrderDraft
	}
	if !model.ValidOrderStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order status"})
	}

	var count int64
	database.GetDB().Model(&model.ManufacturingOrder{}).Where("order_number = ?", req.OrderNumber).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order with this number already exists"})
	}

	// Reject references to missing bills of materials up front
	if req.BOMID != nil {
		var bom model.BillOfMaterials
		if result := database.GetDB().First(&bom, *req.BOMID); result.Error != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bill of materials not found"})
		}
	}

	actorID, _ := c.Get("user_id").(uint)
	order := model.ManufacturingOrder{
		OrderNumber: req.OrderNumber,
		ProductName: req.ProductName,
		BOMID:       req.BOMID,
		Quantity:    req.Quantity,
		Status:      req.Status,
		Priority:    req.Priority,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		CreatedByID: actorID,
	}
	if order.Priority == "" {
		order.Priority = "normal"
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&order); result.Error != nil {
		log.Error("Failed to create manufacturing order",
			zap.String("order_number", req.OrderNumber),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}

	log.Info("Manufacturing order created",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber))
	return c.JSON(http.StatusCreated, order)
}

// UpdateManufacturingOrder handles updating an existing order
func UpdateManufacturingOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req ManufacturingOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var order model.ManufacturingOrder
	if result := database.GetDB().First(&order, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "manufacturing order not found"})
	}

	if req.Status != "" {
		if !model.ValidOrderStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order status"})
		}
		order.Status = req.Status
	}
	if req.ProductName != "" {
		order.ProductName = req.ProductName
	}
	if req.Quantity > 0 {
		order.Quantity = req.Quantity
	}
	if req.Priority != "" {
		order.Priority = req.Priority
	}
	if req.StartDate != nil {
		order.StartDate = req.StartDate
	}
	if req.DueDate != nil {
		order.DueDate = req.DueDate
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&order); result.Error != nil {
		log.Error("Failed to update manufacturing order", zap.String("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}

	log.Info("Manufacturing order updated",
		zap.String("order_id", id),
		zap.String("status", order.Status))
	return c.JSON(http.StatusOK, order)
}

// DeleteManufacturingOrder handles deleting an order (soft delete)
func DeleteManufacturingOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.ManufacturingOrder{}, id)
	if result.Error != nil {
		log.Error("Failed to delete manufacturing order", zap.String("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete order"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "manufacturing order not found"})
	}

	log.Info("Manufacturing order deleted", zap.String("order_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Manufacturing order deleted successfully"})
}
