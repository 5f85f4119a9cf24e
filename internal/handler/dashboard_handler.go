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

// percentChange computes period-over-period change; a previous period of
// zero maps to 100% when there is current activity, 0% otherwise
func percentChange(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// GetDashboardKPIs returns headline counts plus period-over-period
// percentage changes over a 30 day window
func GetDashboardKPIs(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	now := time.Now()
	periodStart := now.AddDate(0, 0, -30)
	previousStart := now.AddDate(0, 0, -60)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var materialCount int64
	db.Model(&model.Material{}).Count(&materialCount)

	var lowStockCount int64
	db.Model(&model.Material{}).
		Where("reorder_level > 0 AND stock_quantity <= reorder_level").
		Count(&lowStockCount)

	var openOrders int64
	db.Model(&model.ManufacturingOrder{}).
		Where("status IN ?", []string{model.OrderConfirmed, model.OrderInProgress}).
		Count(&openOrders)

	var pendingWorkOrders int64
	db.Model(&model.WorkOrder{}).
		Where("status IN ?", []string{model.WorkOrderPending, model.WorkOrderInProgress}).
		Count(&pendingWorkOrders)

	var openMaintenance int64
	db.Model(&model.MaintenanceRequest{}).
		Where("status IN ?", []string{model.MaintenanceOpen, model.MaintenanceInProgress}).
		Count(&openMaintenance)

	// Movements this period vs the one before
	var movementsCurrent, movementsPrevious int64
	db.Model(&model.StockLedgerEntry{}).
		Where("created_at >= ?", periodStart).
		Count(&movementsCurrent)
	db.Model(&model.StockLedgerEntry{}).
		Where("created_at >= ? AND created_at < ?", previousStart, periodStart).
		Count(&movementsPrevious)

	// Completed manufacturing orders this period vs the one before
	var completedCurrent, completedPrevious int64
	db.Model(&model.ManufacturingOrder{}).
		Where("status = ? AND updated_at >= ?", model.OrderDone, periodStart).
		Count(&completedCurrent)
	db.Model(&model.ManufacturingOrder{}).
		Where("status = ? AND updated_at >= ? AND updated_at < ?", model.OrderDone, previousStart, periodStart).
		Count(&completedPrevious)

	log.Info("Dashboard KPIs computed",
		zap.Int64("materials", materialCount),
		zap.Int64("open_orders", openOrders))

	return c.JSON(http.StatusOK, echo.Map{
		"materials":           materialCount,
		"low_stock_materials": lowStockCount,
		"open_orders":         openOrders,
		"pending_work_orders": pendingWorkOrders,
		"open_maintenance":    openMaintenance,
		"movements": echo.Map{
			"current":        movementsCurrent,
			"previous":       movementsPrevious,
			"percent_change": percentChange(movementsCurrent, movementsPrevious),
		},
		"completed_orders": echo.Map{
			"current":        completedCurrent,
			"previous":       completedPrevious,
			"percent_change": percentChange(completedCurrent, completedPrevious),
		},
	})
}
