package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"erp-service/internal/model"
	"erp-service/pkg/database"
	"erp-service/pkg/logger"
	"erp-service/prometheus"
)

// GetMaterialForecast projects when a material will run out of stock by
// linear extrapolation of its net daily consumption over a trailing window
// of ledger entries. On-demand only, nothing is persisted.
func GetMaterialForecast(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	windowDays := 30
	if raw := c.QueryParam("days"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 365 {
			windowDays = v
		}
	}

	var material model.Material
	if result := database.GetDB().First(&material, id); result.Error != nil {
		log.Error("Material not found for forecast", zap.String("material_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
	}

	since := time.Now().AddDate(0, 0, -windowDays)
	var entries []model.StockLedgerEntry
	defer prometheus.TrackDBOperation("query")(time.Now())
	result := database.GetDB().
		Where("material_id = ? AND created_at >= ?", material.ID, since).
		Order("created_at asc").
		Find(&entries)
	if result.Error != nil {
		log.Error("Failed to load ledger history", zap.String("material_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load ledger history"})
	}

	var consumed float64
	for _, e := range entries {
		if e.MovementType == model.MovementOut {
			consumed += e.Quantity
		}
	}

	dailyConsumption := consumed / float64(windowDays)

	response := echo.Map{
		"material_id":       material.ID,
		"code":              material.Code,
		"stock_quantity":    material.StockQuantity,
		"reorder_level":     material.ReorderLevel,
		"window_days":       windowDays,
		"consumed":          consumed,
		"daily_consumption": dailyConsumption,
	}

	if dailyConsumption <= 0 {
		response["days_until_stockout"] = nil
		response["message"] = "no consumption recorded in window"
		return c.JSON(http.StatusOK, response)
	}

	daysUntilStockout := material.StockQuantity / dailyConsumption
	response["days_until_stockout"] = math.Floor(daysUntilStockout)
	response["stockout_date"] = time.Now().AddDate(0, 0, int(daysUntilStockout)).Format("2006-01-02")

	// Suggest reordering when the balance is projected to hit the reorder level
	if material.StockQuantity > material.ReorderLevel {
		daysUntilReorder := (material.StockQuantity - material.ReorderLevel) / dailyConsumption
		response["suggested_reorder_date"] = time.Now().AddDate(0, 0, int(daysUntilReorder)).Format("2006-01-02")
	} else {
		response["suggested_reorder_date"] = time.Now().Format("2006-01-02")
		response["reorder_now"] = true
	}

	log.Info("Forecast generated",
		zap.Uint("material_id", material.ID),
		zap.Float64("daily_consumption", dailyConsumption),
		zap.Float64("days_until_stockout", daysUntilStockout))
	return c.JSON(http.StatusOK, response)
}
