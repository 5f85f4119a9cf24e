package handler

import (
	"errors"
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

// StockMovementRequest defines the structure for recording a stock movement
type StockMovementRequest struct {
	Material     uint    `json:"material"`
	MovementType string  `json:"movement_type"`
	Quantity     float64 `json:"quantity"`
	Reason       string  `json:"reason"`
	Reference    string  `json:"reference,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// CreateStockMovement records a movement through the ledger
func CreateStockMovement(c echo.Context) error {
	log := logger.FromContext(c)

	var req StockMovementRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Material == 0 || req.MovementType == "" || req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "material, movement_type, quantity and reason are required"})
	}

	actorID, _ := c.Get("user_id").(uint)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	entry, err := ledger.Apply(database.GetDB(), ledger.Movement{
		MaterialID:   req.Material,
		MovementType: req.MovementType,
		Quantity:     req.Quantity,
		Reason:       req.Reason,
		Reference:    req.Reference,
		Notes:        req.Notes,
		CreatedByID:  actorID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrMaterialNotFound):
			log.Warn("Movement against unknown material", zap.Uint("material_id", req.Material))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
		case errors.Is(err, ledger.ErrInvalidMovementType):
			prometheus.RecordMovementRejected("invalid_type")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movement type"})
		case errors.Is(err, ledger.ErrInvalidQuantity):
			prometheus.RecordMovementRejected("invalid_quantity")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be greater than zero"})
		case errors.Is(err, ledger.ErrInsufficientStock):
			prometheus.RecordMovementRejected("insufficient_stock")
			log.Warn("Movement rejected, insufficient stock",
				zap.Uint("material_id", req.Material),
				zap.String("movement_type", req.MovementType),
				zap.Float64("quantity", req.Quantity))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient stock"})
		default:
			log.Error("Failed to record movement", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record movement"})
		}
	}

	prometheus.RecordMovement(req.MovementType)

	// Return the entry with its material populated
	var populated model.StockLedgerEntry
	if err := database.GetDB().Preload("Material").First(&populated, entry.ID).Error; err != nil {
		log.Error("Failed to load created entry", zap.Uint("entry_id", entry.ID), zap.Error(err))
		return c.JSON(http.StatusCreated, entry)
	}

	log.Info("Stock movement recorded",
		zap.Uint("entry_id", populated.ID),
		zap.Uint("material_id", populated.MaterialID),
		zap.String("movement_type", populated.MovementType),
		zap.Float64("quantity", populated.Quantity),
		zap.Float64("balance_after", populated.BalanceAfter))
	return c.JSON(http.StatusCreated, populated)
}

// ListStockMovements handles retrieving ledger entries with optional filtering
func ListStockMovements(c echo.Context) error {
	log := logger.FromContext(c)

	db := database.GetDB()
	var entries []model.StockLedgerEntry

	query := db.Preload("Material")

	materialID := c.QueryParam("material_id")
	if materialID != "" {
		query = query.Where("material_id = ?", materialID)
	}

	movementType := c.QueryParam("movement_type")
	if movementType != "" {
		query = query.Where("movement_type = ?", movementType)
	}

	limit := parseLimit(c, 100, 1000)

	defer prometheus.TrackDBOperation("query")(time.Now())
	result := query.Order("created_at desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		log.Error("Failed to list stock movements", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve movements"})
	}

	return c.JSON(http.StatusOK, entries)
}

// GetStockMovement handles retrieving a single ledger entry by ID
func GetStockMovement(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var entry model.StockLedgerEntry
	result := database.GetDB().Preload("Material").First(&entry, id)
	if result.Error != nil {
		log.Error("Ledger entry not found", zap.String("entry_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ledger entry not found"})
	}

	return c.JSON(http.StatusOK, entry)
}

// DeleteStockMovement reverses a ledger entry by applying its inverse delta
// to the material's current balance and removing the entry
func DeleteStockMovement(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	entryID, err := parseUintParam(id)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	material, err := ledger.Reverse(database.GetDB(), entryID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrEntryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ledger entry not found"})
		case errors.Is(err, ledger.ErrMaterialNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
		case errors.Is(err, ledger.ErrInsufficientStock):
			prometheus.RecordMovementRejected("insufficient_stock")
			log.Warn("Reversal rejected, would drive balance negative", zap.Uint("entry_id", entryID))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reversal would drive stock negative"})
		default:
			log.Error("Failed to reverse entry", zap.Uint("entry_id", entryID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reverse entry"})
		}
	}

	prometheus.StockReversalCounter.Inc()

	log.Info("Ledger entry reversed",
		zap.Uint("entry_id", entryID),
		zap.Uint("material_id", material.ID),
		zap.Float64("balance", material.StockQuantity))
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Ledger entry reversed successfully",
		"material": material,
	})
}

// parseUintParam parses a numeric path parameter
func parseUintParam(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
