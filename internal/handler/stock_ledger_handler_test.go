package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"erp-service/internal/model"
	"erp-service/pkg/config"
	"erp-service/pkg/database"
	"erp-service/pkg/jwtutil"
)

func setupHandlerTest(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	database.DB = db
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "handler-test-secret", ExpirationHours: 1})
}

func seedMaterial(t *testing.T, code string, stock float64) *model.Material {
	t.Helper()
	m := &model.Material{
		Code:          code,
		Name:          "Material " + code,
		Unit:          "kg",
		StockQuantity: stock,
	}
	if err := database.GetDB().Create(m).Error; err != nil {
		t.Fatalf("failed to seed material: %v", err)
	}
	return m
}

// jsonRequest builds an echo context for a handler call with an optional
// authenticated actor and path parameter
func jsonRequest(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint(1))
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCreateStockMovement(t *testing.T) {
	setupHandlerTest(t)
	mat := seedMaterial(t, "STEEL-01", 100)

	body := fmt.Sprintf(`{"material": %d, "movement_type": "out", "quantity": 30, "reason": "production issue"}`, mat.ID)
	c, rec := jsonRequest(t, http.MethodPost, "/api/stock-ledger", body)

	if err := CreateStockMovement(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody(t, rec)
	if got := resp["balance_after"].(float64); got != 70 {
		t.Fatalf("balance_after = %v, want 70", got)
	}

	var fresh model.Material
	if err := database.GetDB().First(&fresh, mat.ID).Error; err != nil {
		t.Fatalf("failed to reload material: %v", err)
	}
	if fresh.StockQuantity != 70 {
		t.Fatalf("stock_quantity = %v, want 70", fresh.StockQuantity)
	}
}

func TestCreateStockMovement_InsufficientStock(t *testing.T) {
	setupHandlerTest(t)
	mat := seedMaterial(t, "STEEL-02", 10)

	body := fmt.Sprintf(`{"material": %d, "movement_type": "out", "quantity": 25, "reason": "production issue"}`, mat.ID)
	c, rec := jsonRequest(t, http.MethodPost, "/api/stock-ledger", body)

	if err := CreateStockMovement(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "insufficient stock" {
		t.Fatalf("unexpected error message: %v", resp["error"])
	}

	// Rejected movement must leave no ledger entry and no balance change
	var count int64
	database.GetDB().Model(&model.StockLedgerEntry{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no ledger entries, found %d", count)
	}
	var fresh model.Material
	database.GetDB().First(&fresh, mat.ID)
	if fresh.StockQuantity != 10 {
		t.Fatalf("stock_quantity = %v, want 10", fresh.StockQuantity)
	}
}

func TestCreateStockMovement_UnknownMaterial(t *testing.T) {
	setupHandlerTest(t)

	body := `{"material": 9999, "movement_type": "in", "quantity": 5, "reason": "receiving"}`
	c, rec := jsonRequest(t, http.MethodPost, "/api/stock-ledger", body)

	if err := CreateStockMovement(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateStockMovement_InvalidType(t *testing.T) {
	setupHandlerTest(t)
	mat := seedMaterial(t, "STEEL-03", 50)

	body := fmt.Sprintf(`{"material": %d, "movement_type": "teleport", "quantity": 5, "reason": "testing"}`, mat.ID)
	c, rec := jsonRequest(t, http.MethodPost, "/api/stock-ledger", body)

	if err := CreateStockMovement(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteStockMovement_Reverses(t *testing.T) {
	setupHandlerTest(t)
	mat := seedMaterial(t, "STEEL-04", 100)

	// Record an inbound movement, then reverse it
	body := fmt.Sprintf(`{"material": %d, "movement_type": "in", "quantity": 40, "reason": "receiving"}`, mat.ID)
	c, rec := jsonRequest(t, http.MethodPost, "/api/stock-ledger", body)
	if err := CreateStockMovement(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	created := decodeBody(t, rec)
	entryID := created["id"].(float64)

	c, rec = jsonRequest(t, http.MethodDelete, "/api/stock-ledger/1", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%.0f", entryID))
	if err := DeleteStockMovement(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var fresh model.Material
	database.GetDB().First(&fresh, mat.ID)
	if fresh.StockQuantity != 100 {
		t.Fatalf("stock_quantity after reversal = %v, want 100", fresh.StockQuantity)
	}

	var count int64
	database.GetDB().Model(&model.StockLedgerEntry{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected ledger entry removed, found %d", count)
	}
}

func TestDeleteStockMovement_NotFound(t *testing.T) {
	setupHandlerTest(t)

	c, rec := jsonRequest(t, http.MethodDelete, "/api/stock-ledger/123", "")
	c.SetParamNames("id")
	c.SetParamValues("123")
	if err := DeleteStockMovement(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListStockMovements_FilterByMaterial(t *testing.T) {
	setupHandlerTest(t)
	matA := seedMaterial(t, "STEEL-05", 100)
	matB := seedMaterial(t, "STEEL-06", 100)

	for _, m := range []*model.Material{matA, matB} {
		body := fmt.Sprintf(`{"material": %d, "movement_type": "out", "quantity": 10, "reason": "production issue"}`, m.ID)
		c, rec := jsonRequest(t, http.MethodPost, "/api/stock-ledger", body)
		if err := CreateStockMovement(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	}

	c, rec := jsonRequest(t, http.MethodGet, fmt.Sprintf("/api/stock-ledger?material_id=%d", matA.ID), "")
	if err := ListStockMovements(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entries []model.StockLedgerEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].MaterialID != matA.ID {
		t.Fatalf("entry material = %d, want %d", entries[0].MaterialID, matA.ID)
	}
}
