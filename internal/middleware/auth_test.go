package middleware

import (
	"net/http"
	"net/http/httptest"
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

func setupAuthTest(t *testing.T) {
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
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "middleware-test-secret", ExpirationHours: 1})
}

func createTestUser(t *testing.T, active bool) *model.User {
	t.Helper()
	user := &model.User{
		Name:     "Test User",
		Email:    "user@example.com",
		Role:     model.RoleOperator,
		IsActive: active,
	}
	if err := database.GetDB().Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func runAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	nextCalled := false
	h := AuthMiddleware(func(c echo.Context) error {
		nextCalled = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, c, nextCalled
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	setupAuthTest(t)

	rec, _, nextCalled := runAuth(t, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if nextCalled {
		t.Fatal("handler must not run without a token")
	}
}

func TestAuthMiddleware_BadFormat(t *testing.T) {
	setupAuthTest(t)

	rec, _, _ := runAuth(t, "Basic dXNlcjpwYXNz")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer header, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	setupAuthTest(t)

	rec, _, _ := runAuth(t, "Bearer not.a.token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}

func TestAuthMiddleware_DeletedUser(t *testing.T) {
	setupAuthTest(t)
	user := createTestUser(t, true)

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Role, user.Name, jwtutil.PurposeSession)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	// Delete the account; its unexpired token must stop working immediately
	if err := database.GetDB().Unscoped().Delete(user).Error; err != nil {
		t.Fatalf("delete error: %v", err)
	}

	rec, _, nextCalled := runAuth(t, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", rec.Code)
	}
	if nextCalled {
		t.Fatal("handler must not run for a deleted user")
	}
}

func TestAuthMiddleware_DeactivatedUser(t *testing.T) {
	setupAuthTest(t)
	user := createTestUser(t, true)

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Role, user.Name, jwtutil.PurposeSession)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	// Deactivation takes effect on the next request, not at token expiry
	if err := database.GetDB().Model(user).Update("is_active", false).Error; err != nil {
		t.Fatalf("update error: %v", err)
	}

	rec, _, nextCalled := runAuth(t, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deactivated user, got %d", rec.Code)
	}
	if nextCalled {
		t.Fatal("handler must not run for a deactivated user")
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	setupAuthTest(t)
	user := createTestUser(t, true)

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Role, user.Name, jwtutil.PurposeSession)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	rec, c, nextCalled := runAuth(t, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !nextCalled {
		t.Fatal("handler did not run for a valid token")
	}

	if got, _ := c.Get("user_id").(uint); got != user.ID {
		t.Fatalf("user_id mismatch: got %v want %v", got, user.ID)
	}
	if got, _ := c.Get("email").(string); got != user.Email {
		t.Fatalf("email mismatch: got %q", got)
	}
	if got, _ := c.Get("role").(string); got != user.Role {
		t.Fatalf("role mismatch: got %q", got)
	}
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name       string
		role       interface{}
		allowed    []string
		wantStatus int
	}{
		{"allowed role passes", model.RoleAdmin, []string{model.RoleAdmin, model.RoleManager}, http.StatusOK},
		{"disallowed role rejected", model.RoleOperator, []string{model.RoleAdmin}, http.StatusForbidden},
		{"missing role rejected", nil, []string{model.RoleAdmin}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.role != nil {
				c.Set("role", tt.role)
			}

			h := RequireRoles(tt.allowed...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := h(c); err != nil {
				t.Fatalf("middleware returned error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

// RequireRoles must be a pure check: same inputs, same result, no state
func TestRequireRoles_Repeatable(t *testing.T) {
	e := echo.New()
	gate := RequireRoles(model.RoleManager)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("role", model.RoleManager)

		h := gate(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		if err := h(c); err != nil {
			t.Fatalf("middleware returned error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("run %d: expected 200, got %d", i, rec.Code)
		}
	}
}
