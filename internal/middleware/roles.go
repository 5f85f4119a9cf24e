package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"erp-service/internal/model"
	"erp-service/pkg/logger"
	"erp-service/prometheus"
)

// RequireRoles rejects requests whose resolved user role is not in the
// allowed set. It assumes AuthMiddleware already ran and stored the role in
// context; the check itself has no side effects.
func RequireRoles(allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok {
				logger.FromContext(c).Error("No role in context, auth middleware missing?")
				prometheus.RecordAuthError("missing_role")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			for _, allowed := range allowedRoles {
				if role == allowed {
					return next(c)
				}
			}

			logger.FromContext(c).Warn("Access denied",
				zap.String("role", role),
				zap.String("path", c.Path()))
			prometheus.RecordAuthError("forbidden")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
		}
	}
}

// Role gate presets used by the route groups in main

func AdminOnly() echo.MiddlewareFunc {
	return RequireRoles(model.RoleAdmin)
}

func ManagerOrAdmin() echo.MiddlewareFunc {
	return RequireRoles(model.RoleAdmin, model.RoleManager)
}

func ManufacturingAccess() echo.MiddlewareFunc {
	return RequireRoles(model.RoleAdmin, model.RoleManager, model.RoleOperator)
}

func InventoryAccess() echo.MiddlewareFunc {
	return RequireRoles(model.RoleAdmin, model.RoleManager, model.RoleInventory)
}
