package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"erp-service/internal/model"
	"erp-service/pkg/database"
	"erp-service/pkg/jwtutil"
	"erp-service/pkg/logger"
	"erp-service/prometheus"
)

// AuthMiddleware validates the JWT token from the Authorization header and
// resolves the calling user. The user record is re-read on every request so
// that deactivating an account takes effect immediately instead of waiting
// for the token to expire. Do not cache the resolved user across requests.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1], jwtutil.PurposeSession)
		if err != nil {
			if errors.Is(err, jwtutil.ErrTokenExpired) {
				log.Error("Expired JWT token")
				prometheus.RecordAuthError("expired_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
			}
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		// Re-read the user so deleted or deactivated accounts are rejected
		// even while their token is still unexpired
		var user model.User
		result := database.GetDB().First(&user, claims.UserID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				log.Error("User from token no longer exists", zap.Uint("user_id", claims.UserID))
				prometheus.RecordAuthError("user_not_found")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
			}
			log.Error("Failed to load user", zap.Uint("user_id", claims.UserID), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}

		if !user.IsActive {
			log.Warn("Deactivated account attempted access",
				zap.Uint("user_id", user.ID),
				zap.String("email", user.Email))
			prometheus.RecordAuthError("account_deactivated")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account deactivated"})
		}

		// Store the resolved principal in context for downstream use
		c.Set("user_id", user.ID)
		c.Set("email", user.Email)
		c.Set("role", user.Role)
		c.Set("name", user.Name)

		return next(c)
	}
}
