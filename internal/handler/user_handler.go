package handler

import (
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

// ListUsers handles retrieving all users with optional filtering
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)

	db := database.GetDB()
	var users []model.User

	query := db

	// Filter by role if specified
	role := c.QueryParam("role")
	if role != "" {
		query = query.Where("role = ?", role)
	}

	// Filter by active status if specified
	isActive := c.QueryParam("is_active")
	if isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			query = query.Where("is_active = ?", active)
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive), zap.Error(err))
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	result := query.Find(&users)
	if result.Error != nil {
		log.Error("Failed to list users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}

	return c.JSON(http.StatusOK, users)
}

// GetUser handles retrieving a single user by ID
func GetUser(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var user model.User
	result := database.GetDB().First(&user, id)
	if result.Error != nil {
		log.Error("User not found", zap.String("user_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateUserRole handles changing a user's role
func UpdateUserRole(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if !model.ValidRole(req.Role) {
		log.Error("Unknown role", zap.String("role", req.Role))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	var user model.User
	if result := database.GetDB().First(&user, id); result.Error != nil {
		log.Error("User not found for role update", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	oldRole := user.Role

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Update("role", req.Role).Error; err != nil {
		log.Error("Failed to update role", zap.String("user_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update role"})
	}

	log.Info("User role updated",
		zap.String("user_id", id),
		zap.String("old_role", oldRole),
		zap.String("new_role", req.Role))
	return c.JSON(http.StatusOK, user)
}

// SetUserActive handles activating or deactivating a user account.
// Deactivation takes effect on the user's next request because the auth
// middleware re-reads the user record every time.
func SetUserActive(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active is required"})
	}

	var user model.User
	if result := database.GetDB().First(&user, id); result.Error != nil {
		log.Error("User not found for status update", zap.String("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Update("is_active", *req.IsActive).Error; err != nil {
		log.Error("Failed to update user status", zap.String("user_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user status"})
	}

	log.Info("User status updated",
		zap.String("user_id", id),
		zap.Bool("is_active", *req.IsActive))
	return c.JSON(http.StatusOK, user)
}

// DeleteUser handles removing a user (soft delete)
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.User{}, id)
	if result.Error != nil {
		log.Error("Failed to delete user", zap.String("user_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	log.Info("User deleted", zap.String("user_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
