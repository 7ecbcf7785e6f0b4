// controllers/notification.go
package controllers

import (
	"net/http"

	"beautybiz-backend/config"
	"beautybiz-backend/models"
	"beautybiz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetNotificationLogs lists settlement notices sent for the branch
func GetNotificationLogs(c *gin.Context) {
	branchID, exists := c.Get("branchId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Branch ID not found in context")
		return
	}

	branchUUID, err := uuid.Parse(branchID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid branch ID format")
		return
	}

	var logs []models.NotificationLog
	if err := config.DB.Where("branch_id = ?", branchUUID).
		Order("sent_at DESC").
		Limit(100).
		Find(&logs).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve notification logs")
		return
	}

	c.JSON(http.StatusOK, logs)
}
