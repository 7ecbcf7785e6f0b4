package controllers

import (
	"net/http"

	"beautybiz-backend/config"
	"beautybiz-backend/models"
	"beautybiz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UpdateBranchInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type UpdateWorkingHoursInput struct {
	WorkingHours models.JSONB `json:"workingHours" binding:"required"`
}

type UpdateNotificationsInput struct {
	SettlementNotifications *bool `json:"settlementNotifications"`
	SMSNotifications        *bool `json:"smsNotifications"`
}

func GetProfile(c *gin.Context) {
	branchID, exists := c.Get("branchId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Branch ID not found in context")
		return
	}

	var branch models.Branch
	if err := config.DB.First(&branch, "id = ?", branchID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Branch not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":                    branch.Name,
		"address":                 branch.Address,
		"workingHours":            branch.WorkingHours,
		"settlementNotifications": branch.SettlementNotifications,
		"smsNotifications":        branch.SMSNotifications,
	})
}

func UpdateBranchProfile(c *gin.Context) {
	branchID, exists := c.Get("branchId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Branch ID not found in context")
		return
	}

	var input UpdateBranchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var branch models.Branch
	if err := config.DB.First(&branch, "id = ?", branchID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Branch not found")
		return
	}

	if input.Name != "" {
		branch.Name = input.Name
	}
	if input.Address != "" {
		branch.Address = input.Address
	}

	if err := config.DB.Save(&branch).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update branch")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Branch updated"})
}

func UpdateWorkingHours(c *gin.Context) {
	branchID, exists := c.Get("branchId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Branch ID not found in context")
		return
	}

	var input UpdateWorkingHoursInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	branchUUID, err := uuid.Parse(branchID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid branch ID format")
		return
	}

	if err := config.DB.Model(&models.Branch{}).Where("id = ?", branchUUID).
		Update("working_hours", input.WorkingHours).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update working hours")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Working hours updated"})
}

func UpdateNotifications(c *gin.Context) {
	branchID, exists := c.Get("branchId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Branch ID not found in context")
		return
	}

	var input UpdateNotificationsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var branch models.Branch
	if err := config.DB.First(&branch, "id = ?", branchID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Branch not found")
		return
	}

	if input.SettlementNotifications != nil {
		branch.SettlementNotifications = *input.SettlementNotifications
	}
	if input.SMSNotifications != nil {
		branch.SMSNotifications = *input.SMSNotifications
	}

	if err := config.DB.Save(&branch).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update notification settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification settings updated"})
}
