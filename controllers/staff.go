// controllers/staff.go
package controllers

import (
	"errors"
	"net/http"

	"beautybiz-backend/config"
	"beautybiz-backend/models"
	"beautybiz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddStaffInput defines the expected JSON structure for adding a staff member
type AddStaffInput struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=manager artist"`
}

// UpdateStaffInput defines the expected JSON structure for updating a staff member
type UpdateStaffInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role" binding:"omitempty,oneof=manager artist"`
	IsActive *bool   `json:"isActive"`
}

// GetStaff retrieves all staff members for the branch
func GetStaff(c *gin.Context) {
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

	var staff []models.User
	if err := config.DB.Select("id", "email", "name", "phone", "role", "is_active", "last_login").
		Where("branch_id = ?", branchUUID).Find(&staff).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve staff")
		return
	}

	c.JSON(http.StatusOK, staff)
}

// AddStaff creates a new staff member for the branch
func AddStaff(c *gin.Context) {
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

	var input AddStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var existingUser models.User
	result := config.DB.Where("email = ?", input.Email).First(&existingUser)
	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	user := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: input.Password, // Will be hashed in BeforeCreate hook
		Role:     input.Role,
		BranchID: branchUUID,
	}

	if err := config.DB.Create(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create staff member")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
	})
}

// UpdateStaff updates an existing staff member
func UpdateStaff(c *gin.Context) {
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

	staffID := c.Param("id")
	staffUUID, err := uuid.Parse(staffID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid staff ID format")
		return
	}

	var input UpdateStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("branch_id = ? AND id = ?", branchUUID, staffUUID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Staff member not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Role != nil {
		if user.Role == "owner" {
			utils.RespondWithError(c, http.StatusBadRequest, "Cannot change the owner's role")
			return
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update staff member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Staff member updated successfully"})
}

// DeleteStaff soft deletes a staff member. Their bills and split rules stay in
// place so historical allocations keep resolving.
func DeleteStaff(c *gin.Context) {
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

	staffID := c.Param("id")
	staffUUID, err := uuid.Parse(staffID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid staff ID format")
		return
	}

	var user models.User
	if err := config.DB.Where("branch_id = ? AND id = ?", branchUUID, staffUUID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Staff member not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if user.Role == "owner" {
		utils.RespondWithError(c, http.StatusBadRequest, "Cannot delete the owner")
		return
	}

	if err := config.DB.Delete(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete staff member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Staff member deleted successfully"})
}
