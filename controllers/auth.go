package controllers

import (
	"errors"
	"net/http"
	"time"

	"beautybiz-backend/config"
	"beautybiz-backend/models"
	"beautybiz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email         string       `json:"email" binding:"required,email"`
	Phone         string       `json:"phone" binding:"required"`
	Name          string       `json:"name" binding:"required"`
	Password      string       `json:"password" binding:"required,min=8"`
	BranchName    string       `json:"branchName" binding:"required"`
	BranchAddress string       `json:"branchAddress"`
	WorkingHours  models.JSONB `json:"workingHours"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be email or phone
	Password   string `json:"password" binding:"required"`
}

// controllers/auth.go
func Register(c *gin.Context) {
	var input RegisterInput

	// Bind and validate input
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Check if email or phone already exists
	var existingUser models.User
	result := config.DB.Where("email = ? OR phone = ?", input.Email, input.Phone).First(&existingUser)

	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	branch := models.Branch{
		ID:           uuid.New(),
		Name:         input.BranchName,
		Address:      input.BranchAddress,
		WorkingHours: input.WorkingHours,
	}

	// Set default working hours if not provided
	if branch.WorkingHours == nil {
		branch.WorkingHours = models.JSONB{
			"monday":    map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
			"tuesday":   map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
			"wednesday": map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
			"thursday":  map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
			"friday":    map[string]interface{}{"open": "09:00", "close": "20:00", "closed": false},
			"saturday":  map[string]interface{}{"open": "09:00", "close": "18:00", "closed": false},
			"sunday":    map[string]interface{}{"open": "10:00", "close": "16:00", "closed": true},
		}
	}

	newUser := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: input.Password, // Will be hashed in BeforeCreate hook
		Role:     "owner",
		BranchID: branch.ID,
	}

	// Start transaction
	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&branch).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create branch")
		return
	}

	if err := tx.Create(&newUser).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	tx.Commit()

	token, err := utils.GenerateToken(newUser.ID.String(), branch.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user": gin.H{
			"id":       newUser.ID,
			"email":    newUser.Email,
			"name":     newUser.Name,
			"role":     newUser.Role,
			"branchId": branch.ID,
		},
	})
}

func Login(c *gin.Context) {
	var input LoginInput

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("email = ? OR phone = ?", input.Identifier, input.Identifier).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !user.IsActive {
		utils.RespondWithError(c, http.StatusUnauthorized, "Account is deactivated")
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	now := time.Now()
	config.DB.Model(&user).Update("last_login", &now)

	token, err := utils.GenerateToken(user.ID.String(), user.BranchID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"email":    user.Email,
			"name":     user.Name,
			"role":     user.Role,
			"branchId": user.BranchID,
		},
	})
}

func Me(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var user models.User
	if err := config.DB.Preload("Branch").First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"name":     user.Name,
		"phone":    user.Phone,
		"role":     user.Role,
		"branchId": user.BranchID,
		"branch": gin.H{
			"name":    user.Branch.Name,
			"address": user.Branch.Address,
		},
	})
}
