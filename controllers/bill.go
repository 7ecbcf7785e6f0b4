// controllers/bill.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"beautybiz-backend/config"
	"beautybiz-backend/models"
	"beautybiz-backend/services"
	"beautybiz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BillItemInput defines the structure for a bill line item
type BillItemInput struct {
	ServiceID       uuid.UUID    `json:"serviceId" binding:"required"`
	FinalPrice      *int64       `json:"finalPrice"` // after item-level discount; defaults to catalog price
	SelectedOptions models.JSONB `json:"selectedOptions"`
}

// CreateBillInput defines the expected JSON structure for finalizing a transaction
type CreateBillInput struct {
	CustomerID    *uuid.UUID      `json:"customerId"`
	ArtistID      *uuid.UUID      `json:"artistId"`
	AppointmentID *uuid.UUID      `json:"appointmentId"`
	IssuedAt      *time.Time      `json:"issuedAt"`
	Items         []BillItemInput `json:"items" binding:"required,min=1"`
	DiscountTotal int64           `json:"discountTotal" binding:"min=0"`
	Notes         string          `json:"notes"`
}

// CreateBill finalizes a transaction into an immutable ledger header with
// snapshot line items. Amounts are integer minor units and satisfy
// billTotal = listTotal - discountTotal.
func CreateBill(c *gin.Context) {
	branchID, exists := c.Get("branchId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Branch ID not found in context")
		return
	}
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	branchUUID, err := uuid.Parse(branchID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid branch ID format")
		return
	}

	var input CreateBillInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate customer exists in the same branch
	if input.CustomerID != nil {
		var customer models.Customer
		if err := config.DB.Where("branch_id = ? AND id = ?", branchUUID, *input.CustomerID).
			First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Customer not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
	}

	// Validate artist is an active staff member of the same branch
	if input.ArtistID != nil {
		var artist models.User
		if err := config.DB.Where("branch_id = ? AND id = ? AND is_active = ?", branchUUID, *input.ArtistID, true).
			First(&artist).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Artist not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
	}

	// Validate items and snapshot prices
	var listTotal int64 = 0
	var finalTotal int64 = 0
	var billItems []models.BillItem

	for i, item := range input.Items {
		var service models.Service
		if err := config.DB.Where("branch_id = ? AND id = ?", branchUUID, item.ServiceID).
			First(&service).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Service not found: "+item.ServiceID.String())
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}

		finalPrice := service.Price
		if item.FinalPrice != nil {
			if *item.FinalPrice < 0 || *item.FinalPrice > service.Price {
				utils.RespondWithError(c, http.StatusBadRequest, "Item final price must be between 0 and the catalog price")
				return
			}
			finalPrice = *item.FinalPrice
		}

		listTotal += service.Price
		finalTotal += finalPrice

		selectedOptions := item.SelectedOptions
		if selectedOptions == nil {
			selectedOptions = models.JSONB{}
		}

		billItems = append(billItems, models.BillItem{
			ID:              uuid.New(),
			ServiceID:       service.ID,
			ServiceName:     service.Name,
			BasePrice:       service.Price,
			FinalPrice:      finalPrice,
			SelectedOptions: selectedOptions,
			SortOrder:       i,
		})
	}

	// Bill-level discount comes on top of any item-level discounts
	discountTotal := (listTotal - finalTotal) + input.DiscountTotal
	billTotal := listTotal - discountTotal
	if billTotal < 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Discount exceeds bill total")
		return
	}

	issuedAt := time.Now()
	if input.IssuedAt != nil {
		issuedAt = *input.IssuedAt
	}

	bill := models.Bill{
		ID:              uuid.New(),
		BranchID:        branchUUID,
		CreatedByUserID: uuid.Must(uuid.Parse(userID.(string))),
		AppointmentID:   input.AppointmentID,
		CustomerID:      input.CustomerID,
		ArtistID:        input.ArtistID,
		IssuedAt:        issuedAt,
		ListTotal:       listTotal,
		DiscountTotal:   discountTotal,
		BillTotal:       billTotal,
		Status:          models.BillStatusOpen,
		Notes:           input.Notes,
		Items:           billItems,
	}

	bill.BillNumber = "BILL-" + time.Now().Format("20060102") + "-" + utils.GenerateRandomString(6)

	// Start transaction
	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&bill).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create bill")
		return
	}

	// Update customer stats
	if input.CustomerID != nil {
		if err := tx.Model(&models.Customer{}).Where("id = ?", *input.CustomerID).
			Updates(map[string]interface{}{
				"total_visits": gorm.Expr("total_visits + ?", 1),
				"total_spent":  gorm.Expr("total_spent + ?", billTotal),
				"last_visit":   issuedAt,
			}).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update customer stats")
			return
		}
	}

	tx.Commit()

	c.JSON(http.StatusCreated, bill)
}

// GetBills retrieves all bills for the branch
func GetBills(c *gin.Context) {
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

	query := config.DB.Preload("Items").Where("branch_id = ?", branchUUID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bills []models.Bill
	if err := query.Order("issued_at DESC").Find(&bills).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve bills")
		return
	}

	c.JSON(http.StatusOK, bills)
}

// GetBill retrieves a specific bill with its items, payments and allocations
func GetBill(c *gin.Context) {
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

	billID := c.Param("id")
	billUUID, err := uuid.Parse(billID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid bill ID format")
		return
	}

	var bill models.Bill
	if err := config.DB.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("bill_items.sort_order ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.paid_at ASC")
		}).
		Preload("Payments.Allocations").
		Where("branch_id = ? AND id = ?", branchUUID, billUUID).
		First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Bill not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, bill)
}

// VoidBill marks a bill void. Void is sticky: the allocation engine keeps the
// status void no matter what payments exist. Allocations stay queryable for
// audit.
func VoidBill(c *gin.Context) {
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

	billID := c.Param("id")
	billUUID, err := uuid.Parse(billID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid bill ID format")
		return
	}

	result := config.DB.Model(&models.Bill{}).
		Where("branch_id = ? AND id = ?", branchUUID, billUUID).
		Update("status", models.BillStatusVoid)
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to void bill")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Bill not found")
		return
	}

	if err := services.NewAllocationService(config.DB).Reallocate(billUUID); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to reallocate bill")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bill voided successfully"})
}

// ReallocateBill recomputes the allocation set for a bill on demand. Safe to
// call any number of times.
func ReallocateBill(c *gin.Context) {
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

	billID := c.Param("id")
	billUUID, err := uuid.Parse(billID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid bill ID format")
		return
	}

	var bill models.Bill
	if err := config.DB.Where("branch_id = ? AND id = ?", branchUUID, billUUID).
		First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Bill not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := services.NewAllocationService(config.DB).Reallocate(bill.ID); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to reallocate bill")
		return
	}

	if err := config.DB.First(&bill, "id = ?", bill.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": bill.Status})
}
