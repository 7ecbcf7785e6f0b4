// controllers/payment.go
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

// RecordPaymentInput defines the expected JSON structure for recording a payment
type RecordPaymentInput struct {
	Amount int64      `json:"amount" binding:"min=0"` // minor currency units; partial payments allowed
	Method string     `json:"method"`
	PaidAt *time.Time `json:"paidAt"`
	Note   string     `json:"note"`
}

// RecordPayment records a money movement against a bill and triggers a full
// allocation recompute. A non-empty note acts as an idempotency key: posting
// the same note for the same bill twice returns the original payment instead
// of double-charging (used by the legacy-system import).
func RecordPayment(c *gin.Context) {
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

	billID := c.Param("id")
	billUUID, err := uuid.Parse(billID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid bill ID format")
		return
	}

	var input RecordPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
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

	if bill.Status == models.BillStatusVoid {
		utils.RespondWithError(c, http.StatusBadRequest, "Cannot record a payment on a void bill")
		return
	}

	// Idempotency by note
	if input.Note != "" {
		var existing models.Payment
		if err := config.DB.Where("bill_id = ? AND note = ?", bill.ID, input.Note).
			First(&existing).Error; err == nil {
			c.JSON(http.StatusOK, existing)
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
	}

	paidAt := time.Now()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}

	recordedBy := uuid.Must(uuid.Parse(userID.(string)))
	payment := models.Payment{
		ID:               uuid.New(),
		BillID:           bill.ID,
		Amount:           input.Amount,
		Method:           input.Method,
		PaidAt:           paidAt,
		RecordedByUserID: &recordedBy,
		Note:             input.Note,
	}

	if err := config.DB.Create(&payment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to record payment")
		return
	}

	wasSettled := bill.Status == models.BillStatusSettled

	if err := services.NewAllocationService(config.DB).Reallocate(bill.ID); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to reallocate bill")
		return
	}

	if err := config.DB.First(&bill, "id = ?", bill.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	if !wasSettled && bill.Status == models.BillStatusSettled {
		go services.NewNotifyService(config.DB).SendSettlementNotice(bill)
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment":    payment,
		"billStatus": bill.Status,
	})
}

// GetPayments lists a bill's payments in settlement order with their
// provider/business allocation pairs
func GetPayments(c *gin.Context) {
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

	var payments []models.Payment
	if err := config.DB.Preload("Allocations").
		Where("bill_id = ?", bill.ID).
		Order("paid_at ASC, created_at ASC").
		Find(&payments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve payments")
		return
	}

	c.JSON(http.StatusOK, payments)
}
