// controllers/split_rule.go
package controllers

import (
	"errors"
	"log"
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

// CreateSplitRuleInput defines the expected JSON structure for creating a split rule
type CreateSplitRuleInput struct {
	ArtistID        uuid.UUID  `json:"artistId" binding:"required"`
	AllBranches     bool       `json:"allBranches"` // true = rule applies at every branch
	EffectiveFrom   *time.Time `json:"effectiveFrom"`
	ProviderRateBps int        `json:"providerRateBps" binding:"min=0,max=10000"`
	BusinessRateBps int        `json:"businessRateBps" binding:"min=0,max=10000"`
}

// CreateSplitRule adds a new versioned split policy for an artist and resyncs
// the artist's bills so rates effective in the past are applied retroactively.
func CreateSplitRule(c *gin.Context) {
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

	var input CreateSplitRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate artist exists
	var artist models.User
	if err := config.DB.First(&artist, "id = ?", input.ArtistID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Artist not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	effectiveFrom := time.Now()
	if input.EffectiveFrom != nil {
		effectiveFrom = *input.EffectiveFrom
	}

	rule := models.SplitRule{
		ID:              uuid.New(),
		ArtistID:        input.ArtistID,
		EffectiveFrom:   effectiveFrom,
		ProviderRateBps: input.ProviderRateBps,
		BusinessRateBps: input.BusinessRateBps,
	}
	if !input.AllBranches {
		rule.BranchID = &branchUUID
	}

	if err := config.DB.Create(&rule).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create split rule")
		return
	}

	resyncArtistBills(rule.ArtistID)

	c.JSON(http.StatusCreated, rule)
}

// GetSplitRules lists split rules, optionally filtered by artist
func GetSplitRules(c *gin.Context) {
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

	query := config.DB.Where("(branch_id = ? OR branch_id IS NULL)", branchUUID)
	if artist := c.Query("artistId"); artist != "" {
		artistUUID, err := uuid.Parse(artist)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid artist ID format")
			return
		}
		query = query.Where("artist_id = ?", artistUUID)
	}

	var rules []models.SplitRule
	if err := query.Order("effective_from DESC").Find(&rules).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve split rules")
		return
	}

	c.JSON(http.StatusOK, rules)
}

// DeleteSplitRule removes a rule version and resyncs the artist's bills so
// allocations fall back to whatever older rule (or the default split) applies.
func DeleteSplitRule(c *gin.Context) {
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

	ruleID := c.Param("id")
	ruleUUID, err := uuid.Parse(ruleID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid rule ID format")
		return
	}

	var rule models.SplitRule
	if err := config.DB.Where("id = ? AND (branch_id = ? OR branch_id IS NULL)", ruleUUID, branchUUID).
		First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Split rule not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := config.DB.Delete(&rule).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete split rule")
		return
	}

	resyncArtistBills(rule.ArtistID)

	c.JSON(http.StatusOK, gin.H{"message": "Split rule deleted successfully"})
}

// resyncArtistBills recomputes allocations for every non-void bill assigned
// to the artist. Full recompute per bill keeps this safe to repeat; failures
// are logged and picked up by the nightly resync sweep.
func resyncArtistBills(artistID uuid.UUID) {
	var billIDs []uuid.UUID
	if err := config.DB.Model(&models.Bill{}).
		Where("artist_id = ? AND status <> ?", artistID, models.BillStatusVoid).
		Pluck("id", &billIDs).Error; err != nil {
		log.Printf("Artist %s: failed to list bills for resync: %v", artistID, err)
		return
	}

	alloc := services.NewAllocationService(config.DB)
	for _, id := range billIDs {
		if err := alloc.Reallocate(id); err != nil {
			log.Printf("Bill %s: resync after rule change failed: %v", id, err)
		}
	}
}
