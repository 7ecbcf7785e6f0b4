// controllers/earnings.go
package controllers

import (
	"net/http"
	"time"

	"beautybiz-backend/config"
	"beautybiz-backend/models"
	"beautybiz-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EarningsController handles revenue-share reporting over the allocation ledger
type EarningsController struct{}

// EarningsSummary represents the earnings data for one date range
type EarningsSummary struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	ProviderTotal int64           `json:"providerTotal"`
	BusinessTotal int64           `json:"businessTotal"`
	Artists       []ArtistEarning `json:"artists"`
}

type ArtistEarning struct {
	ArtistID      uuid.UUID `json:"artistId"`
	Name          string    `json:"name"`
	BillCount     int       `json:"billCount"`
	ProviderShare int64     `json:"providerShare"`
	BusinessShare int64     `json:"businessShare"`
}

// GetEarnings returns per-artist provider/business shares summed from the
// allocation ledger over a date range (defaults to the current month).
// Everything here is a read-only projection of engine output; no amounts are
// computed outside the allocation engine.
func (ec *EarningsController) GetEarnings(c *gin.Context) {
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

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := utils.EndOfDay(now)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
			return
		}
		from = utils.BeginningOfDay(parsed)
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
			return
		}
		to = utils.EndOfDay(parsed)
	}

	providerTotal, err := ec.getAllocatedTotal(branchUUID, models.AllocationTargetProvider, from, to)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get provider total")
		return
	}

	businessTotal, err := ec.getAllocatedTotal(branchUUID, models.AllocationTargetBusiness, from, to)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get business total")
		return
	}

	artists, err := ec.getArtistEarnings(branchUUID, from, to)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get artist earnings")
		return
	}

	c.JSON(http.StatusOK, EarningsSummary{
		From:          from,
		To:            to,
		ProviderTotal: providerTotal,
		BusinessTotal: businessTotal,
		Artists:       artists,
	})
}

// Helper functions for earnings reports

func (ec *EarningsController) getAllocatedTotal(branchID uuid.UUID, target string, start, end time.Time) (int64, error) {
	var total int64
	err := config.DB.Table("payment_allocations").
		Select("COALESCE(SUM(payment_allocations.amount), 0)").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Joins("JOIN bills ON bills.id = payment_allocations.bill_id").
		Where("bills.branch_id = ? AND bills.status <> ?", branchID, models.BillStatusVoid).
		Where("payment_allocations.target = ? AND payments.paid_at BETWEEN ? AND ?", target, start, end).
		Scan(&total).Error
	return total, err
}

func (ec *EarningsController) getArtistEarnings(branchID uuid.UUID, start, end time.Time) ([]ArtistEarning, error) {
	var earnings []ArtistEarning

	err := config.DB.Table("payment_allocations").
		Select(`bills.artist_id,
			users.name,
			COUNT(DISTINCT bills.id) as bill_count,
			SUM(CASE WHEN payment_allocations.target = ? THEN payment_allocations.amount ELSE 0 END) as provider_share,
			SUM(CASE WHEN payment_allocations.target = ? THEN payment_allocations.amount ELSE 0 END) as business_share`,
			models.AllocationTargetProvider, models.AllocationTargetBusiness).
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Joins("JOIN bills ON bills.id = payment_allocations.bill_id").
		Joins("JOIN users ON users.id = bills.artist_id").
		Where("bills.branch_id = ? AND bills.artist_id IS NOT NULL AND bills.status <> ?", branchID, models.BillStatusVoid).
		Where("payments.paid_at BETWEEN ? AND ?", start, end).
		Group("bills.artist_id, users.name").
		Order("provider_share DESC").
		Scan(&earnings).Error

	return earnings, err
}
