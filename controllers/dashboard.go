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

type DashboardOverview struct {
	TotalCustomers   int          `json:"totalCustomers"`
	OpenBills        int          `json:"openBills"`
	OutstandingTotal int64        `json:"outstandingTotal"`
	SettledToday     int          `json:"settledToday"`
	MonthlyCollected int64        `json:"monthlyCollected"`
	MonthlyProvider  int64        `json:"monthlyProvider"`
	MonthlyBusiness  int64        `json:"monthlyBusiness"`
	RecentBills      []RecentBill `json:"recentBills"`
}

type RecentBill struct {
	BillNumber string `json:"billNumber"`
	Customer   string `json:"customer"`
	BillTotal  int64  `json:"billTotal"`
	Status     string `json:"status"`
}

func GetDashboardOverview(c *gin.Context) {
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

	// Total Customers
	var totalCustomers int64
	config.DB.Model(&models.Customer{}).Where("branch_id = ? AND deleted_at IS NULL", branchUUID).Count(&totalCustomers)

	// Open Bills and what they still owe
	var openBills int64
	config.DB.Model(&models.Bill{}).Where("branch_id = ? AND status = ?", branchUUID, models.BillStatusOpen).Count(&openBills)

	var outstandingTotal int64
	config.DB.Raw(`
        SELECT COALESCE(SUM(b.bill_total - COALESCE(p.paid, 0)), 0)
        FROM bills b
        LEFT JOIN (
            SELECT bill_id, SUM(amount) as paid FROM payments GROUP BY bill_id
        ) p ON p.bill_id = b.id
        WHERE b.branch_id = ? AND b.status = ?
    `, branchUUID, models.BillStatusOpen).Scan(&outstandingTotal)

	// Bills settled today
	now := time.Now()
	startOfDay := utils.BeginningOfDay(now)
	var settledToday int64
	config.DB.Raw(`
        SELECT COUNT(DISTINCT b.id)
        FROM bills b
        JOIN payments p ON p.bill_id = b.id
        WHERE b.branch_id = ? AND b.status = ? AND p.paid_at >= ?
    `, branchUUID, models.BillStatusSettled, startOfDay).Scan(&settledToday)

	// This month's collections, split by allocation target
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var monthlyCollected int64
	config.DB.Table("payments").
		Select("COALESCE(SUM(payments.amount), 0)").
		Joins("JOIN bills ON bills.id = payments.bill_id").
		Where("bills.branch_id = ? AND bills.status <> ? AND payments.paid_at >= ?",
			branchUUID, models.BillStatusVoid, firstOfMonth).
		Scan(&monthlyCollected)

	var monthlyProvider, monthlyBusiness int64
	config.DB.Table("payment_allocations").
		Select("COALESCE(SUM(payment_allocations.amount), 0)").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Joins("JOIN bills ON bills.id = payment_allocations.bill_id").
		Where("bills.branch_id = ? AND bills.status <> ? AND payments.paid_at >= ? AND payment_allocations.target = ?",
			branchUUID, models.BillStatusVoid, firstOfMonth, models.AllocationTargetProvider).
		Scan(&monthlyProvider)
	config.DB.Table("payment_allocations").
		Select("COALESCE(SUM(payment_allocations.amount), 0)").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Joins("JOIN bills ON bills.id = payment_allocations.bill_id").
		Where("bills.branch_id = ? AND bills.status <> ? AND payments.paid_at >= ? AND payment_allocations.target = ?",
			branchUUID, models.BillStatusVoid, firstOfMonth, models.AllocationTargetBusiness).
		Scan(&monthlyBusiness)

	// Recent Bills (last 5)
	var recentBills []RecentBill
	config.DB.Raw(`
        SELECT b.bill_number, COALESCE(c.name, 'Walk-in') as customer, b.bill_total, b.status
        FROM bills b
        LEFT JOIN customers c ON c.id = b.customer_id
        WHERE b.branch_id = ?
        ORDER BY b.issued_at DESC
        LIMIT 5
    `, branchUUID).Scan(&recentBills)

	c.JSON(http.StatusOK, DashboardOverview{
		TotalCustomers:   int(totalCustomers),
		OpenBills:        int(openBills),
		OutstandingTotal: outstandingTotal,
		SettledToday:     int(settledToday),
		MonthlyCollected: monthlyCollected,
		MonthlyProvider:  monthlyProvider,
		MonthlyBusiness:  monthlyBusiness,
		RecentBills:      recentBills,
	})
}
