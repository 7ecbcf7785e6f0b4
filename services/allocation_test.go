package services

import (
	"testing"
	"time"

	"beautybiz-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Bill{},
		&models.Payment{},
		&models.PaymentAllocation{},
		&models.SplitRule{},
	))

	return db
}

func createBill(t *testing.T, db *gorm.DB, billTotal int64, artistID *uuid.UUID, branchID uuid.UUID) models.Bill {
	t.Helper()

	bill := models.Bill{
		ID:              uuid.New(),
		BranchID:        branchID,
		CreatedByUserID: uuid.New(),
		BillNumber:      "BILL-TEST-" + uuid.NewString()[:8],
		ArtistID:        artistID,
		IssuedAt:        time.Now(),
		ListTotal:       billTotal,
		BillTotal:       billTotal,
		Status:          models.BillStatusOpen,
	}
	require.NoError(t, db.Create(&bill).Error)
	return bill
}

func addPayment(t *testing.T, db *gorm.DB, billID uuid.UUID, amount int64, paidAt time.Time) models.Payment {
	t.Helper()

	payment := models.Payment{
		ID:     uuid.New(),
		BillID: billID,
		Amount: amount,
		Method: "cash",
		PaidAt: paidAt,
	}
	require.NoError(t, db.Create(&payment).Error)
	return payment
}

func allocationsByPayment(t *testing.T, db *gorm.DB, billID uuid.UUID) map[uuid.UUID]map[string]int64 {
	t.Helper()

	var rows []models.PaymentAllocation
	require.NoError(t, db.Where("bill_id = ?", billID).Find(&rows).Error)

	result := make(map[uuid.UUID]map[string]int64)
	for _, row := range rows {
		if result[row.PaymentID] == nil {
			result[row.PaymentID] = make(map[string]int64)
		}
		result[row.PaymentID][row.Target] = row.Amount
	}
	return result
}

func billStatus(t *testing.T, db *gorm.DB, billID uuid.UUID) string {
	t.Helper()

	var bill models.Bill
	require.NoError(t, db.First(&bill, "id = ?", billID).Error)
	return bill.Status
}

func TestRoundHalfUpDiv(t *testing.T) {
	tests := []struct {
		num, den, want int64
	}{
		{0, 10, 0},
		{4, 10, 0},
		{5, 10, 1},
		{6, 10, 1},
		{15, 10, 2},
		{25, 10, 3},
		{10000 * 7000, 10000, 7000},
		{3000 * 7000, 10000, 2100},
		{10001 * 5000, 10000, 5001}, // exact half rounds up
		{6000 * 10000, 9000, 6667},
		{3000 * 10000, 9000, 3333},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, roundHalfUpDiv(tt.num, tt.den), "roundHalfUpDiv(%d, %d)", tt.num, tt.den)
	}
}

func TestProjectBillStatus(t *testing.T) {
	tests := []struct {
		name      string
		billTotal int64
		paidTotal int64
		isVoided  bool
		want      string
	}{
		{"unpaid bill is open", 10000, 0, false, models.BillStatusOpen},
		{"partially paid bill is open", 10000, 9999, false, models.BillStatusOpen},
		{"exactly paid bill is settled", 10000, 10000, false, models.BillStatusSettled},
		{"overpaid bill is settled", 10000, 15000, false, models.BillStatusSettled},
		{"void wins over settlement", 10000, 10000, true, models.BillStatusVoid},
		{"void wins over open", 10000, 0, true, models.BillStatusVoid},
		{"zero-total bill settles immediately", 0, 0, false, models.BillStatusSettled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectBillStatus(tt.billTotal, tt.paidTotal, tt.isVoided))
		})
	}
}

func TestNormalizeRateBps(t *testing.T) {
	tests := []struct {
		name                   string
		provider, business     int
		wantProv, wantBusiness int
	}{
		{"already normalized", 7000, 3000, 7000, 3000},
		{"sum below full", 6000, 3000, 6667, 3333},
		{"sum above full", 8000, 4000, 6667, 3333},
		{"all-zero passes through", 0, 0, 0, 0},
		{"one-sided", 5000, 0, 10000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotProv, gotBusiness := normalizeRateBps(tt.provider, tt.business)
			assert.Equal(t, tt.wantProv, gotProv)
			assert.Equal(t, tt.wantBusiness, gotBusiness)
			if tt.wantProv+tt.wantBusiness != 0 {
				assert.Equal(t, FullRateBps, gotProv+gotBusiness)
			}
		})
	}
}

func TestResolveSplitRate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	branchA := uuid.New()
	branchB := uuid.New()
	artist := uuid.New()
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	aug := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nil artist falls back to default", func(t *testing.T) {
		provider, business := svc.ResolveSplitRate(nil, branchA, aug)
		assert.Equal(t, DefaultProviderRateBps, provider)
		assert.Equal(t, DefaultBusinessRateBps, business)
	})

	t.Run("no rules falls back to default", func(t *testing.T) {
		provider, business := svc.ResolveSplitRate(&artist, branchA, aug)
		assert.Equal(t, DefaultProviderRateBps, provider)
		assert.Equal(t, DefaultBusinessRateBps, business)
	})

	// Branch-null rule at 60/40 effective January, branch-specific at 80/20
	// effective June.
	require.NoError(t, db.Create(&models.SplitRule{
		ArtistID: artist, EffectiveFrom: jan,
		ProviderRateBps: 6000, BusinessRateBps: 4000,
	}).Error)
	require.NoError(t, db.Create(&models.SplitRule{
		ArtistID: artist, BranchID: &branchA, EffectiveFrom: jun,
		ProviderRateBps: 8000, BusinessRateBps: 2000,
	}).Error)

	t.Run("branch-specific rule wins at its branch", func(t *testing.T) {
		provider, business := svc.ResolveSplitRate(&artist, branchA, aug)
		assert.Equal(t, 8000, provider)
		assert.Equal(t, 2000, business)
	})

	t.Run("other branch sees the branch-null rule", func(t *testing.T) {
		provider, business := svc.ResolveSplitRate(&artist, branchB, aug)
		assert.Equal(t, 6000, provider)
		assert.Equal(t, 4000, business)
	})

	t.Run("rules in the future are ignored", func(t *testing.T) {
		before := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
		provider, business := svc.ResolveSplitRate(&artist, branchA, before)
		assert.Equal(t, DefaultProviderRateBps, provider)
		assert.Equal(t, DefaultBusinessRateBps, business)
	})

	t.Run("newer rule wins over older at same scope", func(t *testing.T) {
		provider, _ := svc.ResolveSplitRate(&artist, branchB, aug)
		assert.Equal(t, 6000, provider)

		require.NoError(t, db.Create(&models.SplitRule{
			ArtistID: artist, EffectiveFrom: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			ProviderRateBps: 5000, BusinessRateBps: 5000,
		}).Error)
		provider, business := svc.ResolveSplitRate(&artist, branchB, aug)
		assert.Equal(t, 5000, provider)
		assert.Equal(t, 5000, business)
	})

	t.Run("malformed rates are clamped and normalized", func(t *testing.T) {
		badArtist := uuid.New()
		require.NoError(t, db.Create(&models.SplitRule{
			ArtistID: badArtist, EffectiveFrom: jan,
			ProviderRateBps: 12000, BusinessRateBps: -500,
		}).Error)
		provider, business := svc.ResolveSplitRate(&badArtist, branchA, aug)
		assert.Equal(t, 10000, provider)
		assert.Equal(t, 0, business)
	})

	t.Run("non-normalized pair sums to exactly full rate", func(t *testing.T) {
		oddArtist := uuid.New()
		require.NoError(t, db.Create(&models.SplitRule{
			ArtistID: oddArtist, EffectiveFrom: jan,
			ProviderRateBps: 6000, BusinessRateBps: 3000,
		}).Error)
		provider, business := svc.ResolveSplitRate(&oddArtist, branchA, aug)
		assert.Equal(t, 6667, provider)
		assert.Equal(t, 3333, business)
	})

	t.Run("all-zero rule passes through", func(t *testing.T) {
		zeroArtist := uuid.New()
		require.NoError(t, db.Create(&models.SplitRule{
			ArtistID: zeroArtist, EffectiveFrom: jan,
		}).Error)
		provider, business := svc.ResolveSplitRate(&zeroArtist, branchA, aug)
		assert.Equal(t, 0, provider)
		assert.Equal(t, 0, business)
	})
}

func TestReallocateThreePartialPayments(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	branch := uuid.New()
	artist := uuid.New()
	require.NoError(t, db.Create(&models.SplitRule{
		ArtistID: artist, EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ProviderRateBps: 7000, BusinessRateBps: 3000,
	}).Error)

	bill := createBill(t, db, 10000, &artist, branch)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p1 := addPayment(t, db, bill.ID, 3000, base)
	p2 := addPayment(t, db, bill.ID, 3000, base.Add(24*time.Hour))
	p3 := addPayment(t, db, bill.ID, 4000, base.Add(48*time.Hour))

	require.NoError(t, svc.Reallocate(bill.ID))

	allocs := allocationsByPayment(t, db, bill.ID)
	assert.Equal(t, int64(2100), allocs[p1.ID][models.AllocationTargetProvider])
	assert.Equal(t, int64(900), allocs[p1.ID][models.AllocationTargetBusiness])
	assert.Equal(t, int64(2100), allocs[p2.ID][models.AllocationTargetProvider])
	assert.Equal(t, int64(900), allocs[p2.ID][models.AllocationTargetBusiness])
	assert.Equal(t, int64(2800), allocs[p3.ID][models.AllocationTargetProvider])
	assert.Equal(t, int64(1200), allocs[p3.ID][models.AllocationTargetBusiness])

	assert.Equal(t, models.BillStatusSettled, billStatus(t, db, bill.ID))
}

func TestReallocateOverpayment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	// No artist assigned: walk-in default 70/30 applies.
	bill := createBill(t, db, 10000, nil, uuid.New())
	payment := addPayment(t, db, bill.ID, 12000, time.Now())

	require.NoError(t, svc.Reallocate(bill.ID))

	allocs := allocationsByPayment(t, db, bill.ID)
	assert.Equal(t, int64(8400), allocs[payment.ID][models.AllocationTargetProvider])
	assert.Equal(t, int64(3600), allocs[payment.ID][models.AllocationTargetBusiness])
	assert.Equal(t, models.BillStatusSettled, billStatus(t, db, bill.ID))
}

func TestReallocatePerPaymentExactness(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	branch := uuid.New()
	artist := uuid.New()
	require.NoError(t, db.Create(&models.SplitRule{
		ArtistID: artist, EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ProviderRateBps: 5000, BusinessRateBps: 5000,
	}).Error)

	// Odd total and odd payment amounts to stress rounding.
	bill := createBill(t, db, 10001, &artist, branch)
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	amounts := []int64{3334, 3334, 3333, 0}
	var payments []models.Payment
	for i, amount := range amounts {
		payments = append(payments, addPayment(t, db, bill.ID, amount, base.Add(time.Duration(i)*time.Hour)))
	}

	require.NoError(t, svc.Reallocate(bill.ID))

	allocs := allocationsByPayment(t, db, bill.ID)
	var providerSum, businessSum int64
	for i, payment := range payments {
		pair := allocs[payment.ID]
		assert.Equal(t, amounts[i], pair[models.AllocationTargetProvider]+pair[models.AllocationTargetBusiness],
			"payment %d allocations must sum to its amount", i)
		providerSum += pair[models.AllocationTargetProvider]
		businessSum += pair[models.AllocationTargetBusiness]
	}

	// With a constant rate and exact settlement there is no cumulative drift:
	// the provider ends on round_half_up(10001 * 5000 / 10000) exactly.
	assert.Equal(t, int64(5001), providerSum)
	assert.Equal(t, int64(5000), businessSum)
	assert.Equal(t, models.BillStatusSettled, billStatus(t, db, bill.ID))
}

func TestReallocateIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	branch := uuid.New()
	artist := uuid.New()
	require.NoError(t, db.Create(&models.SplitRule{
		ArtistID: artist, EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ProviderRateBps: 6000, BusinessRateBps: 3000, // resolver normalizes to 6667/3333
	}).Error)

	bill := createBill(t, db, 7500, &artist, branch)
	paidAt := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	addPayment(t, db, bill.ID, 2500, paidAt)
	// Same timestamp: tie-break must keep recomputes deterministic.
	addPayment(t, db, bill.ID, 5000, paidAt)

	require.NoError(t, svc.Reallocate(bill.ID))
	first := allocationsByPayment(t, db, bill.ID)

	require.NoError(t, svc.Reallocate(bill.ID))
	second := allocationsByPayment(t, db, bill.ID)

	assert.Equal(t, first, second)
	assert.Equal(t, models.BillStatusSettled, billStatus(t, db, bill.ID))
}

func TestReallocateMissingBillIsNoop(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	require.NoError(t, svc.Reallocate(uuid.New()))

	var count int64
	require.NoError(t, db.Model(&models.PaymentAllocation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReallocateRuleResolvedAtPaymentTime(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	branch := uuid.New()
	artist := uuid.New()
	// Rule appears March 1; the February payment must keep the default split.
	require.NoError(t, db.Create(&models.SplitRule{
		ArtistID: artist, EffectiveFrom: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		ProviderRateBps: 5000, BusinessRateBps: 5000,
	}).Error)

	bill := createBill(t, db, 10000, &artist, branch)
	feb := addPayment(t, db, bill.ID, 5000, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC))
	apr := addPayment(t, db, bill.ID, 5000, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC))

	require.NoError(t, svc.Reallocate(bill.ID))

	allocs := allocationsByPayment(t, db, bill.ID)
	// February at default 70/30: targets 7000/3000.
	assert.Equal(t, int64(3500), allocs[feb.ID][models.AllocationTargetProvider])
	assert.Equal(t, int64(1500), allocs[feb.ID][models.AllocationTargetBusiness])
	// April at 50/50: targets shift to 5000/5000, the remainder catches the
	// provider up to 5000 and the business to 5000.
	assert.Equal(t, int64(1500), allocs[apr.ID][models.AllocationTargetProvider])
	assert.Equal(t, int64(3500), allocs[apr.ID][models.AllocationTargetBusiness])

	assert.Equal(t, models.BillStatusSettled, billStatus(t, db, bill.ID))
}

func TestReallocateZeroSharePolicy(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	branch := uuid.New()
	artist := uuid.New()
	require.NoError(t, db.Create(&models.SplitRule{
		ArtistID: artist, EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}).Error)

	bill := createBill(t, db, 4000, &artist, branch)
	payment := addPayment(t, db, bill.ID, 4000, time.Now())

	require.NoError(t, svc.Reallocate(bill.ID))

	// "No revenue share" policy: both rows exist with zero amounts, yet the
	// bill still settles on paid total.
	allocs := allocationsByPayment(t, db, bill.ID)
	assert.Zero(t, allocs[payment.ID][models.AllocationTargetProvider])
	assert.Zero(t, allocs[payment.ID][models.AllocationTargetBusiness])
	assert.Equal(t, models.BillStatusSettled, billStatus(t, db, bill.ID))
}

func TestReallocateVoidIsSticky(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	bill := createBill(t, db, 5000, nil, uuid.New())
	addPayment(t, db, bill.ID, 5000, time.Now())
	require.NoError(t, db.Model(&models.Bill{}).Where("id = ?", bill.ID).
		Update("status", models.BillStatusVoid).Error)

	require.NoError(t, svc.Reallocate(bill.ID))

	assert.Equal(t, models.BillStatusVoid, billStatus(t, db, bill.ID))
}

func TestReallocateReopensUnderpaidBill(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	bill := createBill(t, db, 8000, nil, uuid.New())
	addPayment(t, db, bill.ID, 3000, time.Now())

	require.NoError(t, svc.Reallocate(bill.ID))
	assert.Equal(t, models.BillStatusOpen, billStatus(t, db, bill.ID))

	addPayment(t, db, bill.ID, 5000, time.Now().Add(time.Hour))
	require.NoError(t, svc.Reallocate(bill.ID))
	assert.Equal(t, models.BillStatusSettled, billStatus(t, db, bill.ID))
}

func TestReallocateBillLevelExactness(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)

	branch := uuid.New()
	artist := uuid.New()
	require.NoError(t, db.Create(&models.SplitRule{
		ArtistID: artist, EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ProviderRateBps: 7000, BusinessRateBps: 3000,
	}).Error)

	// Out-of-order inserts, uneven amounts, overpayment at the end.
	bill := createBill(t, db, 9999, &artist, branch)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	amounts := []int64{1777, 43, 6000, 5000}
	offsets := []time.Duration{72 * time.Hour, 0, 24 * time.Hour, 96 * time.Hour}
	var total int64
	for i, amount := range amounts {
		addPayment(t, db, bill.ID, amount, base.Add(offsets[i]))
		total += amount
	}

	require.NoError(t, svc.Reallocate(bill.ID))

	var allocatedTotal int64
	require.NoError(t, db.Model(&models.PaymentAllocation{}).
		Where("bill_id = ?", bill.ID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&allocatedTotal).Error)

	assert.Equal(t, total, allocatedTotal)
	assert.Equal(t, models.BillStatusSettled, billStatus(t, db, bill.ID))
}
