package services

import (
	"errors"
	"time"

	"beautybiz-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Default split applied to walk-in bills with no assigned artist, and
// whenever no split rule matches: 70% provider / 30% business.
const (
	DefaultProviderRateBps = 7000
	DefaultBusinessRateBps = 3000
	FullRateBps            = 10000
)

// AllocationService owns the billing ledger: it resolves split rules,
// recomputes payment allocations and projects bill status. One recompute per
// bill runs inside a single transaction; concurrent recomputes for the same
// bill must be serialized by the caller or the store.
type AllocationService struct {
	db *gorm.DB
}

func NewAllocationService(db *gorm.DB) *AllocationService {
	return &AllocationService{db: db}
}

// roundHalfUpDiv computes round-half-up of num/den for non-negative num and
// positive den, i.e. floor(num/den + 0.5) in pure integer arithmetic.
func roundHalfUpDiv(num, den int64) int64 {
	return (2*num + den) / (2 * den)
}

func clampRateBps(rate int) int {
	if rate < 0 {
		return 0
	}
	if rate > FullRateBps {
		return FullRateBps
	}
	return rate
}

// normalizeRateBps forces a clamped rate pair to sum to exactly 10000 bps.
// The all-zero pair is passed through unchanged: that is an explicit
// "no revenue share" policy, not bad data.
func normalizeRateBps(providerBps, businessBps int) (int, int) {
	sum := providerBps + businessBps
	if sum == FullRateBps || sum == 0 {
		return providerBps, businessBps
	}
	normalized := int(roundHalfUpDiv(int64(providerBps)*FullRateBps, int64(sum)))
	return normalized, FullRateBps - normalized
}

// ResolveSplitRate returns the (provider, business) rate pair in basis points
// for an artist at a branch at a point in time. Branch-specific rules beat
// branch-null rules, newer EffectiveFrom beats older. Missing artist, missing
// rules and malformed stored rates all degrade to a usable pair; this never
// fails the caller.
func (s *AllocationService) ResolveSplitRate(artistID *uuid.UUID, branchID uuid.UUID, at time.Time) (int, int) {
	if artistID == nil {
		return DefaultProviderRateBps, DefaultBusinessRateBps
	}

	var rule models.SplitRule
	err := s.db.
		Where("artist_id = ? AND effective_from <= ? AND (branch_id = ? OR branch_id IS NULL)", *artistID, at, branchID).
		Order("branch_id IS NULL, effective_from DESC").
		First(&rule).Error
	if err != nil {
		return DefaultProviderRateBps, DefaultBusinessRateBps
	}

	provider := clampRateBps(rule.ProviderRateBps)
	business := clampRateBps(rule.BusinessRateBps)
	return normalizeRateBps(provider, business)
}

// ProjectBillStatus derives a bill's status from its totals. Void is sticky
// and wins over any payment state.
func ProjectBillStatus(billTotal, paidTotal int64, isVoided bool) string {
	if isVoided {
		return models.BillStatusVoid
	}
	if paidTotal >= billTotal {
		return models.BillStatusSettled
	}
	return models.BillStatusOpen
}

// Reallocate fully recomputes the provider/business allocation rows for every
// payment on a bill and re-projects the bill's status. It always starts from
// a clean slate (delete all allocations, then rebuild), which makes the
// operation idempotent and immune to retroactive rule changes: running it
// twice on unchanged inputs produces identical rows. A missing bill is a
// no-op.
//
// Each payment resolves the split rate at its own PaidAt, then receives the
// share of the bill-level target split that is still unallocated, so
// cumulative allocations track round_half_up(billTotal * rate / 10000)
// exactly, with no drift across many partial payments.
func (s *AllocationService) Reallocate(billID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var bill models.Bill
		if err := tx.First(&bill, "id = ?", billID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		// Chronological settlement order, not insertion order. Ties on
		// paid_at break by created_at then id to keep recomputes
		// deterministic under clock collisions.
		var payments []models.Payment
		if err := tx.
			Where("bill_id = ?", bill.ID).
			Order("paid_at ASC, created_at ASC, id ASC").
			Find(&payments).Error; err != nil {
			return err
		}

		if err := tx.Where("bill_id = ?", bill.ID).
			Delete(&models.PaymentAllocation{}).Error; err != nil {
			return err
		}

		resolver := &AllocationService{db: tx}

		var allocations []models.PaymentAllocation
		var allocatedProvider, allocatedBusiness int64
		var paidTotal int64

		for _, payment := range payments {
			providerBps, businessBps := resolver.ResolveSplitRate(bill.ArtistID, bill.BranchID, payment.PaidAt)

			// An all-zero pair means "no revenue share" for this artist:
			// record the payment with zero allocation to both sides rather
			// than handing everything to one of them.
			if providerBps == 0 && businessBps == 0 {
				allocations = append(allocations,
					models.PaymentAllocation{
						BillID:    bill.ID,
						PaymentID: payment.ID,
						Target:    models.AllocationTargetProvider,
					},
					models.PaymentAllocation{
						BillID:    bill.ID,
						PaymentID: payment.ID,
						Target:    models.AllocationTargetBusiness,
					},
				)
				paidTotal += payment.Amount
				continue
			}

			// Bill-level targets from the full bill total. The pair sums to
			// BillTotal by construction, not by rounding luck.
			targetProvider := roundHalfUpDiv(bill.BillTotal*int64(providerBps), FullRateBps)
			targetBusiness := bill.BillTotal - targetProvider

			remainingProvider := targetProvider - allocatedProvider
			remainingBusiness := targetBusiness - allocatedBusiness
			remainingTotal := remainingProvider + remainingBusiness

			var providerAmount, businessAmount int64
			if remainingTotal > 0 && payment.Amount <= remainingTotal {
				// Split this payment proportionally to what each side is
				// still owed against the bill-level target.
				providerAmount = roundHalfUpDiv(payment.Amount*remainingProvider, remainingTotal)
				if providerAmount < 0 {
					providerAmount = 0
				}
				if providerAmount > payment.Amount {
					providerAmount = payment.Amount
				}
				businessAmount = payment.Amount - providerAmount

				// With a constant rate the proration above never overshoots,
				// but a mid-bill rate change can leave one side over its new
				// target (negative remainder). Cap and rebalance.
				if businessAmount > remainingBusiness {
					businessAmount = remainingBusiness
					if businessAmount < 0 {
						businessAmount = 0
					}
					providerAmount = payment.Amount - businessAmount
				} else if providerAmount > remainingProvider {
					providerAmount = remainingProvider
					if providerAmount < 0 {
						providerAmount = 0
					}
					businessAmount = payment.Amount - providerAmount
				}
			} else {
				// Overpayment: the payment exceeds what the bill-level
				// target still owes (or the target is already fully
				// allocated). Split the payment itself by the resolved rate
				// so it is still fully allocated.
				providerAmount = roundHalfUpDiv(payment.Amount*int64(providerBps), FullRateBps)
				businessAmount = payment.Amount - providerAmount
			}

			allocations = append(allocations,
				models.PaymentAllocation{
					BillID:    bill.ID,
					PaymentID: payment.ID,
					Target:    models.AllocationTargetProvider,
					Amount:    providerAmount,
				},
				models.PaymentAllocation{
					BillID:    bill.ID,
					PaymentID: payment.ID,
					Target:    models.AllocationTargetBusiness,
					Amount:    businessAmount,
				},
			)

			allocatedProvider += providerAmount
			allocatedBusiness += businessAmount
			paidTotal += payment.Amount
		}

		if len(allocations) > 0 {
			if err := tx.Create(&allocations).Error; err != nil {
				return err
			}
		}

		status := ProjectBillStatus(bill.BillTotal, paidTotal, bill.Status == models.BillStatusVoid)
		if status != bill.Status {
			if err := tx.Model(&models.Bill{}).Where("id = ?", bill.ID).
				Update("status", status).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
