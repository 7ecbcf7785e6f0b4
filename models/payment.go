package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Allocation targets: every payment is split between the artist who performed
// the service and the business itself.
const (
	AllocationTargetProvider = "provider"
	AllocationTargetBusiness = "business"
)

type Payment struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	BillID           uuid.UUID `gorm:"type:uuid;index;not null"`
	Amount           int64     `gorm:"not null"` // minor currency units
	Method           string    `gorm:"type:varchar(30)"`
	PaidAt           time.Time `gorm:"index;not null"`
	RecordedByUserID *uuid.UUID `gorm:"type:uuid"`

	// Free-form note; also serves as a natural idempotency key when
	// importing payments from the legacy system.
	Note string

	CreatedAt time.Time

	Allocations []PaymentAllocation `gorm:"foreignKey:PaymentID"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// PaymentAllocation rows are owned entirely by the allocation engine: exactly
// two per payment (provider + business), deleted and regenerated on every
// recompute. Never hand-edited.
type PaymentAllocation struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	BillID    uuid.UUID `gorm:"type:uuid;index;not null"`
	PaymentID uuid.UUID `gorm:"type:uuid;index;not null"`
	Target    string    `gorm:"type:varchar(20);not null"` // 'provider' or 'business'
	Amount    int64     `gorm:"not null"`
	CreatedAt time.Time
}

func (a *PaymentAllocation) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
