package models

import (
	"time"

	"github.com/google/uuid"
)

// Bill statuses. Status is derived by the allocation engine, never set
// directly except to void.
const (
	BillStatusOpen    = "open"
	BillStatusSettled = "settled"
	BillStatusVoid    = "void"
)

type Bill struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	BranchID        uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	BillNumber    string     `gorm:"uniqueIndex;not null"`
	AppointmentID *uuid.UUID `gorm:"type:uuid;index"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index"`
	ArtistID      *uuid.UUID `gorm:"type:uuid;index"`
	IssuedAt      time.Time  `gorm:"default:CURRENT_TIMESTAMP"`

	// Minor currency units. BillTotal = ListTotal - DiscountTotal, always.
	ListTotal     int64 `gorm:"not null"`
	DiscountTotal int64 `gorm:"default:0"`
	BillTotal     int64 `gorm:"not null"`

	Status string `gorm:"type:varchar(20);default:'open'"`
	Notes  string

	Items    []BillItem `gorm:"foreignKey:BillID"`
	Payments []Payment  `gorm:"foreignKey:BillID"`
}

// BillItem is a receipt line, not a live catalog reference: the name and
// prices are snapshotted at bill creation and never touched again.
type BillItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	BillID          uuid.UUID `gorm:"type:uuid;index;not null"`
	ServiceID       uuid.UUID `gorm:"type:uuid;index;not null"`
	ServiceName     string    `gorm:"not null"`
	BasePrice       int64     `gorm:"not null"` // undiscounted catalog price at time of sale
	FinalPrice      int64     `gorm:"not null"` // price after item-level discount
	SelectedOptions JSONB     `gorm:"type:jsonb;default:'{}'"`
	SortOrder       int       `gorm:"default:0"`
}
