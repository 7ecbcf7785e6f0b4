package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	BranchID        uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name        string `gorm:"not null"`
	Phone       string `gorm:"not null;uniqueIndex:idx_branch_phone,priority:2"`
	Email       string
	Birthday    *time.Time
	Notes       string
	TotalVisits int   `gorm:"default:0"`
	TotalSpent  int64 `gorm:"default:0"` // minor currency units
	LastVisit   *time.Time
	IsActive    bool `gorm:"default:true"`

	Bills []Bill `gorm:"foreignKey:CustomerID"`

	gorm.Model
}
