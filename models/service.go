package models

import (
	"github.com/google/uuid"
)

type Service struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	BranchID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Name        string    `gorm:"not null"`
	Description string
	Price       int64  `gorm:"not null"` // minor currency units
	Duration    int    // in minutes
	Category    string `gorm:"default:'General'"`
	IsActive    bool   `gorm:"default:true"`

	BillItems []BillItem `gorm:"foreignKey:ServiceID"`
}
