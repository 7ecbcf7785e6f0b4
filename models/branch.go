package models

import (
	"github.com/google/uuid"
)

type Branch struct {
	ID                      uuid.UUID `gorm:"type:uuid;primary_key"`
	Name                    string    `gorm:"not null"`
	Address                 string
	WorkingHours            JSONB `gorm:"type:jsonb;default:'{}'"`
	SettlementNotifications bool  `gorm:"default:true"`
	SMSNotifications        bool  `gorm:"default:false"`

	Users      []User      `gorm:"foreignKey:BranchID"`
	Customers  []Customer  `gorm:"foreignKey:BranchID"`
	Services   []Service   `gorm:"foreignKey:BranchID"`
	Bills      []Bill      `gorm:"foreignKey:BranchID"`
	SplitRules []SplitRule `gorm:"foreignKey:BranchID"`
}
