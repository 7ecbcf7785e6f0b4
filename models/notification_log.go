package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID     uuid.UUID `gorm:"type:uuid;index;not null"`
	BillID       uuid.UUID `gorm:"type:uuid;index;not null"`
	Phone        string    `gorm:"type:varchar(20)"`
	Message      string    `gorm:"type:text"`
	Status       string    `gorm:"type:varchar(20)"` // sent, failed
	ErrorMessage string    `gorm:"type:text"`
	Channel      string    `gorm:"type:varchar(20)"` // sms, whatsapp
	SentAt       time.Time
	gorm.Model
}

func (n *NotificationLog) BeforeCreate(tx *gorm.DB) (err error) {
	n.ID = uuid.New()
	return
}
