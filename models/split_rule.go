package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SplitRule is a time-versioned revenue-split policy for one artist. A nil
// BranchID means the rule applies at every branch; a branch-specific rule
// takes precedence over a branch-null one. Rules are never edited in place
// when rates change going forward — a new row with a later EffectiveFrom is
// added instead, so recomputing an old bill still resolves the rates that
// were in force when its payments landed.
type SplitRule struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	ArtistID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	BranchID      *uuid.UUID `gorm:"type:uuid;index"`
	EffectiveFrom time.Time  `gorm:"index;not null"`

	// Basis points; intended to sum to 10000 but not trusted to.
	ProviderRateBps int `gorm:"not null"`
	BusinessRateBps int `gorm:"not null"`

	gorm.Model
}

func (r *SplitRule) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
