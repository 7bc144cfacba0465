package models

import (
	"time"

	"github.com/coldwire/dialplan/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CapacitySettings is the per-account dialer configuration. One row per
// account, created with defaults on first access, never deleted while the
// account exists.
type CapacitySettings struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	AccountID uint      `gorm:"uniqueIndex;not null" json:"account_id"`

	// TargetPerDay is the total calls desired per business day.
	TargetPerDay int `gorm:"not null;default:30" json:"target_per_day"`

	// NewQuotaPerDay is the sub-quota reserved for new leads; never exceeds
	// TargetPerDay.
	NewQuotaPerDay int `gorm:"not null;default:10" json:"new_quota_per_day"`

	// WindowDays is the calendar horizon over which backlog is distributed
	// and bloat is measured.
	WindowDays int `gorm:"not null;default:10" json:"window_days"`

	// BloatThreshold is the overage count tolerated before bloat is flagged
	// as actionable.
	BloatThreshold int `gorm:"not null;default:0" json:"bloat_threshold"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Account *Account `gorm:"foreignKey:AccountID;references:ID;constraint:OnDelete:CASCADE" json:"account,omitempty"`
}

func (CapacitySettings) TableName() string { return "capacity_settings" }

// BeforeCreate ensures UUID and timestamps are set.
func (s *CapacitySettings) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// DefaultCapacitySettings returns the settings row created on first access.
func DefaultCapacitySettings(accountID uint) *CapacitySettings {
	return &CapacitySettings{
		AccountID:      accountID,
		TargetPerDay:   utils.DefaultTargetPerDay,
		NewQuotaPerDay: utils.DefaultNewQuotaPerDay,
		WindowDays:     utils.DefaultWindowDays,
		BloatThreshold: utils.DefaultBloatThreshold,
	}
}

// CapacitySettingsFilter represents filter criteria for settings queries.
type CapacitySettingsFilter struct {
	ID        *uint      `json:"id,omitempty"`
	UUID      *uuid.UUID `json:"uuid,omitempty"`
	AccountID *uint      `json:"account_id,omitempty"`
}
