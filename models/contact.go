package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/coldwire/dialplan/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CallOutcome represents the result of the most recent call to a contact.
type CallOutcome string

const (
	CallOutcomeNone          CallOutcome = ""
	CallOutcomeNoAnswer      CallOutcome = "no_answer"
	CallOutcomeVoicemail     CallOutcome = "voicemail"
	CallOutcomeConnected     CallOutcome = "connected"
	CallOutcomeInterested    CallOutcome = "interested"
	CallOutcomeNotInterested CallOutcome = "not_interested"
	CallOutcomeDoNotCall     CallOutcome = "do_not_call"
)

// Valid checks if the outcome is valid.
func (o CallOutcome) Valid() bool {
	switch o {
	case CallOutcomeNone,
		CallOutcomeNoAnswer,
		CallOutcomeVoicemail,
		CallOutcomeConnected,
		CallOutcomeInterested,
		CallOutcomeNotInterested,
		CallOutcomeDoNotCall:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CallOutcome.
func (o *CallOutcome) Scan(value any) error {
	if value == nil {
		*o = CallOutcomeNone
		return nil
	}

	switch v := value.(type) {
	case string:
		*o = CallOutcome(v)
	case []byte:
		*o = CallOutcome(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CallOutcome", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CallOutcome.
func (o CallOutcome) Value() (driver.Value, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid CallOutcome: %s", o)
	}
	return string(o), nil
}

// Contact represents a dialable contact owned by an account. The scheduling
// fields (next_call_date, paused_until, throttle_days) drive the capacity
// planner; the rest is CRM display and ranking data.
type Contact struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	AccountID uint      `gorm:"not null;index" json:"account_id"`

	FirstName string `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(100)" json:"last_name"`
	Company   string `gorm:"type:varchar(255);index" json:"company"`
	Phone     string `gorm:"type:varchar(32)" json:"phone"`

	// NextCallDate is nil while the contact is unscheduled. Always stored at
	// UTC midnight; scheduling overwrites any prior value.
	NextCallDate *time.Time `gorm:"type:date;index" json:"next_call_date,omitempty"`

	// LastContactedAt is nil until the first completed call; a nil value
	// classifies the contact as a new lead for quota purposes.
	LastContactedAt *time.Time  `gorm:"index" json:"last_contacted_at,omitempty"`
	LastCallOutcome CallOutcome `gorm:"type:varchar(20);not null;default:''" json:"last_call_outcome"`
	CallAttempts    int         `gorm:"not null;default:0" json:"call_attempts"`

	// PausedUntil suppresses the contact from due/bloat calculations while in
	// the future. Scheduling ignores it; due-time evaluation honors it.
	PausedUntil *time.Time `gorm:"index" json:"paused_until,omitempty"`

	// ThrottleDays is the minimum day spacing from last_contacted_at before
	// the next scheduled call.
	ThrottleDays *int `json:"throttle_days,omitempty"`

	// IsAaa marks a top-tier account that must never be auto-deprioritized.
	IsAaa bool `gorm:"not null;default:false;index" json:"is_aaa"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Account *Account `gorm:"foreignKey:AccountID;references:ID;constraint:OnDelete:CASCADE" json:"account,omitempty"`
}

func (Contact) TableName() string { return "contacts" }

// BeforeCreate ensures UUID and timestamps are set.
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// IsNewLead reports whether the contact has never been contacted. New leads
// consume the daily new-lead sub-quota.
func (c *Contact) IsNewLead() bool {
	return c.LastContactedAt == nil
}

// IsPausedAt reports whether the contact is suppressed at the given instant.
func (c *Contact) IsPausedAt(t time.Time) bool {
	return c.PausedUntil != nil && c.PausedUntil.After(t)
}

// EarliestCallDate returns the earliest date this contact may be scheduled on,
// honoring throttle spacing from the last completed call. The result is never
// before from.
func (c *Contact) EarliestCallDate(from time.Time) time.Time {
	earliest := utils.StartOfDay(from)
	if c.ThrottleDays != nil && *c.ThrottleDays > 0 && c.LastContactedAt != nil {
		spaced := utils.StartOfDay(*c.LastContactedAt).AddDate(0, 0, *c.ThrottleDays)
		if spaced.After(earliest) {
			earliest = spaced
		}
	}
	return earliest
}

// ContactFilter represents filter criteria for contact queries.
type ContactFilter struct {
	ID              *uint        `json:"id,omitempty"`
	UUID            *uuid.UUID   `json:"uuid,omitempty"`
	AccountID       *uint        `json:"account_id,omitempty"`
	Company         *string      `json:"company,omitempty"`
	LastCallOutcome *CallOutcome `json:"last_call_outcome,omitempty"`
	IsAaa           *bool        `json:"is_aaa,omitempty"`

	// Unscheduled selects contacts with no next_call_date (false selects
	// scheduled contacts).
	Unscheduled *bool `json:"unscheduled,omitempty"`

	// NewLead selects contacts that have never been contacted (false selects
	// follow-ups).
	NewLead *bool `json:"new_lead,omitempty"`

	// NextCallOnOrAfter / NextCallOnOrBefore bound next_call_date.
	NextCallOnOrAfter  *time.Time `json:"next_call_on_or_after,omitempty"`
	NextCallOnOrBefore *time.Time `json:"next_call_on_or_before,omitempty"`

	// ExcludePausedAt drops contacts whose paused_until is after the instant;
	// PausedAt selects only those contacts.
	ExcludePausedAt *time.Time `json:"exclude_paused_at,omitempty"`
	PausedAt        *time.Time `json:"paused_at,omitempty"`

	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
