// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/coldwire/dialplan/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// DateOccupancy is a per-date slot count split into total and new-lead parts.
type DateOccupancy struct {
	Date  time.Time `json:"date"`
	Total int       `json:"total"`
	New   int       `json:"new"`
}

// ContactRepository defines operations for contacts
type ContactRepository interface {
	Repository[models.Contact, models.ContactFilter]
	ByIDs(ctx context.Context, accountID uint, ids []uint) ([]*models.Contact, error)

	// OccupancyByDate returns scheduled slot counts grouped by next_call_date
	// for dates in [from, to], ascending.
	OccupancyByDate(ctx context.Context, accountID uint, from, to time.Time) ([]DateOccupancy, error)

	// BulkSetNextCallDate assigns one date to many contacts; returns the
	// number of rows updated.
	BulkSetNextCallDate(ctx context.Context, accountID uint, ids []uint, date time.Time) (int64, error)

	// ListEligibleUnscheduled pages contacts with no next_call_date and,
	// optionally, overdue non-paused ones, ordered by (created_at, id).
	ListEligibleUnscheduled(ctx context.Context, accountID uint, includeOverdue bool, today, now time.Time, limit, offset int) ([]*models.Contact, error)

	// ListRemovalCandidates returns scheduled-or-overdue non-paused contacts
	// ranked most-defer-suitable first (strongest negative signal, most
	// attempts, oldest), deterministically.
	ListRemovalCandidates(ctx context.Context, accountID uint, excludeAaa bool, now time.Time, limit int) ([]*models.Contact, error)

	// SetPause sets paused_until and clears next_call_date.
	SetPause(ctx context.Context, accountID, contactID uint, until time.Time) error

	// SetThrottle sets throttle_days without touching the schedule.
	SetThrottle(ctx context.Context, accountID, contactID uint, days int) error
}

// CapacitySettingsRepository defines operations for per-account settings
type CapacitySettingsRepository interface {
	Repository[models.CapacitySettings, models.CapacitySettingsFilter]
	ByAccountID(ctx context.Context, accountID uint) (*models.CapacitySettings, error)
	Update(ctx context.Context, settings *models.CapacitySettings) error
}

// AccountRepository defines operations for accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByEmail(ctx context.Context, email string) (*models.Account, error)
}
