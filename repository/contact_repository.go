package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/coldwire/dialplan/models"
	"github.com/coldwire/dialplan/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ContactRepositoryImpl implements ContactRepository interface.
type ContactRepositoryImpl struct {
	*BaseRepository[models.Contact, models.ContactFilter]
}

// NewContactRepository creates a new contact repository.
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &ContactRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Contact, models.ContactFilter](db),
	}
}

// applyFilter applies filter criteria to a GORM query.
func (r *ContactRepositoryImpl) applyFilter(query *gorm.DB, filter models.ContactFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Company != nil {
		query = query.Where("company = ?", *filter.Company)
	}
	if filter.LastCallOutcome != nil {
		query = query.Where("last_call_outcome = ?", *filter.LastCallOutcome)
	}
	if filter.IsAaa != nil {
		query = query.Where("is_aaa = ?", *filter.IsAaa)
	}
	if filter.Unscheduled != nil {
		if *filter.Unscheduled {
			query = query.Where("next_call_date IS NULL")
		} else {
			query = query.Where("next_call_date IS NOT NULL")
		}
	}
	if filter.NewLead != nil {
		if *filter.NewLead {
			query = query.Where("last_contacted_at IS NULL")
		} else {
			query = query.Where("last_contacted_at IS NOT NULL")
		}
	}
	if filter.NextCallOnOrAfter != nil {
		query = query.Where("next_call_date >= ?", *filter.NextCallOnOrAfter)
	}
	if filter.NextCallOnOrBefore != nil {
		query = query.Where("next_call_date <= ?", *filter.NextCallOnOrBefore)
	}
	if filter.ExcludePausedAt != nil {
		query = query.Where("(paused_until IS NULL OR paused_until <= ?)", *filter.ExcludePausedAt)
	}
	if filter.PausedAt != nil {
		query = query.Where("paused_until > ?", *filter.PausedAt)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves contacts based on filter criteria.
func (r *ContactRepositoryImpl) ByFilter(ctx context.Context, filter models.ContactFilter, orderBy string, limit, offset int) ([]*models.Contact, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Contact{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Contact
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of contacts matching filter.
func (r *ContactRepositoryImpl) Count(ctx context.Context, filter models.ContactFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Contact{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any contact matches the filter.
func (r *ContactRepositoryImpl) Exists(ctx context.Context, filter models.ContactFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ByIDs retrieves contacts by ID set, scoped to the owning account. Result
// order is unspecified; callers needing input order must reorder.
func (r *ContactRepositoryImpl) ByIDs(ctx context.Context, accountID uint, ids []uint) ([]*models.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)
	var rows []*models.Contact
	err := db.Model(&models.Contact{}).
		Where("account_id = ? AND id = ANY(?)", accountID, pq.Array(toInt64s(ids))).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// OccupancyByDate returns scheduled slot counts grouped by next_call_date for
// dates in [from, to], ascending. Dates with no scheduled contacts are absent.
func (r *ContactRepositoryImpl) OccupancyByDate(ctx context.Context, accountID uint, from, to time.Time) ([]DateOccupancy, error) {
	db := r.getDB(ctx)
	var rows []DateOccupancy
	err := db.Model(&models.Contact{}).
		Select(`next_call_date AS date, COUNT(*) AS total, SUM(CASE WHEN last_contacted_at IS NULL THEN 1 ELSE 0 END) AS "new"`).
		Where("account_id = ? AND next_call_date IS NOT NULL AND next_call_date >= ? AND next_call_date <= ?", accountID, from, to).
		Group("next_call_date").
		Order("next_call_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// BulkSetNextCallDate assigns one date to many contacts in a single statement.
func (r *ContactRepositoryImpl) BulkSetNextCallDate(ctx context.Context, accountID uint, ids []uint, date time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := r.getDB(ctx)
	res := db.Model(&models.Contact{}).
		Where("account_id = ? AND id = ANY(?)", accountID, pq.Array(toInt64s(ids))).
		Updates(map[string]any{
			"next_call_date": date,
			"updated_at":     utils.UTCNow(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to bulk set next_call_date for %d contacts: %w", len(ids), res.Error)
	}
	return res.RowsAffected, nil
}

// ListEligibleUnscheduled pages contacts with no next_call_date and,
// optionally, overdue non-paused ones. Ordered by (created_at, id) so repeated
// paged reads are stable while nothing schedules concurrently.
func (r *ContactRepositoryImpl) ListEligibleUnscheduled(ctx context.Context, accountID uint, includeOverdue bool, today, now time.Time, limit, offset int) ([]*models.Contact, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Contact{}).Where("account_id = ?", accountID)

	if includeOverdue {
		query = query.Where("(next_call_date IS NULL OR (next_call_date < ? AND (paused_until IS NULL OR paused_until <= ?)))", today, now)
	} else {
		query = query.Where("next_call_date IS NULL")
	}

	query = query.Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Contact
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRemovalCandidates returns scheduled-or-overdue non-paused contacts ranked
// most-defer-suitable first: strongest negative signal, then most attempts,
// then oldest, with ID as the final tie-break for determinism.
func (r *ContactRepositoryImpl) ListRemovalCandidates(ctx context.Context, accountID uint, excludeAaa bool, now time.Time, limit int) ([]*models.Contact, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Contact{}).
		Where("account_id = ? AND next_call_date IS NOT NULL", accountID).
		Where("(paused_until IS NULL OR paused_until <= ?)", now)

	if excludeAaa {
		query = query.Where("is_aaa = ?", false)
	}

	query = query.Order(`CASE last_call_outcome
		WHEN 'do_not_call' THEN 3
		WHEN 'not_interested' THEN 3
		WHEN 'voicemail' THEN 1
		WHEN 'no_answer' THEN 1
		ELSE 0
	END DESC, call_attempts DESC, created_at ASC, id ASC`)

	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []*models.Contact
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SetPause sets paused_until and clears any scheduled call.
func (r *ContactRepositoryImpl) SetPause(ctx context.Context, accountID, contactID uint, until time.Time) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Contact{}).
		Where("account_id = ? AND id = ?", accountID, contactID).
		Updates(map[string]any{
			"paused_until":   until,
			"next_call_date": nil,
			"updated_at":     utils.UTCNow(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to pause contact %d: %w", contactID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("contact %d not found for account %d", contactID, accountID)
	}
	return nil
}

// SetThrottle sets throttle_days; the schedule itself is untouched.
func (r *ContactRepositoryImpl) SetThrottle(ctx context.Context, accountID, contactID uint, days int) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Contact{}).
		Where("account_id = ? AND id = ?", accountID, contactID).
		Updates(map[string]any{
			"throttle_days": days,
			"updated_at":    utils.UTCNow(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to throttle contact %d: %w", contactID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("contact %d not found for account %d", contactID, accountID)
	}
	return nil
}

func toInt64s(ids []uint) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
