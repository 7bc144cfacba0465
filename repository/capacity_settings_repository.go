package repository

import (
	"context"
	"fmt"

	"github.com/coldwire/dialplan/models"
	"github.com/coldwire/dialplan/utils"
	"gorm.io/gorm"
)

// CapacitySettingsRepositoryImpl implements CapacitySettingsRepository interface.
type CapacitySettingsRepositoryImpl struct {
	*BaseRepository[models.CapacitySettings, models.CapacitySettingsFilter]
}

// NewCapacitySettingsRepository creates a new capacity settings repository.
func NewCapacitySettingsRepository(db *gorm.DB) CapacitySettingsRepository {
	return &CapacitySettingsRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CapacitySettings, models.CapacitySettingsFilter](db),
	}
}

// applyFilter applies filter criteria to a GORM query.
func (r *CapacitySettingsRepositoryImpl) applyFilter(query *gorm.DB, filter models.CapacitySettingsFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	return query
}

// ByFilter retrieves settings based on filter criteria.
func (r *CapacitySettingsRepositoryImpl) ByFilter(ctx context.Context, filter models.CapacitySettingsFilter, orderBy string, limit, offset int) ([]*models.CapacitySettings, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CapacitySettings{})

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

	var rows []*models.CapacitySettings
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of settings rows matching filter.
func (r *CapacitySettingsRepositoryImpl) Count(ctx context.Context, filter models.CapacitySettingsFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CapacitySettings{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any settings row matches the filter.
func (r *CapacitySettingsRepositoryImpl) Exists(ctx context.Context, filter models.CapacitySettingsFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ByAccountID retrieves the settings row for an account, nil when absent.
func (r *CapacitySettingsRepositoryImpl) ByAccountID(ctx context.Context, accountID uint) (*models.CapacitySettings, error) {
	rows, err := r.ByFilter(ctx, models.CapacitySettingsFilter{AccountID: &accountID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Update persists changes to an existing settings row.
func (r *CapacitySettingsRepositoryImpl) Update(ctx context.Context, settings *models.CapacitySettings) error {
	db := r.getDB(ctx)
	settings.UpdatedAt = utils.UTCNow()
	res := db.Model(&models.CapacitySettings{}).
		Where("id = ?", settings.ID).
		Updates(map[string]any{
			"target_per_day":    settings.TargetPerDay,
			"new_quota_per_day": settings.NewQuotaPerDay,
			"window_days":       settings.WindowDays,
			"bloat_threshold":   settings.BloatThreshold,
			"updated_at":        settings.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update capacity settings %d: %w", settings.ID, res.Error)
	}
	return nil
}
