package businessflow

import (
	"context"

	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/repository"
)

// SettingsFlow handles per-account capacity settings
type SettingsFlow interface {
	GetSettings(ctx context.Context, accountID uint) (*dto.CapacitySettingsResponse, error)
	UpdateSettings(ctx context.Context, accountID uint, req *dto.UpdateCapacitySettingsRequest) (*dto.CapacitySettingsResponse, error)
}

type SettingsFlowImpl struct {
	settingsRepo repository.CapacitySettingsRepository
}

// NewSettingsFlow creates a new settings flow instance
func NewSettingsFlow(settingsRepo repository.CapacitySettingsRepository) SettingsFlow {
	return &SettingsFlowImpl{settingsRepo: settingsRepo}
}

// GetSettings returns the account's settings, creating the defaults row on
// first access.
func (s *SettingsFlowImpl) GetSettings(ctx context.Context, accountID uint) (*dto.CapacitySettingsResponse, error) {
	settings, err := getOrCreateSettings(ctx, s.settingsRepo, accountID)
	if err != nil {
		return nil, err
	}
	return &dto.CapacitySettingsResponse{
		Message:  "Capacity settings retrieved successfully",
		Settings: ToCapacitySettingsDTO(settings),
	}, nil
}

// UpdateSettings applies a partial update after validating the resulting row.
func (s *SettingsFlowImpl) UpdateSettings(ctx context.Context, accountID uint, req *dto.UpdateCapacitySettingsRequest) (*dto.CapacitySettingsResponse, error) {
	if req == nil || (req.TargetPerDay == nil && req.NewQuotaPerDay == nil && req.WindowDays == nil && req.BloatThreshold == nil) {
		return nil, NewBusinessError("VALIDATION_ERROR", "At least one field must be provided for update", ErrSettingsUpdateEmpty)
	}

	settings, err := getOrCreateSettings(ctx, s.settingsRepo, accountID)
	if err != nil {
		return nil, err
	}

	if req.TargetPerDay != nil {
		settings.TargetPerDay = *req.TargetPerDay
	}
	if req.NewQuotaPerDay != nil {
		settings.NewQuotaPerDay = *req.NewQuotaPerDay
	}
	if req.WindowDays != nil {
		settings.WindowDays = *req.WindowDays
	}
	if req.BloatThreshold != nil {
		settings.BloatThreshold = *req.BloatThreshold
	}

	if settings.TargetPerDay < 0 || settings.NewQuotaPerDay < 0 || settings.BloatThreshold < 0 {
		return nil, NewBusinessError("VALIDATION_ERROR", "Settings values must not be negative", ErrSettingsValueNegative)
	}
	if settings.WindowDays < 1 || settings.WindowDays > 90 {
		return nil, NewBusinessError("VALIDATION_ERROR", "Window days must be between 1 and 90", ErrWindowDaysOutOfRange)
	}
	if settings.NewQuotaPerDay > settings.TargetPerDay {
		return nil, NewBusinessError("VALIDATION_ERROR", "New-lead quota cannot exceed daily target", ErrNewQuotaExceedsTarget)
	}

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, NewBusinessError("STORE_ERROR", "Failed to update capacity settings", err)
	}

	return &dto.CapacitySettingsResponse{
		Message:  "Capacity settings updated successfully",
		Settings: ToCapacitySettingsDTO(settings),
	}, nil
}
