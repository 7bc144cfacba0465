// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/models"
	"github.com/coldwire/dialplan/repository"
	"github.com/coldwire/dialplan/utils"
)

const RequestIDKey = "X-Request-ID"

// DateLayout is the wire format for date-precision fields.
const DateLayout = "2006-01-02"

// ClientMetadata holds client-related information for request tracking.
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// getOrCreateSettings loads the account's capacity settings, creating the
// defaults row on first access.
func getOrCreateSettings(ctx context.Context, repo repository.CapacitySettingsRepository, accountID uint) (*models.CapacitySettings, error) {
	settings, err := repo.ByAccountID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_LOAD_FAILED", "Failed to load capacity settings", err)
	}
	if settings != nil {
		return settings, nil
	}

	settings = models.DefaultCapacitySettings(accountID)
	if err := repo.Save(ctx, settings); err != nil {
		// A concurrent first access may have created the row already.
		existing, lookupErr := repo.ByAccountID(ctx, accountID)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, NewBusinessError("SETTINGS_CREATE_FAILED", "Failed to create default capacity settings", err)
	}
	return settings, nil
}

// ToCapacitySettingsDTO converts a settings model for API responses.
func ToCapacitySettingsDTO(settings *models.CapacitySettings) dto.CapacitySettingsDTO {
	return dto.CapacitySettingsDTO{
		TargetPerDay:   settings.TargetPerDay,
		NewQuotaPerDay: settings.NewQuotaPerDay,
		WindowDays:     settings.WindowDays,
		BloatThreshold: settings.BloatThreshold,
		UpdatedAt:      settings.UpdatedAt.Format(time.RFC3339),
	}
}

// ToEligibleContactItem converts a contact model for backlog listings.
func ToEligibleContactItem(c *models.Contact) dto.EligibleContactItem {
	item := dto.EligibleContactItem{
		ID:              c.ID,
		UUID:            c.UUID.String(),
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Company:         c.Company,
		Phone:           c.Phone,
		LastCallOutcome: string(c.LastCallOutcome),
		CallAttempts:    c.CallAttempts,
		IsNewLead:       c.IsNewLead(),
		IsAaa:           c.IsAaa,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
	if c.NextCallDate != nil {
		item.NextCallDate = c.NextCallDate.Format(DateLayout)
	}
	if c.LastContactedAt != nil {
		item.LastContactedAt = c.LastContactedAt.Format(time.RFC3339)
	}
	return item
}

// formatDate renders a date-precision time for responses.
func formatDate(t time.Time) string {
	return utils.StartOfDay(t).Format(DateLayout)
}

// contactFilterDue selects non-paused contacts scheduled on or before the
// given date. newLead narrows to new leads (or follow-ups) when set.
func contactFilterDue(accountID uint, onOrBefore, now time.Time, newLead *bool) models.ContactFilter {
	return models.ContactFilter{
		AccountID:          &accountID,
		NextCallOnOrBefore: &onOrBefore,
		ExcludePausedAt:    &now,
		NewLead:            newLead,
	}
}

// contactFilterDueAndPaused selects contacts due on or before the date but
// currently paused, the unreachable-today set.
func contactFilterDueAndPaused(accountID uint, onOrBefore, now time.Time) models.ContactFilter {
	return models.ContactFilter{
		AccountID:          &accountID,
		NextCallOnOrBefore: &onOrBefore,
		PausedAt:           &now,
	}
}

// contactFilterUnscheduled selects contacts with no next_call_date.
func contactFilterUnscheduled(accountID uint) models.ContactFilter {
	return models.ContactFilter{
		AccountID:   &accountID,
		Unscheduled: utils.ToPtr(true),
	}
}
