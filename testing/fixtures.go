// Package testing provides test utilities and database setup for testing the dialer scheduling system
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/coldwire/dialplan/models"
	"github.com/coldwire/dialplan/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAccount creates an account with a unique email
func (tf *TestFixtures) CreateTestAccount() (*models.Account, error) {
	suffix := rand.Intn(100000000)

	account := &models.Account{
		Email:    fmt.Sprintf("jane.doe.%d@example.com", suffix),
		Name:     "Jane Doe",
		IsActive: utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}

	return account, nil
}

// CreateTestContact creates an unscheduled new-lead contact for the account.
// Mutate the returned model and Save it for other shapes.
func (tf *TestFixtures) CreateTestContact(accountID uint) (*models.Contact, error) {
	suffix := rand.Intn(100000000)

	contact := &models.Contact{
		AccountID: accountID,
		FirstName: "Test",
		LastName:  fmt.Sprintf("Contact%d", suffix),
		Company:   "Test Company Ltd",
		Phone:     fmt.Sprintf("+1555%07d", rand.Intn(10000000)),
	}

	if err := tf.DB.DB.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact: %w", err)
	}

	return contact, nil
}

// CreateScheduledTestContact creates a follow-up contact already placed on the
// given date.
func (tf *TestFixtures) CreateScheduledTestContact(accountID uint, date time.Time, outcome models.CallOutcome, attempts int) (*models.Contact, error) {
	contact, err := tf.CreateTestContact(accountID)
	if err != nil {
		return nil, err
	}

	day := utils.StartOfDay(date)
	lastContacted := day.AddDate(0, 0, -30)

	contact.NextCallDate = &day
	contact.LastContactedAt = &lastContacted
	contact.LastCallOutcome = outcome
	contact.CallAttempts = attempts

	if err := tf.DB.DB.Save(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to schedule test contact: %w", err)
	}

	return contact, nil
}

// CreateTestSettings creates a settings row for the account
func (tf *TestFixtures) CreateTestSettings(accountID uint, targetPerDay, newQuotaPerDay, windowDays, bloatThreshold int) (*models.CapacitySettings, error) {
	settings := &models.CapacitySettings{
		AccountID:      accountID,
		TargetPerDay:   targetPerDay,
		NewQuotaPerDay: newQuotaPerDay,
		WindowDays:     windowDays,
		BloatThreshold: bloatThreshold,
	}

	if err := tf.DB.DB.Create(settings).Error; err != nil {
		return nil, fmt.Errorf("failed to create test settings: %w", err)
	}

	return settings, nil
}

// CreateContactBatch creates n unscheduled new-lead contacts for the account
func (tf *TestFixtures) CreateContactBatch(accountID uint, n int) ([]*models.Contact, error) {
	var contacts []*models.Contact
	for i := 0; i < n; i++ {
		contact, err := tf.CreateTestContact(accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to create contact %d: %w", i, err)
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}
