// Package businessflow contains the core business logic and use cases for dialer capacity workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountInactive = errors.New("account is inactive")

	// Contact-related errors
	ErrContactNotFound     = errors.New("contact not found")
	ErrContactAccessDenied = errors.New("contact access denied")

	// Scheduling errors
	ErrContactIDsRequired    = errors.New("at least one contact ID is required")
	ErrCapacityExhausted     = errors.New("no capacity within the look-ahead horizon")
	ErrSchedulingInProgress  = errors.New("a scheduling run is already in progress for this account")
	ErrNewQuotaExceedsTarget = errors.New("new-lead quota cannot exceed daily target")

	// Settings errors
	ErrSettingsNotFound      = errors.New("capacity settings not found")
	ErrWindowDaysOutOfRange  = errors.New("window days must be between 1 and 90")
	ErrSettingsValueNegative = errors.New("settings values must not be negative")
	ErrSettingsUpdateEmpty   = errors.New("at least one field must be provided for update")

	// Bloat-fix errors
	ErrUnknownBloatAction    = errors.New("unknown bloat-fix action")
	ErrCandidatesRequired    = errors.New("candidates are required unless auto_fix is set")
	ErrNoBloatDetected       = errors.New("no bloat detected")
	ErrCandidateNotSupported = errors.New("candidate cannot be deprioritized")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 500")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}

func IsContactAccessDenied(err error) bool {
	return errors.Is(err, ErrContactAccessDenied)
}

func IsContactIDsRequired(err error) bool {
	return errors.Is(err, ErrContactIDsRequired)
}

func IsCapacityExhausted(err error) bool {
	return errors.Is(err, ErrCapacityExhausted)
}

func IsSchedulingInProgress(err error) bool {
	return errors.Is(err, ErrSchedulingInProgress)
}

func IsNewQuotaExceedsTarget(err error) bool {
	return errors.Is(err, ErrNewQuotaExceedsTarget)
}

func IsSettingsNotFound(err error) bool {
	return errors.Is(err, ErrSettingsNotFound)
}

func IsWindowDaysOutOfRange(err error) bool {
	return errors.Is(err, ErrWindowDaysOutOfRange)
}

func IsSettingsValueNegative(err error) bool {
	return errors.Is(err, ErrSettingsValueNegative)
}

func IsSettingsUpdateEmpty(err error) bool {
	return errors.Is(err, ErrSettingsUpdateEmpty)
}

func IsUnknownBloatAction(err error) bool {
	return errors.Is(err, ErrUnknownBloatAction)
}

func IsCandidatesRequired(err error) bool {
	return errors.Is(err, ErrCandidatesRequired)
}

func IsNoBloatDetected(err error) bool {
	return errors.Is(err, ErrNoBloatDetected)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
