package domain

import (
	"errors"
	"fmt"
)

// Error categories surfaced to the API boundary. Specific errors below wrap
// one of these so callers can branch with errors.Is.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSlotUnavailable   = errors.New("slot not available or does not exist")
	ErrReservationFailed = errors.New("reservation failed")
	ErrNotFound          = errors.New("not found")
)

var (
	ErrInvalidDuration    = fmt.Errorf("%w: duration_hours must be a positive integer", ErrInvalidInput)
	ErrInvalidPricingRate = fmt.Errorf("%w: pricing_rate must be >= 0", ErrInvalidInput)
	ErrPricingRateScale   = fmt.Errorf("%w: pricing_rate allows at most %d decimal places", ErrInvalidInput, MoneyScale)
	ErrPricingRateTooHigh = fmt.Errorf("%w: pricing_rate must be below %s", ErrInvalidInput, MaxPricingRate)
	ErrDurationTooLong    = fmt.Errorf("%w: duration_hours must be at most %d", ErrInvalidInput, MaxDurationHours)
	ErrCostTooHigh        = fmt.Errorf("%w: total_cost must be below %s", ErrInvalidInput, MaxTotalCost)
	ErrSlotNameRequired   = fmt.Errorf("%w: slot_name is required", ErrInvalidInput)
	ErrZoneRequired       = fmt.Errorf("%w: zone is required", ErrInvalidInput)
	ErrInvalidSlotStatus  = fmt.Errorf("%w: unknown slot status", ErrInvalidInput)
	ErrInvalidTimeWindow  = fmt.Errorf("%w: end_time must be after start_time", ErrInvalidInput)
	ErrNegativeCost       = fmt.Errorf("%w: total_cost must be >= 0", ErrInvalidInput)
	ErrUserIDRequired     = fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	ErrSlotIDRequired     = fmt.Errorf("%w: slot_id is required", ErrInvalidInput)
	ErrEmailRequired      = fmt.Errorf("%w: email is required", ErrInvalidInput)
	ErrPasswordTooShort   = fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)

	ErrSlotNotFound         = fmt.Errorf("slot %w", ErrNotFound)
	ErrOrphanedHoldNotFound = fmt.Errorf("orphaned hold %w", ErrNotFound)

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrOrphanedHold marks a failed compensation: the slot stayed reserved
	// without a reservation record and needs operator reconciliation.
	ErrOrphanedHold = errors.New("slot left reserved without a reservation record")

	ErrHoldStillReferenced = errors.New("slot has a reservation recorded after the hold was detected")
)
