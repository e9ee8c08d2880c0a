package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxDurationHours caps a single reservation at one leap year. It also
// keeps start+hours well inside time.Duration's range.
const MaxDurationHours = 24 * 366

// MaxTotalCost is the exclusive upper bound of a reservation's cost,
// matching the NUMERIC(14,2) column.
var MaxTotalCost = decimal.New(1, 12)

// Reservation binds a user to a slot for a time window at a computed cost.
// It is immutable once persisted.
type Reservation struct {
	ID        string
	UserID    string
	SlotID    string
	StartTime time.Time
	EndTime   time.Time
	TotalCost decimal.Decimal
	CreatedAt time.Time
}

// Validate checks the invariants a reservation store enforces on create.
func (r Reservation) Validate() error {
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if r.SlotID == "" {
		return ErrSlotIDRequired
	}
	if !r.EndTime.After(r.StartTime) {
		return ErrInvalidTimeWindow
	}
	if r.TotalCost.IsNegative() {
		return ErrNegativeCost
	}
	if r.TotalCost.GreaterThanOrEqual(MaxTotalCost) {
		return ErrCostTooHigh
	}
	return nil
}

// ReservationCost returns rate × hours using exact decimal arithmetic.
func ReservationCost(rate decimal.Decimal, hours int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(hours)))
}

// ValidateDuration checks hours against (0, MaxDurationHours].
func ValidateDuration(hours int) error {
	if hours <= 0 {
		return ErrInvalidDuration
	}
	if hours > MaxDurationHours {
		return ErrDurationTooLong
	}
	return nil
}

// ReservationWindow returns the [start, start+hours) window in UTC. hours
// must already have passed ValidateDuration.
func ReservationWindow(start time.Time, hours int) (time.Time, time.Time) {
	start = start.UTC()
	return start, start.Add(time.Duration(hours) * time.Hour)
}
