package domain

import "time"

// OrphanedHold records a slot that stayed reserved after a failed
// reservation because the compensating release did not apply.
type OrphanedHold struct {
	ID         int64
	SlotID     string
	UserID     string
	Cause      string
	DetectedAt time.Time
	ResolvedAt *time.Time
}

// Resolved reports whether an operator has already released the hold.
func (h OrphanedHold) Resolved() bool {
	return h.ResolvedAt != nil
}
