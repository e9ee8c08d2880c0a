package domain

// AttemptState is the lifecycle of a single reservation attempt.
type AttemptState string

const (
	AttemptRequested   AttemptState = "requested"
	AttemptRejected    AttemptState = "rejected"
	AttemptSlotClaimed AttemptState = "slot_claimed"
	AttemptPersisted   AttemptState = "persisted"
	AttemptReleased    AttemptState = "released"
	AttemptOrphaned    AttemptState = "orphaned"
)

// Terminal reports whether no further transition can follow s.
func (s AttemptState) Terminal() bool {
	switch s {
	case AttemptRejected, AttemptPersisted, AttemptReleased, AttemptOrphaned:
		return true
	}
	return false
}
