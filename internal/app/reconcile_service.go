package app

import (
	"context"
	"fmt"
	"time"

	"github.com/anchalk04/smart-parking/internal/clock"
	"github.com/anchalk04/smart-parking/internal/domain"
	"github.com/anchalk04/smart-parking/internal/events"
)

// HoldLedger persists orphaned holds until an operator resolves them.
type HoldLedger interface {
	RecordOrphanedHold(ctx context.Context, hold domain.OrphanedHold) (domain.OrphanedHold, error)
	ListOrphanedHolds(ctx context.Context, includeResolved bool) ([]domain.OrphanedHold, error)
	GetOrphanedHold(ctx context.Context, id int64) (domain.OrphanedHold, error)
	// ReleaseHold returns the hold's slot to available and stamps the hold
	// resolved at the given time, atomically with respect to reservations
	// of that slot. It fails with ErrHoldStillReferenced when a reservation
	// for the slot was created at or after the hold's detection. An already
	// resolved hold is returned unchanged with released false.
	ReleaseHold(ctx context.Context, id int64, at time.Time) (hold domain.OrphanedHold, released bool, err error)
}

// LedgerHoldReporter records orphaned holds in the ledger and announces
// them on the event stream. Both steps are attempted; the first error wins.
type LedgerHoldReporter struct {
	ledger    HoldLedger
	publisher events.Publisher
}

func NewLedgerHoldReporter(ledger HoldLedger, publisher events.Publisher) *LedgerHoldReporter {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &LedgerHoldReporter{ledger: ledger, publisher: publisher}
}

func (r *LedgerHoldReporter) ReportOrphanedHold(ctx context.Context, hold domain.OrphanedHold) error {
	_, recErr := r.ledger.RecordOrphanedHold(ctx, hold)
	pubErr := r.publisher.Publish(ctx, events.Event{
		Type: events.TypeHoldOrphaned,
		Key:  hold.SlotID,
		Payload: events.HoldOrphaned{
			SlotID:     hold.SlotID,
			UserID:     hold.UserID,
			Cause:      hold.Cause,
			DetectedAt: hold.DetectedAt,
		},
		OccurredAt: hold.DetectedAt,
	})
	if recErr != nil {
		return fmt.Errorf("record orphaned hold: %w", recErr)
	}
	if pubErr != nil {
		return fmt.Errorf("publish orphaned hold: %w", pubErr)
	}
	return nil
}

// ReconcileService lets an operator inspect and release orphaned holds.
type ReconcileService struct {
	ledger HoldLedger
	clock  clock.Clock
}

func NewReconcileService(ledger HoldLedger, clk clock.Clock) *ReconcileService {
	return &ReconcileService{ledger: ledger, clock: clk}
}

func (s *ReconcileService) List(ctx context.Context, includeResolved bool) ([]domain.OrphanedHold, error) {
	return s.ledger.ListOrphanedHolds(ctx, includeResolved)
}

type ReleaseResult struct {
	Hold domain.OrphanedHold
	// Released is false when the slot was already available and only the
	// ledger entry was closed.
	Released bool
}

// Release returns the slot of an orphaned hold to available and closes the
// ledger entry. It refuses when a reservation for the slot was recorded
// after the hold was detected.
func (s *ReconcileService) Release(ctx context.Context, id int64) (ReleaseResult, error) {
	hold, released, err := s.ledger.ReleaseHold(ctx, id, s.clock.Now())
	if err != nil {
		return ReleaseResult{}, err
	}
	return ReleaseResult{Hold: hold, Released: released}, nil
}
