package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/anchalk04/smart-parking/internal/clock"
	"github.com/anchalk04/smart-parking/internal/domain"
	"github.com/anchalk04/smart-parking/internal/events"
)

const defaultCompensationTimeout = 5 * time.Second

// ReservationEngine claims a slot and records the reservation for it. It
// keeps no state of its own: the slot store's compare-and-set serializes
// concurrent claims, and a failed insert is undone by releasing the slot.
type ReservationEngine struct {
	slots        SlotStore
	reservations ReservationStore
	clock        clock.Clock

	log                 *slog.Logger
	holds               HoldReporter
	publisher           events.Publisher
	recorder            AttemptRecorder
	tracer              trace.Tracer
	compensationTimeout time.Duration
}

// EngineOption configures a ReservationEngine.
type EngineOption func(*ReservationEngine)

// WithLogger sets the logger for attempt outcomes. The default discards.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *ReservationEngine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithHoldReporter sets where orphaned holds are reported.
func WithHoldReporter(r HoldReporter) EngineOption {
	return func(e *ReservationEngine) {
		if r != nil {
			e.holds = r
		}
	}
}

// WithPublisher sets where reservation.created events go.
func WithPublisher(p events.Publisher) EngineOption {
	return func(e *ReservationEngine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// WithAttemptRecorder sets the sink for attempt and compensation outcomes.
func WithAttemptRecorder(r AttemptRecorder) EngineOption {
	return func(e *ReservationEngine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithCompensationTimeout bounds the release issued after a failed insert.
func WithCompensationTimeout(d time.Duration) EngineOption {
	return func(e *ReservationEngine) {
		if d > 0 {
			e.compensationTimeout = d
		}
	}
}

// NewReservationEngine builds an engine over the two stores. Options
// default to no-op logging, reporting, publishing and recording.
func NewReservationEngine(slots SlotStore, reservations ReservationStore, clk clock.Clock, opts ...EngineOption) *ReservationEngine {
	e := &ReservationEngine{
		slots:               slots,
		reservations:        reservations,
		clock:               clk,
		log:                 slog.New(slog.NewTextHandler(io.Discard, nil)),
		holds:               nopHoldReporter{},
		publisher:           events.Nop{},
		recorder:            nopRecorder{},
		tracer:              otel.Tracer("reservation-engine"),
		compensationTimeout: defaultCompensationTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReserveInput is one reservation request from an authenticated caller.
type ReserveInput struct {
	UserID        string
	SlotID        string
	DurationHours int
}

// Reserve claims the slot for the user and persists the reservation.
//
// Errors: ErrInvalidInput for a malformed request, ErrSlotUnavailable when
// the slot is missing, taken, or lost to a concurrent caller, and
// ErrReservationFailed when storage failed. A failure after the claim
// releases the slot before returning; if that release does not apply the
// error also wraps ErrOrphanedHold.
func (e *ReservationEngine) Reserve(ctx context.Context, in ReserveInput) (domain.Reservation, error) {
	ctx, span := e.tracer.Start(ctx, "ReservationEngine.Reserve", trace.WithAttributes(
		attribute.String("slot.id", in.SlotID),
		attribute.Int("reservation.duration_hours", in.DurationHours),
	))
	defer span.End()

	res, state, err := e.reserve(ctx, in)

	e.recorder.ObserveAttempt(state)
	span.SetAttributes(attribute.String("reservation.state", string(state)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	attrs := []any{"slot_id", in.SlotID, "user_id", in.UserID, "state", string(state)}
	switch state {
	case domain.AttemptPersisted:
		e.log.InfoContext(ctx, "slot reserved", append(attrs, "reservation_id", res.ID, "total_cost", res.TotalCost.String())...)
	case domain.AttemptReleased:
		e.log.WarnContext(ctx, "reservation failed, slot released", append(attrs, "err", err)...)
	case domain.AttemptOrphaned:
		// logged with full detail in compensate
	default:
		e.log.DebugContext(ctx, "reservation rejected", append(attrs, "err", err)...)
	}
	return res, err
}

func (e *ReservationEngine) reserve(ctx context.Context, in ReserveInput) (domain.Reservation, domain.AttemptState, error) {
	if err := domain.ValidateDuration(in.DurationHours); err != nil {
		return domain.Reservation{}, domain.AttemptRequested, err
	}
	if in.UserID == "" {
		return domain.Reservation{}, domain.AttemptRequested, domain.ErrUserIDRequired
	}
	if in.SlotID == "" {
		return domain.Reservation{}, domain.AttemptRequested, domain.ErrSlotIDRequired
	}

	slot, err := e.slots.Get(ctx, in.SlotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Reservation{}, domain.AttemptRejected, domain.ErrSlotUnavailable
		}
		return domain.Reservation{}, domain.AttemptRejected, fmt.Errorf("%w: load slot: %w", domain.ErrReservationFailed, err)
	}
	if slot.Status != domain.SlotStatusAvailable {
		return domain.Reservation{}, domain.AttemptRejected, domain.ErrSlotUnavailable
	}

	cost := domain.ReservationCost(slot.PricingRate, in.DurationHours)
	if cost.GreaterThanOrEqual(domain.MaxTotalCost) {
		return domain.Reservation{}, domain.AttemptRejected, domain.ErrCostTooHigh
	}
	start, end := domain.ReservationWindow(e.clock.Now(), in.DurationHours)

	claimed, err := e.slots.CompareAndSetStatus(ctx, slot.ID, domain.SlotStatusAvailable, domain.SlotStatusReserved)
	if err != nil {
		// The update may have applied before the error surfaced. Releasing
		// here could free a slot another caller won, so leave it alone.
		e.log.WarnContext(ctx, "slot claim outcome unknown", "slot_id", slot.ID, "err", err)
		return domain.Reservation{}, domain.AttemptRejected, fmt.Errorf("%w: claim slot: %w", domain.ErrReservationFailed, err)
	}
	if !claimed {
		return domain.Reservation{}, domain.AttemptRejected, domain.ErrSlotUnavailable
	}

	created, err := e.reservations.Create(ctx, domain.Reservation{
		UserID:    in.UserID,
		SlotID:    slot.ID,
		StartTime: start,
		EndTime:   end,
		TotalCost: cost,
	})
	if err != nil {
		state, cerr := e.compensate(ctx, in.UserID, slot.ID, err)
		return domain.Reservation{}, state, cerr
	}

	e.publishCreated(ctx, created)
	return created, domain.AttemptPersisted, nil
}

// compensate releases a claimed slot after the reservation insert failed.
// It runs on a context detached from the caller's cancellation so that a
// request timeout between claim and insert still releases the slot.
func (e *ReservationEngine) compensate(ctx context.Context, userID, slotID string, cause error) (domain.AttemptState, error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.compensationTimeout)
	defer cancel()

	released, err := e.slots.CompareAndSetStatus(cctx, slotID, domain.SlotStatusReserved, domain.SlotStatusAvailable)
	e.recorder.ObserveCompensation(err == nil && released)
	if err == nil && released {
		return domain.AttemptReleased, fmt.Errorf("%w: %w", domain.ErrReservationFailed, cause)
	}

	releaseErr := "slot was not in reserved state"
	if err != nil {
		releaseErr = err.Error()
	}
	hold := domain.OrphanedHold{
		SlotID:     slotID,
		UserID:     userID,
		Cause:      fmt.Sprintf("create reservation: %v; release: %s", cause, releaseErr),
		DetectedAt: e.clock.Now(),
	}
	e.log.ErrorContext(ctx, "orphaned slot hold",
		"slot_id", slotID,
		"user_id", userID,
		"state", string(domain.AttemptOrphaned),
		"cause", cause,
		"release_err", releaseErr,
		"reconciliation_required", true,
	)
	if rerr := e.holds.ReportOrphanedHold(cctx, hold); rerr != nil {
		e.log.ErrorContext(ctx, "orphaned hold report failed", "slot_id", slotID, "err", rerr, "reconciliation_required", true)
	}
	return domain.AttemptOrphaned, fmt.Errorf("%w: %w: %w", domain.ErrReservationFailed, domain.ErrOrphanedHold, cause)
}

func (e *ReservationEngine) publishCreated(ctx context.Context, r domain.Reservation) {
	err := e.publisher.Publish(ctx, events.Event{
		Type: events.TypeReservationCreated,
		Key:  r.SlotID,
		Payload: events.ReservationCreated{
			ReservationID: r.ID,
			UserID:        r.UserID,
			SlotID:        r.SlotID,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			TotalCost:     r.TotalCost.String(),
		},
		OccurredAt: r.StartTime,
	})
	if err != nil {
		e.log.WarnContext(ctx, "reservation event not published", "reservation_id", r.ID, "err", err)
	}
}

// ListForUser returns the caller's reservations.
func (e *ReservationEngine) ListForUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	return e.reservations.ListByUser(ctx, userID)
}

type nopHoldReporter struct{}

func (nopHoldReporter) ReportOrphanedHold(context.Context, domain.OrphanedHold) error {
	return nil
}
