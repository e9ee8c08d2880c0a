package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/anchalk04/smart-parking/internal/domain"
)

type SlotRepository struct {
	conn
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{conn{pool: pool}}
}

const slotColumns = `id::text, slot_name, zone, pricing_rate::text, status`

func (r *SlotRepository) ListAvailable(ctx context.Context) ([]domain.Slot, error) {
	rows, err := r.query(ctx, `SELECT `+slotColumns+` FROM parking_slots WHERE status = 'available' ORDER BY slot_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	defer rows.Close()

	slots := []domain.Slot{}
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	return slots, nil
}

func (r *SlotRepository) Get(ctx context.Context, slotID string) (domain.Slot, error) {
	s, err := scanSlot(r.queryRow(ctx, `SELECT `+slotColumns+` FROM parking_slots WHERE id = $1`, slotID))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Slot{}, domain.ErrSlotNotFound
		}
		return domain.Slot{}, fmt.Errorf("get slot: %w", err)
	}
	return s, nil
}

func (r *SlotRepository) Create(ctx context.Context, slot domain.Slot) (domain.Slot, error) {
	if slot.Status == "" {
		slot.Status = domain.SlotStatusAvailable
	}
	if err := slot.Validate(); err != nil {
		return domain.Slot{}, err
	}
	const stmt = `
INSERT INTO parking_slots (slot_name, zone, pricing_rate, status)
VALUES ($1, $2, $3::numeric, $4)
RETURNING ` + slotColumns

	created, err := scanSlot(r.queryRow(ctx, stmt, slot.Name, slot.Zone, slot.PricingRate.String(), string(slot.Status)))
	if err != nil {
		if isCheckViolation(err) || isNumericOutOfRange(err) {
			return domain.Slot{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
		}
		return domain.Slot{}, fmt.Errorf("create slot: %w", err)
	}
	return created, nil
}

// CompareAndSetStatus is a single conditional UPDATE, so concurrent
// callers on the same row are serialized by the row lock.
func (r *SlotRepository) CompareAndSetStatus(ctx context.Context, slotID string, expected, next domain.SlotStatus) (bool, error) {
	if !next.Valid() {
		return false, domain.ErrInvalidSlotStatus
	}
	tag, err := r.exec(ctx, `UPDATE parking_slots SET status = $3 WHERE id = $1 AND status = $2`,
		slotID, string(expected), string(next))
	if err != nil {
		if isInvalidUUID(err) {
			return false, nil
		}
		return false, fmt.Errorf("update slot status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanSlot(row pgx.Row) (domain.Slot, error) {
	var (
		s      domain.Slot
		rate   string
		status string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Zone, &rate, &status); err != nil {
		return domain.Slot{}, err
	}
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return domain.Slot{}, fmt.Errorf("parse pricing_rate %q: %w", rate, err)
	}
	s.PricingRate = d
	s.Status = domain.SlotStatus(status)
	return s, nil
}
