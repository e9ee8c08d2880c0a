package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anchalk04/smart-parking/internal/domain"
)

// OrphanedHoldRepository is the reconciliation ledger for slots left
// reserved without a reservation record.
type OrphanedHoldRepository struct {
	conn
}

func NewOrphanedHoldRepository(pool *pgxpool.Pool) *OrphanedHoldRepository {
	return &OrphanedHoldRepository{conn{pool: pool}}
}

const holdColumns = `id, slot_id::text, user_id::text, cause, detected_at, resolved_at`

func (r *OrphanedHoldRepository) RecordOrphanedHold(ctx context.Context, hold domain.OrphanedHold) (domain.OrphanedHold, error) {
	const stmt = `
INSERT INTO orphaned_holds (slot_id, user_id, cause, detected_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + holdColumns

	created, err := scanHold(r.queryRow(ctx, stmt, hold.SlotID, hold.UserID, hold.Cause, hold.DetectedAt))
	if err != nil {
		return domain.OrphanedHold{}, fmt.Errorf("record orphaned hold: %w", err)
	}
	return created, nil
}

func (r *OrphanedHoldRepository) ListOrphanedHolds(ctx context.Context, includeResolved bool) ([]domain.OrphanedHold, error) {
	rows, err := r.query(ctx, `
SELECT `+holdColumns+`
FROM orphaned_holds
WHERE $1 OR resolved_at IS NULL
ORDER BY id`, includeResolved)
	if err != nil {
		return nil, fmt.Errorf("list orphaned holds: %w", err)
	}
	defer rows.Close()

	out := []domain.OrphanedHold{}
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan orphaned hold: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *OrphanedHoldRepository) GetOrphanedHold(ctx context.Context, id int64) (domain.OrphanedHold, error) {
	h, err := scanHold(r.queryRow(ctx, `SELECT `+holdColumns+` FROM orphaned_holds WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OrphanedHold{}, domain.ErrOrphanedHoldNotFound
		}
		return domain.OrphanedHold{}, fmt.Errorf("get orphaned hold: %w", err)
	}
	return h, nil
}

// MarkResolved stamps resolved_at once; a second call keeps the first stamp.
func (r *OrphanedHoldRepository) MarkResolved(ctx context.Context, id int64, at time.Time) error {
	return withTx(ctx, r.pool, func(ctx context.Context) error {
		var resolved *time.Time
		err := r.queryRow(ctx, `SELECT resolved_at FROM orphaned_holds WHERE id = $1 FOR UPDATE`, id).Scan(&resolved)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrOrphanedHoldNotFound
			}
			return fmt.Errorf("lock orphaned hold: %w", err)
		}
		if resolved != nil {
			return nil
		}
		if _, err := r.exec(ctx, `UPDATE orphaned_holds SET resolved_at = $2 WHERE id = $1`, id, at); err != nil {
			return fmt.Errorf("resolve orphaned hold: %w", err)
		}
		return nil
	})
}

// ReleaseHold returns the hold's slot to available and closes the entry in
// one transaction. The hold row and the slot row are locked FOR UPDATE, so
// the reservation check and the release see the same state: an insert that
// references the slot holds a key-share lock on it and either commits
// before the check or waits until the release has committed.
func (r *OrphanedHoldRepository) ReleaseHold(ctx context.Context, id int64, at time.Time) (domain.OrphanedHold, bool, error) {
	var (
		hold     domain.OrphanedHold
		released bool
	)
	err := withTx(ctx, r.pool, func(ctx context.Context) error {
		var err error
		hold, err = scanHold(r.queryRow(ctx, `SELECT `+holdColumns+` FROM orphaned_holds WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrOrphanedHoldNotFound
			}
			return fmt.Errorf("lock orphaned hold: %w", err)
		}
		if hold.Resolved() {
			return nil
		}

		var status string
		err = r.queryRow(ctx, `SELECT status FROM parking_slots WHERE id = $1 FOR UPDATE`, hold.SlotID).Scan(&status)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lock slot %s: %w", hold.SlotID, err)
		}

		referenced, err := r.HasReservationSince(ctx, hold.SlotID, hold.DetectedAt)
		if err != nil {
			return err
		}
		if referenced {
			return domain.ErrHoldStillReferenced
		}

		if domain.SlotStatus(status) == domain.SlotStatusReserved {
			tag, err := r.exec(ctx, `UPDATE parking_slots SET status = 'available' WHERE id = $1 AND status = 'reserved'`, hold.SlotID)
			if err != nil {
				return fmt.Errorf("release slot %s: %w", hold.SlotID, err)
			}
			released = tag.RowsAffected() == 1
		}

		if err := r.MarkResolved(ctx, id, at); err != nil {
			return err
		}
		at = at.UTC()
		hold.ResolvedAt = &at
		return nil
	})
	if err != nil {
		return domain.OrphanedHold{}, false, err
	}
	return hold, released, nil
}

func (r *OrphanedHoldRepository) HasReservationSince(ctx context.Context, slotID string, since time.Time) (bool, error) {
	var exists bool
	err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE slot_id = $1 AND created_at >= $2)`, slotID, since).
		Scan(&exists)
	if err != nil {
		if isInvalidUUID(err) {
			return false, nil
		}
		return false, fmt.Errorf("check reservations since hold: %w", err)
	}
	return exists, nil
}

func scanHold(row pgx.Row) (domain.OrphanedHold, error) {
	var h domain.OrphanedHold
	if err := row.Scan(&h.ID, &h.SlotID, &h.UserID, &h.Cause, &h.DetectedAt, &h.ResolvedAt); err != nil {
		return domain.OrphanedHold{}, err
	}
	h.DetectedAt = h.DetectedAt.UTC()
	if h.ResolvedAt != nil {
		t := h.ResolvedAt.UTC()
		h.ResolvedAt = &t
	}
	return h, nil
}
