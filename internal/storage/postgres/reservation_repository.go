package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/anchalk04/smart-parking/internal/domain"
)

type ReservationRepository struct {
	conn
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{conn{pool: pool}}
}

const reservationColumns = `id::text, user_id::text, slot_id::text, start_time, end_time, total_cost::text, created_at`

func (r *ReservationRepository) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	if err := res.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	const stmt = `
INSERT INTO reservations (user_id, slot_id, start_time, end_time, total_cost)
VALUES ($1, $2, $3, $4, $5::numeric)
RETURNING ` + reservationColumns

	created, err := scanReservation(r.queryRow(ctx, stmt,
		res.UserID, res.SlotID, res.StartTime, res.EndTime, res.TotalCost.String()))
	if err != nil {
		switch {
		case isInvalidUUID(err):
			return domain.Reservation{}, fmt.Errorf("%w: malformed id", domain.ErrInvalidInput)
		case isCheckViolation(err), isForeignKeyViolation(err), isNumericOutOfRange(err):
			return domain.Reservation{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
		}
		return domain.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return created, nil
}

func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	rows, err := r.query(ctx, `
SELECT `+reservationColumns+`
FROM reservations
WHERE user_id = $1
ORDER BY start_time DESC, id`, userID)
	if err != nil {
		if isInvalidUUID(err) {
			return []domain.Reservation{}, nil
		}
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return []domain.Reservation{}, nil
		}
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		res  domain.Reservation
		cost string
	)
	if err := row.Scan(&res.ID, &res.UserID, &res.SlotID, &res.StartTime, &res.EndTime, &cost, &res.CreatedAt); err != nil {
		return domain.Reservation{}, err
	}
	d, err := decimal.NewFromString(cost)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("parse total_cost %q: %w", cost, err)
	}
	res.TotalCost = d
	res.StartTime = res.StartTime.UTC()
	res.EndTime = res.EndTime.UTC()
	res.CreatedAt = res.CreatedAt.UTC()
	return res, nil
}
