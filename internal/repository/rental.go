package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/carhire/carhire/internal/model"
)

// Common errors for rental repository operations.
var (
	ErrRentalNotFound   = errors.New("rental not found")
	ErrRentalNotOngoing = errors.New("rental is not ongoing")
)

// oneOngoingPerCar is the partial unique index on rentals(car_id) WHERE status = 'ongoing'.
const oneOngoingPerCar = "rentals_one_ongoing_per_car"

const rentalSelect = `
	SELECT r.id, r.user_id, r.car_id, r.start_date, r.end_date, r.status, c.name, u.username
	FROM rentals r
	JOIN cars c ON c.id = r.car_id
	JOIN users u ON u.id = r.user_id
`

// RentCar marks the car rented and records the rental in one transaction.
// The car flips only if it is still available, so of two concurrent calls
// for the same car exactly one succeeds; the other gets ErrCarUnavailable.
func (r *Repository) RentCar(ctx context.Context, rental *model.Rental) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE cars
			SET status = 'rented', updated_at = $2
			WHERE id = $1 AND status = 'available' AND deleted_at IS NULL
		`, rental.CarID, rental.StartDate)
		if err != nil {
			return fmt.Errorf("failed to mark car rented: %w", err)
		}

		if result.RowsAffected() == 0 {
			if _, err := lockCarStatus(ctx, tx, rental.CarID); err != nil {
				return err
			}
			return ErrCarUnavailable
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO rentals (id, user_id, car_id, start_date, end_date, status)
			VALUES ($1, $2, $3, $4, NULL, $5)
		`,
			rental.ID,
			rental.UserID,
			rental.CarID,
			rental.StartDate,
			model.RentalStatusOngoing,
		)
		if err != nil {
			if isUniqueViolation(err, oneOngoingPerCar) {
				return ErrCarUnavailable
			}
			return fmt.Errorf("failed to create rental: %w", err)
		}

		rental.Status = model.RentalStatusOngoing
		rental.EndDate = nil
		return nil
	})
}

// CompleteRental marks an ongoing rental returned and frees its car in one
// transaction. A rental that is already returned yields ErrRentalNotOngoing.
func (r *Repository) CompleteRental(ctx context.Context, id string, endedAt time.Time) (*model.Rental, error) {
	var rental model.Rental

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE rentals
			SET status = 'returned', end_date = $2
			WHERE id = $1 AND status = 'ongoing'
			RETURNING id, user_id, car_id, start_date, end_date, status
		`, id, endedAt).Scan(
			&rental.ID,
			&rental.UserID,
			&rental.CarID,
			&rental.StartDate,
			&rental.EndDate,
			&rental.Status,
		)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("failed to complete rental: %w", err)
			}
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM rentals WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check rental existence: %w", err)
			}
			if !exists {
				return ErrRentalNotFound
			}
			return ErrRentalNotOngoing
		}

		_, err = tx.Exec(ctx, `
			UPDATE cars
			SET status = 'available', updated_at = $2
			WHERE id = $1 AND status = 'rented'
		`, rental.CarID, endedAt)
		if err != nil {
			return fmt.Errorf("failed to mark car available: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &rental, nil
}

// GetRentalByID retrieves a rental by its ID.
func (r *Repository) GetRentalByID(ctx context.Context, id string) (*model.Rental, error) {
	rental, err := scanRental(r.pool.QueryRow(ctx, rentalSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRentalNotFound
		}
		return nil, fmt.Errorf("failed to get rental by ID: %w", err)
	}
	return rental, nil
}

// ListRentalsByUser lists all rentals of a user, newest first.
func (r *Repository) ListRentalsByUser(ctx context.Context, userID string) ([]*model.Rental, error) {
	return r.queryRentals(ctx, rentalSelect+` WHERE r.user_id = $1 ORDER BY r.start_date DESC, r.id DESC`, userID)
}

// ListRentals lists all rentals, newest first.
// If statuses is non-empty only rentals in one of those statuses are returned.
func (r *Repository) ListRentals(ctx context.Context, statuses ...model.RentalStatus) ([]*model.Rental, error) {
	query := rentalSelect
	var args []any

	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		query += ` WHERE r.status = ANY($1)`
		args = append(args, pq.Array(values))
	}

	query += ` ORDER BY r.start_date DESC, r.id DESC`
	return r.queryRentals(ctx, query, args...)
}

func (r *Repository) queryRentals(ctx context.Context, query string, args ...any) ([]*model.Rental, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	defer rows.Close()

	var rentals []*model.Rental
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}
		rentals = append(rentals, rental)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rentals: %w", err)
	}

	return rentals, nil
}

// scanRental scans a joined rental row.
func scanRental(row pgx.Row) (*model.Rental, error) {
	var rental model.Rental
	err := row.Scan(
		&rental.ID,
		&rental.UserID,
		&rental.CarID,
		&rental.StartDate,
		&rental.EndDate,
		&rental.Status,
		&rental.CarName,
		&rental.Username,
	)
	return &rental, err
}
