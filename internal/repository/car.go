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

// Common errors for car repository operations.
var (
	ErrCarNotFound        = errors.New("car not found")
	ErrCarUnavailable     = errors.New("car is not available")
	ErrCarHasActiveRental = errors.New("car has an ongoing rental")
)

const carColumns = `id, name, status, image, deleted_at, created_at, updated_at`

// CreateCar inserts a new car into the database.
func (r *Repository) CreateCar(ctx context.Context, car *model.Car) error {
	query := `
		INSERT INTO cars (id, name, status, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		car.ID,
		car.Name,
		car.Status,
		car.Image,
		car.CreatedAt,
		car.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}

	return nil
}

// GetCarByID retrieves a car that has not been deleted.
func (r *Repository) GetCarByID(ctx context.Context, id string) (*model.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1 AND deleted_at IS NULL`

	car, err := scanCar(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to get car by ID: %w", err)
	}

	return car, nil
}

// ListCars lists non-deleted cars, newest first.
// If statuses is non-empty only cars in one of those statuses are returned.
func (r *Repository) ListCars(ctx context.Context, statuses ...model.CarStatus) ([]*model.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE deleted_at IS NULL`
	var args []any

	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		query += ` AND status = ANY($1)`
		args = append(args, pq.Array(values))
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer rows.Close()

	var cars []*model.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan car: %w", err)
		}
		cars = append(cars, car)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cars: %w", err)
	}

	return cars, nil
}

// DeleteCar soft-deletes a car.
// A rented car cannot be deleted; its rental would lose its car.
func (r *Repository) DeleteCar(ctx context.Context, id string, deletedAt time.Time) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE cars
			SET deleted_at = $2, updated_at = $2
			WHERE id = $1 AND deleted_at IS NULL AND status = 'available'
		`, id, deletedAt)
		if err != nil {
			return fmt.Errorf("failed to delete car: %w", err)
		}

		if result.RowsAffected() == 1 {
			return nil
		}

		status, err := lockCarStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if status == model.CarStatusRented {
			return ErrCarHasActiveRental
		}
		return fmt.Errorf("failed to delete car %s in status %q", id, status)
	})
}

// lockCarStatus reads a live car's status inside tx, locking the row.
func lockCarStatus(ctx context.Context, tx pgx.Tx, id string) (model.CarStatus, error) {
	var status model.CarStatus
	err := tx.QueryRow(ctx,
		`SELECT status FROM cars WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrCarNotFound
		}
		return "", fmt.Errorf("failed to read car status: %w", err)
	}
	return status, nil
}

// scanCar scans a single row into a Car model.
func scanCar(row pgx.Row) (*model.Car, error) {
	var car model.Car
	err := row.Scan(
		&car.ID,
		&car.Name,
		&car.Status,
		&car.Image,
		&car.DeletedAt,
		&car.CreatedAt,
		&car.UpdatedAt,
	)
	return &car, err
}
