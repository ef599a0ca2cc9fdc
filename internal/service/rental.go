package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/carhire/carhire/internal/events"
	"github.com/carhire/carhire/internal/metrics"
	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/repository"
)

// RentalStore persists rentals and performs the atomic rent/return transitions.
type RentalStore interface {
	RentCar(ctx context.Context, rental *model.Rental) error
	CompleteRental(ctx context.Context, id string, endedAt time.Time) (*model.Rental, error)
	GetRentalByID(ctx context.Context, id string) (*model.Rental, error)
	ListRentalsByUser(ctx context.Context, userID string) ([]*model.Rental, error)
	ListRentals(ctx context.Context, statuses ...model.RentalStatus) ([]*model.Rental, error)
}

// EventPublisher emits rental events without blocking.
type EventPublisher interface {
	PublishAsync(event events.RentalEvent)
}

// RentalService handles the rental lifecycle.
type RentalService struct {
	rentals   RentalStore
	publisher EventPublisher
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewRentalService creates a new RentalService.
func NewRentalService(rentals RentalStore, publisher EventPublisher, logger *slog.Logger, recorder metrics.Recorder) *RentalService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &RentalService{
		rentals:   rentals,
		publisher: publisher,
		metrics:   recorder,
		logger:    logger.With("component", "service.rental"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RentCar rents an available car to a user.
// Of concurrent calls for the same car exactly one succeeds; the rest get
// ErrCarUnavailable and change nothing.
func (s *RentalService) RentCar(ctx context.Context, userID, carID string) (*model.Rental, error) {
	if userID == "" {
		return nil, ErrSessionInvalid
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveRentDuration(time.Since(start))
	}()

	rental := &model.Rental{
		ID:        ulid.Make().String(),
		UserID:    userID,
		CarID:     carID,
		StartDate: s.now(),
		Status:    model.RentalStatusOngoing,
	}

	if err := s.rentals.RentCar(ctx, rental); err != nil {
		switch {
		case errors.Is(err, repository.ErrCarNotFound):
			return nil, ErrCarNotFound
		case errors.Is(err, repository.ErrCarUnavailable):
			s.metrics.IncRentConflict()
			return nil, ErrCarUnavailable
		default:
			return nil, fmt.Errorf("failed to rent car: %w", err)
		}
	}

	s.metrics.IncCarRented()
	s.logger.Info("car rented", "rental_id", rental.ID, "car_id", carID, "user_id", userID)
	s.publish(events.TypeRentalStarted, rental, rental.StartDate)

	return rental, nil
}

// ReturnCar returns a rented car. Only the renting user may return it, and a
// rental can be returned once.
func (s *RentalService) ReturnCar(ctx context.Context, userID, rentalID string) (*model.Rental, error) {
	rental, err := s.rentals.GetRentalByID(ctx, rentalID)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return nil, ErrRentalNotFound
		}
		return nil, fmt.Errorf("failed to load rental: %w", err)
	}

	if !rental.OwnedBy(userID) {
		return nil, ErrNotRentalOwner
	}
	if !rental.IsOngoing() {
		return nil, ErrRentalAlreadyReturned
	}

	completed, err := s.rentals.CompleteRental(ctx, rentalID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRentalNotFound):
			return nil, ErrRentalNotFound
		case errors.Is(err, repository.ErrRentalNotOngoing):
			return nil, ErrRentalAlreadyReturned
		default:
			return nil, fmt.Errorf("failed to return car: %w", err)
		}
	}

	completed.CarName = rental.CarName
	completed.Username = rental.Username

	s.metrics.IncCarReturned()
	s.logger.Info("car returned", "rental_id", completed.ID, "car_id", completed.CarID, "user_id", userID)
	if completed.EndDate != nil {
		s.publish(events.TypeRentalReturned, completed, *completed.EndDate)
	}

	return completed, nil
}

// ListUserRentals returns all rentals of one user, newest first.
func (s *RentalService) ListUserRentals(ctx context.Context, userID string) ([]*model.Rental, error) {
	return s.rentals.ListRentalsByUser(ctx, userID)
}

// ListOngoingUserRentals returns the user's rentals that still hold a car.
func (s *RentalService) ListOngoingUserRentals(ctx context.Context, userID string) ([]*model.Rental, error) {
	all, err := s.rentals.ListRentalsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ongoing := make([]*model.Rental, 0, len(all))
	for _, r := range all {
		if r.IsOngoing() {
			ongoing = append(ongoing, r)
		}
	}
	return ongoing, nil
}

// ListAllRentals returns every rental, newest first.
func (s *RentalService) ListAllRentals(ctx context.Context) ([]*model.Rental, error) {
	return s.rentals.ListRentals(ctx)
}

func (s *RentalService) publish(eventType string, rental *model.Rental, at time.Time) {
	s.publisher.PublishAsync(events.RentalEvent{
		Type:       eventType,
		RentalID:   rental.ID,
		CarID:      rental.CarID,
		UserID:     rental.UserID,
		OccurredAt: at.UnixMilli(),
	})
}
