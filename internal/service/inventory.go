package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/carhire/carhire/internal/metrics"
	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/repository"
)

// CarStore persists the car inventory.
type CarStore interface {
	CreateCar(ctx context.Context, car *model.Car) error
	GetCarByID(ctx context.Context, id string) (*model.Car, error)
	ListCars(ctx context.Context, statuses ...model.CarStatus) ([]*model.Car, error)
	DeleteCar(ctx context.Context, id string, deletedAt time.Time) error
}

// InventoryService handles car inventory management.
type InventoryService struct {
	cars             CarStore
	placeholderImage string
	metrics          metrics.Recorder
	logger           *slog.Logger
	now              func() time.Time
}

// NewInventoryService creates a new InventoryService.
// An empty placeholderImage falls back to model.DefaultCarImage.
func NewInventoryService(cars CarStore, placeholderImage string, logger *slog.Logger, recorder metrics.Recorder) *InventoryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if placeholderImage == "" {
		placeholderImage = model.DefaultCarImage
	}
	return &InventoryService{
		cars:             cars,
		placeholderImage: placeholderImage,
		metrics:          recorder,
		logger:           logger.With("component", "service.inventory"),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// ListCars returns every car in the inventory regardless of status.
func (s *InventoryService) ListCars(ctx context.Context) ([]*model.Car, error) {
	return s.cars.ListCars(ctx)
}

// ListAvailableCars returns the cars that can be rented right now.
func (s *InventoryService) ListAvailableCars(ctx context.Context) ([]*model.Car, error) {
	return s.cars.ListCars(ctx, model.CarStatusAvailable)
}

// GetCar retrieves a car by ID.
func (s *InventoryService) GetCar(ctx context.Context, id string) (*model.Car, error) {
	car, err := s.cars.GetCarByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	return car, nil
}

// AddCarInput defines input for adding a car.
type AddCarInput struct {
	Name     string
	ImageURL string
}

// AddCar adds an available car to the inventory.
func (s *InventoryService) AddCar(ctx context.Context, input AddCarInput) (*model.Car, error) {
	name := strings.TrimSpace(input.Name)
	if err := model.ValidateCarName(name); err != nil {
		return nil, invalid(err)
	}

	image := strings.TrimSpace(input.ImageURL)
	if err := model.ValidateImageURL(image); err != nil {
		return nil, invalid(err)
	}
	if image == "" {
		image = s.placeholderImage
	}

	now := s.now()
	car := &model.Car{
		ID:        ulid.Make().String(),
		Name:      name,
		Status:    model.CarStatusAvailable,
		Image:     image,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.cars.CreateCar(ctx, car); err != nil {
		return nil, fmt.Errorf("failed to add car: %w", err)
	}

	s.metrics.IncCarAdded()
	s.logger.Info("car added", "car_id", car.ID, "name", car.Name)

	return car, nil
}

// DeleteCar removes a car from the inventory.
// A rented car cannot be deleted until its rental is returned.
func (s *InventoryService) DeleteCar(ctx context.Context, id string) error {
	if err := s.cars.DeleteCar(ctx, id, s.now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrCarNotFound):
			return ErrCarNotFound
		case errors.Is(err, repository.ErrCarHasActiveRental):
			return ErrCarHasActiveRental
		default:
			return fmt.Errorf("failed to delete car: %w", err)
		}
	}

	s.metrics.IncCarDeleted()
	s.logger.Info("car deleted", "car_id", id)

	return nil
}
