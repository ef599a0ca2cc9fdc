package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/carhire/carhire/internal/events"
	"github.com/carhire/carhire/internal/metrics"
	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/testutil"
	"github.com/carhire/carhire/internal/testutil/memstore"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RentalEvent
}

func (p *recordingPublisher) PublishAsync(event events.RentalEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []events.RentalEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.RentalEvent(nil), p.events...)
}

type fixture struct {
	store     *memstore.Store
	metrics   *metrics.InMemoryRecorder
	publisher *recordingPublisher
	inventory *InventoryService
	rentals   *RentalService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	recorder := metrics.NewInMemory()
	publisher := &recordingPublisher{}
	logger := testutil.DiscardLogger()

	return &fixture{
		store:     store,
		metrics:   recorder,
		publisher: publisher,
		inventory: NewInventoryService(store, "", logger, recorder),
		rentals:   NewRentalService(store, publisher, logger, recorder),
	}
}

func (f *fixture) addUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t, username)
	if err := f.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func (f *fixture) addCar(t *testing.T, name string) *model.Car {
	t.Helper()
	car, err := f.inventory.AddCar(context.Background(), AddCarInput{Name: name})
	if err != nil {
		t.Fatalf("AddCar() error = %v", err)
	}
	return car
}

func (f *fixture) carStatus(t *testing.T, id string) model.CarStatus {
	t.Helper()
	car, err := f.store.GetCarByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetCarByID() error = %v", err)
	}
	return car.Status
}

func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()
	if bad := f.store.CheckCarInvariant(); len(bad) > 0 {
		t.Fatalf("car status disagrees with ongoing rentals for %v", bad)
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
