package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carhire/carhire/internal/events"
	"github.com/carhire/carhire/internal/model"
)

func TestRentCar_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	f.rentals.now = fixedClock(now)

	user := f.addUser(t, "alice")
	car := f.addCar(t, "Car 1")

	rental, err := f.rentals.RentCar(ctx, user.ID, car.ID)
	if err != nil {
		t.Fatalf("RentCar() error = %v", err)
	}

	if rental.Status != model.RentalStatusOngoing || rental.EndDate != nil {
		t.Errorf("rental = %+v, want ongoing without end date", rental)
	}
	if !rental.StartDate.Equal(now) {
		t.Errorf("StartDate = %v, want %v", rental.StartDate, now)
	}
	if got := f.carStatus(t, car.ID); got != model.CarStatusRented {
		t.Errorf("car status = %q, want rented", got)
	}
	f.assertConsistent(t)

	evs := f.publisher.Events()
	if len(evs) != 1 || evs[0].Type != events.TypeRentalStarted || evs[0].RentalID != rental.ID {
		t.Fatalf("events = %+v, want one rental.started", evs)
	}
	if evs[0].OccurredAt != now.UnixMilli() {
		t.Errorf("OccurredAt = %d, want %d", evs[0].OccurredAt, now.UnixMilli())
	}
	if f.metrics.Snapshot().CarsRented != 1 {
		t.Error("expected rent to be counted")
	}
}

func TestRentCar_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "alice")

	if _, err := f.rentals.RentCar(ctx, user.ID, "missing"); !errors.Is(err, ErrCarNotFound) {
		t.Errorf("RentCar(missing) error = %v, want ErrCarNotFound", err)
	}

	car := f.addCar(t, "Car")
	if _, err := f.rentals.RentCar(ctx, "", car.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("RentCar(no user) error = %v, want ErrUnauthorized", err)
	}

	deleted := f.addCar(t, "Gone")
	if err := f.inventory.DeleteCar(ctx, deleted.ID); err != nil {
		t.Fatalf("DeleteCar() error = %v", err)
	}
	if _, err := f.rentals.RentCar(ctx, user.ID, deleted.ID); !errors.Is(err, ErrCarNotFound) {
		t.Errorf("RentCar(deleted) error = %v, want ErrCarNotFound", err)
	}
}

func TestRentCar_AlreadyRentedChangesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	car := f.addCar(t, "Car 1")

	if _, err := f.rentals.RentCar(ctx, alice.ID, car.ID); err != nil {
		t.Fatalf("RentCar() error = %v", err)
	}

	for _, userID := range []string{bob.ID, alice.ID} {
		_, err := f.rentals.RentCar(ctx, userID, car.ID)
		if !errors.Is(err, ErrCarUnavailable) || !errors.Is(err, ErrConflict) {
			t.Fatalf("RentCar() on rented car error = %v, want ErrCarUnavailable", err)
		}
	}

	if n := f.store.RentalCount(car.ID); n != 1 {
		t.Errorf("rentals for car = %d, want 1", n)
	}
	if got := f.carStatus(t, car.ID); got != model.CarStatusRented {
		t.Errorf("car status = %q, want rented", got)
	}
	if got := f.metrics.Snapshot().RentConflicts; got != 2 {
		t.Errorf("RentConflicts = %d, want 2", got)
	}
	f.assertConsistent(t)
}

func TestRentCar_ConcurrentExactlyOneWins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	car := f.addCar(t, "Hot Car")

	const workers = 32
	users := make([]*model.User, workers)
	for i := range users {
		users[i] = f.addUser(t, "racer"+string(rune('a'+i%26))+string(rune('a'+i/26)))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		start     = make(chan struct{})
	)

	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			<-start
			_, err := f.rentals.RentCar(ctx, userID, car.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrCarUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u.ID)
	}
	close(start)
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if conflicts != workers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, workers-1)
	}
	if n := f.store.RentalCount(car.ID); n != 1 {
		t.Errorf("rentals for car = %d, want 1", n)
	}
	f.assertConsistent(t)
}

func TestReturnCar_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	user := f.addUser(t, "alice")
	car := f.addCar(t, "Car 1")

	f.rentals.now = fixedClock(start)
	rental, err := f.rentals.RentCar(ctx, user.ID, car.ID)
	if err != nil {
		t.Fatalf("RentCar() error = %v", err)
	}

	f.rentals.now = fixedClock(end)
	returned, err := f.rentals.ReturnCar(ctx, user.ID, rental.ID)
	if err != nil {
		t.Fatalf("ReturnCar() error = %v", err)
	}

	if returned.Status != model.RentalStatusReturned {
		t.Errorf("Status = %q, want returned", returned.Status)
	}
	if returned.EndDate == nil || !returned.EndDate.Equal(end) {
		t.Errorf("EndDate = %v, want %v", returned.EndDate, end)
	}
	if returned.CarName != "Car 1" {
		t.Errorf("CarName = %q, want display name kept", returned.CarName)
	}
	if d := returned.Duration(time.Time{}); d != 3*time.Hour {
		t.Errorf("Duration = %v, want 3h", d)
	}
	if got := f.carStatus(t, car.ID); got != model.CarStatusAvailable {
		t.Errorf("car status = %q, want available", got)
	}
	f.assertConsistent(t)

	evs := f.publisher.Events()
	if len(evs) != 2 || evs[1].Type != events.TypeRentalReturned {
		t.Errorf("events = %+v, want started then returned", evs)
	}
}

func TestReturnCar_ForbiddenForOtherUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner")
	intruder := f.addUser(t, "intruder")
	admin := f.addUser(t, "admin")
	car := f.addCar(t, "Car")

	rental, err := f.rentals.RentCar(ctx, owner.ID, car.ID)
	if err != nil {
		t.Fatalf("RentCar() error = %v", err)
	}

	for _, userID := range []string{intruder.ID, admin.ID, ""} {
		_, err := f.rentals.ReturnCar(ctx, userID, rental.ID)
		if !errors.Is(err, ErrNotRentalOwner) || !errors.Is(err, ErrForbidden) {
			t.Errorf("ReturnCar(%q) error = %v, want ErrForbidden", userID, err)
		}
	}

	stored, _ := f.store.GetRentalByID(ctx, rental.ID)
	if stored.Status != model.RentalStatusOngoing || stored.EndDate != nil {
		t.Errorf("rental modified: %+v", stored)
	}
	if got := f.carStatus(t, car.ID); got != model.CarStatusRented {
		t.Errorf("car status = %q, want rented", got)
	}
	f.assertConsistent(t)
}

func TestReturnCar_DoubleReturnIsConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "alice")
	car := f.addCar(t, "Car")

	rental, _ := f.rentals.RentCar(ctx, user.ID, car.ID)
	first, err := f.rentals.ReturnCar(ctx, user.ID, rental.ID)
	if err != nil {
		t.Fatalf("ReturnCar() error = %v", err)
	}

	// Someone else rents the car before the stale second return.
	other := f.addUser(t, "bob")
	if _, err := f.rentals.RentCar(ctx, other.ID, car.ID); err != nil {
		t.Fatalf("RentCar() error = %v", err)
	}

	_, err = f.rentals.ReturnCar(ctx, user.ID, rental.ID)
	if !errors.Is(err, ErrRentalAlreadyReturned) || !errors.Is(err, ErrConflict) {
		t.Fatalf("second ReturnCar() error = %v, want ErrRentalAlreadyReturned", err)
	}

	stored, _ := f.store.GetRentalByID(ctx, rental.ID)
	if !stored.EndDate.Equal(*first.EndDate) {
		t.Errorf("end date changed on double return")
	}
	if got := f.carStatus(t, car.ID); got != model.CarStatusRented {
		t.Errorf("double return freed bob's car: status %q", got)
	}
	f.assertConsistent(t)
}

func TestReturnCar_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.addUser(t, "alice")

	_, err := f.rentals.ReturnCar(context.Background(), user.ID, "missing")
	if !errors.Is(err, ErrRentalNotFound) || !errors.Is(err, ErrNotFound) {
		t.Errorf("ReturnCar() error = %v, want ErrRentalNotFound", err)
	}
}

func TestRentalScenario_HandOver(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	a := f.addUser(t, "user_a")
	b := f.addUser(t, "user_b")
	car := f.addCar(t, "Car 1")

	r, err := f.rentals.RentCar(ctx, a.ID, car.ID)
	if err != nil {
		t.Fatalf("A rent error = %v", err)
	}
	if got := f.carStatus(t, car.ID); got != model.CarStatusRented {
		t.Fatalf("car status = %q, want rented", got)
	}

	if _, err := f.rentals.RentCar(ctx, b.ID, car.ID); !errors.Is(err, ErrCarUnavailable) {
		t.Fatalf("B rent error = %v, want ErrCarUnavailable", err)
	}
	if n := f.store.RentalCount(car.ID); n != 1 {
		t.Fatalf("rentals = %d, want 1", n)
	}

	if _, err := f.rentals.ReturnCar(ctx, a.ID, r.ID); err != nil {
		t.Fatalf("A return error = %v", err)
	}
	if got := f.carStatus(t, car.ID); got != model.CarStatusAvailable {
		t.Fatalf("car status = %q, want available", got)
	}

	if _, err := f.rentals.RentCar(ctx, b.ID, car.ID); err != nil {
		t.Fatalf("B second rent error = %v", err)
	}
	f.assertConsistent(t)

	all, _ := f.rentals.ListAllRentals(ctx)
	if len(all) != 2 {
		t.Fatalf("ListAllRentals() = %d rentals, want 2", len(all))
	}
	ongoing, _ := f.rentals.ListOngoingUserRentals(ctx, b.ID)
	if len(ongoing) != 1 || ongoing[0].Username != "user_b" || ongoing[0].CarName != "Car 1" {
		t.Errorf("B ongoing = %+v", ongoing)
	}
	history, _ := f.rentals.ListUserRentals(ctx, a.ID)
	if len(history) != 1 || history[0].Status != model.RentalStatusReturned {
		t.Errorf("A history = %+v", history)
	}
}
