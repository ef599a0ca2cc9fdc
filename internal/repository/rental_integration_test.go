//go:build integration

package repository

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/testutil"
)

func TestIntegrationRentalRepository_RentAndReturn(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	user := mustCreateUser(t, ctx, repo, "driver")
	car := mustCreateCar(t, ctx, repo, "Golf")

	rental := mustRent(t, ctx, repo, user.ID, car.ID)

	rented, err := repo.GetCarByID(ctx, car.ID)
	if err != nil {
		t.Fatalf("GetCarByID failed: %v", err)
	}
	if rented.Status != model.CarStatusRented {
		t.Errorf("car status = %s, want rented", rented.Status)
	}

	got, err := repo.GetRentalByID(ctx, rental.ID)
	if err != nil {
		t.Fatalf("GetRentalByID failed: %v", err)
	}
	if got.CarName != "Golf" || got.Username != "driver" || !got.IsOngoing() {
		t.Errorf("unexpected rental: %+v", got)
	}

	ended := time.Now().UTC().Truncate(time.Microsecond)
	completed, err := repo.CompleteRental(ctx, rental.ID, ended)
	if err != nil {
		t.Fatalf("CompleteRental failed: %v", err)
	}
	if completed.Status != model.RentalStatusReturned || completed.EndDate == nil || !completed.EndDate.Equal(ended) {
		t.Errorf("unexpected completed rental: %+v", completed)
	}

	back, err := repo.GetCarByID(ctx, car.ID)
	if err != nil {
		t.Fatalf("GetCarByID failed: %v", err)
	}
	if back.Status != model.CarStatusAvailable {
		t.Errorf("car status after return = %s, want available", back.Status)
	}
}

func TestIntegrationRentalRepository_RentErrors(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	user := mustCreateUser(t, ctx, repo, "driver")
	car := mustCreateCar(t, ctx, repo, "Clio")
	mustRent(t, ctx, repo, user.ID, car.ID)

	second := testutil.NewTestRental(t, user.ID, car.ID)
	if err := repo.RentCar(ctx, second); !errors.Is(err, ErrCarUnavailable) {
		t.Errorf("expected ErrCarUnavailable, got %v", err)
	}

	missing := testutil.NewTestRental(t, user.ID, "no-such-car")
	if err := repo.RentCar(ctx, missing); !errors.Is(err, ErrCarNotFound) {
		t.Errorf("expected ErrCarNotFound, got %v", err)
	}

	if _, err := repo.GetRentalByID(ctx, second.ID); !errors.Is(err, ErrRentalNotFound) {
		t.Errorf("failed rent must not leave a rental behind, got %v", err)
	}
}

func TestIntegrationRentalRepository_CompleteTwice(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	user := mustCreateUser(t, ctx, repo, "driver")
	car := mustCreateCar(t, ctx, repo, "Fiesta")
	rental := mustRent(t, ctx, repo, user.ID, car.ID)

	if _, err := repo.CompleteRental(ctx, rental.ID, time.Now()); err != nil {
		t.Fatalf("CompleteRental failed: %v", err)
	}
	if _, err := repo.CompleteRental(ctx, rental.ID, time.Now()); !errors.Is(err, ErrRentalNotOngoing) {
		t.Errorf("expected ErrRentalNotOngoing, got %v", err)
	}
	if _, err := repo.CompleteRental(ctx, "missing", time.Now()); !errors.Is(err, ErrRentalNotFound) {
		t.Errorf("expected ErrRentalNotFound, got %v", err)
	}
}

func TestIntegrationRentalRepository_ConcurrentRent(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	car := mustCreateCar(t, ctx, repo, "Contested")

	const renters = 16
	users := make([]*model.User, renters)
	for i := range users {
		users[i] = mustCreateUser(t, ctx, repo, testutil.UniqueName("racer"))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)

	start := make(chan struct{})
	for _, user := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			<-start
			err := repo.RentCar(ctx, testutil.NewTestRental(t, userID, car.ID))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrCarUnavailable):
				conflicts++
			default:
				others = append(others, err)
			}
		}(user.ID)
	}
	close(start)
	wg.Wait()

	if len(others) > 0 {
		t.Fatalf("unexpected errors: %v", others)
	}
	if successes != 1 || conflicts != renters-1 {
		t.Fatalf("successes = %d, conflicts = %d; want 1 and %d", successes, conflicts, renters-1)
	}

	ongoing, err := repo.ListRentals(ctx, model.RentalStatusOngoing)
	if err != nil {
		t.Fatalf("ListRentals failed: %v", err)
	}
	if len(ongoing) != 1 {
		t.Errorf("expected exactly one ongoing rental, got %d", len(ongoing))
	}
}

func TestIntegrationRentalRepository_Listings(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	alice := mustCreateUser(t, ctx, repo, "alice")
	bob := mustCreateUser(t, ctx, repo, "bob")
	car1 := mustCreateCar(t, ctx, repo, "One")
	car2 := mustCreateCar(t, ctx, repo, "Two")

	first := testutil.NewTestRental(t, alice.ID, car1.ID)
	first.StartDate = first.StartDate.Add(-2 * time.Hour)
	if err := repo.RentCar(ctx, first); err != nil {
		t.Fatalf("RentCar failed: %v", err)
	}
	if _, err := repo.CompleteRental(ctx, first.ID, time.Now()); err != nil {
		t.Fatalf("CompleteRental failed: %v", err)
	}
	second := mustRent(t, ctx, repo, alice.ID, car2.ID)
	third := mustRent(t, ctx, repo, bob.ID, car1.ID)

	mine, err := repo.ListRentalsByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListRentalsByUser failed: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != second.ID || mine[1].ID != first.ID {
		t.Errorf("expected alice's rentals newest first, got %+v", mine)
	}

	all, err := repo.ListRentals(ctx)
	if err != nil {
		t.Fatalf("ListRentals failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 rentals, got %d", len(all))
	}

	returned, err := repo.ListRentals(ctx, model.RentalStatusReturned)
	if err != nil {
		t.Fatalf("ListRentals(returned) failed: %v", err)
	}
	if len(returned) != 1 || returned[0].ID != first.ID {
		t.Errorf("expected only the first rental as returned, got %+v", returned)
	}

	ongoing, err := repo.ListRentals(ctx, model.RentalStatusOngoing)
	if err != nil {
		t.Fatalf("ListRentals(ongoing) failed: %v", err)
	}
	ids := map[string]bool{}
	for _, r := range ongoing {
		ids[r.ID] = true
	}
	if len(ongoing) != 2 || !ids[second.ID] || !ids[third.ID] {
		t.Errorf("expected the second and third rentals ongoing, got %+v", ongoing)
	}
}
