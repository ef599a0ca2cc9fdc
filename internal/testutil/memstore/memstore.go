// Package memstore is an in-memory stand-in for the Postgres repository and
// the Redis session store. It mirrors their conditional-update semantics and
// sentinel errors so services and handlers can be tested without either.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/repository"
)

// Store holds users, cars, rentals and sessions behind a single mutex.
type Store struct {
	mu       sync.Mutex
	users    map[string]*model.User
	cars     map[string]*model.Car
	rentals  map[string]*model.Rental
	sessions map[string]*model.Session
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[string]*model.User),
		cars:     make(map[string]*model.Car),
		rentals:  make(map[string]*model.Rental),
		sessions: make(map[string]*model.Session),
	}
}

// ----------------------------------------------------------------------------
// Users
// ----------------------------------------------------------------------------

// CreateUser stores a user. Usernames are unique.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	u := *user
	s.users[u.ID] = &u
	return nil
}

// GetUserByID returns a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByUsername returns a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// UpdateUserPasswordHash replaces a user's password hash.
func (s *Store) UpdateUserPasswordHash(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// SetUserRole changes a user's role.
func (s *Store) SetUserRole(ctx context.Context, id, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = role
	return nil
}

// ----------------------------------------------------------------------------
// Cars
// ----------------------------------------------------------------------------

// CreateCar stores a car.
func (s *Store) CreateCar(ctx context.Context, car *model.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *car
	s.cars[c.ID] = &c
	return nil
}

// GetCarByID returns a car that has not been deleted.
func (s *Store) GetCarByID(ctx context.Context, id string) (*model.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.liveCar(id)
	if !ok {
		return nil, repository.ErrCarNotFound
	}
	cp := *c
	return &cp, nil
}

// ListCars lists non-deleted cars, newest first, optionally filtered by status.
func (s *Store) ListCars(ctx context.Context, statuses ...model.CarStatus) ([]*model.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cars []*model.Car
	for _, c := range s.cars {
		if c.DeletedAt != nil || !matchStatus(c.Status, statuses) {
			continue
		}
		cp := *c
		cars = append(cars, &cp)
	}
	sort.Slice(cars, func(i, j int) bool {
		if !cars[i].CreatedAt.Equal(cars[j].CreatedAt) {
			return cars[i].CreatedAt.After(cars[j].CreatedAt)
		}
		return cars[i].ID > cars[j].ID
	})
	return cars, nil
}

// DeleteCar soft-deletes an available car.
func (s *Store) DeleteCar(ctx context.Context, id string, deletedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.liveCar(id)
	if !ok {
		return repository.ErrCarNotFound
	}
	if c.Status == model.CarStatusRented {
		return repository.ErrCarHasActiveRental
	}
	c.DeletedAt = &deletedAt
	c.UpdatedAt = deletedAt
	return nil
}

// ----------------------------------------------------------------------------
// Rentals
// ----------------------------------------------------------------------------

// RentCar flips an available car to rented and records the rental atomically.
func (s *Store) RentCar(ctx context.Context, rental *model.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.liveCar(rental.CarID)
	if !ok {
		return repository.ErrCarNotFound
	}
	if c.Status != model.CarStatusAvailable {
		return repository.ErrCarUnavailable
	}

	c.Status = model.CarStatusRented
	c.UpdatedAt = rental.StartDate

	rental.Status = model.RentalStatusOngoing
	rental.EndDate = nil
	r := *rental
	s.rentals[r.ID] = &r
	return nil
}

// CompleteRental returns an ongoing rental and frees its car atomically.
func (s *Store) CompleteRental(ctx context.Context, id string, endedAt time.Time) (*model.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rentals[id]
	if !ok {
		return nil, repository.ErrRentalNotFound
	}
	if r.Status != model.RentalStatusOngoing {
		return nil, repository.ErrRentalNotOngoing
	}

	end := endedAt
	r.Status = model.RentalStatusReturned
	r.EndDate = &end

	if c, ok := s.cars[r.CarID]; ok && c.Status == model.CarStatusRented {
		c.Status = model.CarStatusAvailable
		c.UpdatedAt = endedAt
	}

	cp := *r
	cp.CarName, cp.Username = "", ""
	return &cp, nil
}

// GetRentalByID returns a rental with its display fields filled.
func (s *Store) GetRentalByID(ctx context.Context, id string) (*model.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rentals[id]
	if !ok {
		return nil, repository.ErrRentalNotFound
	}
	return s.decorate(r), nil
}

// ListRentalsByUser lists a user's rentals, newest first.
func (s *Store) ListRentalsByUser(ctx context.Context, userID string) ([]*model.Rental, error) {
	return s.listRentals(func(r *model.Rental) bool { return r.UserID == userID }), nil
}

// ListRentals lists all rentals, newest first, optionally filtered by status.
func (s *Store) ListRentals(ctx context.Context, statuses ...model.RentalStatus) ([]*model.Rental, error) {
	return s.listRentals(func(r *model.Rental) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, st := range statuses {
			if r.Status == st {
				return true
			}
		}
		return false
	}), nil
}

// ----------------------------------------------------------------------------
// Sessions
// ----------------------------------------------------------------------------

// CreateSession stores a session. The ttl is enforced through ExpiresAt.
func (s *Store) CreateSession(ctx context.Context, token string, sess *model.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sess
	s.sessions[token] = &cp
	return nil
}

// GetSession returns the session for token, or nil if missing.
func (s *Store) GetSession(ctx context.Context, token string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ----------------------------------------------------------------------------
// Invariant helpers
// ----------------------------------------------------------------------------

// CheckCarInvariant reports car IDs whose status disagrees with the number of
// ongoing rentals referencing them. An empty result means the store is consistent.
func (s *Store) CheckCarInvariant() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ongoing := make(map[string]int)
	for _, r := range s.rentals {
		if r.Status == model.RentalStatusOngoing {
			ongoing[r.CarID]++
		}
	}

	var bad []string
	for id, c := range s.cars {
		n := ongoing[id]
		switch {
		case c.Status == model.CarStatusRented && n != 1:
			bad = append(bad, id)
		case c.Status == model.CarStatusAvailable && n != 0:
			bad = append(bad, id)
		}
	}
	sort.Strings(bad)
	return bad
}

// RentalCount returns the number of rentals referencing carID.
func (s *Store) RentalCount(carID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.rentals {
		if r.CarID == carID {
			n++
		}
	}
	return n
}

func (s *Store) liveCar(id string) (*model.Car, bool) {
	c, ok := s.cars[id]
	if !ok || c.DeletedAt != nil {
		return nil, false
	}
	return c, true
}

func (s *Store) decorate(r *model.Rental) *model.Rental {
	cp := *r
	if c, ok := s.cars[r.CarID]; ok {
		cp.CarName = c.Name
	}
	if u, ok := s.users[r.UserID]; ok {
		cp.Username = u.Username
	}
	return &cp
}

func (s *Store) listRentals(keep func(*model.Rental) bool) []*model.Rental {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rentals []*model.Rental
	for _, r := range s.rentals {
		if keep(r) {
			rentals = append(rentals, s.decorate(r))
		}
	}
	sort.Slice(rentals, func(i, j int) bool {
		if !rentals[i].StartDate.Equal(rentals[j].StartDate) {
			return rentals[i].StartDate.After(rentals[j].StartDate)
		}
		return rentals[i].ID > rentals[j].ID
	})
	return rentals
}

func matchStatus(status model.CarStatus, statuses []model.CarStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if status == st {
			return true
		}
	}
	return false
}
