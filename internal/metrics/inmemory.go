package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups             uint64
	LoginsFailed        uint64
	RateLimited         uint64
	CarsAdded           uint64
	CarsDeleted         uint64
	CarsRented          uint64
	CarsReturned        uint64
	RentConflicts       uint64
	RentDurationCount   uint64
	RentDurationTotalNs int64
	EventsPublished     uint64
	EventsDropped       uint64
}

// InMemoryRecorder stores metrics in memory.
// It backs the admin metrics page and tests.
type InMemoryRecorder struct {
	signups             uint64
	loginsFailed        uint64
	rateLimited         uint64
	carsAdded           uint64
	carsDeleted         uint64
	carsRented          uint64
	carsReturned        uint64
	rentConflicts       uint64
	rentDurationCount   uint64
	rentDurationTotalNs int64
	eventsPublished     uint64
	eventsDropped       uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Signups:             atomic.LoadUint64(&m.signups),
		LoginsFailed:        atomic.LoadUint64(&m.loginsFailed),
		RateLimited:         atomic.LoadUint64(&m.rateLimited),
		CarsAdded:           atomic.LoadUint64(&m.carsAdded),
		CarsDeleted:         atomic.LoadUint64(&m.carsDeleted),
		CarsRented:          atomic.LoadUint64(&m.carsRented),
		CarsReturned:        atomic.LoadUint64(&m.carsReturned),
		RentConflicts:       atomic.LoadUint64(&m.rentConflicts),
		RentDurationCount:   atomic.LoadUint64(&m.rentDurationCount),
		RentDurationTotalNs: atomic.LoadInt64(&m.rentDurationTotalNs),
		EventsPublished:     atomic.LoadUint64(&m.eventsPublished),
		EventsDropped:       atomic.LoadUint64(&m.eventsDropped),
	}
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	atomic.AddUint64(&m.signups, 1)
}

// IncLoginFailed increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailed() {
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncRateLimited increments the rate limited request counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncCarAdded increments the car added counter.
func (m *InMemoryRecorder) IncCarAdded() {
	atomic.AddUint64(&m.carsAdded, 1)
}

// IncCarDeleted increments the car deleted counter.
func (m *InMemoryRecorder) IncCarDeleted() {
	atomic.AddUint64(&m.carsDeleted, 1)
}

// IncCarRented increments the rented counter.
func (m *InMemoryRecorder) IncCarRented() {
	atomic.AddUint64(&m.carsRented, 1)
}

// IncCarReturned increments the returned counter.
func (m *InMemoryRecorder) IncCarReturned() {
	atomic.AddUint64(&m.carsReturned, 1)
}

// IncRentConflict increments the lost-race/unavailable counter.
func (m *InMemoryRecorder) IncRentConflict() {
	atomic.AddUint64(&m.rentConflicts, 1)
}

// ObserveRentDuration records how long a rent transaction took.
func (m *InMemoryRecorder) ObserveRentDuration(duration time.Duration) {
	atomic.AddUint64(&m.rentDurationCount, 1)
	atomic.AddInt64(&m.rentDurationTotalNs, duration.Nanoseconds())
}

// IncEventPublished counts an event publish outcome.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == "success" {
		atomic.AddUint64(&m.eventsPublished, 1)
		return
	}
	atomic.AddUint64(&m.eventsDropped, 1)
}
