// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncSignup()
	IncLoginFailed()
	IncRateLimited()

	// Inventory metrics
	IncCarAdded()
	IncCarDeleted()

	// Rental metrics
	IncCarRented()
	IncCarReturned()
	IncRentConflict()
	ObserveRentDuration(duration time.Duration)

	// Event stream metrics
	IncEventPublished(status string) // status: "success" or "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
