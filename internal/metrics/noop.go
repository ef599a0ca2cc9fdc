package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup() {}

// IncLoginFailed is a no-op.
func (n *NoopRecorder) IncLoginFailed() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}

// IncCarAdded is a no-op.
func (n *NoopRecorder) IncCarAdded() {}

// IncCarDeleted is a no-op.
func (n *NoopRecorder) IncCarDeleted() {}

// IncCarRented is a no-op.
func (n *NoopRecorder) IncCarRented() {}

// IncCarReturned is a no-op.
func (n *NoopRecorder) IncCarReturned() {}

// IncRentConflict is a no-op.
func (n *NoopRecorder) IncRentConflict() {}

// ObserveRentDuration is a no-op.
func (n *NoopRecorder) ObserveRentDuration(duration time.Duration) {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}
