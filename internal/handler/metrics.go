package handler

import (
	"fmt"
	"net/http"

	"github.com/carhire/carhire/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns counters in Prometheus text exposition format.
// GET /admin/metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "carhire_signups_total %d\n", snap.Signups)
	writeMetric(w, "carhire_logins_failed_total %d\n", snap.LoginsFailed)
	writeMetric(w, "carhire_login_rate_limited_total %d\n", snap.RateLimited)

	writeMetric(w, "carhire_cars_added_total %d\n", snap.CarsAdded)
	writeMetric(w, "carhire_cars_deleted_total %d\n", snap.CarsDeleted)

	writeMetric(w, "carhire_cars_rented_total %d\n", snap.CarsRented)
	writeMetric(w, "carhire_cars_returned_total %d\n", snap.CarsReturned)
	writeMetric(w, "carhire_rent_conflicts_total %d\n", snap.RentConflicts)
	writeMetric(w, "carhire_rent_duration_seconds_count %d\n", snap.RentDurationCount)
	writeMetric(w, "carhire_rent_duration_seconds_sum %.6f\n", float64(snap.RentDurationTotalNs)/1e9)

	writeMetric(w, "carhire_rental_events_published_total{status=\"success\"} %d\n", snap.EventsPublished)
	writeMetric(w, "carhire_rental_events_published_total{status=\"dropped\"} %d\n", snap.EventsDropped)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
