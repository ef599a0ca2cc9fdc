package model

import "time"

// RentalStatus is the lifecycle state of a rental.
// ongoing -> returned; returned is terminal.
type RentalStatus string

const (
	RentalStatusOngoing  RentalStatus = "ongoing"
	RentalStatusReturned RentalStatus = "returned"
)

// IsValid checks if the status is a known rental status.
func (s RentalStatus) IsValid() bool {
	return s == RentalStatusOngoing || s == RentalStatusReturned
}

// Rental records one rental of a car by a user.
type Rental struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	CarID     string       `json:"car_id"`
	StartDate time.Time    `json:"start_date"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	Status    RentalStatus `json:"status"`

	// Display fields filled by listing queries.
	CarName  string `json:"car_name,omitempty"`
	Username string `json:"username,omitempty"`
}

// IsOngoing returns true if the car has not been returned yet.
func (r *Rental) IsOngoing() bool {
	return r.Status == RentalStatusOngoing
}

// OwnedBy reports whether the rental belongs to userID.
func (r *Rental) OwnedBy(userID string) bool {
	return userID != "" && r.UserID == userID
}

// Duration returns how long the car has been (or was) out.
func (r *Rental) Duration(now time.Time) time.Duration {
	if r.EndDate != nil {
		return r.EndDate.Sub(r.StartDate)
	}
	return now.Sub(r.StartDate)
}
