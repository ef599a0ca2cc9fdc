package dto

import (
	"fmt"
	"time"

	"github.com/carhire/carhire/internal/model"
)

const timeLayout = "2006-01-02 15:04"

// CarView is a car as shown in listings.
type CarView struct {
	ID        string
	Name      string
	Image     string
	Status    string
	Available bool
	CreatedAt string
}

// RentalView is a rental as shown in listings.
type RentalView struct {
	ID        string
	CarID     string
	CarName   string
	Username  string
	Status    string
	Ongoing   bool
	StartDate string
	EndDate   string
	Duration  string
}

// ToCarView converts a Car model to its view.
func ToCarView(car *model.Car) CarView {
	return CarView{
		ID:        car.ID,
		Name:      car.Name,
		Image:     car.Image,
		Status:    string(car.Status),
		Available: car.IsAvailable(),
		CreatedAt: car.CreatedAt.UTC().Format(timeLayout),
	}
}

// ToCarViews converts a list of cars.
func ToCarViews(cars []*model.Car) []CarView {
	views := make([]CarView, 0, len(cars))
	for _, car := range cars {
		views = append(views, ToCarView(car))
	}
	return views
}

// ToRentalView converts a Rental model to its view.
// now is used for the running duration of ongoing rentals.
func ToRentalView(rental *model.Rental, now time.Time) RentalView {
	view := RentalView{
		ID:        rental.ID,
		CarID:     rental.CarID,
		CarName:   rental.CarName,
		Username:  rental.Username,
		Status:    string(rental.Status),
		Ongoing:   rental.IsOngoing(),
		StartDate: rental.StartDate.UTC().Format(timeLayout),
		EndDate:   "-",
		Duration:  FormatDuration(rental.Duration(now)),
	}
	if rental.EndDate != nil {
		view.EndDate = rental.EndDate.UTC().Format(timeLayout)
	}
	if view.CarName == "" {
		view.CarName = rental.CarID
	}
	return view
}

// ToRentalViews converts a list of rentals.
func ToRentalViews(rentals []*model.Rental, now time.Time) []RentalView {
	views := make([]RentalView, 0, len(rentals))
	for _, rental := range rentals {
		views = append(views, ToRentalView(rental, now))
	}
	return views
}

// FormatDuration renders d as "2d 3h", "3h 12m" or "12m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Minute)
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
